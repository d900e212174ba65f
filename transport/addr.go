package transport

import (
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Addr is a connection target, written as "<transport>://<host>:<port>".
type Addr struct {
	Transport string
	Host      string
	Port      uint16

	// Via is the proxy the connection is tunneled through, if any.
	Via *Addr
}

func (a Addr) String() string {
	return a.Transport + "://" + a.HostPort()
}

// HostPort returns "host:port", bracketing IPv6 hosts.
func (a Addr) HostPort() string {
	return net.JoinHostPort(strings.Trim(a.Host, "[]"), strconv.FormatUint(uint64(a.Port), 10))
}

// ParseAddr parses "<transport>://<host>:<port>".
// Without "://", the transport defaults to "tcp".
func ParseAddr(s string) (Addr, error) {
	transport, hostPort, found := strings.Cut(s, "://")
	if !found {
		transport, hostPort = "tcp", s
	}
	if transport == "" {
		return Addr{}, errors.Errorf("empty transport in address %q", s)
	}

	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return Addr{}, errors.Wrapf(err, "splitting host and port of %q", s)
	}
	if host == "" {
		return Addr{}, errors.Errorf("empty host in address %q", s)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Addr{}, errors.Wrapf(err, "parsing port of %q", s)
	}

	return Addr{Transport: strings.ToLower(transport), Host: host, Port: uint16(port)}, nil
}
