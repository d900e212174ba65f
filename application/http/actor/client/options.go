package client

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"slices"
	"strings"
	"time"

	"http-client/application/http"
	"http-client/application/util/rule"
	"http-client/lib/fault"
)

const DefaultUserAgent = "Go Raw HTTP/1.1 Client"

// Options configure a [Client]. They are copied at construction and never
// modified afterwards. Start from [DefaultOptions] and override fields; a
// zero Options passed to [New] stands for [DefaultOptions].
type Options struct {
	// FollowLocation follows 3xx responses carrying a Location header.
	FollowLocation bool
	// MaxRedirects is the redirect budget of one SendRequest call.
	MaxRedirects uint
	// WaitResponse false returns the prototype response right after the
	// request is written.
	WaitResponse bool
	// RequestFullURI writes the absolute URI as request-target, as proxies expect.
	RequestFullURI bool

	UserAgent string

	Transport TransportOptions
	TLS       TLSOptions

	Encode http.EncodeOptions
	Decode http.DecodeOptions
}

type TransportOptions struct {
	ConnectTimeout time.Duration
	// Proxy is dialed instead of the request's host, e.g. "tcp://proxy:3128".
	// A "socks5://" proxy tunnels the connection to the request's host instead.
	Proxy string
	// SSLProtocol names the TLS-class transport for https.
	// Empty selects the last TLS-class name the dialer supports.
	SSLProtocol string
	// HeadReadTimeout bounds reading the response head. 0 disables it.
	HeadReadTimeout time.Duration
}

// TLSOptions are keyed by snake_case or CamelCase names:
//
//	verify_peer       bool      verify the certificate chain (default true)
//	verify_peer_name  bool      verify the host name (default true)
//	allow_self_signed bool      accept self-signed certificates
//	peer_name         string    name to verify instead of the host
//	cafile            string    PEM file of trusted roots
//	local_cert        string    PEM client certificate
//	local_pk          string    PEM client key (defaults to local_cert)
//	min_version       string    "1.0", "1.1", "1.2" or "1.3"
//	max_version       string    same as min_version
//	alpn_protocols    []string  or a comma separated string
type TLSOptions map[string]any

func DefaultOptions() Options {
	return Options{
		FollowLocation: true,
		MaxRedirects:   5,
		WaitResponse:   true,
		RequestFullURI: false,
		UserAgent:      DefaultUserAgent,
		Transport: TransportOptions{
			ConnectTimeout: 30 * time.Second,
		},
		Encode: http.DefaultEncodeOptions,
		Decode: http.DefaultDecodeOptions,
	}
}

var tlsVersionNames = map[string]uint16{
	"1.0": tls.VersionTLS10,
	"1.1": tls.VersionTLS11,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// Config builds the TLS configuration. nil is returned for empty options.
func (o TLSOptions) Config() (*tls.Config, error) {
	if len(o) == 0 {
		return nil, nil
	}

	normalized := make(map[string]any, len(o))
	for key, value := range o {
		normalized[rule.CamelToSnake(key)] = value
	}

	cfg := &tls.Config{}
	verifyPeer, verifyPeerName, allowSelfSigned := true, true, false
	var localCert, localPK string

	keys := make([]string, 0, len(normalized))
	for key := range normalized {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := normalized[key]
		var err error
		switch key {
		case "verify_peer":
			verifyPeer, err = asBool(key, value)
		case "verify_peer_name":
			verifyPeerName, err = asBool(key, value)
		case "allow_self_signed":
			allowSelfSigned, err = asBool(key, value)
		case "peer_name":
			cfg.ServerName, err = asString(key, value)
		case "cafile":
			var path string
			if path, err = asString(key, value); err == nil {
				cfg.RootCAs, err = loadRoots(path)
			}
		case "local_cert":
			localCert, err = asString(key, value)
		case "local_pk":
			localPK, err = asString(key, value)
		case "min_version":
			cfg.MinVersion, err = asVersion(key, value)
		case "max_version":
			cfg.MaxVersion, err = asVersion(key, value)
		case "alpn_protocols":
			cfg.NextProtos, err = asStrings(key, value)
		default:
			err = fault.InvalidArgument("unknown tls option %q", key)
		}
		if err != nil {
			return nil, err
		}
	}

	if localCert != "" {
		if localPK == "" {
			localPK = localCert
		}
		cert, err := tls.LoadX509KeyPair(localCert, localPK)
		if err != nil {
			return nil, fault.InvalidArgument("loading local certificate: %s", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	switch {
	case !verifyPeer:
		cfg.InsecureSkipVerify = true
	case allowSelfSigned || !verifyPeerName:
		// The chain is verified by hand below.
		cfg.InsecureSkipVerify = true
		cfg.VerifyConnection = verifyChain(cfg.RootCAs, allowSelfSigned, verifyPeerName)
	}

	return cfg, nil
}

func verifyChain(roots *x509.CertPool, allowSelfSigned, verifyName bool) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return fault.Runtime("peer presented no certificate")
		}
		leaf := cs.PeerCertificates[0]

		if allowSelfSigned && len(cs.PeerCertificates) == 1 && leaf.CheckSignatureFrom(leaf) == nil {
			if verifyName {
				return leaf.VerifyHostname(cs.ServerName)
			}
			return nil
		}

		opts := x509.VerifyOptions{Roots: roots, Intermediates: x509.NewCertPool()}
		for _, cert := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(cert)
		}
		if verifyName {
			opts.DNSName = cs.ServerName
		}
		_, err := leaf.Verify(opts)
		return err
	}
}

func loadRoots(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.InvalidArgument("reading cafile: %s", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fault.InvalidArgument("no certificate found in cafile %q", path)
	}
	return pool, nil
}

func asBool(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fault.InvalidArgument("tls option %q must be a bool, got %T", key, v)
	}
	return b, nil
}

func asString(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fault.InvalidArgument("tls option %q must be a string, got %T", key, v)
	}
	return s, nil
}

func asStrings(key string, v any) ([]string, error) {
	switch v := v.(type) {
	case []string:
		return slices.Clone(v), nil
	case string:
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
	return nil, fault.InvalidArgument("tls option %q must be a string list, got %T", key, v)
}

func asVersion(key string, v any) (uint16, error) {
	s, err := asString(key, v)
	if err != nil {
		return 0, err
	}
	s = strings.TrimPrefix(strings.ToLower(s), "tlsv")
	version, ok := tlsVersionNames[s]
	if !ok {
		return 0, fault.InvalidArgument("tls option %q has unknown version %q", key, v)
	}
	return version, nil
}
