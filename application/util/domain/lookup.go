// Package domain resolves host names to IP addresses.
package domain

import (
	"context"
	"maps"
	"net"
	"net/netip"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

var ErrDomainNotFound = errors.New("domain not found")

type Lookuper interface {
	// LookupIP returns the addresses of domain, in preference order.
	LookupIP(ctx context.Context, domain string) (addrs []netip.Addr, err error)
}

type mapLookuper struct {
	set map[string][]netip.Addr
}

var _ Lookuper = (*mapLookuper)(nil)

// NewMapLookuper resolves from a fixed table. Names are case-insensitive.
func NewMapLookuper(set map[string][]netip.Addr) *mapLookuper {
	m := &mapLookuper{set: make(map[string][]netip.Addr, len(set))}
	for domain, addrs := range set {
		m.Set(domain, addrs)
	}
	return m
}

func (m *mapLookuper) LookupIP(ctx context.Context, domain string) (addrs []netip.Addr, err error) {
	addrs, ok := m.set[strings.ToLower(domain)]
	if !ok {
		return nil, errors.Wrapf(ErrDomainNotFound, "looking up %q", domain)
	}
	return slices.Clone(addrs), nil
}

func (m *mapLookuper) Set(domain string, addrs []netip.Addr) {
	if len(addrs) == 0 {
		return
	}
	m.set[strings.ToLower(domain)] = slices.Clone(addrs)
}

func (m *mapLookuper) Del(domain string) { delete(m.set, strings.ToLower(domain)) }

// Domains returns the known names, sorted.
func (m *mapLookuper) Domains() []string {
	return slices.Sorted(maps.Keys(m.set))
}

type systemLookuper struct {
	resolver *net.Resolver
}

var _ Lookuper = (*systemLookuper)(nil)

// NewSystemLookuper resolves through r, or the default resolver when r is nil.
func NewSystemLookuper(r *net.Resolver) *systemLookuper {
	if r == nil {
		r = net.DefaultResolver
	}
	return &systemLookuper{resolver: r}
}

func (s *systemLookuper) LookupIP(ctx context.Context, domain string) ([]netip.Addr, error) {
	addrs, err := s.resolver.LookupNetIP(ctx, "ip", domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, errors.Wrapf(ErrDomainNotFound, "looking up %q", domain)
		}
		return nil, errors.Wrapf(err, "looking up %q", domain)
	}
	if len(addrs) == 0 {
		return nil, errors.Wrapf(ErrDomainNotFound, "looking up %q", domain)
	}

	out := make([]netip.Addr, len(addrs))
	for i, addr := range addrs {
		out[i] = addr.Unmap()
	}
	return out, nil
}
