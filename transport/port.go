package transport

import (
	"math/rand/v2"
	"sync"

	"github.com/pkg/errors"
)

var ErrPortsExhausted = errors.New("no ephemeral port available")

// PortTable hands out local ports of in-memory transports.
type PortTable struct {
	mu    sync.Mutex
	inUse map[uint16]struct{}

	opts EphemeralPortOptions
}

type EphemeralPortOptions struct {
	Range  [2]uint16 // [start, end)
	Rand   func() uint16
	MaxTry uint
}

// DefaultEphemeralPortOptions uses the IANA dynamic port range.
// Reference: https://datatracker.ietf.org/doc/html/rfc6335#section-6
var DefaultEphemeralPortOptions = EphemeralPortOptions{
	Range:  [2]uint16{49152, 65535},
	Rand:   func() uint16 { return uint16(rand.N(1 << 16)) },
	MaxTry: 64,
}

func (o EphemeralPortOptions) validate() error {
	if o.Range[0] >= o.Range[1] {
		return errors.Errorf("end(%d) must be greater than start(%d)", o.Range[1], o.Range[0])
	}
	if o.Rand == nil {
		return errors.New("rand function must be provided")
	}
	return nil
}

func NewPortTable(opts EphemeralPortOptions) (*PortTable, error) {
	if err := opts.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid ephemeral port options")
	}

	return &PortTable{inUse: make(map[uint16]struct{}), opts: opts}, nil
}

// Occupy reserves port, or a random ephemeral port when port is 0.
// release frees the port again and may be called more than once.
func (p *PortTable) Occupy(port uint16) (result uint16, release func(), err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if port != 0 {
		if _, found := p.inUse[port]; found {
			return 0, nil, errors.Wrapf(ErrAddrAlreadyInUse, "port %d", port)
		}
		return port, p.occupyLocked(port), nil
	}

	for try := uint(0); try < p.opts.MaxTry; try++ {
		candidate := p.opts.Range[0] + p.opts.Rand()%(p.opts.Range[1]-p.opts.Range[0])
		if _, found := p.inUse[candidate]; !found {
			return candidate, p.occupyLocked(candidate), nil
		}
	}

	return 0, nil, ErrPortsExhausted
}

func (p *PortTable) occupyLocked(port uint16) (release func()) {
	p.inUse[port] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.inUse, port)
		})
	}
}

// InUse returns how many ports are reserved.
func (p *PortTable) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inUse)
}
