package compute

import (
	"fmt"
	"sort"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/device"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
)

// Policy is the pair accumulation strategy of a backend.
type Policy int

const (
	// Symmetric visits each unordered pair once and applies the force to
	// both bodies with opposite signs.
	Symmetric Policy = iota
	// Full visits every ordered pair; each body owns its accumulator.
	Full
)

func (p Policy) String() string {
	switch p {
	case Symmetric:
		return "symmetric"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Flops returns the floating-point operations per iteration for n bodies.
func (p Policy) Flops(n int) float64 {
	f := float64(n)
	if p == Symmetric {
		return 30 * f * (f - 1) / 2
	}
	return 20 * f * f
}

// Backend computes accelerations and integrates one iteration at a time.
// The engine calls Reset, Accumulate and Integrate in that order; each call
// returns only after its work is complete.
type Backend interface {
	Name() string
	Policy() Policy

	// Attach binds the backend to the body store and acceleration buffer it
	// will operate on. It must be called once before any other lifecycle
	// method.
	Attach(st *body.Store, acc *body.Accelerations, p dynamo.Params) error

	Reset() error
	Accumulate() error
	Integrate() error

	// Accelerations returns the host acceleration buffer, synchronized with
	// the last Accumulate.
	Accelerations() (*body.Accelerations, error)

	FlopsPerIteration(n int) float64
	Close() error
}

// Options tunes backend construction. Zero values select defaults.
type Options struct {
	Workers   int
	Chunk     int
	LaneWidth int
	Device    device.Config
}

const (
	NameOptim   = "cpu+optim"
	NamePar     = "cpu+par"
	NameSIMD    = "cpu+simd"
	NameSIMDPar = "cpu+simd+par"
	NameGPU     = "gpu"

	// DefaultName is the preferred CPU backend.
	DefaultName = NameSIMDPar
)

var registry = map[string]func(Options) Backend{
	NameOptim:   func(Options) Backend { return NewOptim() },
	NamePar:     func(o Options) Backend { return NewParallel(o) },
	NameSIMD:    func(o Options) Backend { return NewSIMD(o) },
	NameSIMDPar: func(o Options) Backend { return NewSIMDPar(o) },
	NameGPU:     func(o Options) Backend { return NewGPU(o) },
}

// New returns an unattached backend by name.
func New(name string, opts Options) (Backend, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, dynamo.InvalidArgument("unknown backend %q (available: %v)", name, Names())
	}
	return ctor(opts), nil
}

// Names lists the registered backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// host carries the state shared by the CPU backends.
type host struct {
	st    *body.Store
	acc   *body.Accelerations
	p     dynamo.Params
	soft2 float32
	integ *integrators.SemiImplicitEuler
}

func (h *host) attach(st *body.Store, acc *body.Accelerations, p dynamo.Params) error {
	if st == nil || acc == nil {
		return dynamo.InvalidArgument("nil body store or acceleration buffer")
	}
	if acc.Len() != st.Len() {
		return dynamo.InvalidArgument("acceleration buffer holds %d entries, store holds %d", acc.Len(), st.Len())
	}
	if err := p.Validate(); err != nil {
		return err
	}
	h.st, h.acc, h.p = st, acc, p
	h.soft2 = p.SoftSquared()
	h.integ = integrators.NewSemiImplicitEuler()
	return nil
}

func (h *host) Reset() error {
	h.acc.Reset()
	return nil
}

func (h *host) Integrate() error {
	h.integ.Step(h.st, h.acc, h.p.Dt)
	return nil
}

func (h *host) Accelerations() (*body.Accelerations, error) {
	return h.acc, nil
}

func (h *host) Close() error { return nil }

func resolveWorkers(w int) int {
	if w <= 0 {
		return dynamo.DefaultWorkers()
	}
	return w
}

// resolveChunk picks a chunk size giving each worker several chunks to
// steal, unless the caller fixed one.
func resolveChunk(chunk, n, workers, perWorker int) int {
	if chunk > 0 {
		return chunk
	}
	return max(1, n/(workers*perWorker))
}
