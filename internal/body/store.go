package body

import "github.com/san-kum/gravsim/internal/dynamo"

// Body is one row of the array-of-structures view.
type Body struct {
	M          float32
	QX, QY, QZ float32
	VX, VY, VZ float32
}

// SoA is the structure-of-arrays view. Every slice has Store.Len() entries;
// entries past N() are padding bodies with zero mass.
type SoA struct {
	M          []float32
	QX, QY, QZ []float32
	VX, VY, VZ []float32
}

// Store owns the state of n bodies plus padding. The SoA slices are the
// canonical state; the AoS view is rebuilt from them on demand, and any
// write through Mutable invalidates it.
type Store struct {
	n       int
	padding int
	soa     SoA

	aos      []Body
	aosValid bool
}

// New allocates a store for n bodies and padding zero-mass filler bodies.
func New(n, padding int) (*Store, error) {
	if n <= 0 {
		return nil, dynamo.InvalidArgument("body count must be positive, got %d", n)
	}
	if padding < 0 {
		return nil, dynamo.InvalidArgument("padding must be non-negative, got %d", padding)
	}

	size := n + padding
	return &Store{
		n:       n,
		padding: padding,
		soa: SoA{
			M:  make([]float32, size),
			QX: make([]float32, size),
			QY: make([]float32, size),
			QZ: make([]float32, size),
			VX: make([]float32, size),
			VY: make([]float32, size),
			VZ: make([]float32, size),
		},
	}, nil
}

// PaddingFor returns the smallest padding making n+padding a multiple of lane.
func PaddingFor(n, lane int) int {
	if lane <= 1 {
		return 0
	}
	return (lane - n%lane) % lane
}

func (s *Store) N() int       { return s.n }
func (s *Store) Padding() int { return s.padding }
func (s *Store) Len() int     { return s.n + s.padding }

// SoA returns the structure-of-arrays view. Callers must treat the slices
// as read-only; use Mutable to write.
func (s *Store) SoA() SoA {
	return s.soa
}

// Mutable returns the structure-of-arrays view for writing and marks the
// AoS view stale.
func (s *Store) Mutable() SoA {
	s.aosValid = false
	return s.soa
}

// AoS returns the array-of-structures view of all Len() bodies, rebuilt
// from the SoA state if it changed since the last call. The returned slice
// is owned by the store and must not be modified.
func (s *Store) AoS() []Body {
	if s.aosValid {
		return s.aos
	}
	if len(s.aos) != s.Len() {
		s.aos = make([]Body, s.Len())
	}
	d := s.soa
	for i := range s.aos {
		s.aos[i] = Body{
			M:  d.M[i],
			QX: d.QX[i], QY: d.QY[i], QZ: d.QZ[i],
			VX: d.VX[i], VY: d.VY[i], VZ: d.VZ[i],
		}
	}
	s.aosValid = true
	return s.aos
}

// Set writes body i. Only real bodies may be set; padding stays massless.
func (s *Store) Set(i int, b Body) {
	if i < 0 || i >= s.n {
		panic("body: index out of range")
	}
	d := s.Mutable()
	d.M[i] = b.M
	d.QX[i], d.QY[i], d.QZ[i] = b.QX, b.QY, b.QZ
	d.VX[i], d.VY[i], d.VZ[i] = b.VX, b.VY, b.VZ
}

// Get returns body i from the canonical state.
func (s *Store) Get(i int) Body {
	d := s.soa
	return Body{
		M:  d.M[i],
		QX: d.QX[i], QY: d.QY[i], QZ: d.QZ[i],
		VX: d.VX[i], VY: d.VY[i], VZ: d.VZ[i],
	}
}

// Positions returns a copy of the positions of the first N() bodies.
func (s *Store) Positions() [][3]float32 {
	out := make([][3]float32, s.n)
	for i := range out {
		out[i] = [3]float32{s.soa.QX[i], s.soa.QY[i], s.soa.QZ[i]}
	}
	return out
}

// Velocities returns a copy of the velocities of the first N() bodies.
func (s *Store) Velocities() [][3]float32 {
	out := make([][3]float32, s.n)
	for i := range out {
		out[i] = [3]float32{s.soa.VX[i], s.soa.VY[i], s.soa.VZ[i]}
	}
	return out
}

// Masses returns a copy of the masses of the first N() bodies.
func (s *Store) Masses() []float32 {
	out := make([]float32, s.n)
	copy(out, s.soa.M[:s.n])
	return out
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c, _ := New(s.n, s.padding)
	copy(c.soa.M, s.soa.M)
	copy(c.soa.QX, s.soa.QX)
	copy(c.soa.QY, s.soa.QY)
	copy(c.soa.QZ, s.soa.QZ)
	copy(c.soa.VX, s.soa.VX)
	copy(c.soa.VY, s.soa.VY)
	copy(c.soa.VZ, s.soa.VZ)
	return c
}

// Repad returns a copy of the first N() bodies with a different padding.
func (s *Store) Repad(padding int) (*Store, error) {
	c, err := New(s.n, padding)
	if err != nil {
		return nil, err
	}
	for i := 0; i < s.n; i++ {
		c.Set(i, s.Get(i))
	}
	return c, nil
}
