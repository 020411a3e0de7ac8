package integrators

import "github.com/san-kum/gravsim/internal/body"

// SemiImplicitEuler advances bodies by v += a*dt, then q += v*dt using the
// updated velocity. Every backend integrates through this type so that
// trajectories agree across backends.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

// Step updates the first N() bodies of st.
func (e *SemiImplicitEuler) Step(st *body.Store, acc *body.Accelerations, dt float32) {
	e.StepRange(st, acc, dt, 0, st.N())
}

// StepRange updates bodies [start, end) of st.
func (e *SemiImplicitEuler) StepRange(st *body.Store, acc *body.Accelerations, dt float32, start, end int) {
	e.StepView(st.Mutable(), acc, dt, start, end)
}

// StepView updates bodies [start, end) of a view obtained from
// Store.Mutable. Disjoint ranges of the same view may run concurrently.
func (e *SemiImplicitEuler) StepView(d body.SoA, acc *body.Accelerations, dt float32, start, end int) {
	for i := start; i < end; i++ {
		d.VX[i], d.QX[i] = Advance(d.VX[i], d.QX[i], acc.AX[i], dt)
		d.VY[i], d.QY[i] = Advance(d.VY[i], d.QY[i], acc.AY[i], dt)
		d.VZ[i], d.QZ[i] = Advance(d.VZ[i], d.QZ[i], acc.AZ[i], dt)
	}
}

// Advance applies one semi-implicit Euler update to a single component.
// Device kernels call it directly so host and device share the arithmetic.
func Advance(v, q, a, dt float32) (float32, float32) {
	v += a * dt
	q += v * dt
	return v, q
}
