package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/sim"
)

// Energy returns the total kinetic plus softened potential energy of the
// first N() bodies, accumulated in float64.
func Energy(st *body.Store, g, soft float64) float64 {
	d := st.SoA()
	n := st.N()
	soft2 := soft * soft

	var kinetic, potential float64
	for i := 0; i < n; i++ {
		m := float64(d.M[i])
		vx, vy, vz := float64(d.VX[i]), float64(d.VY[i]), float64(d.VZ[i])
		kinetic += 0.5 * m * (vx*vx + vy*vy + vz*vz)

		xi, yi, zi := float64(d.QX[i]), float64(d.QY[i]), float64(d.QZ[i])
		for j := i + 1; j < n; j++ {
			dx := float64(d.QX[j]) - xi
			dy := float64(d.QY[j]) - yi
			dz := float64(d.QZ[j]) - zi
			potential -= g * m * float64(d.M[j]) / math.Sqrt(dx*dx+dy*dy+dz*dz+soft2)
		}
	}
	return kinetic + potential
}

// Momentum returns the total linear momentum of the first N() bodies.
func Momentum(st *body.Store) [3]float64 {
	d := st.SoA()
	var p [3]float64
	for i := 0; i < st.N(); i++ {
		m := float64(d.M[i])
		p[0] += m * float64(d.VX[i])
		p[1] += m * float64(d.VY[i])
		p[2] += m * float64(d.VZ[i])
	}
	return p
}

// MomentumRate returns sum(m[i] * a[i]) over the first N() bodies. It
// vanishes up to rounding when every pair force is applied symmetrically.
func MomentumRate(st *body.Store, acc *body.Accelerations) [3]float64 {
	m := st.SoA().M
	var r [3]float64
	for i := 0; i < st.N(); i++ {
		a := acc.At(i)
		r[0] += float64(m[i]) * float64(a[0])
		r[1] += float64(m[i]) * float64(a[1])
		r[2] += float64(m[i]) * float64(a[2])
	}
	return r
}

// EnergyDrift tracks |E - E0| / |E0| while a simulation runs. Energy is
// O(n^2), so it is sampled every Every iterations.
type EnergyDrift struct {
	name    string
	every   int
	initial float64

	iterations []int
	drift      []float64
	maxDrift   float64
}

func NewEnergyDrift(every int) *EnergyDrift {
	return &EnergyDrift{
		name:  "energy_drift",
		every: max(every, 1),
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Reset(s *sim.Simulation) {
	e.initial = energyOf(s)
	e.iterations = e.iterations[:0]
	e.drift = e.drift[:0]
	e.maxDrift = 0
}

func (e *EnergyDrift) OnStep(iteration int, s *sim.Simulation) {
	if iteration%e.every != 0 {
		return
	}

	var drift float64
	if e.initial != 0 {
		drift = math.Abs(energyOf(s)-e.initial) / math.Abs(e.initial)
	}

	e.iterations = append(e.iterations, iteration)
	e.drift = append(e.drift, drift)
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Series returns the sampled drift values in iteration order.
func (e *EnergyDrift) Series() []float64 {
	out := make([]float64, len(e.drift))
	copy(out, e.drift)
	return out
}

// Iterations returns the iteration of each sample in Series.
func (e *EnergyDrift) Iterations() []int {
	out := make([]int, len(e.iterations))
	copy(out, e.iterations)
	return out
}

func energyOf(s *sim.Simulation) float64 {
	p := s.Params()
	return Energy(s.Bodies(), float64(p.G), float64(p.Soft))
}
