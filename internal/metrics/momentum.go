package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/sim"
)

// MomentumDrift reports the largest change of total momentum during a run,
// relative to the sum of |m*v| at the start.
type MomentumDrift struct {
	name    string
	initial [3]float64
	scale   float64
	max     float64
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Reset(s *sim.Simulation) {
	st := s.Bodies()
	m.initial = Momentum(st)
	m.max = 0

	d := st.SoA()
	m.scale = 0
	for i := 0; i < st.N(); i++ {
		vx, vy, vz := float64(d.VX[i]), float64(d.VY[i]), float64(d.VZ[i])
		m.scale += float64(d.M[i]) * math.Sqrt(vx*vx+vy*vy+vz*vz)
	}
}

func (m *MomentumDrift) OnStep(_ int, s *sim.Simulation) {
	if m.scale == 0 {
		return
	}
	p := Momentum(s.Bodies())
	dx, dy, dz := p[0]-m.initial[0], p[1]-m.initial[1], p[2]-m.initial[2]
	m.max = math.Max(m.max, math.Sqrt(dx*dx+dy*dy+dz*dz)/m.scale)
}

func (m *MomentumDrift) Value() float64 {
	return m.max
}
