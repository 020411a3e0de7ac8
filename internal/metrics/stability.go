package metrics

import (
	"github.com/chewxy/math32"

	"github.com/san-kum/gravsim/internal/sim"
)

// Stability is the fraction of sampled iterations whose bodies all have
// finite positions and velocities.
type Stability struct {
	name       string
	violations int
	samples    int
}

func NewStability() *Stability {
	return &Stability{name: "stability"}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Reset(*sim.Simulation) {
	s.violations = 0
	s.samples = 0
}

func (s *Stability) OnStep(_ int, sm *sim.Simulation) {
	s.samples++
	d := sm.Bodies().SoA()
	for i := 0; i < sm.N(); i++ {
		if !finite(d.QX[i]) || !finite(d.QY[i]) || !finite(d.QZ[i]) ||
			!finite(d.VX[i]) || !finite(d.VY[i]) || !finite(d.VZ[i]) {
			s.violations++
			return
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func finite(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}
