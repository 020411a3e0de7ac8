package dynamo

import "github.com/chewxy/math32"

const (
	DefaultG    float32 = 6.67430e-11
	DefaultSoft float32 = 0.035
	DefaultDt   float32 = 3600
)

// Params holds the physical constants of a run. They are immutable once a
// simulation is constructed.
type Params struct {
	G    float32
	Soft float32
	Dt   float32
}

func DefaultParams() Params {
	return Params{
		G:    DefaultG,
		Soft: DefaultSoft,
		Dt:   DefaultDt,
	}
}

// Validate reports ErrInvalidArgument for non-positive or non-finite
// softening and time step.
func (p Params) Validate() error {
	if !(p.Soft > 0) || math32.IsInf(p.Soft, 0) {
		return InvalidArgument("softening must be positive, got %g", p.Soft)
	}
	if !(p.Dt > 0) || math32.IsInf(p.Dt, 0) {
		return InvalidArgument("dt must be positive, got %g", p.Dt)
	}
	if math32.IsNaN(p.G) || math32.IsInf(p.G, 0) {
		return InvalidArgument("gravitational constant must be finite, got %g", p.G)
	}
	return nil
}

func (p Params) SoftSquared() float32 {
	return p.Soft * p.Soft
}
