package body

// Accelerations is the per-iteration acceleration buffer in SoA layout.
// It is zeroed at the start of every iteration and never carries state
// across iterations.
type Accelerations struct {
	AX, AY, AZ []float32
}

func NewAccelerations(size int) *Accelerations {
	return &Accelerations{
		AX: make([]float32, size),
		AY: make([]float32, size),
		AZ: make([]float32, size),
	}
}

func (a *Accelerations) Len() int { return len(a.AX) }

func (a *Accelerations) Reset() {
	clear(a.AX)
	clear(a.AY)
	clear(a.AZ)
}

// At returns the acceleration of body i.
func (a *Accelerations) At(i int) [3]float32 {
	return [3]float32{a.AX[i], a.AY[i], a.AZ[i]}
}

// Clone returns a deep copy of the buffer.
func (a *Accelerations) Clone() *Accelerations {
	c := NewAccelerations(a.Len())
	copy(c.AX, a.AX)
	copy(c.AY, a.AY)
	copy(c.AZ, a.AZ)
	return c
}
