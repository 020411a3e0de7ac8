package compute

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// SIMD computes every ordered pair on one goroutine, lane-width bodies at
// a time. Padding lets the lane loop cover the store without a tail.
type SIMD struct {
	host
	width int
	regs  *laneRegs
}

func NewSIMD(opts Options) *SIMD {
	width := opts.LaneWidth
	if width <= 0 {
		width = DetectLaneWidth()
	}
	return &SIMD{width: width}
}

func (s *SIMD) Name() string                    { return NameSIMD }
func (s *SIMD) Policy() Policy                  { return Full }
func (s *SIMD) FlopsPerIteration(n int) float64 { return Full.Flops(n) }
func (s *SIMD) LaneWidth() int                  { return s.width }

func (s *SIMD) Attach(st *body.Store, acc *body.Accelerations, p dynamo.Params) error {
	if err := s.attach(st, acc, p); err != nil {
		return err
	}
	s.regs = newLaneRegs(s.width)
	return nil
}

func (s *SIMD) Accumulate() error {
	d := s.st.SoA()
	size := s.st.Len()
	for i := 0; i < s.st.N(); i++ {
		s.acc.AX[i], s.acc.AY[i], s.acc.AZ[i] = laneRow(d, i, size, s.width, s.p.G, s.soft2, s.regs)
	}
	return nil
}
