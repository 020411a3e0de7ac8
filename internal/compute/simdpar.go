package compute

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// SIMDPar runs the lane loop of SIMD under a parallel outer loop. Every
// body is written by exactly one worker, so there is no merge phase.
type SIMDPar struct {
	host
	width   int
	workers int
	chunk   int
	regs    []*laneRegs
}

func NewSIMDPar(opts Options) *SIMDPar {
	width := opts.LaneWidth
	if width <= 0 {
		width = DetectLaneWidth()
	}
	return &SIMDPar{
		width:   width,
		workers: resolveWorkers(opts.Workers),
		chunk:   opts.Chunk,
	}
}

func (s *SIMDPar) Name() string                    { return NameSIMDPar }
func (s *SIMDPar) Policy() Policy                  { return Full }
func (s *SIMDPar) FlopsPerIteration(n int) float64 { return Full.Flops(n) }
func (s *SIMDPar) LaneWidth() int                  { return s.width }

func (s *SIMDPar) Attach(st *body.Store, acc *body.Accelerations, p dynamo.Params) error {
	if err := s.attach(st, acc, p); err != nil {
		return err
	}
	s.chunk = resolveChunk(s.chunk, st.N(), s.workers, 4)
	s.regs = make([]*laneRegs, s.workers)
	for w := range s.regs {
		s.regs[w] = newLaneRegs(s.width)
	}
	return nil
}

func (s *SIMDPar) Accumulate() error {
	d := s.st.SoA()
	size := s.st.Len()
	g, soft2 := s.p.G, s.soft2
	ax, ay, az := s.acc.AX, s.acc.AY, s.acc.AZ

	dynamo.ParallelFor(s.st.N(), s.workers, s.chunk, func(start, end, worker int) {
		r := s.regs[worker]
		for i := start; i < end; i++ {
			ax[i], ay[i], az[i] = laneRow(d, i, size, s.width, g, soft2, r)
		}
	})
	return nil
}

func (s *SIMDPar) Integrate() error {
	d := s.st.Mutable()
	dynamo.Partition(s.st.N(), s.workers, func(start, end int) {
		s.integ.StepView(d, s.acc, s.p.Dt, start, end)
	})
	return nil
}
