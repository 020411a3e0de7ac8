package compute

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// Parallel distributes the symmetric pair loop across goroutines. Each
// worker accumulates into its own buffer; the buffers are then merged over
// disjoint body ranges so no index has more than one writer.
type Parallel struct {
	host
	workers int
	chunk   int
	local   []*body.Accelerations
}

func NewParallel(opts Options) *Parallel {
	return &Parallel{
		workers: resolveWorkers(opts.Workers),
		chunk:   opts.Chunk,
	}
}

func (p *Parallel) Name() string                    { return NamePar }
func (p *Parallel) Policy() Policy                  { return Symmetric }
func (p *Parallel) FlopsPerIteration(n int) float64 { return Symmetric.Flops(n) }

func (p *Parallel) Attach(st *body.Store, acc *body.Accelerations, params dynamo.Params) error {
	if err := p.attach(st, acc, params); err != nil {
		return err
	}
	// rows near the end of the triangle are cheap, so hand out many chunks
	p.chunk = resolveChunk(p.chunk, st.N(), p.workers, 8)
	p.local = make([]*body.Accelerations, p.workers)
	for w := range p.local {
		p.local[w] = body.NewAccelerations(st.Len())
	}
	return nil
}

func (p *Parallel) Accumulate() error {
	d := p.st.SoA()
	n := p.st.N()
	g, soft2 := p.p.G, p.soft2

	dynamo.ParallelFor(n, p.workers, p.chunk, func(start, end, worker int) {
		l := p.local[worker]
		symmetricRows(d, n, start, end, g, soft2, l.AX, l.AY, l.AZ)
	})

	p.merge(n)
	return nil
}

// merge folds every private buffer into the shared one and zeroes the
// private buffer for the next iteration.
func (p *Parallel) merge(n int) {
	ax, ay, az := p.acc.AX, p.acc.AY, p.acc.AZ
	dynamo.Partition(n, p.workers, func(start, end int) {
		for _, l := range p.local {
			for i := start; i < end; i++ {
				ax[i] += l.AX[i]
				ay[i] += l.AY[i]
				az[i] += l.AZ[i]
				l.AX[i], l.AY[i], l.AZ[i] = 0, 0, 0
			}
		}
	})
}

func (p *Parallel) Integrate() error {
	d := p.st.Mutable()
	dynamo.Partition(p.st.N(), p.workers, func(start, end int) {
		p.integ.StepView(d, p.acc, p.p.Dt, start, end)
	})
	return nil
}
