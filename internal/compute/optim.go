package compute

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// Optim is the single-goroutine reference backend. It reads the
// array-of-structures view and visits every unordered pair once.
type Optim struct {
	host
}

func NewOptim() *Optim {
	return &Optim{}
}

func (o *Optim) Name() string                    { return NameOptim }
func (o *Optim) Policy() Policy                  { return Symmetric }
func (o *Optim) FlopsPerIteration(n int) float64 { return Symmetric.Flops(n) }

func (o *Optim) Attach(st *body.Store, acc *body.Accelerations, p dynamo.Params) error {
	return o.attach(st, acc, p)
}

func (o *Optim) Accumulate() error {
	bodies := o.st.AoS()
	n := o.st.N()
	g, soft2 := o.p.G, o.soft2
	ax, ay, az := o.acc.AX, o.acc.AY, o.acc.AZ

	for i := 0; i < n; i++ {
		bi := bodies[i]
		var axi, ayi, azi float32

		for j := i + 1; j < n; j++ {
			bj := &bodies[j]
			rx := bj.QX - bi.QX
			ry := bj.QY - bi.QY
			rz := bj.QZ - bi.QZ
			s := invDistCube(rx, ry, rz, soft2)

			fi := g * bj.M * s
			axi += fi * rx
			ayi += fi * ry
			azi += fi * rz

			fj := g * bi.M * s
			ax[j] -= fj * rx
			ay[j] -= fj * ry
			az[j] -= fj * rz
		}

		ax[i] += axi
		ay[i] += ayi
		az[i] += azi
	}
	return nil
}
