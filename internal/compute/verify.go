package compute

import (
	"github.com/chewxy/math32"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// MaxRelativeError returns the largest per-body deviation of got from ref
// over the first n bodies, relative to the largest reference magnitude.
func MaxRelativeError(ref, got *body.Accelerations, n int) float64 {
	var scale, worst float64
	for i := 0; i < n; i++ {
		r := ref.At(i)
		scale = max(scale, float64(norm(r[0], r[1], r[2])))
	}
	for i := 0; i < n; i++ {
		r, a := ref.At(i), got.At(i)
		worst = max(worst, float64(norm(a[0]-r[0], a[1]-r[1], a[2]-r[2])))
	}
	if scale == 0 {
		return worst
	}
	return worst / scale
}

func norm(x, y, z float32) float32 {
	return math32.Sqrt(x*x + y*y + z*z)
}

// Snapshot attaches a fresh backend to a copy of st, computes one set of
// accelerations without integrating, and returns a copy of them.
func Snapshot(name string, opts Options, st *body.Store, p dynamo.Params) (*body.Accelerations, error) {
	b, err := New(name, opts)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	work := st.Clone()
	acc := body.NewAccelerations(work.Len())
	if err := b.Attach(work, acc, p); err != nil {
		return nil, err
	}
	if err := b.Reset(); err != nil {
		return nil, err
	}
	if err := b.Accumulate(); err != nil {
		return nil, err
	}
	out, err := b.Accelerations()
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}
