package compute

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/device"
	"github.com/san-kum/gravsim/internal/dynamo"
)

const tolerance = 1e-3

var testOpts = Options{Workers: 4, LaneWidth: 8, Device: device.Config{ThreadsPerBlock: 64}}

func galaxy(n, padding int, seed uint64) *body.Store {
	st, err := body.New(n, padding)
	Expect(err).NotTo(HaveOccurred())
	Expect(body.Generate(st, body.SchemeGalaxy, dynamo.DefaultG, seed)).To(Succeed())
	return st
}

func attached(name string, st *body.Store, p dynamo.Params) (Backend, *body.Accelerations) {
	b, err := New(name, testOpts)
	Expect(err).NotTo(HaveOccurred())
	acc := body.NewAccelerations(st.Len())
	Expect(b.Attach(st, acc, p)).To(Succeed())
	DeferCleanup(b.Close)
	return b, acc
}

func step(b Backend) {
	Expect(b.Reset()).To(Succeed())
	Expect(b.Accumulate()).To(Succeed())
	Expect(b.Integrate()).To(Succeed())
}

func allBackends() []TableEntry {
	entries := make([]TableEntry, 0, len(Names()))
	for _, name := range Names() {
		entries = append(entries, Entry(name, name))
	}
	return entries
}

var _ = Describe("Backend conformance", func() {
	var (
		params dynamo.Params
		ref    *body.Accelerations
		start  *body.Store
	)

	BeforeEach(func() {
		params = dynamo.DefaultParams()
		start = galaxy(301, body.PaddingFor(301, 8), 7)

		var err error
		ref, err = Snapshot(NameOptim, testOpts, start, params)
		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("agrees with the sequential reference",
		func(name string) {
			got, err := Snapshot(name, testOpts, start, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(MaxRelativeError(ref, got, start.N())).To(BeNumerically("<", tolerance))
		},
		allBackends(),
	)

	DescribeTable("tracks the reference trajectory over several iterations",
		func(name string) {
			want := start.Clone()
			r, _ := attached(NameOptim, want, params)
			got := start.Clone()
			b, _ := attached(name, got, params)

			for k := 0; k < 5; k++ {
				step(r)
				step(b)
			}

			var scale, worst float64
			for i := 0; i < start.N(); i++ {
				w, g := want.Get(i), got.Get(i)
				scale = math.Max(scale, math.Abs(float64(w.QX)))
				worst = math.Max(worst, math.Abs(float64(w.QX-g.QX)))
				worst = math.Max(worst, math.Abs(float64(w.QY-g.QY)))
			}
			Expect(worst / scale).To(BeNumerically("<", 1e-5))
		},
		allBackends(),
	)

	DescribeTable("ignores padding bodies",
		func(name string) {
			base, err := start.Repad(0)
			Expect(err).NotTo(HaveOccurred())
			wide, err := start.Repad(13)
			Expect(err).NotTo(HaveOccurred())

			a, err := Snapshot(name, testOpts, base, params)
			Expect(err).NotTo(HaveOccurred())
			b, err := Snapshot(name, testOpts, wide, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(MaxRelativeError(a, b, start.N())).To(BeNumerically("<", 1e-5))
		},
		allBackends(),
	)

	DescribeTable("leaves exact zeros after a repeated reset",
		func(name string) {
			b, _ := attached(name, start.Clone(), params)
			Expect(b.Accumulate()).To(Succeed())
			Expect(b.Reset()).To(Succeed())
			Expect(b.Reset()).To(Succeed())

			acc, err := b.Accelerations()
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < acc.Len(); i++ {
				Expect(acc.At(i)).To(Equal([3]float32{}))
			}
		},
		allBackends(),
	)

	DescribeTable("cancels the momentum rate with symmetric accumulation",
		func(name string) {
			b, err := New(name, testOpts)
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Policy()).To(Equal(Symmetric))

			acc, err := Snapshot(name, testOpts, start, params)
			Expect(err).NotTo(HaveOccurred())

			var sum [3]float64
			var scale float64
			masses := start.Masses()
			for i, m := range masses {
				a := acc.At(i)
				for k := range sum {
					sum[k] += float64(m) * float64(a[k])
				}
				scale += float64(m) * float64(norm(a[0], a[1], a[2]))
			}
			for k := range sum {
				Expect(math.Abs(sum[k]) / scale).To(BeNumerically("<", 1e-4))
			}
		},
		Entry(NameOptim, NameOptim),
		Entry(NamePar, NamePar),
	)

	DescribeTable("is deterministic across runs",
		func(name string) {
			a, err := Snapshot(name, testOpts, start, params)
			Expect(err).NotTo(HaveOccurred())
			b, err := Snapshot(name, testOpts, start, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(Equal(a))
		},
		Entry(NameOptim, NameOptim),
		Entry(NameSIMD, NameSIMD),
		Entry(NameSIMDPar, NameSIMDPar),
		Entry(NameGPU, NameGPU),
	)
})

var _ = Describe("Two bodies at unit distance", func() {
	params := dynamo.Params{G: 1, Soft: 0.035, Dt: 0.01}

	DescribeTable("attract each other equally",
		func(name string) {
			st, err := body.New(2, 6)
			Expect(err).NotTo(HaveOccurred())
			Expect(body.Generate(st, body.SchemeTwoBody, 1, 0)).To(Succeed())

			acc, err := Snapshot(name, testOpts, st, params)
			Expect(err).NotTo(HaveOccurred())

			a0, a1 := acc.At(0), acc.At(1)
			expected := 1 / math.Pow(1+0.035*0.035, 1.5)
			Expect(float64(a0[0])).To(BeNumerically("~", expected, 1e-6))
			Expect(float64(a0[0])).To(BeNumerically("~", 0.9978, 1e-3))
			Expect(a0[1]).To(BeZero())
			Expect(a0[2]).To(BeZero())
			Expect(float64(a1[0])).To(BeNumerically("~", -float64(a0[0]), 1e-6))
		},
		allBackends(),
	)
})

var _ = Describe("A single body", func() {
	params := dynamo.Params{G: 1, Soft: 0.035, Dt: 0.5}

	DescribeTable("moves inertially",
		func(name string) {
			st, err := body.New(1, 7)
			Expect(err).NotTo(HaveOccurred())
			st.Set(0, body.Body{M: 3, QX: 1, QY: -2, QZ: 0.5, VX: 0.25, VY: 1, VZ: -4})

			b, acc := attached(name, st, params)
			want := st.Get(0)
			for k := 0; k < 4; k++ {
				step(b)
				Expect(acc.At(0)).To(Equal([3]float32{}))

				want.QX += want.VX * params.Dt
				want.QY += want.VY * params.Dt
				want.QZ += want.VZ * params.Dt
				Expect(st.Get(0)).To(Equal(want))
			}
		},
		allBackends(),
	)
})

var _ = Describe("Device backend", func() {
	params := dynamo.DefaultParams()

	It("round-trips host state bit for bit", func() {
		st := galaxy(100, 4, 3)
		orig := st.Clone()

		g := NewGPU(testOpts)
		DeferCleanup(g.Close)
		Expect(g.Attach(st, body.NewAccelerations(st.Len()), params)).To(Succeed())

		for i := 0; i < st.Len(); i++ {
			st.Mutable().QX[i] = -1
		}
		Expect(g.Download()).To(Succeed())

		for i := 0; i < st.Len(); i++ {
			Expect(st.Get(i)).To(Equal(orig.Get(i)))
		}
	})

	It("fails attach when the mirror does not fit and releases the device", func() {
		st := galaxy(100, 0, 3)
		g := NewGPU(Options{Device: device.Config{ThreadsPerBlock: 32, MemoryBytes: 2048}})

		err := g.Attach(st, body.NewAccelerations(st.Len()), params)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, dynamo.ErrResourceExhaustion)).To(BeTrue())
		Expect(g.Device()).To(BeNil())
		Expect(g.Close()).To(Succeed())
	})

	It("rejects work after close", func() {
		st := galaxy(10, 0, 3)
		g := NewGPU(testOpts)
		Expect(g.Attach(st, body.NewAccelerations(st.Len()), params)).To(Succeed())
		Expect(g.Close()).To(Succeed())
		Expect(g.Close()).To(Succeed())

		Expect(g.Accumulate()).To(MatchError(dynamo.ErrClosed))
		_, err := g.Accelerations()
		Expect(err).To(MatchError(dynamo.ErrClosed))
	})

	It("leaves no device memory behind after close", func() {
		st := galaxy(64, 0, 3)
		g := NewGPU(testOpts)
		Expect(g.Attach(st, body.NewAccelerations(st.Len()), params)).To(Succeed())

		dev := g.Device()
		Expect(dev.Allocated()).To(Equal(int64(10 * 64 * 4)))
		Expect(g.Close()).To(Succeed())
		Expect(dev.Allocated()).To(BeZero())
	})
})
