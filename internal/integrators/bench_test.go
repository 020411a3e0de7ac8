package integrators

import (
	"testing"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/dynamo"
)

func benchStore(b *testing.B, n int) (*body.Store, *body.Accelerations) {
	st, err := body.New(n, 0)
	if err != nil {
		b.Fatal(err)
	}
	if err := body.Generate(st, body.SchemeRandom, dynamo.DefaultG, 1); err != nil {
		b.Fatal(err)
	}
	acc := body.NewAccelerations(st.Len())
	for i := range acc.AX {
		acc.AX[i] = 1e-3
	}
	return st, acc
}

func BenchmarkSemiImplicitEuler_1K(b *testing.B) {
	st, acc := benchStore(b, 1000)
	integ := NewSemiImplicitEuler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Step(st, acc, 0.01)
	}
}

func BenchmarkSemiImplicitEuler_100K(b *testing.B) {
	st, acc := benchStore(b, 100000)
	integ := NewSemiImplicitEuler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Step(st, acc, 0.01)
	}
}
