package body

import (
	"sort"

	"github.com/chewxy/math32"
	"golang.org/x/exp/rand"

	"github.com/san-kum/gravsim/internal/dynamo"
)

const (
	SchemeGalaxy  = "galaxy"
	SchemeRandom  = "random"
	SchemeTwoBody = "two-body"
)

const (
	centralMass = 1.989e30 // kg
	discInner   = 5e10     // m
	discOuter   = 3e11     // m
	discHeight  = 2e9      // m
	minMass     = 1e20     // kg
	maxMass     = 1e24     // kg
	cubeSide    = 2e11     // m
	randomSpeed = 1e3      // m/s
)

type generator func(s *Store, rnd *rand.Rand, g float32)

var schemes = map[string]generator{
	SchemeGalaxy:  galaxy,
	SchemeRandom:  random,
	SchemeTwoBody: twoBody,
}

// Schemes lists the available initial-condition schemes.
func Schemes() []string {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate fills the first N() bodies of s using the named scheme. The
// result depends only on scheme, N(), g and seed; padding bodies are left
// massless at the origin.
func Generate(s *Store, scheme string, g float32, seed uint64) error {
	gen, ok := schemes[scheme]
	if !ok {
		return dynamo.InvalidArgument("unknown scheme %q (available: %v)", scheme, Schemes())
	}
	if scheme == SchemeTwoBody && s.N() != 2 {
		return dynamo.InvalidArgument("scheme %q needs exactly 2 bodies, got %d", scheme, s.N())
	}
	gen(s, rand.New(rand.NewSource(seed)), g)
	return nil
}

// galaxy places a heavy body at the origin and the rest on a thin rotating
// disc with near-circular orbital speeds.
func galaxy(s *Store, rnd *rand.Rand, g float32) {
	s.Set(0, Body{M: centralMass})

	for i := 1; i < s.N(); i++ {
		r := discInner + (discOuter-discInner)*rnd.Float32()
		theta := 2 * math32.Pi * rnd.Float32()
		sin, cos := math32.Sincos(theta)
		z := discHeight * float32(rnd.NormFloat64())

		speed := math32.Sqrt(g * centralMass / r)
		// small eccentricity
		speed *= 1 + 0.05*float32(rnd.NormFloat64())

		s.Set(i, Body{
			M:  randomMass(rnd),
			QX: r * cos, QY: r * sin, QZ: z,
			VX: -speed * sin, VY: speed * cos, VZ: 0,
		})
	}
}

func random(s *Store, rnd *rand.Rand, _ float32) {
	for i := 0; i < s.N(); i++ {
		s.Set(i, Body{
			M:  randomMass(rnd),
			QX: cubeSide * (rnd.Float32() - 0.5),
			QY: cubeSide * (rnd.Float32() - 0.5),
			QZ: cubeSide * (rnd.Float32() - 0.5),
			VX: randomSpeed * float32(rnd.NormFloat64()),
			VY: randomSpeed * float32(rnd.NormFloat64()),
			VZ: randomSpeed * float32(rnd.NormFloat64()),
		})
	}
}

// twoBody is two unit masses one unit apart on the x axis, at rest.
func twoBody(s *Store, _ *rand.Rand, _ float32) {
	s.Set(0, Body{M: 1})
	s.Set(1, Body{M: 1, QX: 1})
}

// randomMass draws log-uniformly from [minMass, maxMass).
func randomMass(rnd *rand.Rand) float32 {
	lo, hi := math32.Log(minMass), math32.Log(maxMass)
	return math32.Exp(lo + (hi-lo)*rnd.Float32())
}
