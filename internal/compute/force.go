package compute

import (
	"github.com/chewxy/math32"

	"github.com/san-kum/gravsim/internal/body"
)

// invDistCube returns (|r|^2 + soft^2)^(-3/2), computed as invDist^3.
func invDistCube(rx, ry, rz, soft2 float32) float32 {
	distSq := rx*rx + ry*ry + rz*rz + soft2
	invDist := 1 / math32.Sqrt(distSq)
	return invDist * invDist * invDist
}

// symmetricRows accumulates the pairs (i, j), j > i, for i in [start, end)
// into ax, ay, az. Writes land on indices j > i as well, so concurrent
// callers need private output slices.
func symmetricRows(d body.SoA, n, start, end int, g, soft2 float32, ax, ay, az []float32) {
	for i := start; i < end; i++ {
		xi, yi, zi, mi := d.QX[i], d.QY[i], d.QZ[i], d.M[i]
		var axi, ayi, azi float32

		for j := i + 1; j < n; j++ {
			rx := d.QX[j] - xi
			ry := d.QY[j] - yi
			rz := d.QZ[j] - zi
			s := invDistCube(rx, ry, rz, soft2)

			fi := g * d.M[j] * s
			axi += fi * rx
			ayi += fi * ry
			azi += fi * rz

			fj := g * mi * s
			ax[j] -= fj * rx
			ay[j] -= fj * ry
			az[j] -= fj * rz
		}

		ax[i] += axi
		ay[i] += ayi
		az[i] += azi
	}
}

// fullRow sums m[j] * invDistCube * r over j in [from, to) for body i,
// without the gravitational constant. The self pair contributes zero.
func fullRow(d body.SoA, i, from, to int, soft2 float32) (float32, float32, float32) {
	xi, yi, zi := d.QX[i], d.QY[i], d.QZ[i]
	var ax, ay, az float32
	for j := from; j < to; j++ {
		rx := d.QX[j] - xi
		ry := d.QY[j] - yi
		rz := d.QZ[j] - zi
		f := d.M[j] * invDistCube(rx, ry, rz, soft2)
		ax += f * rx
		ay += f * ry
		az += f * rz
	}
	return ax, ay, az
}
