package compute

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/device"
	"github.com/san-kum/gravsim/internal/integrators"
)

// Device kernels. Each closes over the device-side slices of a mirror and
// is launched with one thread per body; threads past the body count return
// without touching memory.

func resetKernel(size int, ax, ay, az []float32) device.Kernel {
	return func(t device.Thread) {
		i := t.GlobalX()
		if i >= size {
			return
		}
		ax[i], ay[i], az[i] = 0, 0, 0
	}
}

func accelerationKernel(n int, g, soft2 float32, d body.SoA, ax, ay, az []float32) device.Kernel {
	return func(t device.Thread) {
		i := t.GlobalX()
		if i >= n {
			return
		}
		x, y, z := fullRow(d, i, 0, n, soft2)
		ax[i] += g * x
		ay[i] += g * y
		az[i] += g * z
	}
}

func integrateKernel(n int, dt float32, d body.SoA, ax, ay, az []float32) device.Kernel {
	return func(t device.Thread) {
		i := t.GlobalX()
		if i >= n {
			return
		}
		d.VX[i], d.QX[i] = integrators.Advance(d.VX[i], d.QX[i], ax[i], dt)
		d.VY[i], d.QY[i] = integrators.Advance(d.VY[i], d.QY[i], ay[i], dt)
		d.VZ[i], d.QZ[i] = integrators.Advance(d.VZ[i], d.QZ[i], az[i], dt)
	}
}
