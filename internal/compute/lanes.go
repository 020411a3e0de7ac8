package compute

import (
	"runtime"

	"github.com/viterin/vek/vek32"
	"golang.org/x/sys/cpu"

	"github.com/san-kum/gravsim/internal/body"
)

// DetectLaneWidth returns the number of float32 values one vector register
// holds on the running CPU.
func DetectLaneWidth() int {
	switch runtime.GOARCH {
	case "amd64":
		if cpu.X86.HasAVX512F {
			return 16
		}
		if cpu.X86.HasAVX2 || cpu.X86.HasAVX {
			return 8
		}
		return 4
	case "arm64":
		if cpu.ARM64.HasASIMD {
			return 4
		}
	}
	return 8
}

// LaneInfo describes the vector unit used by the lane backends.
type LaneInfo struct {
	Width       int
	Accelerated bool
	Features    []string
	Arch        string
}

func Lanes() LaneInfo {
	info := vek32.Info()
	return LaneInfo{
		Width:       DetectLaneWidth(),
		Accelerated: info.Acceleration,
		Features:    info.CPUFeatures,
		Arch:        info.CPUArchitecture,
	}
}

// laneRegs is one goroutine's set of lane-width registers.
type laneRegs struct {
	dx, dy, dz []float32
	d2, inv, s []float32
	tmp        []float32
	ax, ay, az []float32
}

func newLaneRegs(width int) *laneRegs {
	buf := make([]float32, 10*width)
	slot := func(k int) []float32 { return buf[k*width : (k+1)*width : (k+1)*width] }
	return &laneRegs{
		dx: slot(0), dy: slot(1), dz: slot(2),
		d2: slot(3), inv: slot(4), s: slot(5),
		tmp: slot(6),
		ax:  slot(7), ay: slot(8), az: slot(9),
	}
}

func (r *laneRegs) clear() {
	clear(r.ax)
	clear(r.ay)
	clear(r.az)
}

// laneRow computes the full-policy acceleration of body i against bodies
// [0, size), lane-width bodies at a time, with a scalar loop for the tail.
func laneRow(d body.SoA, i, size, width int, g, soft2 float32, r *laneRegs) (float32, float32, float32) {
	xi, yi, zi := d.QX[i], d.QY[i], d.QZ[i]
	r.clear()

	j := 0
	for ; j+width <= size; j += width {
		vek32.SubNumber_Into(r.dx, d.QX[j:j+width], xi)
		vek32.SubNumber_Into(r.dy, d.QY[j:j+width], yi)
		vek32.SubNumber_Into(r.dz, d.QZ[j:j+width], zi)

		vek32.Mul_Into(r.d2, r.dx, r.dx)
		vek32.Mul_Into(r.tmp, r.dy, r.dy)
		vek32.Add_Inplace(r.d2, r.tmp)
		vek32.Mul_Into(r.tmp, r.dz, r.dz)
		vek32.Add_Inplace(r.d2, r.tmp)
		vek32.AddNumber_Inplace(r.d2, soft2)

		vek32.Sqrt_Into(r.inv, r.d2)
		vek32.Inv_Inplace(r.inv)
		vek32.Mul_Into(r.s, r.inv, r.inv)
		vek32.Mul_Inplace(r.s, r.inv)
		vek32.Mul_Inplace(r.s, d.M[j:j+width])

		vek32.Mul_Into(r.tmp, r.s, r.dx)
		vek32.Add_Inplace(r.ax, r.tmp)
		vek32.Mul_Into(r.tmp, r.s, r.dy)
		vek32.Add_Inplace(r.ay, r.tmp)
		vek32.Mul_Into(r.tmp, r.s, r.dz)
		vek32.Add_Inplace(r.az, r.tmp)
	}

	ax, ay, az := vek32.Sum(r.ax), vek32.Sum(r.ay), vek32.Sum(r.az)
	if j < size {
		tx, ty, tz := fullRow(d, i, j, size, soft2)
		ax += tx
		ay += ty
		az += tz
	}
	return g * ax, g * ay, g * az
}
