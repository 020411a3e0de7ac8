package compute

import (
	"errors"
	"fmt"
	"log"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/device"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// mirror is the device-resident copy of the body store and acceleration
// buffer.
type mirror struct {
	m          *device.Buffer
	qx, qy, qz *device.Buffer
	vx, vy, vz *device.Buffer
	ax, ay, az *device.Buffer
}

func (mr *mirror) slots() []**device.Buffer {
	return []**device.Buffer{
		&mr.m,
		&mr.qx, &mr.qy, &mr.qz,
		&mr.vx, &mr.vy, &mr.vz,
		&mr.ax, &mr.ay, &mr.az,
	}
}

// allocMirror allocates every buffer of a mirror or none of them.
func allocMirror(dev *device.Device, size int) (*mirror, error) {
	mr := &mirror{}
	for _, slot := range mr.slots() {
		buf, err := dev.Malloc(size)
		if err != nil {
			if rerr := mr.release(dev); rerr != nil {
				log.Printf("gravsim: releasing partial device mirror: %v", rerr)
			}
			return nil, err
		}
		*slot = buf
	}
	return mr, nil
}

func (mr *mirror) release(dev *device.Device) error {
	var errs []error
	for _, slot := range mr.slots() {
		if *slot == nil {
			continue
		}
		if err := dev.Free(*slot); err != nil {
			errs = append(errs, err)
		}
		*slot = nil
	}
	return errors.Join(errs...)
}

// view returns the device-side body fields as a SoA.
func (mr *mirror) view() body.SoA {
	return body.SoA{
		M:  mr.m.Slice(),
		QX: mr.qx.Slice(), QY: mr.qy.Slice(), QZ: mr.qz.Slice(),
		VX: mr.vx.Slice(), VY: mr.vy.Slice(), VZ: mr.vz.Slice(),
	}
}

// GPU offloads the full-policy computation to a bulk-parallel device. Host
// state is uploaded once at Attach; positions and velocities come back after
// every Integrate, accelerations only when asked for.
type GPU struct {
	host
	cfg device.Config

	dev    *device.Device
	mr     *mirror
	grid   device.Dim3
	block  device.Dim3
	reset  device.Kernel
	accel  device.Kernel
	update device.Kernel
}

func NewGPU(opts Options) *GPU {
	cfg := *device.DefaultConfig()
	if opts.Device.ThreadsPerBlock > 0 {
		cfg.ThreadsPerBlock = opts.Device.ThreadsPerBlock
	}
	if opts.Device.MemoryBytes > 0 {
		cfg.MemoryBytes = opts.Device.MemoryBytes
	}
	if opts.Device.Workers > 0 {
		cfg.Workers = opts.Device.Workers
	} else if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	return &GPU{cfg: cfg}
}

func (g *GPU) Name() string                    { return NameGPU }
func (g *GPU) Policy() Policy                  { return Full }
func (g *GPU) FlopsPerIteration(n int) float64 { return Full.Flops(n) }

// Device returns the underlying device, nil before Attach or after Close.
func (g *GPU) Device() *device.Device { return g.dev }

func (g *GPU) Attach(st *body.Store, acc *body.Accelerations, p dynamo.Params) error {
	if err := g.attach(st, acc, p); err != nil {
		return err
	}

	dev, err := device.Open(&g.cfg)
	if err != nil {
		return err
	}

	mr, err := allocMirror(dev, st.Len())
	if err != nil {
		_ = dev.Close()
		return fmt.Errorf("allocating device mirror for %d bodies: %w", st.Len(), err)
	}
	g.dev, g.mr = dev, mr

	if err := g.upload(); err != nil {
		_ = g.Close()
		return fmt.Errorf("uploading bodies: %w", err)
	}

	n, size := st.N(), st.Len()
	d := mr.view()
	ax, ay, az := mr.ax.Slice(), mr.ay.Slice(), mr.az.Slice()

	g.grid, g.block = device.Geometry(n, dev.ThreadsPerBlock())
	g.reset = resetKernel(size, ax, ay, az)
	g.accel = accelerationKernel(n, p.G, g.soft2, d, ax, ay, az)
	g.update = integrateKernel(n, p.Dt, d, ax, ay, az)
	return nil
}

func (g *GPU) upload() error {
	h := g.st.SoA()
	pairs := []struct {
		dst *device.Buffer
		src []float32
	}{
		{g.mr.m, h.M},
		{g.mr.qx, h.QX}, {g.mr.qy, h.QY}, {g.mr.qz, h.QZ},
		{g.mr.vx, h.VX}, {g.mr.vy, h.VY}, {g.mr.vz, h.VZ},
	}
	for _, p := range pairs {
		if err := g.dev.CopyToDevice(p.dst, p.src); err != nil {
			return err
		}
	}
	return nil
}

// Download copies positions and velocities from the device into the host
// store.
func (g *GPU) Download() error {
	if g.dev == nil {
		return dynamo.ErrClosed
	}
	h := g.st.Mutable()
	pairs := []struct {
		dst []float32
		src *device.Buffer
	}{
		{h.QX, g.mr.qx}, {h.QY, g.mr.qy}, {h.QZ, g.mr.qz},
		{h.VX, g.mr.vx}, {h.VY, g.mr.vy}, {h.VZ, g.mr.vz},
	}
	for _, p := range pairs {
		if err := g.dev.CopyToHost(p.dst, p.src); err != nil {
			return err
		}
	}
	return nil
}

func (g *GPU) launch(k device.Kernel, grid device.Dim3) error {
	if g.dev == nil {
		return dynamo.ErrClosed
	}
	if err := g.dev.Launch(grid, g.block, k); err != nil {
		return err
	}
	g.dev.Synchronize()
	return nil
}

func (g *GPU) Reset() error {
	if g.dev == nil {
		return dynamo.ErrClosed
	}
	grid, _ := device.Geometry(g.st.Len(), g.dev.ThreadsPerBlock())
	return g.launch(g.reset, grid)
}

func (g *GPU) Accumulate() error {
	return g.launch(g.accel, g.grid)
}

func (g *GPU) Integrate() error {
	if err := g.launch(g.update, g.grid); err != nil {
		return err
	}
	return g.Download()
}

func (g *GPU) Accelerations() (*body.Accelerations, error) {
	if g.dev == nil {
		return nil, dynamo.ErrClosed
	}
	pairs := []struct {
		dst []float32
		src *device.Buffer
	}{
		{g.acc.AX, g.mr.ax}, {g.acc.AY, g.mr.ay}, {g.acc.AZ, g.mr.az},
	}
	for _, p := range pairs {
		if err := g.dev.CopyToHost(p.dst, p.src); err != nil {
			return nil, err
		}
	}
	return g.acc, nil
}

// Close releases the mirror and the device. It is safe to call more than
// once.
func (g *GPU) Close() error {
	if g.dev == nil {
		return nil
	}
	var errs []error
	if g.mr != nil {
		errs = append(errs, g.mr.release(g.dev))
		g.mr = nil
	}
	errs = append(errs, g.dev.Close())
	g.dev = nil
	return errors.Join(errs...)
}
