// Package device provides a bulk-parallel compute device with its own
// memory space, executed on host cores.
//
// The API follows the shape of a GPU runtime: memory is allocated on the
// device with [Device.Malloc], moved with [Device.CopyToDevice] and
// [Device.CopyToHost], and kernels are launched over a grid of blocks with
// [Device.Launch]. Launches are asynchronous and execute in issue order;
// [Device.Synchronize] is the barrier. Copies synchronize implicitly.
//
// Device memory is bounded by [Config.MemoryBytes]. An allocation beyond the
// budget fails with [ErrOutOfMemory], which matches
// dynamo.ErrResourceExhaustion under errors.Is.
//
// Example:
//
//	dev, err := device.Open(nil)
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//
//	buf, err := dev.Malloc(n)
//	if err != nil {
//		return err
//	}
//	_ = dev.CopyToDevice(buf, host)
//	grid, block := device.Geometry(n, dev.ThreadsPerBlock())
//	_ = dev.Launch(grid, block, func(t device.Thread) {
//		if i := t.GlobalX(); i < n {
//			buf.Slice()[i] *= 2
//		}
//	})
//	dev.Synchronize()
package device

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// Errors
var (
	ErrOutOfMemory   = fmt.Errorf("device: out of device memory: %w", dynamo.ErrResourceExhaustion)
	ErrClosed        = errors.New("device: device closed")
	ErrInvalidBuffer = errors.New("device: invalid or freed buffer")
	ErrSizeMismatch  = errors.New("device: copy size mismatch")
	ErrInvalidLaunch = errors.New("device: invalid launch configuration")
	ErrInvalidConfig = errors.New("device: invalid configuration")
)

const (
	DefaultThreadsPerBlock = 256
	MaxThreadsPerBlock     = 1024
	DefaultMemoryBytes     = 1 << 30

	floatSize = 4
)

// Config holds device options.
type Config struct {
	// ThreadsPerBlock is the block size used by Geometry.
	ThreadsPerBlock int
	// MemoryBytes bounds the total size of live allocations.
	MemoryBytes int64
	// Workers is the number of host goroutines executing blocks.
	Workers int
}

func DefaultConfig() *Config {
	return &Config{
		ThreadsPerBlock: DefaultThreadsPerBlock,
		MemoryBytes:     DefaultMemoryBytes,
		Workers:         runtime.GOMAXPROCS(0),
	}
}

func (c *Config) validate() error {
	if c.ThreadsPerBlock <= 0 || c.ThreadsPerBlock > MaxThreadsPerBlock {
		return fmt.Errorf("%w: threads per block must be in [1,%d], got %d",
			ErrInvalidConfig, MaxThreadsPerBlock, c.ThreadsPerBlock)
	}
	if c.MemoryBytes <= 0 {
		return fmt.Errorf("%w: memory must be positive, got %d", ErrInvalidConfig, c.MemoryBytes)
	}
	return nil
}

// Dim3 represents 3D dimensions for grid and block.
type Dim3 struct {
	X, Y, Z int
}

func (d Dim3) size() int {
	return max(d.X, 1) * max(d.Y, 1) * max(d.Z, 1)
}

// Thread identifies one logical device thread.
type Thread struct {
	BlockIdx  Dim3
	ThreadIdx Dim3
	BlockDim  Dim3
	GridDim   Dim3
}

// GlobalX returns the flattened thread index along x.
func (t Thread) GlobalX() int {
	return t.BlockIdx.X*t.BlockDim.X + t.ThreadIdx.X
}

// Kernel is the body run by every device thread of a launch.
type Kernel func(t Thread)

// Geometry returns a 1D launch covering at least n threads.
func Geometry(n, threadsPerBlock int) (grid, block Dim3) {
	blocks := (n + threadsPerBlock - 1) / threadsPerBlock
	return Dim3{X: max(blocks, 1), Y: 1, Z: 1}, Dim3{X: threadsPerBlock, Y: 1, Z: 1}
}

// Buffer is a float32 allocation in device memory.
type Buffer struct {
	id   uint64
	data []float32
	dev  *Device
}

func (b *Buffer) Len() int { return len(b.data) }

// Slice returns the device-side storage. It must only be touched from
// kernels or between a Synchronize and the next Launch.
func (b *Buffer) Slice() []float32 { return b.data }

// Stats reports device activity counters.
type Stats struct {
	Launches     int64
	BytesToDev   int64
	BytesToHost  int64
	Allocations  int64
	LiveBuffers  int
	AllocatedMem int64
}

// Device executes kernels on host goroutines and owns a bounded memory
// space.
type Device struct {
	cfg Config

	mu        sync.Mutex
	closed    bool
	nextID    uint64
	buffers   map[uint64]*Buffer
	allocated int64

	inflight sync.WaitGroup

	launches    atomic.Int64
	bytesToDev  atomic.Int64
	bytesToHost atomic.Int64
	allocs      atomic.Int64
}

// Open creates a device. A nil config uses DefaultConfig.
func Open(cfg *Config) (*Device, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &Device{
		cfg:     c,
		buffers: make(map[uint64]*Buffer),
	}, nil
}

func (d *Device) Name() string         { return "emulated" }
func (d *Device) ThreadsPerBlock() int { return d.cfg.ThreadsPerBlock }
func (d *Device) MemoryBytes() int64   { return d.cfg.MemoryBytes }

// Allocated returns the bytes held by live buffers.
func (d *Device) Allocated() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocated
}

func (d *Device) Stats() Stats {
	d.mu.Lock()
	live, alloc := len(d.buffers), d.allocated
	d.mu.Unlock()
	return Stats{
		Launches:     d.launches.Load(),
		BytesToDev:   d.bytesToDev.Load(),
		BytesToHost:  d.bytesToHost.Load(),
		Allocations:  d.allocs.Load(),
		LiveBuffers:  live,
		AllocatedMem: alloc,
	}
}

// Malloc allocates n float32 values of zeroed device memory.
func (d *Device) Malloc(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: allocation of %d elements", ErrInvalidBuffer, n)
	}
	size := int64(n) * floatSize

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if d.allocated+size > d.cfg.MemoryBytes {
		return nil, fmt.Errorf("%w: requested %d bytes with %d of %d in use",
			ErrOutOfMemory, size, d.allocated, d.cfg.MemoryBytes)
	}

	d.nextID++
	b := &Buffer{id: d.nextID, data: make([]float32, n), dev: d}
	d.buffers[b.id] = b
	d.allocated += size
	d.allocs.Add(1)
	return b, nil
}

// Free releases a buffer. Freeing twice returns ErrInvalidBuffer.
func (d *Device) Free(b *Buffer) error {
	d.Synchronize()

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freeLocked(b)
}

func (d *Device) freeLocked(b *Buffer) error {
	if b == nil || b.dev != d {
		return ErrInvalidBuffer
	}
	if _, ok := d.buffers[b.id]; !ok {
		return ErrInvalidBuffer
	}
	delete(d.buffers, b.id)
	d.allocated -= int64(len(b.data)) * floatSize
	b.data = nil
	return nil
}

func (d *Device) checkBuffer(b *Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if b == nil || b.dev != d {
		return ErrInvalidBuffer
	}
	if _, ok := d.buffers[b.id]; !ok {
		return ErrInvalidBuffer
	}
	return nil
}

// CopyToDevice copies src into dst. len(src) must equal dst.Len().
func (d *Device) CopyToDevice(dst *Buffer, src []float32) error {
	d.Synchronize()
	if err := d.checkBuffer(dst); err != nil {
		return err
	}
	if len(src) != len(dst.data) {
		return fmt.Errorf("%w: host %d, device %d", ErrSizeMismatch, len(src), len(dst.data))
	}
	copy(dst.data, src)
	d.bytesToDev.Add(int64(len(src)) * floatSize)
	return nil
}

// CopyToHost copies src into dst. len(dst) must equal src.Len().
func (d *Device) CopyToHost(dst []float32, src *Buffer) error {
	d.Synchronize()
	if err := d.checkBuffer(src); err != nil {
		return err
	}
	if len(dst) != len(src.data) {
		return fmt.Errorf("%w: host %d, device %d", ErrSizeMismatch, len(dst), len(src.data))
	}
	copy(dst, src.data)
	d.bytesToHost.Add(int64(len(dst)) * floatSize)
	return nil
}

// Launch runs k once per thread of the grid. It returns once the launch is
// queued; kernels execute in issue order and the work is complete after
// Synchronize.
func (d *Device) Launch(grid, block Dim3, k Kernel) error {
	if k == nil {
		return fmt.Errorf("%w: nil kernel", ErrInvalidLaunch)
	}
	if grid.X <= 0 || block.X <= 0 {
		return fmt.Errorf("%w: grid %+v block %+v", ErrInvalidLaunch, grid, block)
	}
	if block.size() > MaxThreadsPerBlock {
		return fmt.Errorf("%w: %d threads per block exceeds %d",
			ErrInvalidLaunch, block.size(), MaxThreadsPerBlock)
	}

	// single in-order stream
	d.Synchronize()

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}

	d.launches.Add(1)

	blocks := grid.size()
	workers := min(d.cfg.Workers, blocks)
	var next atomic.Int64

	d.inflight.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer d.inflight.Done()
			for {
				b := int(next.Add(1) - 1)
				if b >= blocks {
					return
				}
				runBlock(k, b, grid, block)
			}
		}()
	}
	return nil
}

func runBlock(k Kernel, linear int, grid, block Dim3) {
	gx, gy := max(grid.X, 1), max(grid.Y, 1)
	bx, by, bz := max(block.X, 1), max(block.Y, 1), max(block.Z, 1)

	t := Thread{
		BlockIdx: Dim3{X: linear % gx, Y: (linear / gx) % gy, Z: linear / (gx * gy)},
		BlockDim: Dim3{X: bx, Y: by, Z: bz},
		GridDim:  Dim3{X: gx, Y: gy, Z: max(grid.Z, 1)},
	}
	for z := 0; z < bz; z++ {
		for y := 0; y < by; y++ {
			for x := 0; x < bx; x++ {
				t.ThreadIdx = Dim3{X: x, Y: y, Z: z}
				k(t)
			}
		}
	}
}

// Synchronize blocks until every launched kernel has completed.
func (d *Device) Synchronize() {
	d.inflight.Wait()
}

// Close waits for outstanding work and frees every live buffer. Calling
// Close more than once is a no-op.
func (d *Device) Close() error {
	d.Synchronize()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	for _, b := range d.buffers {
		d.allocated -= int64(len(b.data)) * floatSize
		b.data = nil
	}
	clear(d.buffers)
	d.closed = true
	return nil
}
