// Package emulated provides a device.Device that keeps its memory on the host
// and runs the kernel as a plain loop. It counts allocations and can be given
// a capacity, which makes it useful for tests and for machines without OpenCL.
package emulated

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/haormj/gemmbench/accelerated/device"
)

var (
	ErrOutOfMemory       = errors.New("accelerated/emulated: out of device memory")
	ErrForeignAllocation = errors.New("accelerated/emulated: allocation belongs to another device")
)

type Device struct {
	name     string
	capacity int

	inUse       atomic.Int64
	allocations atomic.Int64
	releases    atomic.Int64
	dispatches  atomic.Int64
	transferred atomic.Int64
}

type Option func(*Device)

// WithCapacity limits the number of float32 elements that can be allocated at
// the same time.
func WithCapacity(elements int) Option {
	return func(d *Device) {
		d.capacity = elements
	}
}

func New(name string, opts ...Option) *Device {
	d := &Device{name: name}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Name implements device.Device.
func (d *Device) Name() string {
	return d.name
}

// Allocate implements device.Device.
func (d *Device) Allocate(length int) (device.Allocation, error) {
	if length <= 0 {
		return nil, fmt.Errorf("accelerated/emulated: invalid allocation length %d", length)
	}

	if d.capacity > 0 && d.inUse.Load()+int64(length) > int64(d.capacity) {
		return nil, fmt.Errorf("accelerated/emulated: %d elements requested, %d of %d in use: %w", length, d.inUse.Load(), d.capacity, ErrOutOfMemory)
	}

	d.inUse.Add(int64(length))
	d.allocations.Add(1)

	return &allocation{device: d, data: make([]float32, length)}, nil
}

// MatMulTN implements device.Device.
func (d *Device) MatMulTN(c, a, b device.Allocation, g device.Gemm) error {
	cOut, err := d.own(c)
	if err != nil {
		return err
	}

	aIn, err := d.own(a)
	if err != nil {
		return err
	}

	bIn, err := d.own(b)
	if err != nil {
		return err
	}

	d.dispatches.Add(1)

	var val float32

	for i := 0; i < g.M; i++ {
		for j := 0; j < g.N; j++ {
			val = 0

			for p := 0; p < g.K; p++ {
				val += aIn.data[p*g.StrideA+i] * bIn.data[p*g.StrideB+j]
			}

			cOut.data[i*g.StrideC+j] = val
		}
	}

	return nil
}

// Release implements device.Device.
func (d *Device) Release() error {
	return nil
}

// Allocations returns the number of successful Allocate calls.
func (d *Device) Allocations() int {
	return int(d.allocations.Load())
}

// Releases returns the number of released allocations.
func (d *Device) Releases() int {
	return int(d.releases.Load())
}

// Dispatches returns the number of kernel runs.
func (d *Device) Dispatches() int {
	return int(d.dispatches.Load())
}

// Transferred returns the number of elements moved by Upload and Download.
func (d *Device) Transferred() int {
	return int(d.transferred.Load())
}

// InUse returns the number of allocated elements.
func (d *Device) InUse() int {
	return int(d.inUse.Load())
}

func (d *Device) own(a device.Allocation) (*allocation, error) {
	alloc, ok := a.(*allocation)
	if !ok || alloc.device != d || alloc.data == nil {
		return nil, ErrForeignAllocation
	}

	return alloc, nil
}

type allocation struct {
	device *Device
	data   []float32
}

func (a *allocation) Len() int {
	return len(a.data)
}

func (a *allocation) Upload(src []float32) error {
	if a.data == nil || len(src) > len(a.data) {
		return fmt.Errorf("accelerated/emulated: upload of %d elements into %d", len(src), len(a.data))
	}

	a.device.transferred.Add(int64(copy(a.data, src)))

	return nil
}

func (a *allocation) Download(dst []float32) error {
	if a.data == nil || len(dst) > len(a.data) {
		return fmt.Errorf("accelerated/emulated: download of %d elements from %d", len(dst), len(a.data))
	}

	a.device.transferred.Add(int64(copy(dst, a.data)))

	return nil
}

func (a *allocation) Release() {
	if a.data == nil {
		return
	}

	a.device.inUse.Add(-int64(len(a.data)))
	a.device.releases.Add(1)
	a.data = nil
}

var _ device.Device = &Device{}
