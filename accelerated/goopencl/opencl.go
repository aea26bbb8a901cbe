//go:build opencl

package goopencl

import (
	"errors"
	"fmt"

	"github.com/haormj/gemmbench/accelerated/device"
	"github.com/haormj/gemmbench/accelerated/opencl"
	cl "github.com/passkeyra/go-opencl/opencl"
)

var ErrNoDevice = errors.New("accelerated/goopencl: no device found")

// OpenCL is a device.Device on the first available GPU, driven through go-opencl.
type OpenCL struct {
	device       cl.Device
	context      cl.Context
	commandQueue cl.CommandQueue
	matmulProg   cl.Program
	matmulKernel cl.Kernel

	// dims carries the kernel's scalar arguments; SetArg only takes buffers.
	dims cl.Buffer
}

func New() *OpenCL {
	return &OpenCL{}
}

// getFirstDevice returns the first available OpenCL device of type deviceType.
func getFirstDevice(deviceType cl.DeviceType) (cl.Device, error) {
	var none cl.Device

	platforms, err := cl.GetPlatforms()
	if err != nil {
		return none, fmt.Errorf("accelerated/goopencl: failed to get platforms: %w", err)
	}

	for _, platform := range platforms {
		devices, err := platform.GetDevices(deviceType)
		if err != nil {
			return none, fmt.Errorf("accelerated/goopencl: failed to get devices: %w", err)
		}

		for _, device := range devices {
			var available bool
			err = device.GetInfo(cl.DeviceAvailable, &available)
			if err == nil && available {
				return device, nil
			}
		}
	}

	return none, ErrNoDevice
}

// SetupContext opens the first GPU and builds the kernel.
func (o *OpenCL) SetupContext() error {
	var err error

	o.device, err = getFirstDevice(cl.DeviceTypeGPU)
	if err != nil {
		return err
	}

	o.context, err = o.device.CreateContext()
	if err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to create context: %w", err)
	}

	o.commandQueue, err = o.context.CreateCommandQueue(o.device)
	if err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to create command queue: %w", err)
	}

	o.matmulProg, err = o.context.CreateProgramWithSource(opencl.MatMulSource)
	if err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to create program: %w", err)
	}

	err = o.matmulProg.Build(o.device, nil)
	if err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to build program: %w", err)
	}

	o.matmulKernel, err = o.matmulProg.CreateKernel(opencl.MatMulKernel)
	if err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to create kernel: %w", err)
	}

	o.dims, err = o.context.CreateBuffer([]cl.MemFlags{cl.MemReadOnly}, uint64(opencl.DimsLength*4))
	if err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to create dims buffer: %w", err)
	}

	return nil
}

// Name implements device.Device.
func (o *OpenCL) Name() string {
	return "go-opencl"
}

// Allocate implements device.Device.
func (o *OpenCL) Allocate(length int) (device.Allocation, error) {
	buf, err := o.context.CreateBuffer([]cl.MemFlags{cl.MemReadWrite}, uint64(length*4))
	if err != nil {
		return nil, fmt.Errorf("accelerated/goopencl: failed to create buffer: %w", err)
	}

	return &buffer{owner: o, buf: buf, length: length}, nil
}

// MatMulTN implements device.Device. The command queue is in order, so the
// blocking read of the dims buffer after the kernel waits for it to finish.
func (o *OpenCL) MatMulTN(c, a, b device.Allocation, g device.Gemm) error {
	dims, err := opencl.Dims(g)
	if err != nil {
		return err
	}

	bufs := make([]cl.Buffer, 4)
	for i, alloc := range []device.Allocation{c, a, b} {
		buf, ok := alloc.(*buffer)
		if !ok || buf.owner != o || buf.length == 0 {
			return fmt.Errorf("accelerated/goopencl: allocation does not belong to this device")
		}

		bufs[i] = buf.buf
	}
	bufs[3] = o.dims

	if err := o.commandQueue.EnqueueWriteBuffer(o.dims, true, dims); err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to write dims: %w", err)
	}

	setArgs := []func() error{
		func() error { return o.matmulKernel.SetArg(0, 8, &bufs[0]) },
		func() error { return o.matmulKernel.SetArg(1, 8, &bufs[1]) },
		func() error { return o.matmulKernel.SetArg(2, 8, &bufs[2]) },
		func() error { return o.matmulKernel.SetArg(3, 8, &bufs[3]) },
	}

	for i, set := range setArgs {
		if err := set(); err != nil {
			return fmt.Errorf("accelerated/goopencl: failed to set argument %d: %w", i, err)
		}
	}

	global := []uint64{uint64(g.M), uint64(g.N)}
	if err := o.commandQueue.EnqueueNDRangeKernel(o.matmulKernel, uint32(len(global)), global); err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to run kernel: %w", err)
	}

	if err := o.commandQueue.EnqueueReadBuffer(o.dims, true, dims); err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to wait for kernel: %w", err)
	}

	return nil
}

// Release implements device.Device.
func (o *OpenCL) Release() error {
	o.dims.Release()
	o.context.Release()

	return nil
}

type buffer struct {
	owner  *OpenCL
	buf    cl.Buffer
	length int
}

func (b *buffer) Len() int {
	return b.length
}

func (b *buffer) Upload(src []float32) error {
	if len(src) > b.length {
		return fmt.Errorf("accelerated/goopencl: upload of %d elements into %d", len(src), b.length)
	}

	if err := b.owner.commandQueue.EnqueueWriteBuffer(b.buf, true, src); err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to write buffer: %w", err)
	}

	return nil
}

func (b *buffer) Download(dst []float32) error {
	if len(dst) > b.length {
		return fmt.Errorf("accelerated/goopencl: download of %d elements from %d", len(dst), b.length)
	}

	if err := b.owner.commandQueue.EnqueueReadBuffer(b.buf, true, dst); err != nil {
		return fmt.Errorf("accelerated/goopencl: failed to read buffer: %w", err)
	}

	return nil
}

func (b *buffer) Release() {
	if b.length == 0 {
		return
	}

	b.buf.Release()
	b.length = 0
}

var _ device.Device = &OpenCL{}
