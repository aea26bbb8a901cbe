//go:build opencl

package blackcl

import (
	"fmt"

	"github.com/haormj/gemmbench/accelerated/device"
	"github.com/haormj/gemmbench/accelerated/opencl"
	"gitlab.com/microo8/blackcl"
)

// OpenCL is a device.Device on the default OpenCL device, driven through blackcl.
type OpenCL struct {
	device *blackcl.Device
	kernel *blackcl.Kernel
	dims   *blackcl.Vector
}

func New() *OpenCL {
	return &OpenCL{}
}

// SetupContext opens the default device and compiles the kernel.
func (o *OpenCL) SetupContext() error {
	var err error

	o.device, err = blackcl.GetDefaultDevice()
	if err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to get default device: %w", err)
	}

	o.device.AddProgram(opencl.MatMulSource)
	o.kernel = o.device.Kernel(opencl.MatMulKernel)

	o.dims, err = o.device.NewVector(opencl.DimsLength)
	if err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to create dims buffer: %w", err)
	}

	return nil
}

// Name implements device.Device.
func (o *OpenCL) Name() string {
	return "blackcl"
}

// Allocate implements device.Device.
func (o *OpenCL) Allocate(length int) (device.Allocation, error) {
	v, err := o.device.NewVector(length)
	if err != nil {
		return nil, fmt.Errorf("accelerated/blackcl: failed to create buffer: %w", err)
	}

	return &vector{owner: o, v: v, length: length}, nil
}

// MatMulTN implements device.Device.
func (o *OpenCL) MatMulTN(c, a, b device.Allocation, g device.Gemm) error {
	dims, err := opencl.Dims(g)
	if err != nil {
		return err
	}

	cDev, err := o.own(c)
	if err != nil {
		return err
	}

	aDev, err := o.own(a)
	if err != nil {
		return err
	}

	bDev, err := o.own(b)
	if err != nil {
		return err
	}

	if err := <-o.dims.Copy(dims); err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to write dims: %w", err)
	}

	call := o.kernel.
		Global(opencl.GlobalSize(g.M), opencl.GlobalSize(g.N)).
		Local(opencl.LocalGroupSize, opencl.LocalGroupSize)

	if err := <-call.Run(cDev.v, aDev.v, bDev.v, o.dims); err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to run kernel: %w", err)
	}

	return nil
}

// Release implements device.Device.
func (o *OpenCL) Release() error {
	if o.device == nil {
		return nil
	}

	if o.dims != nil {
		o.dims.Release()
		o.dims = nil
	}

	if err := o.device.Release(); err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to release device: %w", err)
	}

	return nil
}

func (o *OpenCL) own(a device.Allocation) (*vector, error) {
	v, ok := a.(*vector)
	if !ok || v.owner != o || v.v == nil {
		return nil, fmt.Errorf("accelerated/blackcl: allocation does not belong to this device")
	}

	return v, nil
}

type vector struct {
	owner  *OpenCL
	v      *blackcl.Vector
	length int
}

func (v *vector) Len() int {
	return v.length
}

// Upload writes src to the front of the vector. blackcl copies whole vectors,
// so a shorter src is padded with zeros.
func (v *vector) Upload(src []float32) error {
	if len(src) > v.length {
		return fmt.Errorf("accelerated/blackcl: upload of %d elements into %d", len(src), v.length)
	}

	if len(src) < v.length {
		padded := make([]float32, v.length)
		copy(padded, src)
		src = padded
	}

	if err := <-v.v.Copy(src); err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to copy buffer: %w", err)
	}

	return nil
}

func (v *vector) Download(dst []float32) error {
	if len(dst) > v.length {
		return fmt.Errorf("accelerated/blackcl: download of %d elements from %d", len(dst), v.length)
	}

	data, err := v.v.Data()
	if err != nil {
		return fmt.Errorf("accelerated/blackcl: failed to get buffer data: %w", err)
	}

	copy(dst, data)

	return nil
}

func (v *vector) Release() {
	if v.v == nil {
		return
	}

	v.v.Release()
	v.v = nil
	v.length = 0
}

var _ device.Device = &OpenCL{}
