//go:build opencl

package main

// Building with -tags opencl adds the blackcl and goopencl backends. Both
// need cgo and an OpenCL ICD loader.

import (
	"github.com/haormj/gemmbench/accelerated/blackcl"
	"github.com/haormj/gemmbench/accelerated/device"
	"github.com/haormj/gemmbench/accelerated/goopencl"
)

func init() {
	backends["blackcl"] = func() (device.Device, error) {
		o := blackcl.New()
		if err := o.SetupContext(); err != nil {
			return nil, err
		}

		return o, nil
	}

	backends["goopencl"] = func() (device.Device, error) {
		o := goopencl.New()
		if err := o.SetupContext(); err != nil {
			return nil, err
		}

		return o, nil
	}
}
