//go:build cgo && netlib

package cpu

// Building with -tags netlib routes sgemm to the system BLAS (Accelerate on
// macOS, OpenBLAS on Linux) instead of the pure Go gonum implementation.

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/netlib/blas/netlib"
)

func init() {
	blas32.Use(netlib.Implementation{})
	log.Debug().Msg("accelerated/cpu: using system BLAS (netlib)")
}
