package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/haormj/gemmbench/accelerated/device"
	"github.com/haormj/gemmbench/accelerated/emulated"
	"github.com/haormj/gemmbench/benchmark"
	"github.com/haormj/version"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// backends opens a device by name. The OpenCL backends register themselves
// when built with -tags opencl.
var backends = map[string]func() (device.Device, error){
	"emulated": func() (device.Device, error) {
		return emulated.New("emulated"), nil
	},
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := benchmark.DefaultConfig()

	var (
		backend  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "gemmbench",
		Short:        "Time and verify C = Aᵗ·B on an OpenCL device against CPU BLAS",
		Version:      version.FullVersion(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(logLevel); err != nil {
				return err
			}

			return run(backend, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&backend, "backend", "emulated", "device backend: "+strings.Join(backendNames(), ", "))
	flags.StringVar(&logLevel, "log-level", "info", "log level")
	flags.IntVar(&cfg.DimensionCapacity, "dimension", cfg.DimensionCapacity, "largest square matrix dimension")
	flags.IntVar(&cfg.TestCount, "tests", cfg.TestCount, "number of tests in the dimension sweep")
	flags.IntVar(&cfg.LoopsPerTest, "loops", cfg.LoopsPerTest, "multiplications per test")
	flags.IntVar(&cfg.CountAlignment, "alignment", cfg.CountAlignment, "row padding granularity in elements")
	flags.Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "maximum relative error between backends")
	flags.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed for the input matrices")

	return cmd
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("gemmbench: %w", err)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	return nil
}

func run(backend string, cfg benchmark.Config) error {
	dev, err := openDevice(backend)
	if err != nil {
		return err
	}
	defer dev.Release()

	test, err := benchmark.New(dev, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := test.Close(); err != nil {
			log.Warn().Err(err).Msg("gemmbench: failed to release matrices")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	type result struct {
		report benchmark.Report
		err    error
	}

	done := make(chan result, 1)
	test.RunAsync(ctx, func(report benchmark.Report, err error) {
		done <- result{report: report, err: err}
	})

	res := <-done
	if res.err != nil {
		return res.err
	}

	log.Info().
		Str("device", res.report.Device).
		Int("tests", len(res.report.Samples)).
		Float64("max_error", res.report.MaxError).
		Msg("gemmbench: success")

	return nil
}

func openDevice(backend string) (device.Device, error) {
	open, ok := backends[backend]
	if !ok {
		return nil, fmt.Errorf("gemmbench: unknown backend %q, available: %s", backend, strings.Join(backendNames(), ", "))
	}

	return open()
}

func backendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
