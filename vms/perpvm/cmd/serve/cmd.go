// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package serve

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/perps/vms/perpvm/api"
	"github.com/luxfi/perps/vms/perpvm/config"
	"github.com/luxfi/perps/vms/perpvm/sim"
)

const readHeaderTimeout = 10 * time.Second

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serves a simulated ledger over JSON-RPC and websockets",
		Args:  cobra.NoArgs,
		RunE:  serveFunc,
	}
	flags := c.Flags()
	AddFlags(flags)
	return c
}

func serveFunc(c *cobra.Command, _ []string) error {
	cfg, err := ParseFlags(c.Flags())
	if err != nil {
		return err
	}

	var logger log.Logger = log.NoLog{}
	if !cfg.Quiet {
		logger = log.NewLogger("perpsim")
	}

	scenario, err := loadScenario(cfg)
	if err != nil {
		return err
	}

	registry := metric.NewRegistry()
	stream := api.NewStream(logger)
	s, err := sim.NewFromScenario(scenario, registry, logger, stream)
	if err != nil {
		return err
	}

	ctx := c.Context()
	if err := s.Run(ctx, scenario.Steps); err != nil {
		return err
	}

	router, err := NewRouter(s, stream, registry, logger)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("serving",
			log.String("address", cfg.HTTPAddr),
			log.Int("replayedSteps", len(scenario.Steps)),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		stream.Close()
		return server.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// loadScenario returns the scenario to replay. Without one the ledger
// starts empty, configured by the config file if any.
func loadScenario(cfg *Config) (*sim.Scenario, error) {
	if cfg.ScenarioPath != "" {
		return sim.LoadScenario(cfg.ScenarioPath)
	}
	scenario := &sim.Scenario{}
	if cfg.ConfigPath == "" {
		return scenario, nil
	}
	b, err := os.ReadFile(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if _, err := config.Parse(b); err != nil {
		return nil, err
	}
	scenario.Config = b
	return scenario, nil
}
