// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"encoding/json"

	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"github.com/spf13/cobra"

	"github.com/luxfi/perps/vms/perpvm/sim"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "run <scenario.json>",
		Short: "Runs a scenario and prints the final report",
		Args:  cobra.ExactArgs(1),
		RunE:  runFunc,
	}
	flags := c.Flags()
	AddFlags(flags)
	return c
}

func runFunc(c *cobra.Command, args []string) error {
	config, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}

	var logger log.Logger = log.NoLog{}
	if !config.Quiet {
		logger = log.NewLogger("perpsim")
	}

	scenario, err := sim.LoadScenario(config.ScenarioPath)
	if err != nil {
		return err
	}
	s, err := sim.NewFromScenario(scenario, metric.NewRegistry(), logger)
	if err != nil {
		return err
	}
	if err := s.Run(c.Context(), scenario.Steps); err != nil {
		return err
	}

	report, err := s.Report()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.OutOrStdout())
	if config.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
