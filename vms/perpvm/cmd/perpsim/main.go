// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luxfi/perps/vms/perpvm/cmd/run"
	"github.com/luxfi/perps/vms/perpvm/cmd/serve"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cobra.Command{
		Use:          "perpsim",
		Short:        "Simulates a perpetual futures vault",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		run.Command(),
		serve.Command(),
	)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "perpsim failed: %s\n", err)
		stop()
		os.Exit(1)
	}
}
