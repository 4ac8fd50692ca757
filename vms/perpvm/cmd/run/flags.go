// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"errors"

	"github.com/spf13/pflag"
)

const (
	QuietKey  = "quiet"
	IndentKey = "indent"
)

var errMissingScenario = errors.New("missing scenario path")

func AddFlags(flags *pflag.FlagSet) {
	flags.Bool(QuietKey, false, "Suppress ledger logs")
	flags.Bool(IndentKey, true, "Indent the report")
}

type Config struct {
	ScenarioPath string
	Quiet        bool
	Indent       bool
}

func ParseFlags(flags *pflag.FlagSet, args []string) (*Config, error) {
	if len(args) != 1 {
		return nil, errMissingScenario
	}

	quiet, err := flags.GetBool(QuietKey)
	if err != nil {
		return nil, err
	}

	indent, err := flags.GetBool(IndentKey)
	if err != nil {
		return nil, err
	}

	return &Config{
		ScenarioPath: args[0],
		Quiet:        quiet,
		Indent:       indent,
	}, nil
}
