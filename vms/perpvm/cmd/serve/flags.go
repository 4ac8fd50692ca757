// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package serve

import (
	"time"

	"github.com/spf13/pflag"
)

const (
	HTTPAddrKey        = "http-addr"
	ConfigKey          = "config"
	ScenarioKey        = "scenario"
	ShutdownTimeoutKey = "shutdown-timeout"
	QuietKey           = "quiet"
)

func AddFlags(flags *pflag.FlagSet) {
	flags.String(HTTPAddrKey, "127.0.0.1:9660", "Address to serve the API on")
	flags.String(ConfigKey, "", "Ledger config file. Ignored when a scenario is given")
	flags.String(ScenarioKey, "", "Scenario to replay before serving")
	flags.Duration(ShutdownTimeoutKey, 10*time.Second, "Time allowed for in-flight requests on shutdown")
	flags.Bool(QuietKey, false, "Suppress ledger logs")
}

type Config struct {
	HTTPAddr        string
	ConfigPath      string
	ScenarioPath    string
	ShutdownTimeout time.Duration
	Quiet           bool
}

func ParseFlags(flags *pflag.FlagSet) (*Config, error) {
	httpAddr, err := flags.GetString(HTTPAddrKey)
	if err != nil {
		return nil, err
	}

	configPath, err := flags.GetString(ConfigKey)
	if err != nil {
		return nil, err
	}

	scenarioPath, err := flags.GetString(ScenarioKey)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := flags.GetDuration(ShutdownTimeoutKey)
	if err != nil {
		return nil, err
	}

	quiet, err := flags.GetBool(QuietKey)
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPAddr:        httpAddr,
		ConfigPath:      configPath,
		ScenarioPath:    scenarioPath,
		ShutdownTimeout: shutdownTimeout,
		Quiet:           quiet,
	}, nil
}
