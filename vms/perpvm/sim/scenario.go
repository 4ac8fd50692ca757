// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/config"
)

const (
	OpFund            = "fund"
	OpPrice           = "price"
	OpAdvance         = "advance"
	OpHalt            = "halt"
	OpResume          = "resume"
	OpCreateCode      = "createCode"
	OpUseCode         = "useCode"
	OpAddLiquidity    = "addLiquidity"
	OpRemoveLiquidity = "removeLiquidity"
	OpIncrease        = "increase"
	OpDecrease        = "decrease"
	OpLiquidate       = "liquidate"
	OpWithdrawFees    = "withdrawFees"
	OpClaimRebates    = "claimRebates"
	OpClaimReferral   = "claimReferral"
)

var (
	ErrUnknownOp         = errors.New("unknown op")
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrInvalidStep       = errors.New("invalid step")
	ErrUnexpectedSuccess = errors.New("step succeeded unexpectedly")
	ErrUnexpectedError   = errors.New("step failed with unexpected error")

	// DefaultStart is a Tuesday.
	DefaultStart = time.Unix(1_700_000_000, 0).UTC()
)

// Scenario is a scripted run against a fresh ledger.
type Scenario struct {
	// Config is overlaid on config.DefaultConfig.
	Config json.RawMessage `json:"config"`
	// Start is the initial clock time. It defaults to DefaultStart.
	Start time.Time `json:"start"`
	Steps []Step    `json:"steps"`
}

// Step is one scripted action. Which fields apply depends on Op. Amounts are
// decimal strings: token units for Amount, USD for Size and Delta.
//
// Account is the caller. Owner names the position owner when it differs
// from the caller, as for routers and liquidators. For removeLiquidity Size
// is the synthetic supply burned.
type Step struct {
	Op string `json:"op"`

	Account  string `json:"account,omitempty"`
	Owner    string `json:"owner,omitempty"`
	Receiver string `json:"receiver,omitempty"`

	Pool       string `json:"pool,omitempty"`
	Token      string `json:"token,omitempty"`
	Collateral string `json:"collateral,omitempty"`
	Index      string `json:"index,omitempty"`
	Long       bool   `json:"long,omitempty"`

	Amount   string   `json:"amount,omitempty"`
	Size     string   `json:"size,omitempty"`
	Delta    string   `json:"delta,omitempty"`
	Price    string   `json:"price,omitempty"`
	Duration Duration `json:"duration,omitempty"`
	Code     string   `json:"code,omitempty"`

	Router     bool `json:"router,omitempty"`
	Liquidator bool `json:"liquidator,omitempty"`
	Manager    bool `json:"manager,omitempty"`

	// ExpectError, if set, must be contained in the error the step fails
	// with.
	ExpectError string `json:"expectError,omitempty"`
}

// Duration reads "1h30m" style strings.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadScenario reads a scenario from a JSON file.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Scenario{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	return s, nil
}

// ParseConfig returns the ledger config of the scenario.
func (s *Scenario) ParseConfig() (config.Config, error) {
	return config.Parse(s.Config)
}

// AccountID derives the account of a scenario name.
func AccountID(name string) ids.ShortID {
	h := sha256.Sum256([]byte("account/" + name))
	var id ids.ShortID
	copy(id[:], h[:ids.ShortIDLen])
	return id
}
