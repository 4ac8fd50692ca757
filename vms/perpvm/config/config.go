// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines configuration types for the perp vault.
package config

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/ids"

	"github.com/luxfi/perps/utils/wrappers"
	"github.com/luxfi/perps/vms/perpvm/fixed"
)

const maxTokenDecimals = 36

var (
	ErrInvalidLeverage     = errors.New("max leverage must exceed 1x")
	ErrInvalidFee          = errors.New("fee must be below 100%")
	ErrInvalidInterval     = errors.New("funding interval must be positive")
	ErrInvalidDecimals     = errors.New("token decimals out of range")
	ErrDuplicateToken      = errors.New("duplicate token")
	ErrDuplicatePool       = errors.New("duplicate pool")
	ErrUnknownToken        = errors.New("unknown token")
	ErrInvalidSession      = errors.New("invalid trading session")
	ErrInvalidOracleSpread = errors.New("oracle spread must be below 100%")
)

// Token describes an asset that may back a pool or be traded as an index.
type Token struct {
	Symbol    string `json:"symbol"`
	Decimals  uint8  `json:"decimals"`
	Stable    bool   `json:"stable"`
	Shortable bool   `json:"shortable"`

	// FundingRateFactor is the funding charged per FundingInterval, as a
	// fraction of position size, when the pool is fully utilized.
	FundingRateFactor fixed.Index `json:"fundingRateFactor"`
	// SkewRateFactor is the skew charge per FundingInterval when open
	// interest is entirely on one side.
	SkewRateFactor fixed.Index `json:"skewRateFactor"`

	// Profits below MinProfitBps of size are ignored until MinProfitTime has
	// passed since the last increase.
	MinProfitBps  fixed.BPS     `json:"minProfitBps"`
	MinProfitTime time.Duration `json:"minProfitTime"`
}

func (t Token) ID() ids.ID {
	return AssetID(t.Symbol)
}

// Pool names a liquidity pool and the tokens it holds.
type Pool struct {
	Name   string   `json:"name"`
	Tokens []string `json:"tokens"`
}

func (p Pool) ID() ids.ID {
	return PoolID(p.Name)
}

// Session opens trading of a token on the listed UTC weekdays between
// OpenMinute and CloseMinute (minutes after midnight). Tokens without a
// session trade around the clock.
type Session struct {
	Token       string         `json:"token"`
	Weekdays    []time.Weekday `json:"weekdays"`
	OpenMinute  uint16         `json:"openMinute"`
	CloseMinute uint16         `json:"closeMinute"`
}

// Oracle configures the TWAP price feed.
type Oracle struct {
	SpreadBps  fixed.BPS     `json:"spreadBps"`
	TWAPWindow time.Duration `json:"twapWindow"`
}

// Config contains configuration parameters for the perp vault.
type Config struct {
	// MarginFeeBps is charged on every size change (10 = 0.1%)
	MarginFeeBps fixed.BPS `json:"marginFeeBps"`
	// LiquidationFeeUSD is paid to the liquidation fee receiver
	LiquidationFeeUSD fixed.USD `json:"liquidationFeeUsd"`
	// MaxLeverageBps bounds size / collateral (500000 = 50x)
	MaxLeverageBps fixed.BPS `json:"maxLeverageBps"`
	// MinCollateralUSD is the smallest collateral an open position may hold
	MinCollateralUSD fixed.USD `json:"minCollateralUsd"`
	// FundingInterval is the period the rate factors are quoted over
	FundingInterval time.Duration `json:"fundingInterval"`
	// PrivateLiquidation restricts liquidation to callers with the
	// liquidator capability
	PrivateLiquidation bool `json:"privateLiquidation"`

	Tokens   []Token   `json:"tokens"`
	Pools    []Pool    `json:"pools"`
	Sessions []Session `json:"sessions"`
	Oracle   Oracle    `json:"oracle"`
}

// DefaultConfig returns the default configuration for the perp vault.
func DefaultConfig() Config {
	return Config{
		MarginFeeBps:       10, // 0.1%
		LiquidationFeeUSD:  fixed.Dollars(5),
		MaxLeverageBps:     500_000, // 50x
		MinCollateralUSD:   fixed.Dollars(10),
		FundingInterval:    time.Hour,
		PrivateLiquidation: false,
		Oracle: Oracle{
			SpreadBps:  0,
			TWAPWindow: 30 * time.Minute,
		},
	}
}

// Parse overlays configBytes on the defaults and verifies the result.
func Parse(configBytes []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(configBytes) == 0 {
		return cfg, cfg.Verify()
	}
	if err := json.Unmarshal(configBytes, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Verify()
}

// Verify returns the first inconsistency in the config.
func (c *Config) Verify() error {
	errs := wrappers.Errs{}
	if c.MaxLeverageBps <= fixed.BPSDenominator {
		errs.Add(fmt.Errorf("%w: %d", ErrInvalidLeverage, c.MaxLeverageBps))
	}
	if c.MarginFeeBps >= fixed.BPSDenominator {
		errs.Add(fmt.Errorf("%w: margin fee %d", ErrInvalidFee, c.MarginFeeBps))
	}
	if c.FundingInterval <= 0 {
		errs.Add(ErrInvalidInterval)
	}
	if c.Oracle.SpreadBps >= fixed.BPSDenominator {
		errs.Add(ErrInvalidOracleSpread)
	}

	symbols := make(map[string]struct{}, len(c.Tokens))
	for _, t := range c.Tokens {
		if _, ok := symbols[t.Symbol]; ok {
			errs.Add(fmt.Errorf("%w: %s", ErrDuplicateToken, t.Symbol))
		}
		symbols[t.Symbol] = struct{}{}
		if t.Decimals > maxTokenDecimals {
			errs.Add(fmt.Errorf("%w: %s has %d", ErrInvalidDecimals, t.Symbol, t.Decimals))
		}
		if t.MinProfitBps >= fixed.BPSDenominator {
			errs.Add(fmt.Errorf("%w: %s min profit %d", ErrInvalidFee, t.Symbol, t.MinProfitBps))
		}
	}

	names := make(map[string]struct{}, len(c.Pools))
	for _, p := range c.Pools {
		if _, ok := names[p.Name]; ok {
			errs.Add(fmt.Errorf("%w: %s", ErrDuplicatePool, p.Name))
		}
		names[p.Name] = struct{}{}
		for _, symbol := range p.Tokens {
			if _, ok := symbols[symbol]; !ok {
				errs.Add(fmt.Errorf("%w: %s in pool %s", ErrUnknownToken, symbol, p.Name))
			}
		}
	}

	for _, s := range c.Sessions {
		if _, ok := symbols[s.Token]; !ok {
			errs.Add(fmt.Errorf("%w: %s in session", ErrUnknownToken, s.Token))
		}
		if s.OpenMinute >= s.CloseMinute || s.CloseMinute > 24*60 {
			errs.Add(fmt.Errorf("%w: %s %d-%d", ErrInvalidSession, s.Token, s.OpenMinute, s.CloseMinute))
		}
	}
	return errs.Err
}

// Token returns the token with the given asset ID.
func (c *Config) Token(id ids.ID) (Token, bool) {
	for _, t := range c.Tokens {
		if t.ID() == id {
			return t, true
		}
	}
	return Token{}, false
}

// TokenBySymbol returns the token with the given symbol.
func (c *Config) TokenBySymbol(symbol string) (Token, bool) {
	for _, t := range c.Tokens {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return Token{}, false
}

// Pool returns the pool with the given ID.
func (c *Config) Pool(id ids.ID) (Pool, bool) {
	for _, p := range c.Pools {
		if p.ID() == id {
			return p, true
		}
	}
	return Pool{}, false
}

// PoolHolds reports whether the pool lists token.
func (c *Config) PoolHolds(poolID, token ids.ID) bool {
	p, ok := c.Pool(poolID)
	if !ok {
		return false
	}
	for _, symbol := range p.Tokens {
		if AssetID(symbol) == token {
			return true
		}
	}
	return false
}

// AssetID derives the asset ID used for symbol in keys and records.
func AssetID(symbol string) ids.ID {
	return ids.ID(sha256.Sum256([]byte("asset/" + symbol)))
}

// PoolID derives the pool ID used for name in keys and records.
func PoolID(name string) ids.ID {
	return ids.ID(sha256.Sum256([]byte("pool/" + name)))
}
