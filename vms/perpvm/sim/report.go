// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

import (
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/state"
)

// Report is a snapshot of a simulation with every id replaced by its name.
type Report struct {
	Time      uint64           `json:"time"`
	Pools     []PoolReport     `json:"pools"`
	Positions []PositionReport `json:"positions"`
	Wallets   []WalletReport   `json:"wallets"`
	Custody   []WalletReport   `json:"custody"`
	Events    map[string]int   `json:"events"`
}

type PoolReport struct {
	Pool             string       `json:"pool"`
	Token            string       `json:"token"`
	PoolAmount       fixed.Amount `json:"poolAmount"`
	ReservedAmount   fixed.Amount `json:"reservedAmount"`
	FeeReserves      fixed.Amount `json:"feeReserves"`
	ClaimableRebates fixed.Amount `json:"claimableRebates"`
	GuaranteedUSD    fixed.USD    `json:"guaranteedUsd"`
	SyntheticSupply  fixed.USD    `json:"syntheticSupply"`
	GlobalLongSize   fixed.USD    `json:"globalLongSize"`
	GlobalShortSize  fixed.USD    `json:"globalShortSize"`
}

type PositionReport struct {
	Account      string      `json:"account"`
	Pool         string      `json:"pool"`
	Collateral   string      `json:"collateral"`
	Index        string      `json:"index"`
	IsLong       bool        `json:"isLong"`
	Size         fixed.USD   `json:"size"`
	Margin       fixed.USD   `json:"margin"`
	AveragePrice fixed.Price `json:"averagePrice"`
	RealizedPnL  string      `json:"realizedPnl"`
}

// WalletReport is a balance. Account is empty for custody.
type WalletReport struct {
	Account string       `json:"account,omitempty"`
	Token   string       `json:"token"`
	Balance fixed.Amount `json:"balance"`
}

// Report snapshots the pools, open positions, non-zero balances and event
// counts.
func (s *Simulator) Report() (*Report, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	r := &Report{
		Time:   s.clock.Unix(),
		Events: make(map[string]int),
	}
	for _, p := range s.cfg.Pools {
		for _, symbol := range p.Tokens {
			token, _ := s.cfg.TokenBySymbol(symbol)
			agg, err := s.ledger.Pool(p.ID(), token.ID())
			if err != nil {
				return nil, err
			}
			r.Pools = append(r.Pools, PoolReport{
				Pool:             p.Name,
				Token:            symbol,
				PoolAmount:       agg.PoolAmount,
				ReservedAmount:   agg.ReservedAmount,
				FeeReserves:      agg.FeeReserves,
				ClaimableRebates: agg.ClaimableRebates,
				GuaranteedUSD:    agg.GuaranteedUSD,
				SyntheticSupply:  agg.SyntheticSupply,
				GlobalLongSize:   agg.GlobalLongSize,
				GlobalShortSize:  agg.GlobalShortSize,
			})
		}
	}

	for _, name := range s.accountNames() {
		positions, err := s.ledger.AccountPositions(s.accounts[name])
		if err != nil {
			return nil, err
		}
		for _, pos := range positions {
			r.Positions = append(r.Positions, s.positionReport(name, pos))
		}
		for _, token := range s.cfg.Tokens {
			balance := s.custody.Balance(s.accounts[name], token.ID(), token.Decimals)
			if balance.IsZero() {
				continue
			}
			r.Wallets = append(r.Wallets, WalletReport{
				Account: name,
				Token:   token.Symbol,
				Balance: balance,
			})
		}
	}

	for _, token := range s.cfg.Tokens {
		held := s.custody.Held(token.ID(), token.Decimals)
		if held.IsZero() {
			continue
		}
		r.Custody = append(r.Custody, WalletReport{
			Token:   token.Symbol,
			Balance: held,
		})
	}

	for _, e := range s.recorder.Events() {
		r.Events[e.Type().String()]++
	}
	return r, nil
}

func (s *Simulator) positionReport(account string, pos state.Position) PositionReport {
	var poolName string
	if p, ok := s.cfg.Pool(pos.ID.Pool); ok {
		poolName = p.Name
	}
	collateral, _ := s.cfg.Token(pos.ID.Collateral)
	index, _ := s.cfg.Token(pos.ID.Index)
	return PositionReport{
		Account:      account,
		Pool:         poolName,
		Collateral:   collateral.Symbol,
		Index:        index.Symbol,
		IsLong:       pos.ID.IsLong,
		Size:         pos.Size,
		Margin:       pos.Collateral,
		AveragePrice: pos.AveragePrice,
		RealizedPnL:  pos.RealizedPnL.String(),
	}
}
