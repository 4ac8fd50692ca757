// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api serves the read side of the perp ledger over JSON-RPC and
// streams its events over websockets.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/perps/vms/perpvm/config"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/liquidation"
	"github.com/luxfi/perps/vms/perpvm/state"
)

const ServiceName = "perps"

var (
	ErrUnknownPool  = errors.New("unknown pool")
	ErrUnknownToken = errors.New("unknown token")
)

// Reader is the read side of the ledger.
type Reader interface {
	Position(id state.PositionID) (state.Position, error)
	AccountPositions(account ids.ShortID) ([]state.Position, error)
	Pool(pool, token ids.ID) (state.Pool, error)
	Claim(kind state.ClaimKind, account ids.ShortID, pool, token ids.ID) (fixed.Amount, error)
	LiquidationState(id state.PositionID) (liquidation.Result, error)
}

// Service is the JSON-RPC service of the ledger. Every call holds lock, which
// writers to the ledger must hold too.
type Service struct {
	cfg    *config.Config
	reader Reader
	lock   sync.Locker
	log    log.Logger
}

func NewService(cfg *config.Config, reader Reader, lock sync.Locker, log log.Logger) *Service {
	return &Service{
		cfg:    cfg,
		reader: reader,
		lock:   lock,
		log:    log,
	}
}

// NewHandler returns an HTTP handler serving s.
func NewHandler(s *Service) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json2.NewCodec(), "application/json")
	server.RegisterCodec(json2.NewCodec(), "application/json;charset=UTF-8")
	if err := server.RegisterService(s, ServiceName); err != nil {
		return nil, fmt.Errorf("failed to register %s service: %w", ServiceName, err)
	}
	return server, nil
}

func (s *Service) poolID(name string) (ids.ID, error) {
	id := config.PoolID(name)
	if _, ok := s.cfg.Pool(id); !ok {
		return ids.Empty, fmt.Errorf("%w: %q", ErrUnknownPool, name)
	}
	return id, nil
}

func (s *Service) tokenID(symbol string) (ids.ID, error) {
	t, ok := s.cfg.TokenBySymbol(symbol)
	if !ok {
		return ids.Empty, fmt.Errorf("%w: %q", ErrUnknownToken, symbol)
	}
	return t.ID(), nil
}

// PositionArgs names a position by pool name and token symbols.
type PositionArgs struct {
	Account    ids.ShortID `json:"account"`
	Pool       string      `json:"pool"`
	Collateral string      `json:"collateral"`
	Index      string      `json:"index"`
	IsLong     bool        `json:"isLong"`
}

func (s *Service) positionID(args *PositionArgs) (state.PositionID, error) {
	pool, err := s.poolID(args.Pool)
	if err != nil {
		return state.PositionID{}, err
	}
	collateral, err := s.tokenID(args.Collateral)
	if err != nil {
		return state.PositionID{}, err
	}
	index, err := s.tokenID(args.Index)
	if err != nil {
		return state.PositionID{}, err
	}
	return state.PositionID{
		Account:    args.Account,
		Pool:       pool,
		Collateral: collateral,
		Index:      index,
		IsLong:     args.IsLong,
	}, nil
}

type PositionReply struct {
	ID                state.PositionID `json:"id"`
	Size              fixed.USD        `json:"size"`
	Collateral        fixed.USD        `json:"collateral"`
	CollateralAmount  fixed.Amount     `json:"collateralAmount"`
	AveragePrice      fixed.Price      `json:"averagePrice"`
	ReserveAmount     fixed.Amount     `json:"reserveAmount"`
	EntryFundingIndex fixed.Index      `json:"entryFundingIndex"`
	RealizedPnL       string           `json:"realizedPnl"`
	LastIncreaseTime  uint64           `json:"lastIncreaseTime"`
}

func positionReply(p state.Position) PositionReply {
	return PositionReply{
		ID:                p.ID,
		Size:              p.Size,
		Collateral:        p.Collateral,
		CollateralAmount:  p.CollateralAmount,
		AveragePrice:      p.AveragePrice,
		ReserveAmount:     p.ReserveAmount,
		EntryFundingIndex: p.EntryFundingIndex,
		RealizedPnL:       p.RealizedPnL.String(),
		LastIncreaseTime:  p.LastIncreaseTime,
	}
}

// GetPosition returns an open position.
func (s *Service) GetPosition(_ *http.Request, args *PositionArgs, reply *PositionReply) error {
	s.log.Debug("API called",
		log.String("service", ServiceName),
		log.String("method", "getPosition"),
	)

	id, err := s.positionID(args)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	pos, err := s.reader.Position(id)
	if err != nil {
		return err
	}
	*reply = positionReply(pos)
	return nil
}

type AccountArgs struct {
	Account ids.ShortID `json:"account"`
}

type AccountPositionsReply struct {
	Positions []PositionReply `json:"positions"`
}

// GetAccountPositions returns every open position of an account.
func (s *Service) GetAccountPositions(_ *http.Request, args *AccountArgs, reply *AccountPositionsReply) error {
	s.log.Debug("API called",
		log.String("service", ServiceName),
		log.String("method", "getAccountPositions"),
	)

	s.lock.Lock()
	defer s.lock.Unlock()

	positions, err := s.reader.AccountPositions(args.Account)
	if err != nil {
		return err
	}
	reply.Positions = make([]PositionReply, len(positions))
	for i, p := range positions {
		reply.Positions[i] = positionReply(p)
	}
	return nil
}

type PoolArgs struct {
	Pool  string `json:"pool"`
	Token string `json:"token"`
}

type PoolReply struct {
	PoolAmount              fixed.Amount `json:"poolAmount"`
	ReservedAmount          fixed.Amount `json:"reservedAmount"`
	FeeReserves             fixed.Amount `json:"feeReserves"`
	ClaimableRebates        fixed.Amount `json:"claimableRebates"`
	GuaranteedUSD           fixed.USD    `json:"guaranteedUsd"`
	SyntheticSupply         fixed.USD    `json:"syntheticSupply"`
	FundingIndex            fixed.Index  `json:"fundingIndex"`
	LongSkewIndex           fixed.Index  `json:"longSkewIndex"`
	ShortSkewIndex          fixed.Index  `json:"shortSkewIndex"`
	GlobalLongSize          fixed.USD    `json:"globalLongSize"`
	GlobalShortSize         fixed.USD    `json:"globalShortSize"`
	GlobalShortAveragePrice fixed.Price  `json:"globalShortAveragePrice"`
}

// GetPool returns the aggregate of a token in a pool.
func (s *Service) GetPool(_ *http.Request, args *PoolArgs, reply *PoolReply) error {
	s.log.Debug("API called",
		log.String("service", ServiceName),
		log.String("method", "getPool"),
	)

	pool, err := s.poolID(args.Pool)
	if err != nil {
		return err
	}
	token, err := s.tokenID(args.Token)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	p, err := s.reader.Pool(pool, token)
	if err != nil {
		return err
	}
	*reply = PoolReply{
		PoolAmount:              p.PoolAmount,
		ReservedAmount:          p.ReservedAmount,
		FeeReserves:             p.FeeReserves,
		ClaimableRebates:        p.ClaimableRebates,
		GuaranteedUSD:           p.GuaranteedUSD,
		SyntheticSupply:         p.SyntheticSupply,
		FundingIndex:            p.FundingIndex,
		LongSkewIndex:           p.LongSkewIndex,
		ShortSkewIndex:          p.ShortSkewIndex,
		GlobalLongSize:          p.GlobalLongSize,
		GlobalShortSize:         p.GlobalShortSize,
		GlobalShortAveragePrice: p.GlobalShortAveragePrice,
	}
	return nil
}

type LiquidationStateReply struct {
	Verdict   string `json:"verdict"`
	PnL       string `json:"pnl"`
	Remaining string `json:"remaining"`
}

// GetLiquidationState evaluates a position at the current prices.
func (s *Service) GetLiquidationState(_ *http.Request, args *PositionArgs, reply *LiquidationStateReply) error {
	s.log.Debug("API called",
		log.String("service", ServiceName),
		log.String("method", "getLiquidationState"),
	)

	id, err := s.positionID(args)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	res, err := s.reader.LiquidationState(id)
	if err != nil {
		return err
	}
	reply.Verdict = res.Verdict.String()
	reply.PnL = res.PnL.String()
	reply.Remaining = res.Remaining.String()
	return nil
}

type ClaimArgs struct {
	Kind    string      `json:"kind"`
	Account ids.ShortID `json:"account"`
	Pool    string      `json:"pool"`
	Token   string      `json:"token"`
}

type ClaimReply struct {
	Amount fixed.Amount `json:"amount"`
}

// GetClaim returns a balance owed to an account.
func (s *Service) GetClaim(_ *http.Request, args *ClaimArgs, reply *ClaimReply) error {
	s.log.Debug("API called",
		log.String("service", ServiceName),
		log.String("method", "getClaim"),
	)

	kind, err := state.ParseClaimKind(args.Kind)
	if err != nil {
		return err
	}
	pool, err := s.poolID(args.Pool)
	if err != nil {
		return err
	}
	token, err := s.tokenID(args.Token)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	reply.Amount, err = s.reader.Claim(kind, args.Account, pool, token)
	return err
}
