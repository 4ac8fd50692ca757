// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sim runs scripted scenarios against a ledger wired to an
// in-memory database, a TWAP price feed, a trading calendar, the referral
// program and a simulated custody.
package sim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/perps/utils/timer/mockable"
	"github.com/luxfi/perps/vms/perpvm/auth"
	"github.com/luxfi/perps/vms/perpvm/config"
	"github.com/luxfi/perps/vms/perpvm/events"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/gate"
	"github.com/luxfi/perps/vms/perpvm/ledger"
	"github.com/luxfi/perps/vms/perpvm/metrics"
	"github.com/luxfi/perps/vms/perpvm/oracle"
	"github.com/luxfi/perps/vms/perpvm/referral"
)

// Simulator owns a ledger and everything around it. Apply, Run and Report
// hold Lock, which readers of the ledger must share.
type Simulator struct {
	cfg *config.Config
	log log.Logger

	clock     *mockable.Clock
	feed      *oracle.Feed
	gate      *gate.Schedule
	referrals *referral.Engine
	custody   *Custody
	recorder  *events.Recorder
	ledger    *ledger.Ledger

	lock     sync.Mutex
	accounts map[string]ids.ShortID
}

// New returns a simulator over cfg starting at start. Committed events go
// to the log, to an in-memory recorder and to sinks.
func New(
	cfg config.Config,
	start time.Time,
	registerer metric.Registerer,
	logger log.Logger,
	sinks ...events.Sink,
) (*Simulator, error) {
	if start.IsZero() {
		start = DefaultStart
	}
	clock := &mockable.Clock{}
	clock.Set(start)

	feed, err := oracle.NewFeed(clock, logger, cfg.Oracle.TWAPWindow, cfg.Oracle.SpreadBps)
	if err != nil {
		return nil, err
	}
	m, err := metrics.New(metrics.Namespace, registerer)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:       &cfg,
		log:       logger,
		clock:     clock,
		feed:      feed,
		gate:      gate.New(cfg.Sessions, clock, logger),
		referrals: referral.New(referral.DefaultTiers()),
		custody:   NewCustody(),
		recorder:  &events.Recorder{},
		accounts:  make(map[string]ids.ShortID),
	}
	fanout := events.Fanout{
		s.recorder,
		&events.LogSink{Log: logger},
	}
	fanout = append(fanout, sinks...)

	s.ledger, err = ledger.New(s.cfg, memdb.New(), clock, ledger.Collaborators{
		Oracle:     feed,
		Gate:       s.gate,
		Referrals:  s.referrals,
		Sink:       fanout,
		Transferer: s.custody,
	}, m, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewFromScenario returns a simulator configured by scenario.
func NewFromScenario(scenario *Scenario, registerer metric.Registerer, logger log.Logger, sinks ...events.Sink) (*Simulator, error) {
	cfg, err := scenario.ParseConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, scenario.Start, registerer, logger, sinks...)
}

func (s *Simulator) Config() *config.Config { return s.cfg }

func (s *Simulator) Ledger() *ledger.Ledger { return s.ledger }

func (s *Simulator) Custody() *Custody { return s.custody }

// Lock is held while the ledger is in use.
func (s *Simulator) Lock() sync.Locker { return &s.lock }

// Run applies steps in order and stops at the first failure.
func (s *Simulator) Run(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Apply(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}
	return nil
}

// Apply runs a single step. A step with ExpectError succeeds only if it
// fails with an error containing that text.
func (s *Simulator) Apply(ctx context.Context, step Step) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	err := s.apply(ctx, step)
	switch {
	case step.ExpectError == "":
		return err
	case err == nil:
		return fmt.Errorf("%w: expected %q", ErrUnexpectedSuccess, step.ExpectError)
	case !strings.Contains(err.Error(), step.ExpectError):
		return fmt.Errorf("%w: expected %q, got %w", ErrUnexpectedError, step.ExpectError, err)
	default:
		s.log.Debug("step failed as expected",
			log.String("op", step.Op),
			log.Err(err),
		)
		return nil
	}
}

func (s *Simulator) apply(ctx context.Context, step Step) error {
	switch step.Op {
	case OpFund:
		token, err := s.token(step.Token)
		if err != nil {
			return err
		}
		amount, err := parseAmount(step.Amount, token.Decimals)
		if err != nil {
			return err
		}
		return s.custody.Fund(s.account(step.Account), token.ID(), amount)

	case OpPrice:
		token, err := s.token(step.Token)
		if err != nil {
			return err
		}
		price, err := fixed.ParsePrice(step.Price)
		if err != nil {
			return fmt.Errorf("%w: price %q: %w", ErrInvalidStep, step.Price, err)
		}
		return s.feed.Record(token.ID(), price)

	case OpAdvance:
		if step.Duration <= 0 {
			return fmt.Errorf("%w: advance by %s", ErrInvalidStep, time.Duration(step.Duration))
		}
		s.clock.Advance(time.Duration(step.Duration))
		return nil

	case OpHalt, OpResume:
		token, err := s.token(step.Token)
		if err != nil {
			return err
		}
		if step.Op == OpHalt {
			s.gate.Halt(token.ID())
		} else {
			s.gate.Resume(token.ID())
		}
		return nil

	case OpCreateCode:
		return s.referrals.CreateCode(s.account(step.Account), step.Code)

	case OpUseCode:
		return s.referrals.UseCode(s.account(step.Account), step.Code)

	case OpAddLiquidity:
		return s.addLiquidity(ctx, step)

	case OpRemoveLiquidity:
		token, err := s.token(step.Token)
		if err != nil {
			return err
		}
		synthetic, err := parseUSD(step.Size)
		if err != nil {
			return err
		}
		_, err = s.ledger.RemoveLiquidity(s.context(ctx, step), ledger.RemoveLiquidityRequest{
			Account:   s.owner(step),
			Pool:      config.PoolID(step.Pool),
			Token:     token.ID(),
			Synthetic: synthetic,
			Receiver:  s.receiver(step),
		})
		return err

	case OpIncrease:
		return s.increase(ctx, step)

	case OpDecrease:
		in, err := s.instrument(step)
		if err != nil {
			return err
		}
		size, err := parseUSD(step.Size)
		if err != nil {
			return err
		}
		delta, err := parseUSD(step.Delta)
		if err != nil {
			return err
		}
		_, err = s.ledger.Decrease(s.context(ctx, step), ledger.DecreaseRequest{
			Instrument:      in,
			SizeDelta:       size,
			CollateralDelta: delta,
			Receiver:        s.receiver(step),
		})
		return err

	case OpLiquidate:
		in, err := s.instrument(step)
		if err != nil {
			return err
		}
		return s.ledger.Liquidate(s.context(ctx, step), ledger.LiquidateRequest{
			Instrument:  in,
			FeeReceiver: s.receiver(step),
		})

	case OpWithdrawFees:
		token, err := s.token(step.Token)
		if err != nil {
			return err
		}
		_, err = s.ledger.WithdrawFees(s.context(ctx, step), config.PoolID(step.Pool), token.ID(), s.receiver(step))
		return err

	case OpClaimRebates, OpClaimReferral:
		token, err := s.token(step.Token)
		if err != nil {
			return err
		}
		claim := s.ledger.ClaimRebates
		if step.Op == OpClaimReferral {
			claim = s.ledger.ClaimReferral
		}
		_, err = claim(s.context(ctx, step), s.owner(step), config.PoolID(step.Pool), token.ID(), s.receiver(step))
		return err

	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)
	}
}

// addLiquidity moves the deposit into custody before minting. The deposit
// is returned if the ledger rejects it.
func (s *Simulator) addLiquidity(ctx context.Context, step Step) error {
	token, err := s.token(step.Token)
	if err != nil {
		return err
	}
	amount, err := parseAmount(step.Amount, token.Decimals)
	if err != nil {
		return err
	}
	payer := s.account(step.Account)
	if err := s.custody.Deposit(payer, token.ID(), amount); err != nil {
		return err
	}
	_, err = s.ledger.AddLiquidity(s.context(ctx, step), ledger.AddLiquidityRequest{
		Account: s.owner(step),
		Pool:    config.PoolID(step.Pool),
		Token:   token.ID(),
		Amount:  amount,
	})
	if err != nil {
		return s.refund(payer, token.ID(), amount, err)
	}
	return nil
}

// increase moves the collateral into custody before opening. The collateral
// is returned if the ledger rejects the increase.
func (s *Simulator) increase(ctx context.Context, step Step) error {
	in, err := s.instrument(step)
	if err != nil {
		return err
	}
	collateral, _ := s.cfg.TokenBySymbol(step.Collateral)
	amount, err := parseAmount(step.Amount, collateral.Decimals)
	if err != nil {
		return err
	}
	size, err := parseUSD(step.Size)
	if err != nil {
		return err
	}
	payer := s.account(step.Account)
	if err := s.custody.Deposit(payer, in.Collateral, amount); err != nil {
		return err
	}
	err = s.ledger.Increase(s.context(ctx, step), ledger.IncreaseRequest{
		Instrument:   in,
		SizeDelta:    size,
		CollateralIn: amount,
	})
	if err != nil {
		return s.refund(payer, in.Collateral, amount, err)
	}
	return nil
}

func (s *Simulator) refund(payer ids.ShortID, token ids.ID, amount fixed.Amount, cause error) error {
	if amount.IsZero() {
		return cause
	}
	if err := s.custody.TransferOut(token, payer, amount); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to refund deposit: %w", err))
	}
	return cause
}

func (s *Simulator) context(ctx context.Context, step Step) context.Context {
	return auth.WithCapabilities(ctx, auth.Capabilities{
		Caller:     s.account(step.Account),
		Router:     step.Router,
		Liquidator: step.Liquidator,
		Manager:    step.Manager,
	})
}

func (s *Simulator) instrument(step Step) (ledger.Instrument, error) {
	collateral, err := s.token(step.Collateral)
	if err != nil {
		return ledger.Instrument{}, err
	}
	index, err := s.token(step.Index)
	if err != nil {
		return ledger.Instrument{}, err
	}
	return ledger.Instrument{
		Account:    s.owner(step),
		Pool:       config.PoolID(step.Pool),
		Collateral: collateral.ID(),
		Index:      index.ID(),
		IsLong:     step.Long,
	}, nil
}

func (s *Simulator) token(symbol string) (config.Token, error) {
	token, ok := s.cfg.TokenBySymbol(symbol)
	if !ok {
		return config.Token{}, fmt.Errorf("%w: token %q", ErrUnknownSymbol, symbol)
	}
	return token, nil
}

// account returns the id of name and remembers it for reports.
func (s *Simulator) account(name string) ids.ShortID {
	if id, ok := s.accounts[name]; ok {
		return id
	}
	id := AccountID(name)
	s.accounts[name] = id
	return id
}

func (s *Simulator) owner(step Step) ids.ShortID {
	if step.Owner != "" {
		return s.account(step.Owner)
	}
	return s.account(step.Account)
}

// receiver is empty when unset so that the ledger applies its default.
func (s *Simulator) receiver(step Step) ids.ShortID {
	if step.Receiver == "" {
		return ids.ShortEmpty
	}
	return s.account(step.Receiver)
}

func parseAmount(s string, decimals uint8) (fixed.Amount, error) {
	if s == "" {
		return fixed.ZeroAmount(decimals), nil
	}
	a, err := fixed.ParseAmount(s, decimals)
	if err != nil {
		return fixed.Amount{}, fmt.Errorf("%w: amount %q: %w", ErrInvalidStep, s, err)
	}
	return a, nil
}

func parseUSD(s string) (fixed.USD, error) {
	if s == "" {
		return fixed.USD{}, nil
	}
	u, err := fixed.ParseUSD(s)
	if err != nil {
		return fixed.USD{}, fmt.Errorf("%w: usd %q: %w", ErrInvalidStep, s, err)
	}
	return u, nil
}

// accountNames returns every account seen so far in name order.
func (s *Simulator) accountNames() []string {
	return slices.Sorted(maps.Keys(s.accounts))
}
