// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements the position state machine of the perp vault.
// Every operation is an atomic transition over the state: it either commits
// all of its writes or none of them.
package ledger

import (
	"context"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/perps/utils/timer/mockable"
	"github.com/luxfi/perps/vms/perpvm/accrual"
	"github.com/luxfi/perps/vms/perpvm/auth"
	"github.com/luxfi/perps/vms/perpvm/config"
	"github.com/luxfi/perps/vms/perpvm/events"
	"github.com/luxfi/perps/vms/perpvm/fees"
	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/liquidation"
	"github.com/luxfi/perps/vms/perpvm/metrics"
	"github.com/luxfi/perps/vms/perpvm/pnl"
	"github.com/luxfi/perps/vms/perpvm/state"
	"github.com/luxfi/perps/vms/perpvm/vault"
)

const (
	opIncrease        = "increase"
	opDecrease        = "decrease"
	opLiquidate       = "liquidate"
	opAddLiquidity    = "add_liquidity"
	opRemoveLiquidity = "remove_liquidity"
	opWithdrawFees    = "withdraw_fees"
	opClaim           = "claim"
)

// Collaborators are the services the ledger calls out to. Referrals and
// Sink may be nil.
type Collaborators struct {
	Oracle     PriceOracle
	Gate       TradingGate
	Referrals  ReferralLookup
	Sink       NotificationSink
	Transferer Transferer
}

type Ledger struct {
	cfg     *config.Config
	log     log.Logger
	clock   *mockable.Clock
	metrics *metrics.Metrics

	state   *state.State
	accrual *accrual.Index
	fees    *fees.Engine

	oracle     PriceOracle
	gate       TradingGate
	referrals  ReferralLookup
	sink       NotificationSink
	transferer Transferer

	guard guard
}

// New returns a ledger over db. Aggregates are created for every configured
// pool token that does not have one yet.
func New(
	cfg *config.Config,
	db database.Database,
	clock *mockable.Clock,
	c Collaborators,
	m *metrics.Metrics,
	log log.Logger,
) (*Ledger, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	sink := c.Sink
	if sink == nil {
		sink = events.Fanout(nil)
	}
	l := &Ledger{
		cfg:        cfg,
		log:        log,
		clock:      clock,
		metrics:    m,
		state:      state.New(db),
		accrual:    accrual.New(cfg, log),
		fees:       fees.New(cfg.MarginFeeBps, c.Referrals),
		oracle:     c.Oracle,
		gate:       c.Gate,
		referrals:  c.Referrals,
		sink:       sink,
		transferer: c.Transferer,
	}
	if err := l.initialize(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initialize() error {
	created := 0
	for _, p := range l.cfg.Pools {
		for _, symbol := range p.Tokens {
			token, ok := l.cfg.TokenBySymbol(symbol)
			if !ok {
				return fmt.Errorf("%w: %s", config.ErrUnknownToken, symbol)
			}
			exists, err := l.state.HasPool(p.ID(), token.ID())
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			agg := state.NewPool(p.ID(), token.ID(), token.Decimals)
			if err := l.state.PutPool(&agg); err != nil {
				l.state.Abort()
				return err
			}
			created++
		}
	}
	if err := l.state.Commit(); err != nil {
		return err
	}
	l.log.Info("initialized ledger",
		log.Int("pools", len(l.cfg.Pools)),
		log.Int("createdAggregates", created),
	)
	return nil
}

type transfer struct {
	asset    ids.ID
	receiver ids.ShortID
	amount   fixed.Amount
}

// tx is the scope of one transition.
type tx struct {
	*Ledger

	ctx   context.Context
	caps  auth.Capabilities
	now   uint64
	vault *vault.Accountant

	transfers []transfer
	events    []events.Event

	opened, closed int
	feesUSD        fixed.USD
	rebatesUSD     fixed.USD
}

// transition runs fn as one atomic transition. Writes are committed only if
// fn, the pending transfers and the commit itself all succeed.
func (l *Ledger) transition(ctx context.Context, op string, fn func(*tx) error) error {
	t, err := l.atomically(ctx, fn)
	l.metrics.Transition(op, err)
	if err != nil {
		l.log.Debug("transition failed",
			log.String("op", op),
			log.Err(err),
		)
		return err
	}

	for i := 0; i < t.opened; i++ {
		l.metrics.PositionOpened()
	}
	for i := 0; i < t.closed; i++ {
		l.metrics.PositionClosed()
	}
	l.metrics.FeesCollected(t.feesUSD)
	l.metrics.RebatesCredited(t.rebatesUSD)

	for _, e := range t.events {
		if err := l.sink.Emit(e); err != nil {
			l.log.Warn("failed to emit event",
				log.Stringer("type", e.Type()),
				log.Err(err),
			)
		}
	}
	return nil
}

func (l *Ledger) atomically(ctx context.Context, fn func(*tx) error) (*tx, error) {
	if !l.guard.enter() {
		return nil, ErrReentrantCall
	}
	defer l.guard.exit()

	t := &tx{
		Ledger: l,
		ctx:    ctx,
		caps:   auth.FromContext(ctx),
		now:    l.clock.Unix(),
		vault:  vault.New(l.state, l.log),
	}
	if err := t.run(fn); err != nil {
		l.state.Abort()
		return nil, err
	}
	return t, nil
}

func (t *tx) run(fn func(*tx) error) error {
	if err := fn(t); err != nil {
		return err
	}
	if err := t.vault.Flush(); err != nil {
		return err
	}
	for _, tr := range t.transfers {
		if tr.amount.IsZero() {
			continue
		}
		if err := t.transferer.TransferOut(tr.asset, tr.receiver, tr.amount); err != nil {
			return fmt.Errorf("transfer of %s to %s: %w", tr.amount, tr.receiver, err)
		}
	}
	return t.state.Commit()
}

func (t *tx) transferOut(asset ids.ID, receiver ids.ShortID, amount fixed.Amount) {
	t.transfers = append(t.transfers, transfer{
		asset:    asset,
		receiver: receiver,
		amount:   amount,
	})
}

func (t *tx) emit(e events.Event) {
	t.events = append(t.events, e)
}

// validateInstrument checks the instrument against the config and the
// caller's capabilities without touching state.
func (l *Ledger) validateInstrument(caps auth.Capabilities, in Instrument) (config.Token, error) {
	if !caps.CanActFor(in.Account) {
		return config.Token{}, fmt.Errorf("%w: %s may not act for %s", ErrUnauthorized, caps.Caller, in.Account)
	}
	if !l.cfg.PoolHolds(in.Pool, in.Collateral) || !l.cfg.PoolHolds(in.Pool, in.Index) {
		return config.Token{}, fmt.Errorf("%w: pool %s does not hold %s and %s", ErrUnknownInstrument, in.Pool, in.Collateral, in.Index)
	}
	collateral, ok := l.cfg.Token(in.Collateral)
	if !ok {
		return config.Token{}, fmt.Errorf("%w: collateral %s", ErrUnknownInstrument, in.Collateral)
	}
	index, ok := l.cfg.Token(in.Index)
	if !ok {
		return config.Token{}, fmt.Errorf("%w: index %s", ErrUnknownInstrument, in.Index)
	}
	if index.Stable {
		return config.Token{}, fmt.Errorf("%w: stable index %s", ErrUnknownInstrument, index.Symbol)
	}
	if !in.IsLong {
		if !collateral.Stable {
			return config.Token{}, fmt.Errorf("%w: short collateral %s is not stable", ErrUnknownInstrument, collateral.Symbol)
		}
		if !index.Shortable {
			return config.Token{}, fmt.Errorf("%w: %s is not shortable", ErrUnknownInstrument, index.Symbol)
		}
	}
	return collateral, nil
}

// markPrice is the price a position would be closed at.
func (l *Ledger) markPrice(index ids.ID, isLong bool) (fixed.Price, error) {
	if isLong {
		return l.oracle.MinPrice(index)
	}
	return l.oracle.MaxPrice(index)
}

// fillPrice is the price size is added at.
func (l *Ledger) fillPrice(index ids.ID, isLong bool) (fixed.Price, error) {
	if isLong {
		return l.oracle.MaxPrice(index)
	}
	return l.oracle.MinPrice(index)
}

func (l *Ledger) minProfit(index ids.ID) pnl.MinProfit {
	token, _ := l.cfg.Token(index)
	return pnl.MinProfit{
		Bps:    token.MinProfitBps,
		Window: uint64(token.MinProfitTime.Seconds()),
	}
}

// usdToTokens converts usd to collateral units at the max price, the
// conversion that yields fewer tokens.
func (l *Ledger) usdToTokens(token ids.ID, usd fixed.USD, decimals uint8) (fixed.Amount, error) {
	if usd.IsZero() {
		return fixed.ZeroAmount(decimals), nil
	}
	price, err := l.oracle.MaxPrice(token)
	if err != nil {
		return fixed.Amount{}, err
	}
	return fixed.ToAmount(usd, price, decimals)
}

// accruedFee is what closing pos in full would cost now: funding and skew
// since entry plus the taker fee.
func (t *tx) accruedFee(pos *state.Position) (fees.Margin, fees.Skew, error) {
	coll, err := t.vault.Pool(pos.ID.Pool, pos.ID.Collateral)
	if err != nil {
		return fees.Margin{}, fees.Skew{}, err
	}
	idx, err := t.vault.Pool(pos.ID.Pool, pos.ID.Index)
	if err != nil {
		return fees.Margin{}, fees.Skew{}, err
	}
	margin, err := t.fees.MarginFee(pos.ID.Account, pos.Size, pos.Size, pos.EntryFundingIndex, coll.FundingIndex)
	if err != nil {
		return fees.Margin{}, fees.Skew{}, err
	}
	skew, err := fees.SkewFee(pos, idx)
	if err != nil {
		return fees.Margin{}, fees.Skew{}, err
	}
	return margin, skew, nil
}

func (t *tx) evaluate(pos *state.Position) (liquidation.Result, error) {
	margin, skew, err := t.accruedFee(pos)
	if err != nil {
		return liquidation.Result{}, err
	}
	fee, err := margin.Charged.Add(skew.Charge())
	if err != nil {
		return liquidation.Result{}, err
	}
	mark, err := t.markPrice(pos.ID.Index, pos.ID.IsLong)
	if err != nil {
		return liquidation.Result{}, err
	}
	return liquidation.Evaluate(pos, liquidation.Input{
		Mark:           mark,
		AccruedFee:     fee,
		MaxLeverageBps: t.cfg.MaxLeverageBps,
		MinProfit:      t.minProfit(pos.ID.Index),
		Now:            t.now,
	})
}

// validatePosition checks an open position after an update.
func (t *tx) validatePosition(pos *state.Position) error {
	if pos.Size.Lt(pos.Collateral) {
		return fmt.Errorf("%w: size %s < collateral %s", ErrCollateralExceedsSize, pos.Size, pos.Collateral)
	}
	if pos.Collateral.Lt(t.cfg.MinCollateralUSD) {
		return fmt.Errorf("%w: %s < %s", ErrBelowMinCollateral, pos.Collateral, t.cfg.MinCollateralUSD)
	}
	over, err := liquidation.ExceedsLeverage(pos.Size, pos.Collateral, t.cfg.MaxLeverageBps)
	if err != nil {
		return err
	}
	if over {
		return fmt.Errorf("%w: size %s on collateral %s", ErrMaxLeverageExceeded, pos.Size, pos.Collateral)
	}
	res, err := t.evaluate(pos)
	if err != nil {
		return err
	}
	if res.Verdict != liquidation.NotLiquidatable {
		return fmt.Errorf("%w: %s", ErrLiquidatableAfterUpdate, res.Verdict)
	}
	return nil
}

// collectFees books fee, charged to pos, into the fee reserves of the
// collateral token. The referral rebate within margin is set aside as a
// claim of the referrer.
func (t *tx) collectFees(pos *state.Position, fee fixed.USD, margin fees.Margin, decimals uint8) (fixed.Amount, error) {
	id := pos.ID
	feeTokens, err := t.usdToTokens(id.Collateral, fee, decimals)
	if err != nil {
		return fixed.Amount{}, err
	}
	rebateTokens, err := t.usdToTokens(id.Collateral, margin.Rebate, decimals)
	if err != nil {
		return fixed.Amount{}, err
	}
	reserved, err := feeTokens.Sub(rebateTokens)
	if err != nil {
		return fixed.Amount{}, err
	}
	if err := t.vault.IncreaseFeeReserves(id.Pool, id.Collateral, reserved); err != nil {
		return fixed.Amount{}, err
	}
	if !rebateTokens.IsZero() {
		if err := t.vault.IncreaseClaimableRebates(id.Pool, id.Collateral, rebateTokens); err != nil {
			return fixed.Amount{}, err
		}
		if err := t.credit(state.ReferralClaim, margin.Referrer, id.Pool, id.Collateral, rebateTokens); err != nil {
			return fixed.Amount{}, err
		}
		if t.rebatesUSD, err = t.rebatesUSD.Add(margin.Rebate); err != nil {
			return fixed.Amount{}, err
		}
	}
	if t.feesUSD, err = t.feesUSD.Add(fee); err != nil {
		return fixed.Amount{}, err
	}
	t.emit(events.CollectFees{
		Base:   events.Base{Timestamp: t.now},
		Pool:   id.Pool,
		Token:  id.Collateral,
		USD:    fee,
		Amount: feeTokens,
	})
	return feeTokens, nil
}

// creditSkewRebate moves the skew rebate owed to pos out of the pool and
// into the account's claimable balance.
func (t *tx) creditSkewRebate(pos *state.Position, skew fees.Skew, decimals uint8) error {
	if !skew.Rebate || skew.USD.IsZero() {
		return nil
	}
	id := pos.ID
	tokens, err := t.usdToTokens(id.Collateral, skew.USD, decimals)
	if err != nil {
		return err
	}
	if tokens.IsZero() {
		return nil
	}
	if err := t.vault.DecreasePoolAmount(id.Pool, id.Collateral, tokens); err != nil {
		return err
	}
	if err := t.vault.IncreaseClaimableRebates(id.Pool, id.Collateral, tokens); err != nil {
		return err
	}
	if err := t.credit(state.SkewRebateClaim, id.Account, id.Pool, id.Collateral, tokens); err != nil {
		return err
	}
	t.rebatesUSD, err = t.rebatesUSD.Add(skew.USD)
	return err
}

func (t *tx) credit(kind state.ClaimKind, account ids.ShortID, pool, token ids.ID, amount fixed.Amount) error {
	owed, err := t.state.GetClaim(kind, account, pool, token, amount.Decimals())
	if err != nil {
		return err
	}
	owed, err = owed.Add(amount)
	if err != nil {
		return err
	}
	return t.state.PutClaim(kind, account, pool, token, owed)
}

// recordVolume feeds referral tiers. Failures are logged only.
func (l *Ledger) recordVolume(account ids.ShortID, volume fixed.USD) {
	recorder, ok := l.referrals.(VolumeRecorder)
	if !ok || volume.IsZero() {
		return
	}
	if err := recorder.RecordVolume(account, volume); err != nil {
		l.log.Warn("failed to record referral volume",
			log.Stringer("account", account),
			log.Err(err),
		)
	}
}

// Position returns the open position at id, or ErrEmptyPosition.
func (l *Ledger) Position(id state.PositionID) (state.Position, error) {
	pos, err := l.state.GetPosition(id)
	if err != nil {
		return state.Position{}, err
	}
	if pos.IsZero() {
		return state.Position{}, ErrEmptyPosition
	}
	return pos, nil
}

// AccountPositions returns every open position of account.
func (l *Ledger) AccountPositions(account ids.ShortID) ([]state.Position, error) {
	return l.state.AccountPositions(account)
}

// Pool returns the aggregate of token in pool.
func (l *Ledger) Pool(pool, token ids.ID) (state.Pool, error) {
	return l.state.GetPool(pool, token)
}

// Claim returns the balance of kind owed to account.
func (l *Ledger) Claim(kind state.ClaimKind, account ids.ShortID, pool, token ids.ID) (fixed.Amount, error) {
	agg, err := l.state.GetPool(pool, token)
	if err != nil {
		return fixed.Amount{}, err
	}
	decimals := agg.Decimals()
	if kind == state.LiquidityClaim {
		decimals = fixed.USDDecimals
	}
	return l.state.GetClaim(kind, account, pool, token, decimals)
}

// LiquidationState evaluates the position at id as of now without changing
// state.
func (l *Ledger) LiquidationState(id state.PositionID) (liquidation.Result, error) {
	pos, err := l.Position(id)
	if err != nil {
		return liquidation.Result{}, err
	}
	t := &tx{
		Ledger: l,
		now:    l.clock.Unix(),
		vault:  vault.New(l.state, l.log),
	}
	if err := l.accrual.Advance(t.vault, id.Pool, id.Collateral, id.Index, t.now); err != nil {
		return liquidation.Result{}, err
	}
	return t.evaluate(&pos)
}
