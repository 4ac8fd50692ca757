// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists positions, pool aggregates and claimable balances
// for the perp vault.
package state

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/fixed"
)

var (
	ErrPoolNotFound   = errors.New("pool not found")
	ErrStateCorrupted = errors.New("state corrupted")

	prefixPool     = []byte("pool")
	prefixPosition = []byte("position")
	prefixClaim    = []byte("claim")
)

// State is the keyed store behind the ledger. Writes are buffered until
// Commit and discarded by Abort.
type State struct {
	vdb *versiondb.Database

	pools     database.Database
	positions database.Database
	claims    database.Database
}

// New layers a state over db.
func New(db database.Database) *State {
	vdb := versiondb.New(db)
	return &State{
		vdb:       vdb,
		pools:     prefixdb.New(prefixPool, vdb),
		positions: prefixdb.New(prefixPosition, vdb),
		claims:    prefixdb.New(prefixClaim, vdb),
	}
}

// Commit writes every buffered change to the underlying database.
func (s *State) Commit() error {
	return s.vdb.Commit()
}

// Abort drops every buffered change.
func (s *State) Abort() {
	s.vdb.Abort()
}

// GetPosition returns the position at id, or Position{} if none is open.
func (s *State) GetPosition(id PositionID) (Position, error) {
	data, err := s.positions.Get(id.Key())
	if errors.Is(err, database.ErrNotFound) {
		return Position{}, nil
	}
	if err != nil {
		return Position{}, err
	}
	var r positionRecord
	if _, err := Codec.Unmarshal(data, &r); err != nil {
		return Position{}, fmt.Errorf("%w: position: %w", ErrStateCorrupted, err)
	}
	return r.position(), nil
}

// PutPosition stores p, deleting it if it has no size.
func (s *State) PutPosition(p *Position) error {
	if p.IsZero() {
		return s.DeletePosition(p.ID)
	}
	data, err := Codec.Marshal(CodecVersion, p.record())
	if err != nil {
		return err
	}
	return s.positions.Put(p.ID.Key(), data)
}

func (s *State) DeletePosition(id PositionID) error {
	return s.positions.Delete(id.Key())
}

// AccountPositions returns every open position of account.
func (s *State) AccountPositions(account ids.ShortID) ([]Position, error) {
	it := s.positions.NewIteratorWithPrefix(account[:])
	defer it.Release()

	var positions []Position
	for it.Next() {
		var r positionRecord
		if _, err := Codec.Unmarshal(it.Value(), &r); err != nil {
			return nil, fmt.Errorf("%w: position: %w", ErrStateCorrupted, err)
		}
		positions = append(positions, r.position())
	}
	return positions, it.Error()
}

// GetPool returns the aggregate of token in pool.
func (s *State) GetPool(pool, token ids.ID) (Pool, error) {
	data, err := s.pools.Get(PoolKey(pool, token))
	if errors.Is(err, database.ErrNotFound) {
		return Pool{}, fmt.Errorf("%w: %s/%s", ErrPoolNotFound, pool, token)
	}
	if err != nil {
		return Pool{}, err
	}
	var r poolRecord
	if _, err := Codec.Unmarshal(data, &r); err != nil {
		return Pool{}, fmt.Errorf("%w: pool: %w", ErrStateCorrupted, err)
	}
	return r.pool(), nil
}

// HasPool reports whether the aggregate of token in pool exists.
func (s *State) HasPool(pool, token ids.ID) (bool, error) {
	return s.pools.Has(PoolKey(pool, token))
}

func (s *State) PutPool(p *Pool) error {
	data, err := Codec.Marshal(CodecVersion, p.record())
	if err != nil {
		return err
	}
	return s.pools.Put(PoolKey(p.Pool, p.Token), data)
}

// GetClaim returns the balance of kind owed to account in token units.
func (s *State) GetClaim(kind ClaimKind, account ids.ShortID, pool, token ids.ID, decimals uint8) (fixed.Amount, error) {
	data, err := s.claims.Get(ClaimKey(kind, account, pool, token))
	if errors.Is(err, database.ErrNotFound) {
		return fixed.ZeroAmount(decimals), nil
	}
	if err != nil {
		return fixed.Amount{}, err
	}
	var r claimRecord
	if _, err := Codec.Unmarshal(data, &r); err != nil {
		return fixed.Amount{}, fmt.Errorf("%w: claim: %w", ErrStateCorrupted, err)
	}
	return fixed.AmountFromBytes32(r.Amount, r.Decimals), nil
}

// PutClaim stores the balance owed, deleting it when zero.
func (s *State) PutClaim(kind ClaimKind, account ids.ShortID, pool, token ids.ID, amount fixed.Amount) error {
	key := ClaimKey(kind, account, pool, token)
	if amount.IsZero() {
		return s.claims.Delete(key)
	}
	data, err := Codec.Marshal(CodecVersion, &claimRecord{
		Amount:   amount.Bytes32(),
		Decimals: amount.Decimals(),
	})
	if err != nil {
		return err
	}
	return s.claims.Put(key, data)
}
