// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/ids"

	"github.com/luxfi/perps/vms/perpvm/fixed"
	"github.com/luxfi/perps/vms/perpvm/ledger"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientCustody = errors.New("insufficient custody")

	_ ledger.Transferer = (*Custody)(nil)
)

// Custody holds the tokens backing the ledger and the wallets of the
// simulated accounts.
type Custody struct {
	lock    sync.Mutex
	held    map[ids.ID]fixed.Amount
	wallets map[ids.ShortID]map[ids.ID]fixed.Amount
}

func NewCustody() *Custody {
	return &Custody{
		held:    make(map[ids.ID]fixed.Amount),
		wallets: make(map[ids.ShortID]map[ids.ID]fixed.Amount),
	}
}

// Fund mints amount of token into the wallet of account.
func (c *Custody) Fund(account ids.ShortID, token ids.ID, amount fixed.Amount) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.credit(account, token, amount)
}

// Deposit moves amount from the wallet of account into custody.
func (c *Custody) Deposit(account ids.ShortID, token ids.ID, amount fixed.Amount) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if amount.IsZero() {
		return nil
	}
	wallet := c.wallets[account]
	balance, ok := wallet[token]
	if !ok {
		balance = fixed.ZeroAmount(amount.Decimals())
	}
	left, err := balance.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s holds %s, depositing %s", ErrInsufficientBalance, account, balance, amount)
	}
	held, err := c.balance(c.held, token, amount.Decimals()).Add(amount)
	if err != nil {
		return err
	}
	wallet[token] = left
	c.held[token] = held
	return nil
}

// TransferOut moves amount from custody into the wallet of receiver.
func (c *Custody) TransferOut(asset ids.ID, receiver ids.ShortID, amount fixed.Amount) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	held := c.balance(c.held, asset, amount.Decimals())
	left, err := held.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s held, paying %s", ErrInsufficientCustody, held, amount)
	}
	if err := c.credit(receiver, asset, amount); err != nil {
		return err
	}
	c.held[asset] = left
	return nil
}

// Balance returns the wallet balance of account in token.
func (c *Custody) Balance(account ids.ShortID, token ids.ID, decimals uint8) fixed.Amount {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.balance(c.wallets[account], token, decimals)
}

// Held returns the amount of token in custody.
func (c *Custody) Held(token ids.ID, decimals uint8) fixed.Amount {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.balance(c.held, token, decimals)
}

func (*Custody) balance(m map[ids.ID]fixed.Amount, token ids.ID, decimals uint8) fixed.Amount {
	if a, ok := m[token]; ok {
		return a
	}
	return fixed.ZeroAmount(decimals)
}

func (c *Custody) credit(account ids.ShortID, token ids.ID, amount fixed.Amount) error {
	wallet, ok := c.wallets[account]
	if !ok {
		wallet = make(map[ids.ID]fixed.Amount)
		c.wallets[account] = wallet
	}
	next, err := c.balance(wallet, token, amount.Decimals()).Add(amount)
	if err != nil {
		return err
	}
	wallet[token] = next
	return nil
}
