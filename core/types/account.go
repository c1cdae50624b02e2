package types

import "math/big"

// Account is the balance-bearing record backing the asset-transfer primitive.
// All protocol flows (collateral lockup, disbursement, repayment) move value
// between accounts; module custody accounts use the same representation as
// participant accounts.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// EnsureDefaults populates nil big.Int fields so encoding and arithmetic are
// safe on freshly loaded records.
func (a *Account) EnsureDefaults() {
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce}
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	return clone
}
