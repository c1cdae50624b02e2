package microloan

import (
	"math/big"

	"microlend/core/types"
)

// engineState is the persistence surface consumed by the lifecycle engine and
// its sub-ledgers. Implementations are expected to provide all-or-nothing
// semantics around a full public operation; the engine performs no partial
// rollback of its own.
type engineState interface {
	// Loan ledger records.
	LoanGet(id uint64) (*Loan, bool, error)
	LoanPut(loan *Loan) error

	// Active-loan index.
	ActiveLoans(addr [20]byte) ([]uint64, error)
	SetActiveLoans(addr [20]byte, ids []uint64) error

	// Global counters.
	NextLoanID() (uint64, error)
	SetNextLoanID(id uint64) error
	TotalLocked() (*big.Int, error)
	SetTotalLocked(amount *big.Int) error

	// Asset-transfer primitive.
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}
