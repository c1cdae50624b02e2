package microloan

import "math/big"

// LoanStatus represents the lifecycle states of a single loan. The enum makes
// the invalid active-and-defaulted combination unrepresentable.
type LoanStatus uint8

const (
	LoanActive LoanStatus = iota
	LoanRepaid
	LoanDefaulted
)

// Valid reports whether the status value is within the supported range.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanActive, LoanRepaid, LoanDefaulted:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transition.
func (s LoanStatus) Terminal() bool {
	return s == LoanRepaid || s == LoanDefaulted
}

func (s LoanStatus) String() string {
	switch s {
	case LoanActive:
		return "active"
	case LoanRepaid:
		return "repaid"
	case LoanDefaulted:
		return "defaulted"
	default:
		return "unknown"
	}
}

// Loan captures the terms fixed at origination plus the runtime status of a
// single origination event. Terms never change after creation; the status
// transitions out of LoanActive at most once.
type Loan struct {
	// ID is the monotonically allocated loan identifier.
	ID uint64
	// Borrower is the originating participant.
	Borrower [20]byte
	// Amount is the principal disbursed at origination.
	Amount *big.Int
	// Collateral is the amount locked in protocol custody for the loan's
	// lifetime.
	Collateral *big.Int
	// DueHeight is the block height after which the loan may be defaulted.
	DueHeight uint64
	// InterestRateBps is the flat rate fixed at origination, in basis points.
	InterestRateBps uint64
	// Status is the current lifecycle state.
	Status LoanStatus
	// RepaidAmount is zero until a favourable settlement records the payment.
	RepaidAmount *big.Int
}

// EnsureDefaults populates nil big.Int fields so encoding and arithmetic are
// safe on freshly decoded records.
func (l *Loan) EnsureDefaults() {
	if l == nil {
		return
	}
	if l.Amount == nil {
		l.Amount = big.NewInt(0)
	}
	if l.Collateral == nil {
		l.Collateral = big.NewInt(0)
	}
	if l.RepaidAmount == nil {
		l.RepaidAmount = big.NewInt(0)
	}
}

// Clone returns a deep copy of the loan so callers can mutate the copy
// without affecting the stored instance.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Amount != nil {
		clone.Amount = new(big.Int).Set(l.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	if l.Collateral != nil {
		clone.Collateral = new(big.Int).Set(l.Collateral)
	} else {
		clone.Collateral = big.NewInt(0)
	}
	if l.RepaidAmount != nil {
		clone.RepaidAmount = new(big.Int).Set(l.RepaidAmount)
	} else {
		clone.RepaidAmount = big.NewInt(0)
	}
	return &clone
}
