package microloan

import "math/big"

// Ledger owns the loan records and the identifier counter. It enforces the
// single-transition rule: a loan leaves LoanActive exactly once, via
// SettleRepaid or SettleDefaulted, and never transitions again.
type Ledger struct {
	state engineState
}

// NewLedger constructs a loan ledger over the provided state.
func NewLedger(state engineState) *Ledger {
	return &Ledger{state: state}
}

// Create allocates the next identifier and inserts an active loan record with
// the supplied origination terms.
func (l *Ledger) Create(borrower [20]byte, amount, collateral *big.Int, dueHeight, rateBps uint64) (*Loan, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	id, err := l.state.NextLoanID()
	if err != nil {
		return nil, err
	}
	loan := &Loan{
		ID:              id,
		Borrower:        borrower,
		Amount:          cloneBigInt(amount),
		Collateral:      cloneBigInt(collateral),
		DueHeight:       dueHeight,
		InterestRateBps: rateBps,
		Status:          LoanActive,
		RepaidAmount:    big.NewInt(0),
	}
	if err := l.state.LoanPut(loan); err != nil {
		return nil, err
	}
	if err := l.state.SetNextLoanID(id + 1); err != nil {
		return nil, err
	}
	return loan, nil
}

// Get returns the loan record for id. Absent identifiers yield
// ErrLoanNotFound.
func (l *Ledger) Get(id uint64) (*Loan, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	loan, ok, err := l.state.LoanGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLoanNotFound
	}
	loan.EnsureDefaults()
	return loan, nil
}

// SettleRepaid transitions an active loan to LoanRepaid, recording the
// payment that settled it.
func (l *Ledger) SettleRepaid(id uint64, repaidAmount *big.Int) (*Loan, error) {
	loan, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	switch loan.Status {
	case LoanActive:
	case LoanDefaulted:
		return nil, ErrLoanDefaulted
	default:
		return nil, ErrInvalidLoanState
	}
	loan.Status = LoanRepaid
	loan.RepaidAmount = cloneBigInt(repaidAmount)
	if err := l.state.LoanPut(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// SettleDefaulted transitions an active loan to LoanDefaulted once its due
// height has passed.
func (l *Ledger) SettleDefaulted(id uint64, currentHeight uint64) (*Loan, error) {
	loan, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if loan.Status != LoanActive {
		return nil, ErrInvalidLoanState
	}
	if currentHeight <= loan.DueHeight {
		return nil, ErrNotDue
	}
	loan.Status = LoanDefaulted
	if err := l.state.LoanPut(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
