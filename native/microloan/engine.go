package microloan

import (
	"math/big"

	"microlend/core/events"
	"microlend/core/types"
	nativecommon "microlend/native/common"
	"microlend/native/credit"
)

const moduleName = "microloan"

const (
	// MinBorrowScore is the credit score required to originate a loan.
	MinBorrowScore uint64 = 70
	// MaxLoanDuration bounds the requested loan duration in blocks, roughly
	// one year at six-second blocks.
	MaxLoanDuration uint64 = 52_560
)

// AdminView reports whether an address holds the administrator capability
// required to mark loans defaulted.
type AdminView interface {
	IsAdmin(addr [20]byte) bool
}

// Engine orchestrates the loan lifecycle: origination, repayment and default.
// It is the only component that mutates the loan ledger, the active-loan
// index, the credit profiles and the global counters. Callers must wrap each
// public operation in a serialized, all-or-nothing state transaction.
type Engine struct {
	state             engineState
	loans             *Ledger
	index             *ActiveIndex
	credit            *credit.Ledger
	moduleAddress     [20]byte
	collateralAddress [20]byte
	emitter           events.Emitter
	pauses            nativecommon.PauseView
	admins            AdminView
	blockHeight       uint64
}

// NewEngine constructs a lifecycle engine configured with the protocol
// treasury and collateral custody addresses.
func NewEngine(moduleAddr, collateralAddr [20]byte) *Engine {
	return &Engine{
		moduleAddress:     moduleAddr,
		collateralAddress: collateralAddr,
		emitter:           events.NoopEmitter{},
	}
}

// SetState wires the engine and its sub-ledgers to the persistence layer.
func (e *Engine) SetState(state engineState) {
	if e == nil {
		return
	}
	e.state = state
	e.loans = NewLedger(state)
	e.index = NewActiveIndex(state)
}

// SetCreditLedger wires the credit score ledger. It must be bound to the same
// transaction overlay as the engine state.
func (e *Engine) SetCreditLedger(ledger *credit.Ledger) {
	if e == nil {
		return
	}
	e.credit = ledger
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the host's module pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetAdmins wires the administrator capability check used by default marking.
func (e *Engine) SetAdmins(admins AdminView) {
	if e == nil {
		return
	}
	e.admins = admins
}

// SetBlockHeight records the height used for due dates and profile stamps.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.blockHeight = height
}

// InitializeProfile creates the caller's credit profile at the starting
// score. Each address initialises at most once.
func (e *Engine) InitializeProfile(caller [20]byte) (*credit.Profile, error) {
	if e == nil || e.state == nil || e.credit == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	profile, err := e.credit.Initialize(caller, e.blockHeight)
	if err != nil {
		return nil, err
	}
	e.emit(credit.NewProfileInitializedEvent(profile))
	return profile, nil
}

// RequestLoan validates and prices an origination request, then disburses the
// principal against locked collateral. Preconditions are checked in a fixed
// order and the first failure aborts the whole operation. The created loan is
// returned.
func (e *Engine) RequestLoan(caller [20]byte, amount, collateral *big.Int, duration uint64) (*Loan, error) {
	if e == nil || e.state == nil || e.credit == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}

	profile, ok, err := e.credit.Get(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	if profile.Score < MinBorrowScore {
		return nil, ErrInsufficientScore
	}
	active, err := e.index.Count(caller)
	if err != nil {
		return nil, err
	}
	if active >= MaxActiveLoans {
		return nil, ErrTooManyActiveLoans
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if duration == 0 || duration > MaxLoanDuration {
		return nil, ErrInvalidDuration
	}
	required := RequiredCollateral(amount, profile.Score)
	if collateral == nil || collateral.Cmp(required) < 0 {
		return nil, ErrInsufficientBalance
	}

	moduleAcc, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return nil, err
	}
	if moduleAcc.Balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	// Lock collateral, then disburse the principal.
	if err := e.transfer(caller, e.collateralAddress, collateral); err != nil {
		return nil, err
	}
	if err := e.transfer(e.moduleAddress, caller, amount); err != nil {
		return nil, err
	}

	loan, err := e.loans.Create(caller, amount, collateral, e.blockHeight+duration, InterestRateBps(profile.Score))
	if err != nil {
		return nil, err
	}
	if err := e.index.Add(caller, loan.ID); err != nil {
		return nil, err
	}
	if err := e.lockCollateral(loan.Collateral); err != nil {
		return nil, err
	}
	if err := e.credit.ApplyBorrow(caller, amount, e.blockHeight); err != nil {
		return nil, err
	}

	e.emit(NewLoanOriginatedEvent(loan))
	return loan.Clone(), nil
}

// RepayLoan settles an active loan in full: the borrower pays principal plus
// flat interest and the locked collateral is returned. Partial payments are
// rejected.
func (e *Engine) RepayLoan(caller [20]byte, loanID uint64, payment *big.Int) (*Loan, error) {
	if e == nil || e.state == nil || e.credit == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}

	loan, err := e.loans.Get(loanID)
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
	if loan.Borrower != caller {
		return nil, ErrUnauthorized
	}
	if payment == nil || payment.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	required := RequiredRepayment(loan.Amount, loan.InterestRateBps)
	if payment.Cmp(required) < 0 {
		return nil, ErrInsufficientBalance
	}

	custodyAcc, err := e.loadAccount(e.collateralAddress)
	if err != nil {
		return nil, err
	}
	if custodyAcc.Balance.Cmp(loan.Collateral) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	if err := e.transfer(caller, e.moduleAddress, payment); err != nil {
		return nil, err
	}
	if err := e.transfer(e.collateralAddress, caller, loan.Collateral); err != nil {
		return nil, err
	}

	settled, err := e.loans.SettleRepaid(loanID, payment)
	if err != nil {
		return nil, err
	}
	if err := e.index.Remove(caller, loanID); err != nil {
		return nil, err
	}
	if err := e.releaseCollateral(settled.Collateral); err != nil {
		return nil, err
	}
	previousScore := uint64(0)
	if profile, ok, err := e.credit.Get(caller); err != nil {
		return nil, err
	} else if ok {
		previousScore = profile.Score
	}
	if err := e.credit.ApplyRepayment(caller, payment, e.blockHeight); err != nil {
		return nil, err
	}

	e.emit(NewLoanRepaidEvent(settled))
	if profile, ok, err := e.credit.Get(caller); err == nil && ok {
		e.emit(credit.NewScoreUpdatedEvent(profile, previousScore, "repaid"))
	}
	return settled.Clone(), nil
}

// MarkLoanDefaulted settles an overdue loan unfavourably. The caller must
// hold the administrator capability; the collateral is forfeited to protocol
// custody rather than returned.
func (e *Engine) MarkLoanDefaulted(caller [20]byte, loanID uint64) (*Loan, error) {
	if e == nil || e.state == nil || e.credit == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if e.admins == nil || !e.admins.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}

	settled, err := e.loans.SettleDefaulted(loanID, e.blockHeight)
	if err != nil {
		return nil, err
	}
	if err := e.index.Remove(settled.Borrower, loanID); err != nil {
		return nil, err
	}
	if err := e.releaseCollateral(settled.Collateral); err != nil {
		return nil, err
	}
	previousScore := uint64(0)
	if profile, ok, err := e.credit.Get(settled.Borrower); err != nil {
		return nil, err
	} else if ok {
		previousScore = profile.Score
	}
	if err := e.credit.ApplyDefault(settled.Borrower, e.blockHeight); err != nil {
		return nil, err
	}

	e.emit(NewLoanDefaultedEvent(settled))
	if profile, ok, err := e.credit.Get(settled.Borrower); err == nil && ok {
		e.emit(credit.NewScoreUpdatedEvent(profile, previousScore, "defaulted"))
	}
	return settled.Clone(), nil
}

// GetLoan returns the loan record for id. Absence is an ordinary ok=false.
func (e *Engine) GetLoan(loanID uint64) (*Loan, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	loan, ok, err := e.state.LoanGet(loanID)
	if err != nil || !ok {
		return nil, false, err
	}
	loan.EnsureDefaults()
	return loan.Clone(), true, nil
}

// ActiveLoans returns the identifiers of the address's active loans.
func (e *Engine) ActiveLoans(addr [20]byte) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.index.List(addr)
}

// Profile returns the credit profile for addr.
func (e *Engine) Profile(addr [20]byte) (*credit.Profile, bool, error) {
	if e == nil || e.credit == nil {
		return nil, false, ErrNilState
	}
	return e.credit.Get(addr)
}

// TotalLocked returns the sum of collateral across all active loans.
func (e *Engine) TotalLocked() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	locked, err := e.state.TotalLocked()
	if err != nil {
		return nil, err
	}
	if locked == nil {
		return big.NewInt(0), nil
	}
	return locked, nil
}

// NextLoanID returns the identifier the next origination will receive.
func (e *Engine) NextLoanID() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	return e.state.NextLoanID()
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(loanEvent{evt: event})
}

func (e *Engine) loadAccount(addr [20]byte) (*types.Account, error) {
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	acc.EnsureDefaults()
	return acc, nil
}

func (e *Engine) transfer(from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	fromAcc, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	toAcc, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

func (e *Engine) lockCollateral(amount *big.Int) error {
	locked, err := e.TotalLocked()
	if err != nil {
		return err
	}
	return e.state.SetTotalLocked(new(big.Int).Add(locked, cloneBigInt(amount)))
}

func (e *Engine) releaseCollateral(amount *big.Int) error {
	locked, err := e.TotalLocked()
	if err != nil {
		return err
	}
	next := new(big.Int).Sub(locked, cloneBigInt(amount))
	if next.Sign() < 0 {
		next = big.NewInt(0)
	}
	return e.state.SetTotalLocked(next)
}
