package microloan

import "errors"

// Sentinel errors surfaced by the lifecycle engine. Every failed operation
// returns exactly one of these (or a storage error) and leaves no partial
// mutation behind; the rpc layer maps them onto stable numeric codes.
var (
	// ErrNilState indicates the engine was used before state was wired.
	ErrNilState = errors.New("microloan engine: state not configured")
	// ErrUnauthorized covers callers without a profile, repayments from a
	// non-borrower, and default markings from a non-administrator.
	ErrUnauthorized = errors.New("microloan engine: caller not authorized")
	// ErrInsufficientScore rejects originations below the borrow threshold.
	ErrInsufficientScore = errors.New("microloan engine: credit score below borrow threshold")
	// ErrTooManyActiveLoans rejects originations beyond the active ceiling.
	ErrTooManyActiveLoans = errors.New("microloan engine: too many active loans")
	// ErrInvalidAmount rejects non-positive principal or payment values.
	ErrInvalidAmount = errors.New("microloan engine: amount must be positive")
	// ErrInvalidDuration rejects durations outside (0, MaxLoanDuration].
	ErrInvalidDuration = errors.New("microloan engine: duration out of range")
	// ErrInsufficientBalance covers short collateral, short payments and
	// insufficient caller funds.
	ErrInsufficientBalance = errors.New("microloan engine: insufficient balance")
	// ErrInsufficientLiquidity indicates the protocol treasury cannot cover
	// a disbursement or collateral release.
	ErrInsufficientLiquidity = errors.New("microloan engine: insufficient liquidity")
	// ErrLoanNotFound is returned for absent loan identifiers.
	ErrLoanNotFound = errors.New("microloan engine: loan not found")
	// ErrLoanDefaulted rejects repayment of an already defaulted loan.
	ErrLoanDefaulted = errors.New("microloan engine: loan already defaulted")
	// ErrInvalidLoanState rejects transitions on loans outside LoanActive.
	ErrInvalidLoanState = errors.New("microloan engine: loan not active")
	// ErrNotDue rejects defaults before the due height has passed.
	ErrNotDue = errors.New("microloan engine: loan not yet past due")
	// ErrInvalidLoanID rejects malformed loan identifiers at the call
	// boundary.
	ErrInvalidLoanID = errors.New("microloan engine: invalid loan id")
)
