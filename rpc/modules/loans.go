package modules

import (
	"errors"
	"math/big"
	"net/http"
	"time"

	"microlend/core"
	nativecommon "microlend/native/common"
	"microlend/native/credit"
	"microlend/native/microloan"
	"microlend/observability"
)

const moduleLabel = "loans"

// LoansModule adapts the node's lifecycle operations for the JSON-RPC
// surface, translating engine errors into stable numeric codes and recording
// per-method metrics.
type LoansModule struct {
	node *core.Node
}

// NewLoansModule wraps the node.
func NewLoansModule(node *core.Node) *LoansModule {
	return &LoansModule{node: node}
}

func (m *LoansModule) moduleUnavailable() *ModuleError {
	return &ModuleError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: "loan module not available"}
}

// InitializeScore creates the caller's credit profile.
func (m *LoansModule) InitializeScore(caller [20]byte) (*credit.Profile, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, m.moduleUnavailable()
	}
	started := time.Now()
	profile, err := m.node.InitializeScore(caller)
	moduleErr := m.finish("initializeScore", started, err)
	if moduleErr != nil {
		return nil, moduleErr
	}
	return profile, nil
}

// RequestLoan originates a loan for the caller.
func (m *LoansModule) RequestLoan(caller [20]byte, amount, collateral *big.Int, duration uint64) (*microloan.Loan, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, m.moduleUnavailable()
	}
	started := time.Now()
	loan, err := m.node.RequestLoan(caller, amount, collateral, duration)
	moduleErr := m.finish("requestLoan", started, err)
	if moduleErr != nil {
		return nil, moduleErr
	}
	return loan, nil
}

// RepayLoan settles an active loan in full.
func (m *LoansModule) RepayLoan(caller [20]byte, loanID uint64, payment *big.Int) (*microloan.Loan, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, m.moduleUnavailable()
	}
	started := time.Now()
	loan, err := m.node.RepayLoan(caller, loanID, payment)
	moduleErr := m.finish("repayLoan", started, err)
	if moduleErr != nil {
		return nil, moduleErr
	}
	return loan, nil
}

// MarkLoanDefaulted settles an overdue loan unfavourably.
func (m *LoansModule) MarkLoanDefaulted(caller [20]byte, loanID uint64) (*microloan.Loan, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, m.moduleUnavailable()
	}
	started := time.Now()
	loan, err := m.node.MarkLoanDefaulted(caller, loanID)
	moduleErr := m.finish("markLoanDefaulted", started, err)
	if moduleErr != nil {
		return nil, moduleErr
	}
	return loan, nil
}

// GetUserScore returns the credit profile for addr, nil when absent.
func (m *LoansModule) GetUserScore(addr [20]byte) (*credit.Profile, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, m.moduleUnavailable()
	}
	started := time.Now()
	profile, ok, err := m.node.GetUserScore(addr)
	moduleErr := m.finish("getUserScore", started, err)
	if moduleErr != nil {
		return nil, moduleErr
	}
	if !ok {
		return nil, nil
	}
	return profile, nil
}

// GetLoan returns the loan record for id, nil when absent.
func (m *LoansModule) GetLoan(loanID uint64) (*microloan.Loan, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, m.moduleUnavailable()
	}
	started := time.Now()
	loan, ok, err := m.node.GetLoan(loanID)
	moduleErr := m.finish("getLoan", started, err)
	if moduleErr != nil {
		return nil, moduleErr
	}
	if !ok {
		return nil, nil
	}
	return loan, nil
}

// GetUserActiveLoans returns the identifiers of addr's active loans.
func (m *LoansModule) GetUserActiveLoans(addr [20]byte) ([]uint64, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, m.moduleUnavailable()
	}
	started := time.Now()
	ids, err := m.node.GetUserActiveLoans(addr)
	moduleErr := m.finish("getUserActiveLoans", started, err)
	if moduleErr != nil {
		return nil, moduleErr
	}
	return ids, nil
}

// Stats returns the global counters.
func (m *LoansModule) Stats() (*big.Int, uint64, *ModuleError) {
	if m == nil || m.node == nil {
		return nil, 0, m.moduleUnavailable()
	}
	started := time.Now()
	locked, nextID, err := m.node.Stats()
	moduleErr := m.finish("stats", started, err)
	if moduleErr != nil {
		return nil, 0, moduleErr
	}
	return locked, nextID, nil
}

func (m *LoansModule) finish(method string, started time.Time, err error) *ModuleError {
	metrics := observability.Metrics()
	moduleErr := wrapError(err)
	metrics.Observe(moduleLabel, method, moduleErr != nil, started)
	if moduleErr != nil {
		metrics.RecordError(moduleLabel, method, moduleErr.Code)
	}
	return moduleErr
}

// wrapError maps engine sentinel errors onto the documented numeric codes.
func wrapError(err error) *ModuleError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, microloan.ErrUnauthorized):
		return &ModuleError{HTTPStatus: http.StatusForbidden, Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, microloan.ErrInsufficientBalance),
		errors.Is(err, microloan.ErrInsufficientLiquidity):
		return &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInsufficientBalance, Message: err.Error()}
	case errors.Is(err, microloan.ErrInvalidAmount):
		return &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidAmount, Message: err.Error()}
	case errors.Is(err, microloan.ErrLoanNotFound):
		return &ModuleError{HTTPStatus: http.StatusNotFound, Code: codeLoanNotFound, Message: err.Error()}
	case errors.Is(err, microloan.ErrLoanDefaulted):
		return &ModuleError{HTTPStatus: http.StatusConflict, Code: codeLoanDefaulted, Message: err.Error()}
	case errors.Is(err, microloan.ErrInsufficientScore):
		return &ModuleError{HTTPStatus: http.StatusForbidden, Code: codeInsufficientScore, Message: err.Error()}
	case errors.Is(err, microloan.ErrTooManyActiveLoans):
		return &ModuleError{HTTPStatus: http.StatusConflict, Code: codeTooManyActiveLoans, Message: err.Error()}
	case errors.Is(err, microloan.ErrNotDue):
		return &ModuleError{HTTPStatus: http.StatusConflict, Code: codeNotDue, Message: err.Error()}
	case errors.Is(err, microloan.ErrInvalidDuration):
		return &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidDuration, Message: err.Error()}
	case errors.Is(err, microloan.ErrInvalidLoanID):
		return &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidLoanID, Message: err.Error()}
	case errors.Is(err, microloan.ErrInvalidLoanState):
		return &ModuleError{HTTPStatus: http.StatusConflict, Code: codeInvalidLoanState, Message: err.Error()}
	case errors.Is(err, credit.ErrAlreadyInitialized):
		return &ModuleError{HTTPStatus: http.StatusConflict, Code: codeAlreadyInitialized, Message: err.Error()}
	case errors.Is(err, nativecommon.ErrModulePaused):
		return &ModuleError{HTTPStatus: http.StatusServiceUnavailable, Code: codeModulePaused, Message: err.Error()}
	default:
		return &ModuleError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: err.Error()}
	}
}
