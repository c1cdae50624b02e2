package modules

const (
	codeInvalidParams = -32602
	codeServerError   = -32000
	codeUnauthorized  = -32001
)

// Stable numeric error codes for the loan module. Each documented failure
// cause maps onto exactly one code so callers can distinguish them without
// parsing messages.
const (
	codeInsufficientBalance = -32101
	codeInvalidAmount       = -32102
	codeLoanNotFound        = -32103
	codeLoanDefaulted       = -32104
	codeInsufficientScore   = -32105
	codeTooManyActiveLoans  = -32106
	codeNotDue              = -32107
	codeInvalidDuration     = -32108
	codeInvalidLoanID       = -32109
	codeAlreadyInitialized  = -32110
	codeInvalidLoanState    = -32111
	codeModulePaused        = -32112
)

type ModuleError struct {
	HTTPStatus int
	Code       int
	Message    string
	Data       interface{}
}

func (e *ModuleError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}
