package modules

import (
	"errors"
	"net/http"
	"testing"

	nativecommon "microlend/native/common"
	"microlend/native/credit"
	"microlend/native/microloan"
)

func TestWrapErrorCodes(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"unauthorized", microloan.ErrUnauthorized, http.StatusForbidden, codeUnauthorized},
		{"insufficient balance", microloan.ErrInsufficientBalance, http.StatusBadRequest, codeInsufficientBalance},
		{"insufficient liquidity", microloan.ErrInsufficientLiquidity, http.StatusBadRequest, codeInsufficientBalance},
		{"invalid amount", microloan.ErrInvalidAmount, http.StatusBadRequest, codeInvalidAmount},
		{"loan not found", microloan.ErrLoanNotFound, http.StatusNotFound, codeLoanNotFound},
		{"loan defaulted", microloan.ErrLoanDefaulted, http.StatusConflict, codeLoanDefaulted},
		{"insufficient score", microloan.ErrInsufficientScore, http.StatusForbidden, codeInsufficientScore},
		{"too many active", microloan.ErrTooManyActiveLoans, http.StatusConflict, codeTooManyActiveLoans},
		{"not due", microloan.ErrNotDue, http.StatusConflict, codeNotDue},
		{"invalid duration", microloan.ErrInvalidDuration, http.StatusBadRequest, codeInvalidDuration},
		{"invalid loan id", microloan.ErrInvalidLoanID, http.StatusBadRequest, codeInvalidLoanID},
		{"invalid loan state", microloan.ErrInvalidLoanState, http.StatusConflict, codeInvalidLoanState},
		{"already initialized", credit.ErrAlreadyInitialized, http.StatusConflict, codeAlreadyInitialized},
		{"module paused", nativecommon.ErrModulePaused, http.StatusServiceUnavailable, codeModulePaused},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, codeServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := wrapError(tc.err)
			if got == nil {
				t.Fatalf("wrapError(%v) = nil", tc.err)
			}
			if got.HTTPStatus != tc.wantStatus {
				t.Fatalf("http status: got %d, want %d", got.HTTPStatus, tc.wantStatus)
			}
			if got.Code != tc.wantCode {
				t.Fatalf("code: got %d, want %d", got.Code, tc.wantCode)
			}
			if got.Message != tc.err.Error() {
				t.Fatalf("message: got %q, want %q", got.Message, tc.err.Error())
			}
		})
	}
}

func TestWrapErrorNil(t *testing.T) {
	if got := wrapError(nil); got != nil {
		t.Fatalf("wrapError(nil) = %v, want nil", got)
	}
}

func TestWrapErrorEveryCodeDistinct(t *testing.T) {
	seen := map[int]string{}
	codes := map[string]int{
		"insufficient balance": codeInsufficientBalance,
		"invalid amount":       codeInvalidAmount,
		"loan not found":       codeLoanNotFound,
		"loan defaulted":       codeLoanDefaulted,
		"insufficient score":   codeInsufficientScore,
		"too many active":      codeTooManyActiveLoans,
		"not due":              codeNotDue,
		"invalid duration":     codeInvalidDuration,
		"invalid loan id":      codeInvalidLoanID,
		"already initialized":  codeAlreadyInitialized,
		"invalid loan state":   codeInvalidLoanState,
		"module paused":        codeModulePaused,
	}
	for name, code := range codes {
		if prior, ok := seen[code]; ok {
			t.Fatalf("code %d reused by %q and %q", code, prior, name)
		}
		seen[code] = name
	}
}
