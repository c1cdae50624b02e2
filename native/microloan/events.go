package microloan

import (
	"encoding/hex"
	"strconv"

	"microlend/core/types"
)

const (
	// EventTypeLoanOriginated is emitted when a loan request succeeds.
	EventTypeLoanOriginated = "loan.originated"
	// EventTypeLoanRepaid is emitted on a favourable settlement.
	EventTypeLoanRepaid = "loan.repaid"
	// EventTypeLoanDefaulted is emitted on an unfavourable settlement.
	EventTypeLoanDefaulted = "loan.defaulted"
)

type loanEvent struct {
	evt *types.Event
}

func (e loanEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e loanEvent) Event() *types.Event { return e.evt }

// NewLoanOriginatedEvent returns the canonical event payload for a new loan.
func NewLoanOriginatedEvent(l *Loan) *types.Event {
	return newLoanEvent(EventTypeLoanOriginated, l)
}

// NewLoanRepaidEvent returns the canonical event payload for a repayment.
func NewLoanRepaidEvent(l *Loan) *types.Event {
	return newLoanEvent(EventTypeLoanRepaid, l)
}

// NewLoanDefaultedEvent returns the canonical event payload for a default.
func NewLoanDefaultedEvent(l *Loan) *types.Event {
	return newLoanEvent(EventTypeLoanDefaulted, l)
}

func newLoanEvent(eventType string, l *Loan) *types.Event {
	attrs := make(map[string]string)
	if l == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["loanId"] = strconv.FormatUint(l.ID, 10)
	attrs["borrower"] = hex.EncodeToString(l.Borrower[:])
	if l.Amount != nil {
		attrs["amount"] = l.Amount.String()
	}
	if l.Collateral != nil {
		attrs["collateral"] = l.Collateral.String()
	}
	attrs["dueHeight"] = strconv.FormatUint(l.DueHeight, 10)
	attrs["interestRateBps"] = strconv.FormatUint(l.InterestRateBps, 10)
	attrs["status"] = l.Status.String()
	if l.RepaidAmount != nil && l.RepaidAmount.Sign() > 0 {
		attrs["repaidAmount"] = l.RepaidAmount.String()
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
