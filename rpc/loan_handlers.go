package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"microlend/native/credit"
	"microlend/native/microloan"
	"microlend/rpc/modules"
)

type initializeScoreParams struct {
	Caller string `json:"caller"`
}

type requestLoanParams struct {
	Caller     string `json:"caller"`
	Amount     string `json:"amount"`
	Collateral string `json:"collateral"`
	Duration   uint64 `json:"duration"`
}

type repayLoanParams struct {
	Caller string `json:"caller"`
	LoanID uint64 `json:"loanId"`
	Amount string `json:"amount"`
}

type markDefaultedParams struct {
	Caller string `json:"caller"`
	LoanID uint64 `json:"loanId"`
}

type addressParams struct {
	Address string `json:"address"`
}

type loanIDParams struct {
	LoanID uint64 `json:"loanId"`
}

type scoreResult struct {
	Address       string `json:"address"`
	Score         uint64 `json:"score"`
	TotalBorrowed string `json:"totalBorrowed"`
	TotalRepaid   string `json:"totalRepaid"`
	LoansTaken    uint64 `json:"loansTaken"`
	LoansRepaid   uint64 `json:"loansRepaid"`
	LastUpdate    uint64 `json:"lastUpdate"`
}

type loanResult struct {
	LoanID          uint64 `json:"loanId"`
	Borrower        string `json:"borrower"`
	Amount          string `json:"amount"`
	Collateral      string `json:"collateral"`
	DueHeight       uint64 `json:"dueHeight"`
	InterestRateBps uint64 `json:"interestRateBps"`
	Status          string `json:"status"`
	RepaidAmount    string `json:"repaidAmount"`
}

type activeLoansResult struct {
	Address string   `json:"address"`
	LoanIDs []uint64 `json:"loanIds"`
}

type statsResult struct {
	TotalCollateralLocked string `json:"totalCollateralLocked"`
	NextLoanID            uint64 `json:"nextLoanId"`
	Height                uint64 `json:"height"`
}

func formatScore(profile *credit.Profile) *scoreResult {
	if profile == nil {
		return nil
	}
	return &scoreResult{
		Address:       formatAddress(profile.Address),
		Score:         profile.Score,
		TotalBorrowed: profile.TotalBorrowed.String(),
		TotalRepaid:   profile.TotalRepaid.String(),
		LoansTaken:    profile.LoansTaken,
		LoansRepaid:   profile.LoansRepaid,
		LastUpdate:    profile.LastUpdate,
	}
}

func formatLoan(loan *microloan.Loan) *loanResult {
	if loan == nil {
		return nil
	}
	return &loanResult{
		LoanID:          loan.ID,
		Borrower:        formatAddress(loan.Borrower),
		Amount:          loan.Amount.String(),
		Collateral:      loan.Collateral.String(),
		DueHeight:       loan.DueHeight,
		InterestRateBps: loan.InterestRateBps,
		Status:          loan.Status.String(),
		RepaidAmount:    loan.RepaidAmount.String(),
	}
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one params object")
	}
	return json.Unmarshal(req.Params[0], out)
}

// parseAmount parses a non-negative base-10 token amount.
func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s must not be empty", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%s must be a base-10 integer", field)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%s must not be negative", field)
	}
	return amount, nil
}

func writeModuleError(w http.ResponseWriter, id interface{}, err *modules.ModuleError) {
	writeError(w, err.HTTPStatus, id, err.Code, err.Message, err.Data)
}

func (s *Server) handleInitializeScore(w http.ResponseWriter, req *RPCRequest) {
	var params initializeScoreParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	profile, modErr := s.loans.InitializeScore(caller)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, formatScore(profile))
}

func (s *Server) handleRequestLoan(w http.ResponseWriter, req *RPCRequest) {
	var params requestLoanParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	collateral, err := parseAmount("collateral", params.Collateral)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid collateral", err.Error())
		return
	}
	loan, modErr := s.loans.RequestLoan(caller, amount, collateral, params.Duration)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, formatLoan(loan))
}

func (s *Server) handleRepayLoan(w http.ResponseWriter, req *RPCRequest) {
	var params repayLoanParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	payment, err := parseAmount("amount", params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	loan, modErr := s.loans.RepayLoan(caller, params.LoanID, payment)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, formatLoan(loan))
}

func (s *Server) handleMarkDefaulted(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, nil)
		return
	}
	var params markDefaultedParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	loan, modErr := s.loans.MarkLoanDefaulted(caller, params.LoanID)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, formatLoan(loan))
}

func (s *Server) handleGetScore(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	profile, modErr := s.loans.GetUserScore(addr)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	if profile == nil {
		writeResult(w, req.ID, nil)
		return
	}
	writeResult(w, req.ID, formatScore(profile))
}

func (s *Server) handleGetLoan(w http.ResponseWriter, req *RPCRequest) {
	var params loanIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidLoanID, "invalid loan id", err.Error())
		return
	}
	loan, modErr := s.loans.GetLoan(params.LoanID)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	if loan == nil {
		writeResult(w, req.ID, nil)
		return
	}
	writeResult(w, req.ID, formatLoan(loan))
}

func (s *Server) handleGetActiveLoans(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	ids, modErr := s.loans.GetUserActiveLoans(addr)
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, activeLoansResult{Address: params.Address, LoanIDs: ids})
}

func (s *Server) handleStats(w http.ResponseWriter, req *RPCRequest) {
	locked, nextID, modErr := s.loans.Stats()
	if modErr != nil {
		writeModuleError(w, req.ID, modErr)
		return
	}
	writeResult(w, req.ID, statsResult{
		TotalCollateralLocked: locked.String(),
		NextLoanID:            nextID,
		Height:                s.node.Height(),
	})
}
