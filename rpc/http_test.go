package rpc

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"microlend/core"
	"microlend/crypto"
	"microlend/rpc/modules"
	"microlend/storage"
)

type testAdmins map[[20]byte]struct{}

func (a testAdmins) IsAdmin(addr [20]byte) bool {
	_, ok := a[addr]
	return ok
}

func rpcAddr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newTestServer(t *testing.T) (*Server, *core.Node) {
	t.Helper()
	node := core.NewNode(storage.NewMemDB(), core.NewManualHeightSource(100))
	node.SetAdmins(testAdmins{rpcAddr(0x0F): {}})
	if err := node.FundAccount(node.ModuleAddress(), big.NewInt(10_000_000)); err != nil {
		t.Fatalf("fund treasury: %v", err)
	}
	server := &Server{
		node:      node,
		authToken: "test-secret",
		loans:     modules.NewLoansModule(node),
		log:       slog.Default(),
	}
	return server, node
}

func call(t *testing.T, s *Server, method string, params interface{}, token string) (*httptest.ResponseRecorder, RPCResponse) {
	t.Helper()
	req := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	s.handle(recorder, httpReq)

	var resp RPCResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return recorder, resp
}

func bech(raw [20]byte) string {
	return crypto.NewAddress(crypto.MLNPrefix, raw).String()
}

func TestInitializeScoreOverRPC(t *testing.T) {
	server, _ := newTestServer(t)
	caller := bech(rpcAddr(0x01))

	_, resp := call(t, server, "lend_initializeScore", initializeScoreParams{Caller: caller}, "")
	if resp.Error != nil {
		t.Fatalf("initialize: %+v", resp.Error)
	}
	result, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var score scoreResult
	if err := json.Unmarshal(result, &score); err != nil {
		t.Fatalf("unmarshal score: %v", err)
	}
	if score.Score != 50 {
		t.Fatalf("starting score: got %d, want 50", score.Score)
	}
	if score.Address != caller {
		t.Fatalf("address: got %q, want %q", score.Address, caller)
	}

	recorder, resp := call(t, server, "lend_initializeScore", initializeScoreParams{Caller: caller}, "")
	if resp.Error == nil || resp.Error.Code != -32110 {
		t.Fatalf("second initialize: got %+v, want code -32110", resp.Error)
	}
	if recorder.Code != http.StatusConflict {
		t.Fatalf("http status: got %d, want 409", recorder.Code)
	}
}

func TestRequestLoanRejectionsOverRPC(t *testing.T) {
	server, _ := newTestServer(t)
	caller := bech(rpcAddr(0x02))

	// No profile yet.
	recorder, resp := call(t, server, "lend_requestLoan", requestLoanParams{
		Caller: caller, Amount: "1000", Collateral: "1000", Duration: 10,
	}, "")
	if resp.Error == nil || resp.Error.Code != -32001 {
		t.Fatalf("no profile: got %+v, want code -32001", resp.Error)
	}
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("http status: got %d, want 403", recorder.Code)
	}

	// A fresh profile sits below the borrow threshold.
	if _, resp := call(t, server, "lend_initializeScore", initializeScoreParams{Caller: caller}, ""); resp.Error != nil {
		t.Fatalf("initialize: %+v", resp.Error)
	}
	_, resp = call(t, server, "lend_requestLoan", requestLoanParams{
		Caller: caller, Amount: "1000", Collateral: "1000", Duration: 10,
	}, "")
	if resp.Error == nil || resp.Error.Code != -32105 {
		t.Fatalf("low score: got %+v, want code -32105", resp.Error)
	}

	// Malformed amounts never reach the engine.
	_, resp = call(t, server, "lend_requestLoan", requestLoanParams{
		Caller: caller, Amount: "not-a-number", Collateral: "1000", Duration: 10,
	}, "")
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("bad amount: got %+v, want code -32602", resp.Error)
	}
}

func TestMarkDefaultedRequiresBearerToken(t *testing.T) {
	server, _ := newTestServer(t)
	admin := bech(rpcAddr(0x0F))

	recorder, resp := call(t, server, "lend_markDefaulted", markDefaultedParams{Caller: admin, LoanID: 0}, "")
	if resp.Error == nil || resp.Error.Code != -32001 {
		t.Fatalf("missing token: got %+v, want code -32001", resp.Error)
	}
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("http status: got %d, want 401", recorder.Code)
	}

	_, resp = call(t, server, "lend_markDefaulted", markDefaultedParams{Caller: admin, LoanID: 0}, "wrong-secret")
	if resp.Error == nil || resp.Error.Code != -32001 {
		t.Fatalf("wrong token: got %+v, want code -32001", resp.Error)
	}

	// Authenticated but the loan does not exist.
	recorder, resp = call(t, server, "lend_markDefaulted", markDefaultedParams{Caller: admin, LoanID: 0}, "test-secret")
	if resp.Error == nil || resp.Error.Code != -32103 {
		t.Fatalf("absent loan: got %+v, want code -32103", resp.Error)
	}
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("http status: got %d, want 404", recorder.Code)
	}
}

func TestReadMethodsOverRPC(t *testing.T) {
	server, _ := newTestServer(t)
	stranger := bech(rpcAddr(0x42))

	_, resp := call(t, server, "lend_getScore", addressParams{Address: stranger}, "")
	if resp.Error != nil {
		t.Fatalf("get score: %+v", resp.Error)
	}
	if resp.Result != nil {
		t.Fatalf("absent profile: got %v, want null", resp.Result)
	}

	_, resp = call(t, server, "lend_getLoan", loanIDParams{LoanID: 99}, "")
	if resp.Error != nil {
		t.Fatalf("get loan: %+v", resp.Error)
	}
	if resp.Result != nil {
		t.Fatalf("absent loan: got %v, want null", resp.Result)
	}

	_, resp = call(t, server, "lend_getActiveLoans", addressParams{Address: stranger}, "")
	if resp.Error != nil {
		t.Fatalf("get active loans: %+v", resp.Error)
	}

	_, resp = call(t, server, "lend_stats", nil, "")
	if resp.Error != nil {
		t.Fatalf("stats: %+v", resp.Error)
	}
	result, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var stats statsResult
	if err := json.Unmarshal(result, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.TotalCollateralLocked != "0" {
		t.Fatalf("total locked: got %q, want 0", stats.TotalCollateralLocked)
	}
	if stats.Height != 100 {
		t.Fatalf("height: got %d, want 100", stats.Height)
	}
}

func TestTransportRejections(t *testing.T) {
	server, _ := newTestServer(t)

	// Unknown method.
	_, resp := call(t, server, "lend_unknown", nil, "")
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("unknown method: got %+v, want code %d", resp.Error, codeMethodNotFound)
	}

	// Non-POST verbs are refused.
	recorder := httptest.NewRecorder()
	server.handle(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status: got %d, want 405", recorder.Code)
	}

	// Bad bech32 addresses are rejected before dispatch.
	_, resp = call(t, server, "lend_getScore", addressParams{Address: "bogus"}, "")
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("bad address: got %+v, want code %d", resp.Error, codeInvalidParams)
	}
}
