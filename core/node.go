package core

import (
	"math/big"
	"sync"

	"microlend/core/events"
	"microlend/core/state"
	"microlend/core/types"
	"microlend/crypto"
	nativecommon "microlend/native/common"
	"microlend/native/credit"
	"microlend/native/microloan"
	"microlend/storage"
)

// Node is the public entry surface of the ledger. It reconstructs the
// serialized execution guarantee the engine relies on: every operation runs
// under a single mutex against a fresh state overlay that is committed only
// when the operation succeeds. A failed operation therefore leaves no
// observable side effects.
type Node struct {
	mu sync.Mutex

	db      storage.Database
	heights HeightSource
	emitter events.Emitter
	pauses  nativecommon.PauseView
	admins  microloan.AdminView

	moduleAddress     [20]byte
	collateralAddress [20]byte
}

// NewNode constructs a node over the given database and height clock. Module
// custody addresses are derived deterministically from the module name.
func NewNode(db storage.Database, heights HeightSource) *Node {
	return &Node{
		db:                db,
		heights:           heights,
		emitter:           events.NoopEmitter{},
		moduleAddress:     crypto.DeriveModuleAddress("microloan/treasury"),
		collateralAddress: crypto.DeriveModuleAddress("microloan/collateral"),
	}
}

// SetEmitter configures the event emitter used by lifecycle operations.
func (n *Node) SetEmitter(emitter events.Emitter) {
	if n == nil {
		return
	}
	n.emitter = emitter
}

// SetPauses wires the host's module pause switches.
func (n *Node) SetPauses(pauses nativecommon.PauseView) {
	if n == nil {
		return
	}
	n.pauses = pauses
}

// SetAdmins wires the administrator capability used by default marking.
func (n *Node) SetAdmins(admins microloan.AdminView) {
	if n == nil {
		return
	}
	n.admins = admins
}

// Height returns the current block height observed by the node.
func (n *Node) Height() uint64 {
	if n == nil || n.heights == nil {
		return 0
	}
	return n.heights.Height()
}

// ModuleAddress returns the protocol liquidity treasury address.
func (n *Node) ModuleAddress() [20]byte { return n.moduleAddress }

// CollateralAddress returns the collateral custody address.
func (n *Node) CollateralAddress() [20]byte { return n.collateralAddress }

func (n *Node) newEngine(manager *state.Manager) *microloan.Engine {
	engine := microloan.NewEngine(n.moduleAddress, n.collateralAddress)
	engine.SetState(manager)
	engine.SetCreditLedger(credit.NewLedger(manager))
	engine.SetEmitter(n.emitter)
	engine.SetPauses(n.pauses)
	engine.SetAdmins(n.admins)
	engine.SetBlockHeight(n.Height())
	return engine
}

// withEngine runs fn inside the serialized transaction boundary. The overlay
// is committed only when fn succeeds.
func (n *Node) withEngine(commit bool, fn func(engine *microloan.Engine) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	manager := state.NewManager(n.db)
	engine := n.newEngine(manager)
	if err := fn(engine); err != nil {
		manager.Discard()
		return err
	}
	if commit {
		return manager.Commit()
	}
	return nil
}

// InitializeScore creates the caller's credit profile at the starting score.
func (n *Node) InitializeScore(caller [20]byte) (*credit.Profile, error) {
	var profile *credit.Profile
	err := n.withEngine(true, func(engine *microloan.Engine) error {
		created, err := engine.InitializeProfile(caller)
		if err != nil {
			return err
		}
		profile = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// RequestLoan originates a collateral-backed loan for the caller.
func (n *Node) RequestLoan(caller [20]byte, amount, collateral *big.Int, duration uint64) (*microloan.Loan, error) {
	var loan *microloan.Loan
	err := n.withEngine(true, func(engine *microloan.Engine) error {
		created, err := engine.RequestLoan(caller, amount, collateral, duration)
		if err != nil {
			return err
		}
		loan = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// RepayLoan settles an active loan in full on behalf of its borrower.
func (n *Node) RepayLoan(caller [20]byte, loanID uint64, payment *big.Int) (*microloan.Loan, error) {
	var loan *microloan.Loan
	err := n.withEngine(true, func(engine *microloan.Engine) error {
		settled, err := engine.RepayLoan(caller, loanID, payment)
		if err != nil {
			return err
		}
		loan = settled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// MarkLoanDefaulted settles an overdue loan unfavourably. The caller must
// hold the administrator capability.
func (n *Node) MarkLoanDefaulted(caller [20]byte, loanID uint64) (*microloan.Loan, error) {
	var loan *microloan.Loan
	err := n.withEngine(true, func(engine *microloan.Engine) error {
		settled, err := engine.MarkLoanDefaulted(caller, loanID)
		if err != nil {
			return err
		}
		loan = settled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// GetUserScore returns the credit profile for addr; absence is ok=false.
func (n *Node) GetUserScore(addr [20]byte) (*credit.Profile, bool, error) {
	var (
		profile *credit.Profile
		found   bool
	)
	err := n.withEngine(false, func(engine *microloan.Engine) error {
		stored, ok, err := engine.Profile(addr)
		if err != nil {
			return err
		}
		profile, found = stored, ok
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return profile, found, nil
}

// GetLoan returns the loan record for id; absence is ok=false.
func (n *Node) GetLoan(loanID uint64) (*microloan.Loan, bool, error) {
	var (
		loan  *microloan.Loan
		found bool
	)
	err := n.withEngine(false, func(engine *microloan.Engine) error {
		stored, ok, err := engine.GetLoan(loanID)
		if err != nil {
			return err
		}
		loan, found = stored, ok
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return loan, found, nil
}

// GetUserActiveLoans returns the identifiers of addr's active loans.
func (n *Node) GetUserActiveLoans(addr [20]byte) ([]uint64, error) {
	var ids []uint64
	err := n.withEngine(false, func(engine *microloan.Engine) error {
		list, err := engine.ActiveLoans(addr)
		if err != nil {
			return err
		}
		ids = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

// Stats returns the global counters: collateral locked across active loans
// and the next loan identifier.
func (n *Node) Stats() (*big.Int, uint64, error) {
	var (
		locked *big.Int
		nextID uint64
	)
	err := n.withEngine(false, func(engine *microloan.Engine) error {
		totalLocked, err := engine.TotalLocked()
		if err != nil {
			return err
		}
		id, err := engine.NextLoanID()
		if err != nil {
			return err
		}
		locked, nextID = totalLocked, id
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return locked, nextID, nil
}

// FundAccount credits an account balance directly. Used for genesis
// allocations and treasury bootstrap; not reachable through the public
// operation surface.
func (n *Node) FundAccount(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return microloan.ErrInvalidAmount
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	manager := state.NewManager(n.db)
	account, err := manager.GetAccount(addr)
	if err != nil {
		return err
	}
	if account == nil {
		account = &types.Account{}
	}
	account.EnsureDefaults()
	account.Balance = new(big.Int).Add(account.Balance, amount)
	if err := manager.PutAccount(addr, account); err != nil {
		return err
	}
	return manager.Commit()
}

// AccountBalance returns the balance for addr, zero when the account is
// absent.
func (n *Node) AccountBalance(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	manager := state.NewManager(n.db)
	account, err := manager.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return big.NewInt(0), nil
	}
	account.EnsureDefaults()
	return account.Balance, nil
}
