package state

import (
	"encoding/binary"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"microlend/core/types"
	"microlend/native/credit"
	"microlend/native/microloan"
	"microlend/storage"
)

// Manager provides keyed access to the persisted ledgers: credit profiles,
// loan records, the active-loan index, account balances and the global
// counters. Writes accumulate in a pending overlay and reach the backing
// database only on Commit, giving each public operation all-or-nothing
// semantics.
type Manager struct {
	db      storage.Database
	pending map[string][]byte
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		pending: make(map[string][]byte),
	}
}

// Commit flushes the pending overlay into the backing database. The manager
// is reusable afterwards.
func (m *Manager) Commit() error {
	for key, value := range m.pending {
		if err := m.db.Put([]byte(key), value); err != nil {
			return err
		}
	}
	m.pending = make(map[string][]byte)
	return nil
}

// Discard drops all uncommitted writes.
func (m *Manager) Discard() {
	m.pending = make(map[string][]byte)
}

// Dirty reports whether uncommitted writes are pending.
func (m *Manager) Dirty() bool {
	return len(m.pending) > 0
}

func (m *Manager) get(key []byte) ([]byte, error) {
	if value, ok := m.pending[string(key)]; ok {
		return value, nil
	}
	return m.db.Get(key)
}

func (m *Manager) put(key, value []byte) {
	m.pending[string(key)] = value
}

func loanKey(id uint64) []byte {
	buf := make([]byte, len(loanPrefix)+8)
	copy(buf, loanPrefix)
	binary.BigEndian.PutUint64(buf[len(loanPrefix):], id)
	return ethcrypto.Keccak256(buf)
}

func addrKey(prefix []byte, addr [20]byte) []byte {
	buf := make([]byte, len(prefix)+len(addr))
	copy(buf, prefix)
	copy(buf[len(prefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

// --- Loan ledger ---

// LoanGet loads the loan record for id.
func (m *Manager) LoanGet(id uint64) (*microloan.Loan, bool, error) {
	data, err := m.get(loanKey(id))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	loan := new(microloan.Loan)
	if err := rlp.DecodeBytes(data, loan); err != nil {
		return nil, false, err
	}
	loan.EnsureDefaults()
	return loan, true, nil
}

// LoanPut persists the loan record into the pending overlay.
func (m *Manager) LoanPut(loan *microloan.Loan) error {
	loan.EnsureDefaults()
	encoded, err := rlp.EncodeToBytes(loan)
	if err != nil {
		return err
	}
	m.put(loanKey(loan.ID), encoded)
	return nil
}

// --- Active-loan index ---

// ActiveLoans loads the identifiers of addr's active loans.
func (m *Manager) ActiveLoans(addr [20]byte) ([]uint64, error) {
	data, err := m.get(addrKey(activePrefix, addr))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []uint64{}, nil
	}
	var ids []uint64
	if err := rlp.DecodeBytes(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetActiveLoans replaces addr's active-loan set.
func (m *Manager) SetActiveLoans(addr [20]byte, ids []uint64) error {
	if ids == nil {
		ids = []uint64{}
	}
	encoded, err := rlp.EncodeToBytes(ids)
	if err != nil {
		return err
	}
	m.put(addrKey(activePrefix, addr), encoded)
	return nil
}

// --- Global counters ---

// NextLoanID returns the identifier the next origination will receive.
func (m *Manager) NextLoanID() (uint64, error) {
	data, err := m.get(nextLoanIDKey)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}
	var id uint64
	if err := rlp.DecodeBytes(data, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// SetNextLoanID stores the loan identifier counter.
func (m *Manager) SetNextLoanID(id uint64) error {
	encoded, err := rlp.EncodeToBytes(id)
	if err != nil {
		return err
	}
	m.put(nextLoanIDKey, encoded)
	return nil
}

// TotalLocked returns the sum of collateral across active loans.
func (m *Manager) TotalLocked() (*big.Int, error) {
	data, err := m.get(totalLockedKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	locked := new(big.Int)
	if err := rlp.DecodeBytes(data, locked); err != nil {
		return nil, err
	}
	return locked, nil
}

// SetTotalLocked stores the collateral counter.
func (m *Manager) SetTotalLocked(amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	m.put(totalLockedKey, encoded)
	return nil
}

// --- Accounts ---

// GetAccount loads the balance record for addr. Absent accounts yield nil.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	data, err := m.get(addrKey(accountPrefix, addr))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	account := new(types.Account)
	if err := rlp.DecodeBytes(data, account); err != nil {
		return nil, err
	}
	account.EnsureDefaults()
	return account, nil
}

// PutAccount persists the balance record for addr.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	account.EnsureDefaults()
	encoded, err := rlp.EncodeToBytes(account)
	if err != nil {
		return err
	}
	m.put(addrKey(accountPrefix, addr), encoded)
	return nil
}

// --- Credit profiles ---

// CreditGetProfile loads the credit profile for addr.
func (m *Manager) CreditGetProfile(addr [20]byte) (*credit.Profile, bool, error) {
	data, err := m.get(addrKey(profilePrefix, addr))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	profile := new(credit.Profile)
	if err := rlp.DecodeBytes(data, profile); err != nil {
		return nil, false, err
	}
	profile.EnsureDefaults()
	return profile, true, nil
}

// CreditPutProfile persists the credit profile.
func (m *Manager) CreditPutProfile(profile *credit.Profile) error {
	profile.EnsureDefaults()
	encoded, err := rlp.EncodeToBytes(profile)
	if err != nil {
		return err
	}
	m.put(addrKey(profilePrefix, profile.Address), encoded)
	return nil
}
