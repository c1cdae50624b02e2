package credit

import (
	"errors"
	"math/big"
)

var (
	// ErrNilState indicates the ledger was used before storage was wired.
	ErrNilState = errors.New("credit ledger: state not configured")
	// ErrAlreadyInitialized is returned when a profile exists for the address.
	ErrAlreadyInitialized = errors.New("credit ledger: profile already initialized")
	// ErrProfileNotFound is returned by mutations targeting an absent profile.
	ErrProfileNotFound = errors.New("credit ledger: profile not found")
)

// storage is the narrow persistence surface required by the ledger.
type storage interface {
	CreditGetProfile(addr [20]byte) (*Profile, bool, error)
	CreditPutProfile(profile *Profile) error
}

// Ledger owns the credit profiles. Reads are open to any component; writes
// happen exclusively through the loan lifecycle engine, which drives the
// Apply* transitions below.
type Ledger struct {
	store storage
}

// NewLedger constructs a credit ledger backed by the provided storage.
func NewLedger(store storage) *Ledger {
	return &Ledger{store: store}
}

// SetStore rebinds the ledger to a persistence layer. The lifecycle engine
// rebinds per operation so profile writes land in the same transaction
// overlay as the loan mutations.
func (l *Ledger) SetStore(store storage) {
	if l == nil {
		return
	}
	l.store = store
}

// Initialize creates the profile for addr with the starting score. It fails
// when a profile already exists; profiles are created exactly once.
func (l *Ledger) Initialize(addr [20]byte, height uint64) (*Profile, error) {
	if l == nil || l.store == nil {
		return nil, ErrNilState
	}
	if _, ok, err := l.store.CreditGetProfile(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	profile := &Profile{
		Address:       addr,
		Score:         InitialScore,
		TotalBorrowed: big.NewInt(0),
		TotalRepaid:   big.NewInt(0),
		LastUpdate:    height,
	}
	if err := l.store.CreditPutProfile(profile); err != nil {
		return nil, err
	}
	return profile.Clone(), nil
}

// Get returns the profile for addr. Absence is an ordinary ok=false result.
func (l *Ledger) Get(addr [20]byte) (*Profile, bool, error) {
	if l == nil || l.store == nil {
		return nil, false, ErrNilState
	}
	profile, ok, err := l.store.CreditGetProfile(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	profile.EnsureDefaults()
	return profile, true, nil
}

// ApplyBorrow records an origination against the profile: lifetime borrow
// statistics advance while the score is left untouched.
func (l *Ledger) ApplyBorrow(addr [20]byte, amount *big.Int, height uint64) error {
	profile, err := l.load(addr)
	if err != nil {
		return err
	}
	if amount != nil {
		profile.TotalBorrowed = new(big.Int).Add(profile.TotalBorrowed, amount)
	}
	profile.LoansTaken++
	profile.LastUpdate = height
	return l.store.CreditPutProfile(profile)
}

// ApplyRepayment records a favourable settlement: repayment statistics
// advance and the score rises, capped at MaxScore.
func (l *Ledger) ApplyRepayment(addr [20]byte, repaid *big.Int, height uint64) error {
	profile, err := l.load(addr)
	if err != nil {
		return err
	}
	if repaid != nil {
		profile.TotalRepaid = new(big.Int).Add(profile.TotalRepaid, repaid)
	}
	profile.LoansRepaid++
	profile.Score += repaymentReward
	if profile.Score > MaxScore {
		profile.Score = MaxScore
	}
	profile.LastUpdate = height
	return l.store.CreditPutProfile(profile)
}

// ApplyDefault records an unfavourable settlement: the score drops, floored
// at MinScore.
func (l *Ledger) ApplyDefault(addr [20]byte, height uint64) error {
	profile, err := l.load(addr)
	if err != nil {
		return err
	}
	if profile.Score > MinScore+defaultPenalty {
		profile.Score -= defaultPenalty
	} else {
		profile.Score = MinScore
	}
	profile.LastUpdate = height
	return l.store.CreditPutProfile(profile)
}

func (l *Ledger) load(addr [20]byte) (*Profile, error) {
	if l == nil || l.store == nil {
		return nil, ErrNilState
	}
	profile, ok, err := l.store.CreditGetProfile(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProfileNotFound
	}
	profile.EnsureDefaults()
	return profile, nil
}
