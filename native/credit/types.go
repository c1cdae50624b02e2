package credit

import "math/big"

const (
	// MinScore is the floor of the credit score range. New profiles start
	// here and defaults can never push a score below it.
	MinScore uint64 = 50
	// MaxScore caps the credit score; repayments cannot raise it further.
	MaxScore uint64 = 100
	// InitialScore is assigned when a profile is first created.
	InitialScore uint64 = 50

	// repaymentReward is the score increase applied per settled loan.
	repaymentReward uint64 = 2
	// defaultPenalty is the score decrease applied per defaulted loan.
	defaultPenalty uint64 = 10
)

// Profile is the per-user credit record. One profile exists per address once
// initialised; it is never deleted and only the lifecycle engine mutates it.
type Profile struct {
	// Address is the owning participant.
	Address [20]byte
	// Score is the creditworthiness value, always within [MinScore, MaxScore].
	Score uint64
	// TotalBorrowed accumulates principal across all originations.
	TotalBorrowed *big.Int
	// TotalRepaid accumulates settlement payments across all repayments.
	TotalRepaid *big.Int
	// LoansTaken counts originations.
	LoansTaken uint64
	// LoansRepaid counts favourable settlements.
	LoansRepaid uint64
	// LastUpdate is the block height of the most recent mutation.
	LastUpdate uint64
}

// EnsureDefaults populates nil big.Int fields so encoding and arithmetic are
// safe on freshly decoded records.
func (p *Profile) EnsureDefaults() {
	if p == nil {
		return
	}
	if p.TotalBorrowed == nil {
		p.TotalBorrowed = big.NewInt(0)
	}
	if p.TotalRepaid == nil {
		p.TotalRepaid = big.NewInt(0)
	}
}

// Clone returns a deep copy of the profile so callers can mutate the copy
// without affecting the stored instance.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	if p.TotalBorrowed != nil {
		clone.TotalBorrowed = new(big.Int).Set(p.TotalBorrowed)
	} else {
		clone.TotalBorrowed = big.NewInt(0)
	}
	if p.TotalRepaid != nil {
		clone.TotalRepaid = new(big.Int).Set(p.TotalRepaid)
	} else {
		clone.TotalRepaid = big.NewInt(0)
	}
	return &clone
}
