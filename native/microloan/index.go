package microloan

const (
	// MaxActiveLoans is the business ceiling on simultaneously active loans
	// per borrower.
	MaxActiveLoans = 5
	// maxActiveLoanSlots is the storage capacity reserved per borrower. The
	// headroom above MaxActiveLoans is intentional slack; admission is gated
	// at MaxActiveLoans regardless.
	maxActiveLoanSlots = 20
)

// ActiveIndex is the secondary lookup from borrower to that borrower's
// currently active loan identifiers. It is a passive structure: the lifecycle
// engine checks the admission ceiling before adding entries.
type ActiveIndex struct {
	state engineState
}

// NewActiveIndex constructs the index over the provided state.
func NewActiveIndex(state engineState) *ActiveIndex {
	return &ActiveIndex{state: state}
}

// List returns the identifiers of the borrower's active loans.
func (i *ActiveIndex) List(addr [20]byte) ([]uint64, error) {
	if i == nil || i.state == nil {
		return nil, ErrNilState
	}
	ids, err := i.state.ActiveLoans(addr)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Count returns the number of active loans held by the borrower.
func (i *ActiveIndex) Count(addr [20]byte) (int, error) {
	ids, err := i.List(addr)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Add appends a loan identifier to the borrower's active set. The storage
// slot ceiling is a hard bound; the business ceiling is enforced upstream.
func (i *ActiveIndex) Add(addr [20]byte, id uint64) error {
	ids, err := i.List(addr)
	if err != nil {
		return err
	}
	if len(ids) >= maxActiveLoanSlots {
		return ErrTooManyActiveLoans
	}
	return i.state.SetActiveLoans(addr, append(ids, id))
}

// Remove deletes a loan identifier from the borrower's active set. Removing
// an absent identifier is a no-op; each loan leaves the set exactly once.
func (i *ActiveIndex) Remove(addr [20]byte, id uint64) error {
	ids, err := i.List(addr)
	if err != nil {
		return err
	}
	filtered := ids[:0]
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) == len(ids) {
		return nil
	}
	return i.state.SetActiveLoans(addr, filtered)
}
