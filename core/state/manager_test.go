package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"microlend/core/types"
	"microlend/native/credit"
	"microlend/native/microloan"
	"microlend/storage"
)

func managerAddr(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func TestLoanRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)

	loan := &microloan.Loan{
		ID:              7,
		Borrower:        managerAddr(0x01),
		Amount:          big.NewInt(1_000_000),
		Collateral:      big.NewInt(600_000),
		DueHeight:       4_200,
		InterestRateBps: 600,
		Status:          microloan.LoanActive,
		RepaidAmount:    big.NewInt(0),
	}
	require.NoError(t, manager.LoanPut(loan))
	require.NoError(t, manager.Commit())

	reloaded := NewManager(db)
	got, ok, err := reloaded.LoanGet(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, loan.ID, got.ID)
	require.Equal(t, loan.Borrower, got.Borrower)
	require.Zero(t, loan.Amount.Cmp(got.Amount))
	require.Zero(t, loan.Collateral.Cmp(got.Collateral))
	require.Equal(t, loan.DueHeight, got.DueHeight)
	require.Equal(t, loan.InterestRateBps, got.InterestRateBps)
	require.Equal(t, microloan.LoanActive, got.Status)

	_, ok, err = reloaded.LoanGet(8)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestActiveLoansRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	addr := managerAddr(0x02)

	ids, err := manager.ActiveLoans(addr)
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, manager.SetActiveLoans(addr, []uint64{0, 3, 9}))
	require.NoError(t, manager.Commit())

	ids, err = NewManager(db).ActiveLoans(addr)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 3, 9}, ids)
}

func TestCountersRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)

	id, err := manager.NextLoanID()
	require.NoError(t, err)
	require.Zero(t, id)

	locked, err := manager.TotalLocked()
	require.NoError(t, err)
	require.Zero(t, locked.Sign())

	require.NoError(t, manager.SetNextLoanID(12))
	require.NoError(t, manager.SetTotalLocked(big.NewInt(987_654)))
	require.NoError(t, manager.Commit())

	reloaded := NewManager(db)
	id, err = reloaded.NextLoanID()
	require.NoError(t, err)
	require.Equal(t, uint64(12), id)
	locked, err = reloaded.TotalLocked()
	require.NoError(t, err)
	require.Zero(t, locked.Cmp(big.NewInt(987_654)))
}

func TestAccountRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	addr := managerAddr(0x03)

	account, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Nil(t, account)

	require.NoError(t, manager.PutAccount(addr, &types.Account{Nonce: 4, Balance: big.NewInt(777)}))
	require.NoError(t, manager.Commit())

	account, err = NewManager(db).GetAccount(addr)
	require.NoError(t, err)
	require.NotNil(t, account)
	require.Equal(t, uint64(4), account.Nonce)
	require.Zero(t, account.Balance.Cmp(big.NewInt(777)))
}

func TestProfileRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	addr := managerAddr(0x04)

	profile := &credit.Profile{
		Address:       addr,
		Score:         82,
		TotalBorrowed: big.NewInt(2_000_000),
		TotalRepaid:   big.NewInt(1_060_000),
		LoansTaken:    2,
		LoansRepaid:   1,
		LastUpdate:    300,
	}
	require.NoError(t, manager.CreditPutProfile(profile))
	require.NoError(t, manager.Commit())

	got, ok, err := NewManager(db).CreditGetProfile(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, profile.Score, got.Score)
	require.Equal(t, profile.LoansTaken, got.LoansTaken)
	require.Equal(t, profile.LoansRepaid, got.LoansRepaid)
	require.Zero(t, profile.TotalBorrowed.Cmp(got.TotalBorrowed))
	require.Zero(t, profile.TotalRepaid.Cmp(got.TotalRepaid))
	require.Equal(t, profile.LastUpdate, got.LastUpdate)
}

func TestOverlayCommitAndDiscard(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)

	require.NoError(t, manager.SetNextLoanID(5))
	require.True(t, manager.Dirty())

	// Uncommitted writes are visible through the same manager but not from a
	// fresh one.
	id, err := manager.NextLoanID()
	require.NoError(t, err)
	require.Equal(t, uint64(5), id)

	id, err = NewManager(db).NextLoanID()
	require.NoError(t, err)
	require.Zero(t, id)

	manager.Discard()
	require.False(t, manager.Dirty())
	id, err = manager.NextLoanID()
	require.NoError(t, err)
	require.Zero(t, id)

	require.NoError(t, manager.SetNextLoanID(9))
	require.NoError(t, manager.Commit())
	require.False(t, manager.Dirty())
	id, err = NewManager(db).NextLoanID()
	require.NoError(t, err)
	require.Equal(t, uint64(9), id)
}
