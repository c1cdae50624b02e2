package state

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

var (
	loanPrefix     = []byte("microloan/loan/")
	activePrefix   = []byte("microloan/active/")
	profilePrefix  = []byte("credit/profile/")
	accountPrefix  = []byte("account/")
	nextLoanIDKey  = ethcrypto.Keccak256([]byte("microloan/next-loan-id"))
	totalLockedKey = ethcrypto.Keccak256([]byte("microloan/total-locked"))
)
