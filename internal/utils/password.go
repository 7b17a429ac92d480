package utils

import (
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of plain.  A cost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// dummyHash is compared against when a login names an unknown account, so
// the response time does not reveal whether the username exists.  It must
// carry the cost the real hashes are stored with; see SetBurnCost.
var dummyHash atomic.Pointer[[]byte]

// SetBurnCost rebuilds the dummy hash at the given cost, clamped the same
// way HashPassword clamps it.  Call it at startup with the configured cost.
func SetBurnCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte("exam-seating-dummy"), cost)
	if err != nil {
		return err
	}
	dummyHash.Store(&b)
	return nil
}

// BurnCost returns the cost of the current dummy hash.
func BurnCost() int {
	cost, _ := bcrypt.Cost(burnHash())
	return cost
}

func burnHash() []byte {
	if h := dummyHash.Load(); h != nil {
		return *h
	}
	_ = SetBurnCost(bcrypt.DefaultCost)
	return *dummyHash.Load()
}

// BurnPasswordCheck spends roughly the time of a real VerifyPassword call.
func BurnPasswordCheck(plain string) {
	_ = bcrypt.CompareHashAndPassword(burnHash(), []byte(plain))
}
