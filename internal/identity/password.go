package identity

import "golang.org/x/crypto/bcrypt"

// Hasher computes and verifies bcrypt password digests.
type Hasher struct {
	Cost int

	dummy []byte
}

// NewHasher also prepares the throwaway digest used by VerifyNothing, so the
// first unknown-account login costs no more than any later one.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), cost)
	if err != nil {
		panic(err)
	}
	return &Hasher{Cost: cost, dummy: dummy}
}

func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. A malformed hash is a
// mismatch, not an error.
func (h *Hasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// VerifyNothing burns the same bcrypt work as Verify against a throwaway
// hash, so unknown accounts cost as much as wrong passwords.
func (h *Hasher) VerifyNothing(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
