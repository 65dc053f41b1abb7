package auth

import "golang.org/x/crypto/bcrypt"

// Hasher wraps bcrypt with a fixed cost. Every call to Hash salts
// independently, so two hashes of the same plaintext differ; Verify
// recomputes rather than comparing hashes.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher at bcrypt's default cost (10).
func NewHasher() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost}
}

// Hash returns the salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches the stored hash.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
