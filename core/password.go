package core

type PasswordService interface {
	// Hash derives a salted, one-way hash of the plaintext.
	Hash(plaintext string) (string, error)

	// Verify compares in constant time. Malformed hashes never match.
	Verify(plaintext string, hash string) bool

	Service
}
