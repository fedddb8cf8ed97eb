package ports

// Encrypter is the symmetric, deployment-keyed blinding used to mint opaque
// credentials (session cookies, access-key pairs) without exposing raw
// database ids or hashes.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(opaque string) (string, error)
}
