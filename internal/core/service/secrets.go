package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt prefixes its output with "$2a$<cost>$<22-char salt>"; the first 29
// bytes are the salt record we persist alongside the hash.
const bcryptSaltLen = 29

// SecretProcessor provides adaptive secret hashing, verification and
// high-entropy token generation. It is stateless; one instance is shared by
// every service that needs it.
type SecretProcessor struct{}

func NewSecretProcessor() *SecretProcessor {
	return &SecretProcessor{}
}

// digestSource reduces a secret source to a fixed-width hex string. bcrypt
// rejects inputs over 72 bytes, and several derived sources (token material,
// app-secret sources) exceed that, so every source goes through the digest
// before it reaches bcrypt.
func digestSource(source string) []byte {
	sum := sha256.Sum256([]byte(source))
	return []byte(hex.EncodeToString(sum[:]))
}

// HashSecret hashes source with a per-call random salt and returns both the
// hash and the salt record.
func (p *SecretProcessor) HashSecret(source string) (hash, salt string, err error) {
	h, err := bcrypt.GenerateFromPassword(digestSource(source), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hash secret: %w", err)
	}
	if len(h) < bcryptSaltLen {
		return "", "", fmt.Errorf("hash secret: unexpected hash length %d", len(h))
	}
	return string(h), string(h[:bcryptSaltLen]), nil
}

// VerifySecret reports whether candidate is the source that produced
// storedHash. The comparison re-hashes candidate with the salt carried inside
// storedHash and compares in constant time; the standalone salt record is
// informational only.
func (p *SecretProcessor) VerifySecret(candidate, storedHash, _ string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), digestSource(candidate)) == nil
}

// GenerateUniqueToken produces a high-entropy opaque token: two random
// blocks wrapped around a sub-second time component, suffixed with the date,
// then run through the adaptive hash. Two calls never collide with
// overwhelming probability (the first block alone carries 128 bits of
// entropy, and the hash adds its own random salt).
func (p *SecretProcessor) GenerateUniqueToken() (string, error) {
	now := time.Now().UTC()
	source := randomBlock() + strconv.Itoa(now.Nanosecond()) + randomBlock() + now.Format("20060102")

	token, err := bcrypt.GenerateFromPassword(digestSource(source), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return string(token), nil
}

func randomBlock() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; fall back to the
		// clock rather than return a short token.
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(b)
}
