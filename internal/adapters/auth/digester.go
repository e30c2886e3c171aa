package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"

	"interviewcalendar/internal/domain"
)

const (
	tokenBytes = 32
	keyBytes   = 32
)

var digestInfo = []byte("interview-invitation-digest-v1")

type blakeDigester struct {
	key []byte
}

// NewTokenDigester returns a TokenDigester whose digests are keyed BLAKE2b-256 hashes.
// The key is derived from secret with HKDF-SHA256.
func NewTokenDigester(secret string) (domain.TokenDigester, error) {
	if secret == "" {
		return nil, errors.New("token digest secret is empty")
	}
	key := make([]byte, keyBytes)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, digestInfo), key); err != nil {
		return nil, fmt.Errorf("derive digest key: %w", err)
	}
	return &blakeDigester{key: key}, nil
}

// NewToken returns 32 random bytes encoded as unpadded base64url.
func (d *blakeDigester) NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (d *blakeDigester) Digest(token string) string {
	h, err := blake2b.New256(d.key)
	if err != nil {
		// key length is fixed at construction
		panic(err)
	}
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}
