// Package signer creates and checks HMAC-SHA256 signatures for proxy links so
// clients cannot make the gateway fetch arbitrary urls.
package signer

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

func GenerateSecretKey() ([]byte, error) {
	key := make([]byte, 32) // using over 32 bytes doesn't make sense, as it gets hashed down anyways.
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate secret key: %w", err)
	}
	return key, nil
}

func (s *Signer) Sign(message string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(message))
	signature := h.Sum(nil)
	return base64.URLEncoding.EncodeToString(signature)
}

func (s *Signer) Verify(message, signature string) bool {
	sigDecoded, err := base64.URLEncoding.DecodeString(signature)
	if err != nil {
		return false // invalid base64 input
	}

	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(message))
	expectedSig := h.Sum(nil)

	return hmac.Equal(sigDecoded, expectedSig)
}

// SignExpiring signs message so that it is only valid for ttl. It returns the
// signature and the expiry as a unix timestamp, both of which go into the link.
func (s *Signer) SignExpiring(message string, ttl time.Duration) (signature string, expires string) {
	expires = strconv.FormatInt(s.now().Add(ttl).Unix(), 10)
	return s.Sign(expires + "|" + message), expires
}

// VerifyExpiring checks a signature made by SignExpiring.
func (s *Signer) VerifyExpiring(message, signature, expires string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || s.now().Unix() > exp {
		return false
	}
	return s.Verify(expires+"|"+message, signature)
}
