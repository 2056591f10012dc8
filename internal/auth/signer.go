package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer computes and checks HMAC-SHA256 request signatures.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the lowercase hex HMAC of the canonical form of payload.
func (s *Signer) Sign(payload map[string]any) (string, error) {
	mac, err := s.mac(payload)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(mac), nil
}

// Verify reports whether provided is the signature of payload. Malformed hex
// and encoding failures yield false.
func (s *Signer) Verify(payload map[string]any, provided string) bool {
	got, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	want, err := s.mac(payload)
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}

func (s *Signer) mac(payload map[string]any) ([]byte, error) {
	canonical, err := Canonical(payload)
	if err != nil {
		return nil, err
	}
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(canonical))
	return h.Sum(nil), nil
}
