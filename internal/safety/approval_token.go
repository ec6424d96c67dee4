package safety

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// approvalClaims is the signed payload an ApprovalToken carries: which
// session approved which (tool, params) hash, and when that approval
// expires. Signing lets an approval be handed to an out-of-process
// tool runner (or reattached after a process restart) without
// re-trusting an unauthenticated approval hash.
type approvalClaims struct {
	SessionID string    `json:"session_id"`
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// tokenSigner issues and verifies JWS-signed approval tokens.
type tokenSigner struct {
	key []byte
}

func newTokenSigner(key []byte) *tokenSigner {
	return &tokenSigner{key: key}
}

// Issue signs an approval for (sessionID, hash), valid for ttl.
func (s *tokenSigner) Issue(sessionID, hash string, ttl time.Duration) (string, error) {
	claims := approvalClaims{SessionID: sessionID, Hash: hash, ExpiresAt: time.Now().Add(ttl)}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("approval token: marshal claims: %w", err)
	}

	signed, err := jws.Sign(payload, jws.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", fmt.Errorf("approval token: sign: %w", err)
	}
	return string(signed), nil
}

// Verify checks a token's signature and expiry, returning its claims.
func (s *tokenSigner) Verify(token string) (sessionID, hash string, err error) {
	payload, err := jws.Verify([]byte(token), jws.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", "", fmt.Errorf("approval token: verify: %w", err)
	}

	var claims approvalClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", "", fmt.Errorf("approval token: decode claims: %w", err)
	}
	if time.Now().After(claims.ExpiresAt) {
		return "", "", fmt.Errorf("approval token: expired")
	}
	return claims.SessionID, claims.Hash, nil
}
