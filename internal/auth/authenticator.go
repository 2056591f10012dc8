package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrReplayed         = errors.New("request already used")
	ErrGuardUnavailable = errors.New("replay guard unavailable")
)

// ValidationError carries every envelope problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}

// Authenticator runs the full check for a signed request: envelope shape and
// replay window, signature, then single use.
type Authenticator struct {
	signer *Signer
	guard  ReplayGuard
	now    func() time.Time
}

func NewAuthenticator(signer *Signer, guard ReplayGuard) *Authenticator {
	return &Authenticator{
		signer: signer,
		guard:  guard,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for the replay window.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

// Authenticate returns nil for an acceptable request, a *ValidationError for
// a malformed one, ErrInvalidSignature or ErrReplayed for a rejected one.
// Replay guard failures are wrapped in ErrGuardUnavailable.
func (a *Authenticator) Authenticate(ctx context.Context, payload map[string]any) error {
	check := ValidateEnvelope(payload, a.now())
	if !check.Valid {
		return &ValidationError{Problems: check.Errors}
	}

	signature, _ := payload[SignatureField].(string)
	if !a.signer.Verify(payload, signature) {
		return ErrInvalidSignature
	}

	if a.guard == nil {
		return nil
	}
	fresh, err := a.guard.Remember(ctx, strings.ToLower(signature), 2*ReplayWindow)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	if !fresh {
		return ErrReplayed
	}
	return nil
}
