package clmm

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrPreconditionViolation marks a lifecycle transition requested from a state that does not allow it.
var ErrPreconditionViolation = errors.New("precondition violation")

// DerivationError is returned when no program address exists for a seed tuple.
// It indicates a configuration problem and is never retried.
type DerivationError struct {
	Seed string
	Err  error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("failed to derive %s address: %v", e.Seed, e.Err)
}

func (e *DerivationError) Unwrap() error { return e.Err }

// ValidationError reports a rejected request before any address is derived or RPC call made.
type ValidationError struct {
	Op     Op
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid %s request: %s", e.Op, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(op Op, format string, args ...interface{}) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func precondition(op Op, format string, args ...interface{}) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...), Err: ErrPreconditionViolation}
}

// ProtocolRejection is a bundle the chain (proxy or CLMM program) refused.
type ProtocolRejection struct {
	Op       Op
	Position solana.PublicKey
	Code     string
	Err      error
}

func (e *ProtocolRejection) Error() string {
	msg := fmt.Sprintf("%s rejected by program", e.Op)
	if !e.Position.IsZero() {
		msg += fmt.Sprintf(" (position %s)", e.Position)
	}
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolRejection) Unwrap() error { return e.Err }

// TransientNetworkError is a submission or confirmation failure caused by connectivity,
// timeouts or an expired blockhash. Composing a fresh bundle and resubmitting is safe.
type TransientNetworkError struct {
	Op       Op
	Position solana.PublicKey
	Err      error
}

func (e *TransientNetworkError) Error() string {
	if e.Position.IsZero() {
		return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s (position %s): network error: %v", e.Op, e.Position, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a TransientNetworkError.
func IsRetryable(err error) bool {
	var t *TransientNetworkError
	return errors.As(err, &t)
}
