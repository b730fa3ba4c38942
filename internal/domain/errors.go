package domain

import "fmt"

// Error types for consistent error handling across the client engine.

// ErrInvalidAmount indicates an amount string that does not parse as a
// finite decimal number.
type ErrInvalidAmount struct {
	Input  string
	Reason string
}

func (e *ErrInvalidAmount) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

// ErrExceedsHoldings indicates a sell amount above the projected holding
// (confirmed plus pending).
type ErrExceedsHoldings struct {
	Requested Money
	Held      Money
}

func (e *ErrExceedsHoldings) Error() string {
	return fmt.Sprintf("cannot sell %s: projected holding is %s", e.Requested, e.Held)
}

// ErrInsufficientCash indicates a buy amount above the live cash balance.
type ErrInsufficientCash struct {
	Requested Money
	Available Money
}

func (e *ErrInsufficientCash) Error() string {
	return fmt.Sprintf("cannot buy %s: cash balance is %s", e.Requested, e.Available)
}

// ErrNetwork indicates a request that failed before any response arrived.
type ErrNetwork struct {
	Op  string
	Err error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network error [%s]: %v", e.Op, e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrRemoteRejected indicates a non-2xx response. Message carries the
// server-supplied reason verbatim when one was present.
type ErrRemoteRejected struct {
	Status  int
	Message string
}

func (e *ErrRemoteRejected) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected with status %d", e.Status)
}

// ErrUnknownAsset indicates a snapshot lookup for an asset that was never
// fetched. This is an invariant violation, fatal to the view that hit it.
type ErrUnknownAsset struct {
	AssetID string
}

func (e *ErrUnknownAsset) Error() string {
	return fmt.Sprintf("unknown asset: %s", e.AssetID)
}

// ErrSubmissionInFlight indicates a second transaction submission while one
// is still pending. Submissions are single-flight per session.
type ErrSubmissionInFlight struct{}

func (e *ErrSubmissionInFlight) Error() string {
	return "another transaction is already being submitted"
}

// ErrSessionExpired indicates the bearer token is past its expiry.
type ErrSessionExpired struct {
	Username string
}

func (e *ErrSessionExpired) Error() string {
	return fmt.Sprintf("session expired for %s", e.Username)
}

// ErrNotAuthenticated indicates no login has happened yet.
type ErrNotAuthenticated struct{}

func (e *ErrNotAuthenticated) Error() string {
	return "not authenticated"
}
