package shortcode

import "fmt"

// GenerationError reports that code generation itself produced an invalid
// value or was asked for an impossible batch. Under a correct configuration
// the validity case should not happen; it indicates a configuration bug,
// not a transient condition worth retrying against the store.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("shortcode generation failed: %s", e.Reason)
}

// ValidationError reports that a supplied code fails the validity predicate.
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid short code %q: %s", e.Code, e.Reason)
}

// RetriesExhaustedError reports that the generate-and-check fallback could
// not find a free code within its retry budget.
type RetriesExhaustedError struct {
	Attempts int
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("no unique short code found after %d attempts", e.Attempts)
}

// StoreUnavailableError wraps a transient I/O failure against the keyed
// store or the job queue.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}
