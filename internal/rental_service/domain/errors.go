package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable indicates a network failure or timeout talking to
	// the telephony provider. Retryable by the caller; the core never retries.
	ErrUpstreamUnavailable = errors.New("upstream telephony unavailable")
	// ErrUpstreamRejected indicates the provider refused the request
	// (invalid credential, number already gone). Not retryable with the
	// same credential.
	ErrUpstreamRejected = errors.New("upstream telephony rejected request")
	// ErrNotFound indicates a local record was not found.
	ErrNotFound = errors.New("record not found")
	// ErrStateViolation indicates a subscription transition was attempted
	// from a state that does not allow it.
	ErrStateViolation = errors.New("subscription state violation")
	// ErrExhausted indicates no candidate numbers remained after filtering.
	// Distinct from ErrUpstreamUnavailable: the upstream call succeeded but
	// there is nothing left to offer.
	ErrExhausted = errors.New("no candidates available")
	// ErrNoValidCredentials indicates the valid-credential set is empty, so
	// no upstream call can be attempted at all. A refinement of ErrExhausted.
	ErrNoValidCredentials = fmt.Errorf("%w: no valid credentials", ErrExhausted)
	// ErrAlreadyAllocated indicates a purchase was attempted for a number
	// already present in the allocation table. Rejected locally; no upstream
	// call is made.
	ErrAlreadyAllocated = errors.New("number already allocated")
)
