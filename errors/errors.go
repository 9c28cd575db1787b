// Package errors provides centralized error definitions for the SSO client.
package errors

import "errors"

// Authentication errors.
var (
	// ErrInvalidCredentials indicates the identity provider rejected the
	// username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNetwork indicates a transport-level failure: connection refused,
	// DNS, TLS, or request timeout.
	ErrNetwork = errors.New("network error")

	// ErrUnexpectedPageLayout indicates the provider's HTML or redirect
	// shape deviates from the expected contract. It signals contract drift
	// on the provider side, distinct from rejected credentials.
	ErrUnexpectedPageLayout = errors.New("unexpected page layout")

	// ErrCancelled indicates the caller aborted an in-flight request
	// through its context.
	ErrCancelled = errors.New("cancelled")
)
