package tricount

import (
	"errors"
	"fmt"
)

// ErrNotFetched is returned by Data, Users, Expenses and ExpensesFor before
// the first successful Refresh.
var ErrNotFetched = errors.New("tricount: no document fetched yet")

// CredentialError reports a failure while building the device identity (the
// installation id and its RSA key pair). It is returned by New and is not
// retryable.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("tricount: credential setup: %v", e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed Refresh. Transport errors, unexpected HTTP
// statuses and malformed response documents all surface as a FetchError; the
// previously cached document, if any, stays in place and the call may be
// retried.
type FetchError struct {
	// Op names the failed step: "authenticate" for the handshake,
	// "fetch" for the registry download.
	Op string

	// StatusCode is the HTTP status of the failed response, or zero when
	// the request never completed.
	StatusCode int

	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("tricount: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
