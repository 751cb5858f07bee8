// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package trusterr defines the error taxonomy shared by the trust store,
// the chain engine and the policy verifier, together with the helper that
// implements the two-call buffer sizing contract at the public boundary.
//
// Allocation failure has no sentinel: the Go runtime aborts on exhaustion,
// so there is nothing for a caller to test against.
package trusterr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter indicates a nil or otherwise unusable argument.
	ErrInvalidParameter = errors.New("trusterr: invalid parameter")

	// ErrNotFound indicates an exhausted enumeration or a missing object.
	ErrNotFound = errors.New("trusterr: not found")

	// ErrExists indicates an add that conflicts with an existing entry.
	ErrExists = errors.New("trusterr: object already exists")

	// ErrAccessDenied indicates a read-only store or a collection without a
	// sibling that accepts adds.
	ErrAccessDenied = errors.New("trusterr: access denied")

	// ErrBadEncode indicates malformed serialized input.
	ErrBadEncode = errors.New("trusterr: bad encoding")

	// ErrMoreData indicates an output buffer that is too small.
	ErrMoreData = errors.New("trusterr: more data is available")

	// ErrNotImplemented indicates an operation that is deliberately stubbed.
	ErrNotImplemented = errors.New("trusterr: not implemented")
)

// MoreDataError reports the size a caller must supply on the next call.
type MoreDataError struct {
	Required int
}

// Error implements error.
func (e *MoreDataError) Error() string {
	return fmt.Sprintf("%v: %d bytes required", ErrMoreData, e.Required)
}

// Is makes errors.Is(err, ErrMoreData) hold.
func (e *MoreDataError) Is(target error) bool { return target == ErrMoreData }

// CopyOut copies src into dst following the size-query convention.
//
// A nil dst is a size query: it returns len(src) and no error. A dst shorter
// than src returns len(src) and a *MoreDataError. Otherwise src is copied and
// its length returned.
func CopyOut(dst, src []byte) (int, error) {
	if dst == nil {
		return len(src), nil
	}
	if len(dst) < len(src) {
		return len(src), &MoreDataError{Required: len(src)}
	}
	return copy(dst, src), nil
}
