//
// errors.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package mpcerr defines the error taxonomy of the MPC engines and
// protocols. Errors are classified into validation, integrity, and
// resource errors. Only resource errors are retryable. Error messages
// never contain secret values.
package mpcerr

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind specifies the error class.
type Kind int

// Error kinds.
const (
	Validation Kind = iota
	Integrity
	Resource
)

var kindNames = map[Kind]string{
	Validation: "validation",
	Integrity:  "integrity",
	Resource:   "resource",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if ok {
		return name
	}
	return fmt.Sprintf("{Kind %d}", k)
}

// Validation errors.
var (
	ErrInvalidPlaintext = errors.New("invalid plaintext")
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrInvalidChoice    = errors.New("invalid choice")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownProtocol  = errors.New("unknown protocol")
)

// Integrity errors.
var (
	ErrDecryptionFailed   = errors.New("decryption failed")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInconsistentShares = errors.New("inconsistent shares")
	ErrMalformedMessage   = errors.New("malformed protocol message")
)

// Resource errors.
var (
	ErrRandomness      = errors.New("randomness unavailable")
	ErrPrimeGeneration = errors.New("prime generation budget exceeded")
	ErrUnreachable     = errors.New("participant unreachable")
	ErrQueueFull       = errors.New("queue is full")
)

var validation = []error{
	ErrInvalidPlaintext,
	ErrInvalidThreshold,
	ErrInvalidChoice,
	ErrInvalidInput,
	ErrUnknownProtocol,
}

var resource = []error{
	ErrRandomness,
	ErrPrimeGeneration,
	ErrUnreachable,
	ErrQueueFull,
	context.DeadlineExceeded,
	context.Canceled,
}

// KindOf classifies the error. Errors outside the taxonomy are
// integrity errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, r := range resource {
		if errors.Is(err, r) {
			return Resource
		}
	}
	for _, v := range validation {
		if errors.Is(err, v) {
			return Validation
		}
	}
	return Integrity
}

// Retryable tests if the operation failing with err can be retried.
func Retryable(err error) bool {
	return err != nil && KindOf(err) == Resource
}

// Unreachable marks the transport error err as a participant
// reachability error.
func Unreachable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrUnreachable)
}

// Malformed marks the decoding error err as a malformed protocol
// message.
func Malformed(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrMalformedMessage)
}

// Error is the error returned from protocol invocations.
type Error struct {
	Kind     Kind
	Protocol string
	Msg      string
	cause    error
}

// New creates a protocol error from the cause error.
func New(protocol string, cause error) *Error {
	return &Error{
		Kind:     KindOf(cause),
		Protocol: protocol,
		Msg:      cause.Error(),
		cause:    cause,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %s", e.Protocol, e.Kind, e.Msg)
}

// Unwrap returns the cause of the error.
func (e *Error) Unwrap() error {
	return e.cause
}

var sentinels = []error{
	ErrInvalidPlaintext,
	ErrInvalidThreshold,
	ErrInvalidChoice,
	ErrInvalidInput,
	ErrUnknownProtocol,
	ErrDecryptionFailed,
	ErrInsufficientShares,
	ErrInconsistentShares,
	ErrMalformedMessage,
	ErrRandomness,
	ErrPrimeGeneration,
	ErrUnreachable,
	ErrQueueFull,
	context.DeadlineExceeded,
	context.Canceled,
}

// Code returns the wire code of the error. The code is the message of
// the matching sentinel error and it carries no details of the
// failure. Errors outside the taxonomy have an empty code.
func Code(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return ""
}

// FromCode returns the sentinel error for the wire code. Unknown codes
// map to ErrMalformedMessage.
func FromCode(code string) error {
	for _, s := range sentinels {
		if s.Error() == code {
			return s
		}
	}
	return ErrMalformedMessage
}
