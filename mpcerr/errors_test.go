//
// errors_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpcerr

import (
	"context"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
)

var kindTests = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidPlaintext, Validation},
	{errors.Wrap(ErrInvalidChoice, "ot"), Validation},
	{ErrDecryptionFailed, Integrity},
	{errors.Wrapf(ErrInsufficientShares, "got %d", 1), Integrity},
	{ErrPrimeGeneration, Resource},
	{context.DeadlineExceeded, Resource},
	{Unreachable(io.ErrClosedPipe), Resource},
	{Malformed(io.ErrUnexpectedEOF), Integrity},
	{io.EOF, Integrity},
}

func TestKindOf(t *testing.T) {
	for idx, test := range kindTests {
		kind := KindOf(test.err)
		if kind != test.kind {
			t.Errorf("test %d: KindOf(%v)=%v, expected %v",
				idx, test.err, kind, test.kind)
		}
		if Retryable(test.err) != (test.kind == Resource) {
			t.Errorf("test %d: Retryable(%v) mismatch", idx, test.err)
		}
	}
}

func TestError(t *testing.T) {
	cause := errors.Wrap(ErrInsufficientShares, "joint query")
	err := New("JointQuery", cause)

	if err.Kind != Integrity {
		t.Errorf("unexpected kind %v", err.Kind)
	}
	if !errors.Is(err, ErrInsufficientShares) {
		t.Errorf("error does not match its cause")
	}
	wrapped := errors.Wrap(err, "invoke")
	if KindOf(wrapped) != Integrity {
		t.Errorf("wrapped kind: %v", KindOf(wrapped))
	}
	if Retryable(nil) {
		t.Errorf("nil error is retryable")
	}
}

func TestCode(t *testing.T) {
	for _, s := range sentinels {
		err := errors.Wrapf(s, "party %d", 2)
		if !errors.Is(FromCode(Code(err)), s) {
			t.Errorf("code round trip failed for %v", s)
		}
	}
	for _, err := range []error{context.DeadlineExceeded, context.Canceled} {
		if !Retryable(FromCode(Code(errors.Wrap(err, "keygen")))) {
			t.Errorf("%v is not retryable after the wire", err)
		}
	}
	if KindOf(FromCode(Code(ErrInconsistentShares))) != Integrity {
		t.Errorf("ErrInconsistentShares is not an integrity error")
	}
	if Code(io.EOF) != "" {
		t.Errorf("Code(io.EOF) = %q", Code(io.EOF))
	}
	if !errors.Is(FromCode("no such code"), ErrMalformedMessage) {
		t.Errorf("unknown code does not map to ErrMalformedMessage")
	}
}
