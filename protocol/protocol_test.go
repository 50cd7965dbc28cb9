//
// protocol_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"testing"

	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, test := range []struct {
		name string
		t    Type
	}{
		{"PSI", PSI},
		{"psi", PSI},
		{"SECURE_SUM", SecureSum},
		{"Joint_Query", JointQuery},
	} {
		parsed, err := ParseType(test.name)
		require.NoError(t, err)
		require.Equal(t, test.t, parsed)
	}
	_, err := ParseType("MEDIAN")
	require.ErrorIs(t, err, mpcerr.ErrUnknownProtocol)

	_, err = Lookup(Type(42))
	require.ErrorIs(t, err, mpcerr.ErrUnknownProtocol)
}

func TestRequestValidate(t *testing.T) {
	for _, participants := range [][]string{
		nil,
		{"bank1"},
		{"bank1", ""},
		{"bank1", "bank2", "bank1"},
	} {
		req := &Request{
			Type:         SecureSum,
			Participants: participants,
			Field:        "deposits",
		}
		require.ErrorIs(t, req.validate(), mpcerr.ErrInvalidInput,
			"participants %v", participants)
	}
	req := &Request{
		Type:         SecureSum,
		Participants: []string{"bank1", "bank2"},
	}
	require.NoError(t, req.validate())
	require.ErrorIs(t, secureSum{}.Validate(req), mpcerr.ErrInvalidInput)
	require.ErrorIs(t, jointQuery{}.Validate(req), mpcerr.ErrInvalidInput)
}

func TestSessionTransitions(t *testing.T) {
	coord := NewCoordinator(nil, nil, nil, nil)
	s := newSession(coord, "job", &Request{Type: PSI})
	require.Equal(t, Initiated, s.State)

	require.Error(t, s.Transition(Succeeded))
	require.NoError(t, s.Transition(Executing))
	require.Error(t, s.Transition(Initiated))
	require.NoError(t, s.Transition(Succeeded))
	require.Error(t, s.Transition(Failed))
	require.Equal(t, "SUCCEEDED", s.State.String())

	s = newSession(coord, "job", &Request{Type: PSI})
	require.NoError(t, s.Transition(Failed))
	require.Error(t, s.Transition(Executing))
}

func TestOperandString(t *testing.T) {
	require.Equal(t, "PSIHold", OpPSIHold.String())
	require.Equal(t, "{Operand 200}", Operand(200).String())
}
