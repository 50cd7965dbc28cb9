//
// protocol.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package protocol implements the PSI, Secure Sum, and Joint Query
// protocols on top of the OT, Paillier, and Shamir engines.
//
// A Coordinator runs protocol sessions for a list of participants.
// Each participant is a Party that holds its private inputs and
// serves protocol operations over p2p connections. The coordinator
// only sees blinded, encrypted, or consented values, and the final
// aggregate result.
package protocol

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/p2p"
	"github.com/markkurossi/mpcsuite/registry"
	"github.com/markkurossi/mpcsuite/timing"
)

// Type defines the protocol type.
type Type int

// Protocol types.
const (
	PSI Type = iota
	SecureSum
	JointQuery
)

var typeNames = map[Type]string{
	PSI:        "PSI",
	SecureSum:  "SECURE_SUM",
	JointQuery: "JOINT_QUERY",
}

func (t Type) String() string {
	name, ok := typeNames[t]
	if ok {
		return name
	}
	return fmt.Sprintf("{Type %d}", t)
}

// ParseType parses the protocol type name.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return 0, errors.Wrapf(mpcerr.ErrUnknownProtocol, "%q", name)
}

// Protocol implements one protocol type.
type Protocol interface {
	// Type returns the protocol type.
	Type() Type

	// Validate checks the protocol specific request parameters.
	Validate(req *Request) error

	// Execute runs the protocol rounds of the session.
	Execute(ctx context.Context, s *Session) (*Result, error)
}

var protocols = map[Type]Protocol{
	PSI:        psi{},
	SecureSum:  secureSum{},
	JointQuery: jointQuery{},
}

// Lookup returns the implementation of the protocol type.
func Lookup(t Type) (Protocol, error) {
	p, ok := protocols[t]
	if !ok {
		return nil, errors.Wrapf(mpcerr.ErrUnknownProtocol, "%v", t)
	}
	return p, nil
}

// Request defines a protocol invocation.
type Request struct {
	Type         Type
	Participants []string

	// Field names the participants' private data for PSI and
	// SecureSum.
	Field string

	// QueryType and Target name the shared record for JointQuery.
	QueryType string
	Target    string

	// Reveal reveals the intersecting values in PSI.
	Reveal bool
}

func (req *Request) validate() error {
	if len(req.Participants) < 2 {
		return errors.Wrapf(mpcerr.ErrInvalidInput,
			"%d participants, need at least 2", len(req.Participants))
	}
	seen := make(map[string]bool)
	for _, id := range req.Participants {
		if len(id) == 0 {
			return errors.Wrap(mpcerr.ErrInvalidInput, "empty participant ID")
		}
		if seen[id] {
			return errors.Wrapf(mpcerr.ErrInvalidInput,
				"duplicate participant %s", id)
		}
		seen[id] = true
	}
	return nil
}

// Result holds the protocol output.
type Result struct {
	SessionID string
	JobID     registry.JobID
	Type      Type

	// PSI output. Membership is aligned with the querier's set.
	IntersectionSize int
	Membership       []bool
	Intersection     []string

	// SecureSum output.
	Sum *big.Int

	// JointQuery output.
	Value      *big.Int
	SharesUsed int

	Timing *timing.Timing
	Stats  p2p.IOStats
}

// summary describes the result for the job record without any
// protocol values.
func (r *Result) summary(participants int) string {
	if r.Type == JointQuery {
		return fmt.Sprintf("participants=%d shares=%d",
			participants, r.SharesUsed)
	}
	return fmt.Sprintf("participants=%d", participants)
}
