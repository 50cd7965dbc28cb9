//
// session.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/p2p"
	"github.com/markkurossi/mpcsuite/registry"
	"github.com/markkurossi/mpcsuite/timing"
	"github.com/markkurossi/text/superscript"
)

// State defines the session state.
type State int

// Session states.
const (
	Initiated State = iota
	Executing
	Succeeded
	Failed
)

var stateNames = map[State]string{
	Initiated: "INITIATED",
	Executing: "EXECUTING",
	Succeeded: "SUCCEEDED",
	Failed:    "FAILED",
}

func (s State) String() string {
	name, ok := stateNames[s]
	if ok {
		return name
	}
	return fmt.Sprintf("{State %d}", s)
}

var transitions = map[State][]State{
	Initiated: {Executing, Failed},
	Executing: {Succeeded, Failed},
}

// Session holds the ephemeral state of one protocol invocation. No
// session state survives the returned result.
type Session struct {
	ID        string
	JobID     registry.JobID
	Request   *Request
	Endpoints []*registry.Endpoint
	State     State
	Timing    *timing.Timing
	Round     int

	coord *Coordinator
	m     sync.Mutex
	stats p2p.IOStats
}

func newSession(coord *Coordinator, jobID registry.JobID,
	req *Request) *Session {

	return &Session{
		ID:      uuid.NewString(),
		JobID:   jobID,
		Request: req,
		State:   Initiated,
		Timing:  timing.New(),
		coord:   coord,
		stats:   p2p.NewIOStats(),
	}
}

// Transition moves the session to the state to.
func (s *Session) Transition(to State) error {
	for _, allowed := range transitions[s.State] {
		if allowed == to {
			s.Debugf("%s -> %s\n", s.State, to)
			s.State = to
			return nil
		}
	}
	return errors.Newf("invalid session transition %s -> %s", s.State, to)
}

// NextRound starts the next protocol round.
func (s *Session) NextRound(label string) {
	s.Round++
	s.Debugf("round %d: %s\n", s.Round, label)
}

// Stats returns the I/O statistics of the session's closed
// connections.
func (s *Session) Stats() p2p.IOStats {
	s.m.Lock()
	defer s.m.Unlock()
	return s.stats
}

// Debugf prints debug output if the coordinator is verbose.
func (s *Session) Debugf(format string, a ...interface{}) {
	if !s.coord.Verbose {
		return
	}
	fmt.Printf("%s %s: %s", s.Request.Type, shortID(s.ID),
		fmt.Sprintf(format, a...))
}

// label returns the participant label P¹, P², ... of the endpoint
// index.
func label(idx int) string {
	return "P" + superscript.Itoa(idx+1)
}

func (s *Session) dial(ctx context.Context, idx int) (*p2p.Conn, error) {
	ep := s.Endpoints[idx]
	s.Debugf("dial %s=%s\n", label(idx), ep.ID)

	conn, err := s.coord.Network.Dial(ctx, ep)
	if err != nil {
		return nil, errors.Wrapf(mpcerr.Unreachable(err),
			"participant %s", ep.ID)
	}
	return conn, nil
}

func (s *Session) close(conn *p2p.Conn) {
	conn.Close()

	s.m.Lock()
	s.stats = s.stats.Add(conn.Stats)
	s.m.Unlock()
}

// remote annotates the error with the participant ID.
func (s *Session) remote(idx int, err error) error {
	return errors.Wrapf(err, "participant %s", s.Endpoints[idx].ID)
}

// shortID returns the short form of the identifier for debug output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
