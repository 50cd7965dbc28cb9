//
// coordinator.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"context"
	"fmt"
	"log"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/env"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/registry"
)

// Coordinator runs protocol sessions. It creates a job for each
// session, resolves the participants, drives the protocol rounds,
// and completes the job with the outcome.
type Coordinator struct {
	Config    *env.Config
	Directory registry.Directory
	Jobs      registry.JobService
	Network   Network
	Verbose   bool
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(config *env.Config, dir registry.Directory,
	jobs registry.JobService, network Network) *Coordinator {

	return &Coordinator{
		Config:    config,
		Directory: dir,
		Jobs:      jobs,
		Network:   network,
		Verbose:   config != nil && config.Verbose,
	}
}

// Debugf prints debug output if the coordinator is verbose.
func (c *Coordinator) Debugf(format string, a ...interface{}) {
	if !c.Verbose {
		return
	}
	fmt.Printf(format, a...)
}

// Run runs the protocol request. The invocation is atomic: it returns
// either the complete result or an *mpcerr.Error, never a partial
// result.
func (c *Coordinator) Run(ctx context.Context, req *Request) (
	*Result, error) {

	name := req.Type.String()

	proto, err := Lookup(req.Type)
	if err != nil {
		return nil, mpcerr.New(name, err)
	}
	if err := req.validate(); err != nil {
		return nil, mpcerr.New(name, err)
	}
	if err := proto.Validate(req); err != nil {
		return nil, mpcerr.New(name, err)
	}

	jobID, err := c.Jobs.CreateJob(ctx, name, req.Participants)
	if err != nil {
		return nil, mpcerr.New(name, errors.Wrap(err, "create job"))
	}
	s := newSession(c, jobID, req)

	result, err := c.execute(ctx, proto, s)

	outcome := registry.Outcome{
		Duration: s.Timing.Total(),
	}
	if err != nil {
		if terr := s.Transition(Failed); terr != nil {
			log.Printf("session %s: %s", s.ID, terr)
		}
		kind := mpcerr.KindOf(err)
		outcome.ErrorKind = kind.String()
		log.Printf("session %s: %s failed: %s error", s.ID, name, kind)
		c.complete(ctx, s, outcome)

		return nil, mpcerr.New(name, err)
	}
	if err := s.Transition(Succeeded); err != nil {
		return nil, mpcerr.New(name, err)
	}
	outcome.Success = true
	outcome.Summary = result.summary(len(req.Participants))
	c.complete(ctx, s, outcome)

	return result, nil
}

func (c *Coordinator) execute(ctx context.Context, proto Protocol,
	s *Session) (*Result, error) {

	for _, id := range s.Request.Participants {
		ep, err := c.Directory.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		s.Endpoints = append(s.Endpoints, ep)
	}
	s.Timing.Sample("Resolve", []string{
		fmt.Sprintf("%d parties", len(s.Endpoints)),
	})

	if err := s.Transition(Executing); err != nil {
		return nil, err
	}
	result, err := proto.Execute(ctx, s)
	if err != nil {
		return nil, err
	}
	result.SessionID = s.ID
	result.JobID = s.JobID
	result.Type = proto.Type()
	result.Timing = s.Timing
	result.Stats = s.Stats()

	return result, nil
}

func (c *Coordinator) complete(ctx context.Context, s *Session,
	outcome registry.Outcome) {

	err := c.Jobs.CompleteJob(context.WithoutCancel(ctx), s.JobID, outcome)
	if err != nil {
		log.Printf("session %s: complete job %s: %s", s.ID, s.JobID, err)
	}
}
