//
// testbed_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"context"
	"testing"
	"time"

	"github.com/markkurossi/mpcsuite/env"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/registry"
	"github.com/stretchr/testify/require"
)

var testConfig = &env.Config{
	PaillierBits:  512,
	OTBits:        1024,
	KeygenTimeout: time.Minute,
	Workers:       4,
}

type testbed struct {
	config  *env.Config
	network *LocalNetwork
	dir     *registry.MemoryDirectory
	jobs    *registry.MemoryJobs
	coord   *Coordinator
	parties map[string]*Party
}

func newTestbed(t *testing.T, config *env.Config, ids ...string) *testbed {
	tb := &testbed{
		config:  config,
		network: NewLocalNetwork(),
		dir:     registry.NewMemoryDirectory(),
		jobs:    registry.NewMemoryJobs(),
		parties: make(map[string]*Party),
	}
	tb.coord = NewCoordinator(config, tb.dir, tb.jobs, tb.network)

	for _, id := range ids {
		p := NewParty(id, config)
		require.NoError(t, tb.dir.Register(tb.network.Add(p)))
		tb.parties[id] = p
	}
	return tb
}

func (tb *testbed) run(t *testing.T, req *Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return tb.coord.Run(ctx, req)
}

// lastJob returns the most recently created job.
func (tb *testbed) lastJob(t *testing.T) registry.Job {
	jobs := tb.jobs.Jobs()
	require.NotEmpty(t, jobs)
	return jobs[len(jobs)-1]
}

func requireKind(t *testing.T, err error, kind mpcerr.Kind) *mpcerr.Error {
	var merr *mpcerr.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, kind, merr.Kind, "error: %v", err)
	return merr
}
