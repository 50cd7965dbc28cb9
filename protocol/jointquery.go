//
// jointquery.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/registry"
	"github.com/markkurossi/mpcsuite/shamir"
	"golang.org/x/sync/errgroup"
)

// jointQuery implements the quorum gated joint query. The data owner
// has split its record among the participants with Distribute. The
// query asks each participant to release its share and reconstructs
// the record only from at least threshold released shares.
type jointQuery struct{}

func (jointQuery) Type() Type {
	return JointQuery
}

func (jointQuery) Validate(req *Request) error {
	if len(req.QueryType) == 0 || len(req.Target) == 0 {
		return errors.Wrap(mpcerr.ErrInvalidInput, "no query type or target")
	}
	return nil
}

func (jointQuery) Execute(ctx context.Context, s *Session) (*Result, error) {
	s.NextRound("release")

	released := make([]*shareReleased, len(s.Endpoints))
	durations := make([]time.Duration, len(s.Endpoints))

	var g errgroup.Group
	g.SetLimit(s.coord.Config.GetWorkers())
	for i := range s.Endpoints {
		g.Go(func() error {
			start := time.Now()
			conn, err := s.dial(ctx, i)
			if err != nil {
				return err
			}
			defer s.close(conn)

			var res shareReleased
			err = call(conn, OpShareRelease, &shareRelease{
				Session:   s.ID,
				Job:       string(s.JobID),
				QueryType: s.Request.QueryType,
				Target:    s.Request.Target,
			}, &res)
			if err != nil {
				return s.remote(i, err)
			}
			released[i] = &res
			durations[i] = time.Since(start)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// All released shares must come from the same distribution of
	// the record.
	var shares []shamir.Share
	var threshold int
	var distribution string
	for i, r := range released {
		if !r.Released {
			s.Debugf("%s: no share\n", label(i))
			continue
		}
		if len(r.Distribution) == 0 {
			return nil, s.remote(i, errors.Wrap(mpcerr.ErrMalformedMessage,
				"share without distribution"))
		}
		if len(shares) == 0 {
			distribution = r.Distribution
			threshold = r.Threshold
		} else if r.Distribution != distribution {
			err := errors.Wrapf(mpcerr.ErrInconsistentShares,
				"distribution %s, expected %s", shortID(r.Distribution),
				shortID(distribution))
			return nil, s.remote(i, err)
		} else if r.Threshold != threshold {
			return nil, s.remote(i, errors.Wrapf(mpcerr.ErrMalformedMessage,
				"threshold %d, expected %d", r.Threshold, threshold))
		}
		shares = append(shares, r.Share)
	}
	sample := s.Timing.Sample("Release", []string{
		fmt.Sprintf("%d/%d shares", len(shares), len(released)),
	})
	for i, d := range durations {
		sample.AbsSubSample(label(i), d)
	}
	if len(shares) == 0 {
		return nil, errors.Wrap(mpcerr.ErrInsufficientShares,
			"no shares released")
	}

	s.NextRound("reconstruct")
	scheme, err := shamir.New(threshold, s.coord.Config.GetRandom())
	if err != nil {
		return nil, mpcerr.Malformed(err)
	}
	value, err := scheme.Reconstruct(shares)
	if err != nil {
		return nil, err
	}
	s.Timing.Sample("Reconstruct", nil)

	return &Result{
		Value:      value,
		SharesUsed: len(shares),
	}, nil
}

// DistributeRequest defines how the owner's Joint Query record is
// shared among the holders.
type DistributeRequest struct {
	Owner     string
	QueryType string
	Target    string
	Holders   []string

	// Threshold is the number of shares needed for reconstruction.
	// Zero selects the configured threshold.
	Threshold int
}

// Distribute splits the owner's record among the holders. The owner
// deals the shares directly to the holders so the coordinator never
// sees them.
func (c *Coordinator) Distribute(ctx context.Context,
	req *DistributeRequest) error {

	name := JointQuery.String()

	threshold := req.Threshold
	if threshold == 0 {
		threshold = c.Config.GetThreshold()
	}
	if len(req.Owner) == 0 || len(req.QueryType) == 0 ||
		len(req.Target) == 0 {
		return mpcerr.New(name, errors.Wrap(mpcerr.ErrInvalidInput,
			"incomplete distribute request"))
	}
	check := &Request{
		Type:         JointQuery,
		Participants: req.Holders,
	}
	if err := check.validate(); err != nil {
		return mpcerr.New(name, err)
	}
	if threshold < 2 || threshold > len(req.Holders) {
		return mpcerr.New(name, errors.Wrapf(mpcerr.ErrInvalidThreshold,
			"threshold %d for %d holders", threshold, len(req.Holders)))
	}

	owner, err := c.Directory.Resolve(ctx, req.Owner)
	if err != nil {
		return mpcerr.New(name, err)
	}
	var holders []registry.Endpoint
	for _, id := range req.Holders {
		ep, err := c.Directory.Resolve(ctx, id)
		if err != nil {
			return mpcerr.New(name, err)
		}
		holders = append(holders, *ep)
	}

	conn, err := c.Network.Dial(ctx, owner)
	if err != nil {
		return mpcerr.New(name, errors.Wrapf(mpcerr.Unreachable(err),
			"participant %s", owner.ID))
	}
	defer conn.Close()

	var res dealResult
	err = call(conn, OpShareDeal, &shareDeal{
		Session:   uuid.NewString(),
		QueryType: req.QueryType,
		Target:    req.Target,
		Threshold: threshold,
		Holders:   holders,
	}, &res)
	if err != nil {
		return mpcerr.New(name, errors.Wrapf(err, "participant %s", owner.ID))
	}
	if res.Holders != len(holders) {
		return mpcerr.New(name, errors.Wrapf(mpcerr.ErrMalformedMessage,
			"dealt %d shares, expected %d", res.Holders, len(holders)))
	}
	c.Debugf("%s: %s/%s dealt %d-of-%d\n", name, req.QueryType, req.Target,
		threshold, len(holders))

	return nil
}

func (peer *peerConn) shareDeal(ctx context.Context) error {
	var req shareDeal
	if err := peer.receive(&req); err != nil {
		return err
	}
	p := peer.party
	key := QueryKey{req.QueryType, req.Target}

	if len(req.Session) == 0 {
		return errors.Wrap(mpcerr.ErrInvalidInput, "no deal session")
	}
	value, ok := p.record(key)
	if !ok {
		return errors.Wrapf(mpcerr.ErrInvalidInput, "no record %s", key)
	}
	scheme, err := shamir.New(req.Threshold, p.Config.GetRandom())
	if err != nil {
		return err
	}
	shares, err := scheme.Share(value, len(req.Holders))
	if err != nil {
		return err
	}

	// The deal session identifies the distribution.
	for i, holder := range req.Holders {
		if holder.ID == p.ID {
			p.store(key, storedShare{
				owner:        p.ID,
				distribution: req.Session,
				threshold:    req.Threshold,
				share:        shares[i],
			})
			continue
		}
		err := p.storeShare(ctx, &holder, &shareStore{
			Owner:        p.ID,
			Distribution: req.Session,
			QueryType:    req.QueryType,
			Target:       req.Target,
			Threshold:    req.Threshold,
			Share:        shares[i],
		})
		if err != nil {
			return errors.Wrapf(err, "holder %s", holder.ID)
		}
	}
	p.Debugf("JointQuery %s: dealt %s\n", shortID(req.Session), key)

	return peer.respond(&dealResult{
		Holders: len(req.Holders),
	})
}

func (p *Party) storeShare(ctx context.Context, holder *registry.Endpoint,
	req *shareStore) error {

	conn, err := p.dial(ctx, holder)
	if err != nil {
		return err
	}
	defer conn.Close()

	var a ack
	return call(conn, OpShareStore, req, &a)
}

func (peer *peerConn) shareStore() error {
	var req shareStore
	if err := peer.receive(&req); err != nil {
		return err
	}
	if req.Threshold < 2 {
		return errors.Wrapf(mpcerr.ErrInvalidThreshold,
			"threshold %d", req.Threshold)
	}
	if len(req.Distribution) == 0 {
		return errors.Wrap(mpcerr.ErrInvalidInput, "no distribution")
	}
	if _, err := shamir.Dedup([]shamir.Share{req.Share}); err != nil {
		return err
	}
	peer.party.store(QueryKey{req.QueryType, req.Target}, storedShare{
		owner:        req.Owner,
		distribution: req.Distribution,
		threshold:    req.Threshold,
		share:        req.Share,
	})
	return peer.respond(&ack{})
}

func (peer *peerConn) shareRelease() error {
	var req shareRelease
	if err := peer.receive(&req); err != nil {
		return err
	}
	p := peer.party

	stored, ok := p.share(QueryKey{req.QueryType, req.Target})
	if !ok {
		return peer.respond(&shareReleased{})
	}
	consent := p.consent(ShareRequest{
		Job:       req.Job,
		QueryType: req.QueryType,
		Target:    req.Target,
	})
	if !consent {
		p.Debugf("JointQuery %s: release denied\n", shortID(req.Session))
		return peer.respond(&shareReleased{})
	}
	return peer.respond(&shareReleased{
		Released:     true,
		Distribution: stored.distribution,
		Threshold:    stored.threshold,
		Share:        stored.share,
	})
}
