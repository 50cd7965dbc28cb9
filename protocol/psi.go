//
// psi.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/ot"
	"github.com/markkurossi/mpcsuite/registry"
)

// psi implements the private set intersection. The querier P1 runs
// one pairwise round with each holder P2..Pk. In each round the
// holder tags its elements with RSA signatures, the querier gets the
// tags of its candidates with blind signatures, and fetches the hash
// bucket of each candidate tag with a 1-out-of-M oblivious transfer.
type psi struct{}

func (psi) Type() Type {
	return PSI
}

func (psi) Validate(req *Request) error {
	if len(req.Field) == 0 {
		return errors.Wrap(mpcerr.ErrInvalidInput, "no field")
	}
	return nil
}

func (psi) Execute(ctx context.Context, s *Session) (*Result, error) {
	s.NextRound(fmt.Sprintf("query %s", label(0)))

	conn, err := s.dial(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer s.close(conn)

	var holders []registry.Endpoint
	for _, ep := range s.Endpoints[1:] {
		holders = append(holders, *ep)
	}
	var res psiResult
	err = call(conn, OpPSIQuery, &psiQuery{
		Session: s.ID,
		Field:   s.Request.Field,
		Holders: holders,
		Reveal:  s.Request.Reveal,
	}, &res)
	if err != nil {
		return nil, s.remote(0, err)
	}

	var members int
	for _, f := range res.Flags {
		if f {
			members++
		}
	}
	if res.Size < 0 || res.Size > members {
		return nil, errors.Wrapf(mpcerr.ErrMalformedMessage,
			"intersection size %d, %d members", res.Size, members)
	}
	if s.Request.Reveal && len(res.Values) != res.Size ||
		!s.Request.Reveal && len(res.Values) != 0 {
		return nil, errors.Wrapf(mpcerr.ErrMalformedMessage,
			"%d intersection values for size %d", len(res.Values), res.Size)
	}
	s.Timing.Sample("PSI", []string{
		fmt.Sprintf("%d holders", len(holders)),
	})

	return &Result{
		IntersectionSize: res.Size,
		Membership:       res.Flags,
		Intersection:     res.Values,
	}, nil
}

// elementData returns the signed representation of the set element.
func elementData(field, value string) []byte {
	return []byte(field + "\x00" + value)
}

// bucketIndex returns the hash bucket of the tag.
func bucketIndex(tag []byte, buckets int) int {
	return int(binary.BigEndian.Uint32(tag) % uint32(buckets))
}

func distinct(values []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

func (peer *peerConn) psiQuery(ctx context.Context) error {
	var q psiQuery
	if err := peer.receive(&q); err != nil {
		return err
	}
	p := peer.party

	set, ok := p.set(q.Field)
	if !ok {
		return errors.Wrapf(mpcerr.ErrInvalidInput, "no set for %s", q.Field)
	}
	if len(q.Holders) == 0 {
		return errors.Wrap(mpcerr.ErrInvalidInput, "no holders")
	}
	candidates := distinct(set)
	alive := make([]bool, len(candidates))
	for i := range alive {
		alive[i] = true
	}

	for _, holder := range q.Holders {
		var count int
		for _, a := range alive {
			if a {
				count++
			}
		}
		if count == 0 {
			break
		}
		err := p.psiRound(ctx, &q, &holder, candidates, alive)
		if err != nil {
			return errors.Wrapf(err, "holder %s", holder.ID)
		}
		p.Debugf("PSI %s: round %s\n", shortID(q.Session), holder.ID)
	}

	index := make(map[string]int)
	res := new(psiResult)
	for i, c := range candidates {
		index[c] = i
		if alive[i] {
			res.Size++
			if q.Reveal {
				res.Values = append(res.Values, c)
			}
		}
	}
	for _, v := range set {
		res.Flags = append(res.Flags, alive[index[v]])
	}

	return peer.respond(res)
}

// psiRound tests the alive candidates against the holder's set. All
// candidates take part in the round so the holder learns only the
// size of the querier's set.
func (p *Party) psiRound(ctx context.Context, q *psiQuery,
	holder *registry.Endpoint, candidates []string, alive []bool) error {

	conn, err := p.dial(ctx, holder)
	if err != nil {
		return err
	}
	defer conn.Close()

	var a ack
	err = call(conn, OpPSIHold, &psiHold{
		Session: q.Session,
		Field:   q.Field,
		Count:   len(candidates),
	}, &a)
	if err != nil {
		return err
	}
	signPub, err := ot.ReceivePublicKey(conn)
	if err != nil {
		return err
	}
	otPub, err := ot.ReceivePublicKey(conn)
	if err != nil {
		return err
	}

	rnd := p.Config.GetRandom()

	// Blind signatures of the candidates.
	req := &blindRequest{
		Values: make([]*big.Int, len(candidates)),
	}
	blindings := make([]*ot.Blinding, len(candidates))
	for i, c := range candidates {
		data := elementData(q.Field, c)
		if !alive[i] {
			data = make([]byte, ot.TagSize)
			if _, err := io.ReadFull(rnd, data); err != nil {
				return errors.Mark(err, mpcerr.ErrRandomness)
			}
		}
		req.Values[i], blindings[i], err = ot.Blind(rnd, signPub, data)
		if err != nil {
			return err
		}
	}
	if err := conn.SendMessage(req); err != nil {
		return err
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	var resp blindResponse
	if err := conn.ReceiveMessage(&resp); err != nil {
		return err
	}
	if len(resp.Sigs) != len(candidates) {
		return errors.Wrapf(mpcerr.ErrMalformedMessage,
			"got %d signatures, expected %d", len(resp.Sigs), len(candidates))
	}
	tags := make([][]byte, len(candidates))
	for i, b := range blindings {
		sig, err := b.Unblind(resp.Sigs[i])
		if err != nil {
			return err
		}
		tags[i] = ot.Tag(signPub, sig)
	}

	// Bucket lookups.
	buckets, err := conn.ReceiveUint32()
	if err != nil {
		return err
	}
	if buckets <= 0 || buckets > ot.MaxMessages {
		return errors.Wrapf(mpcerr.ErrMalformedMessage,
			"invalid bucket count %d", buckets)
	}
	receiver := ot.NewReceiver(otPub, rnd)
	for i, tag := range tags {
		bucket, err := receiver.Receive(conn, bucketIndex(tag, buckets))
		if err != nil {
			return err
		}
		if len(bucket)%ot.TagSize != 0 {
			return errors.Wrapf(mpcerr.ErrMalformedMessage,
				"invalid bucket size %d", len(bucket))
		}
		if alive[i] {
			alive[i] = bucketContains(bucket, tag)
		}
	}
	return nil
}

func bucketContains(bucket, tag []byte) bool {
	for i := 0; i < len(bucket); i += ot.TagSize {
		if bytes.Equal(bucket[i:i+ot.TagSize], tag) {
			return true
		}
	}
	return false
}

func (peer *peerConn) psiHold(ctx context.Context) error {
	var req psiHold
	if err := peer.receive(&req); err != nil {
		return err
	}
	p := peer.party
	conn := peer.conn

	set, ok := p.set(req.Field)
	if !ok {
		return errors.Wrapf(mpcerr.ErrInvalidInput, "no set for %s", req.Field)
	}
	if req.Count <= 0 || req.Count > ot.MaxMessages {
		return errors.Wrapf(mpcerr.ErrInvalidInput,
			"invalid candidate count %d", req.Count)
	}
	rnd := p.Config.GetRandom()

	kctx, cancel := context.WithTimeout(ctx, p.Config.GetKeygenTimeout())
	defer cancel()

	signKey, err := ot.GenerateKeyPair(kctx, rnd, p.Config.GetOTBits())
	if err != nil {
		return err
	}
	defer signKey.Destroy()

	otKey, err := ot.GenerateKeyPair(kctx, rnd, p.Config.GetOTBits())
	if err != nil {
		return err
	}
	defer otKey.Destroy()

	if err := peer.respond(&ack{}); err != nil {
		return err
	}

	// The response is streaming from here on.
	if err := ot.SendPublicKey(conn, signKey.PublicKey()); err != nil {
		return fatal(err)
	}
	if err := ot.SendPublicKey(conn, otKey.PublicKey()); err != nil {
		return fatal(err)
	}
	if err := conn.Flush(); err != nil {
		return fatal(err)
	}

	var br blindRequest
	if err := peer.receive(&br); err != nil {
		return err
	}
	if len(br.Values) != req.Count {
		return fatal(errors.Wrapf(mpcerr.ErrMalformedMessage,
			"got %d values, expected %d", len(br.Values), req.Count))
	}
	resp := &blindResponse{
		Sigs: make([]*big.Int, len(br.Values)),
	}
	for i, v := range br.Values {
		resp.Sigs[i], err = signKey.SignBlinded(v)
		if err != nil {
			return fatal(err)
		}
	}
	if err := conn.SendMessage(resp); err != nil {
		return fatal(err)
	}

	messages, err := p.psiBuckets(signKey, req.Field, set)
	if err != nil {
		return fatal(err)
	}
	if err := conn.SendUint32(len(messages)); err != nil {
		return fatal(err)
	}
	if err := conn.Flush(); err != nil {
		return fatal(err)
	}
	sender := ot.NewSender(otKey, rnd)
	for i := 0; i < req.Count; i++ {
		if err := sender.Send(conn, messages); err != nil {
			return fatal(err)
		}
	}
	return nil
}

// psiBuckets hashes the tags of the set into buckets. The buckets are
// padded with random tags to equal size and sorted so that a bucket
// reveals nothing about its real tags beyond their presence.
func (p *Party) psiBuckets(key *ot.KeyPair, field string, set []string) (
	[][]byte, error) {

	values := distinct(set)
	count := len(values)
	if count == 0 {
		count = 1
	}
	buckets := make([][][]byte, count)

	for _, v := range values {
		tag := ot.Tag(key.PublicKey(), key.SignData(elementData(field, v)))
		idx := bucketIndex(tag, count)
		buckets[idx] = append(buckets[idx], tag)
	}
	size := 1
	for _, b := range buckets {
		if len(b) > size {
			size = len(b)
		}
	}

	rnd := p.Config.GetRandom()
	result := make([][]byte, count)
	for i, b := range buckets {
		for len(b) < size {
			dummy := make([]byte, ot.TagSize)
			if _, err := io.ReadFull(rnd, dummy); err != nil {
				return nil, errors.Mark(err, mpcerr.ErrRandomness)
			}
			b = append(b, dummy)
		}
		sort.Slice(b, func(x, y int) bool {
			return bytes.Compare(b[x], b[y]) < 0
		})
		result[i] = bytes.Join(b, nil)
	}
	return result, nil
}
