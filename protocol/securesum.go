//
// securesum.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/p2p"
	"github.com/markkurossi/mpcsuite/paillier"
	"golang.org/x/sync/errgroup"
)

// secureSum implements the secure sum. The first participant is the
// key holder. It generates a fresh Paillier key, all participants
// encrypt their values under it, the coordinator adds the ciphertexts,
// and the key holder decrypts the aggregate once.
type secureSum struct{}

func (secureSum) Type() Type {
	return SecureSum
}

func (secureSum) Validate(req *Request) error {
	if len(req.Field) == 0 {
		return errors.Wrap(mpcerr.ErrInvalidInput, "no field")
	}
	return nil
}

func (secureSum) Execute(ctx context.Context, s *Session) (*Result, error) {
	conns := make([]*p2p.Conn, len(s.Endpoints))
	defer func() {
		for _, conn := range conns {
			if conn != nil {
				s.close(conn)
			}
		}
	}()
	for i := range s.Endpoints {
		conn, err := s.dial(ctx, i)
		if err != nil {
			return nil, err
		}
		conns[i] = conn
	}

	// Key generation.
	s.NextRound(fmt.Sprintf("keygen %s", label(0)))
	bits := s.coord.Config.GetPaillierBits()
	var key sumKey
	err := call(conns[0], OpSumKeygen, &sumKeygen{
		Session: s.ID,
		Bits:    bits,
	}, &key)
	if err != nil {
		return nil, s.remote(0, err)
	}
	if key.N == nil || key.N.BitLen() != bits {
		return nil, errors.Wrap(mpcerr.ErrMalformedMessage, "invalid sum key")
	}
	pub := paillier.NewPublicKey(key.N)
	s.Timing.Sample("Keygen", []string{fmt.Sprintf("%d bits", bits)})

	// Contributions.
	s.NextRound("contribute")
	cts := make([]*big.Int, len(conns))

	var g errgroup.Group
	g.SetLimit(s.coord.Config.GetWorkers())
	for i, conn := range conns {
		g.Go(func() error {
			var ct ciphertext
			err := call(conn, OpSumContribute, &sumContribute{
				Session: s.ID,
				Field:   s.Request.Field,
				N:       key.N,
			}, &ct)
			if err != nil {
				return s.remote(i, err)
			}
			if ct.C == nil || ct.C.Sign() <= 0 || ct.C.Cmp(pub.NSquare) >= 0 {
				return s.remote(i, errors.Wrap(mpcerr.ErrMalformedMessage,
					"ciphertext out of range"))
			}
			cts[i] = ct.C
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	collected := time.Now()
	sum := cts[0]
	for _, c := range cts[1:] {
		sum = pub.Add(sum, c)
	}
	sample := s.Timing.Sample("Contribute", []string{
		fmt.Sprintf("%d parties", len(conns)),
	})
	sample.SubSample("Collect", collected)
	sample.SubSample("Add", sample.End)

	// Decryption of the aggregate.
	s.NextRound(fmt.Sprintf("decrypt %s", label(0)))
	var res sumResult
	err = call(conns[0], OpSumDecrypt, &ciphertext{
		C: sum,
	}, &res)
	if err != nil {
		return nil, s.remote(0, err)
	}
	if res.Sum == nil || res.Sum.Sign() < 0 || res.Sum.Cmp(pub.N) >= 0 {
		return nil, errors.Wrap(mpcerr.ErrMalformedMessage, "sum out of range")
	}
	s.Timing.Sample("Decrypt", nil)

	return &Result{
		Sum: res.Sum,
	}, nil
}

func (peer *peerConn) sumKeygen(ctx context.Context) error {
	var req sumKeygen
	if err := peer.receive(&req); err != nil {
		return err
	}
	if peer.sumKey != nil {
		return errors.Wrap(mpcerr.ErrInvalidInput, "sum key already generated")
	}
	p := peer.party

	kctx, cancel := context.WithTimeout(ctx, p.Config.GetKeygenTimeout())
	defer cancel()

	key, err := paillier.GenerateKey(kctx, p.Config.GetRandom(), req.Bits,
		p.Config.GetPrimeTrials())
	if err != nil {
		return err
	}
	peer.sumKey = key
	p.Debugf("SecureSum %s: %d bit key\n", shortID(req.Session), key.Bits())

	return peer.respond(&sumKey{
		N: key.N,
	})
}

func (peer *peerConn) sumContribute() error {
	var req sumContribute
	if err := peer.receive(&req); err != nil {
		return err
	}
	p := peer.party

	value, ok := p.value(req.Field)
	if !ok {
		return errors.Wrapf(mpcerr.ErrInvalidInput, "no value for %s",
			req.Field)
	}
	if req.N == nil || req.N.BitLen() < paillier.MinKeyBits {
		return errors.Wrap(mpcerr.ErrMalformedMessage, "invalid sum key")
	}
	pub := paillier.NewPublicKey(req.N)
	c, err := pub.Encrypt(p.Config.GetRandom(), value)
	if err != nil {
		return err
	}
	return peer.respond(&ciphertext{
		C: c,
	})
}

func (peer *peerConn) sumDecrypt() error {
	var req ciphertext
	if err := peer.receive(&req); err != nil {
		return err
	}
	if peer.sumKey == nil {
		return errors.Wrap(mpcerr.ErrInvalidInput, "no sum key")
	}
	m, err := peer.sumKey.Decrypt(req.C)

	// The key decrypts only one aggregate.
	peer.sumKey.Destroy()
	peer.sumKey = nil

	if err != nil {
		return err
	}
	return peer.respond(&sumResult{
		Sum: m,
	})
}
