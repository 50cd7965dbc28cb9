//
// ot.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package ot implements 1-out-of-N oblivious transfer based on RSA
// blinding, and RSA blind signatures.
//
// The sender holds the messages m_0..m_{N-1} and an RSA key (N, e,
// d). The transfer runs as follows:
//
//	S -> R: random x_i in Z_N for each index i
//	R -> S: v = x_c + k^e mod N, for the choice c and random k
//	S -> R: AEAD_{K(k_i)}(m_i), k_i = (v - x_i)^d mod N
//
// Only k_c equals the receiver's k. All other k_i are RSA inversions
// the receiver cannot compute, and v is uniformly distributed
// regardless of c.
package ot

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

// PerformOT runs the sender and receiver roles of one transfer
// in-process and returns messages[choice].
func PerformOT(rnd io.Reader, messages [][]byte, choice int, kp *KeyPair) (
	[]byte, error) {

	if len(messages) == 0 {
		return nil, errors.Wrap(mpcerr.ErrInvalidInput, "no messages")
	}
	if choice < 0 || choice >= len(messages) {
		return nil, errors.Wrapf(mpcerr.ErrInvalidChoice,
			"choice outside [0, %d)", len(messages))
	}

	sender := NewSender(kp, rnd)
	receiver := NewReceiver(kp.PublicKey(), rnd)

	sXfer, err := sender.NewTransfer(messages)
	if err != nil {
		return nil, err
	}
	rXfer, err := receiver.NewTransfer(choice, len(messages))
	if err != nil {
		return nil, err
	}
	err = rXfer.ReceiveRandomMessages(sXfer.RandomMessages())
	if err != nil {
		return nil, err
	}
	if err := sXfer.ReceiveV(rXfer.V()); err != nil {
		return nil, err
	}
	sealed, err := sXfer.Messages()
	if err != nil {
		return nil, err
	}
	if err := rXfer.ReceiveMessages(sealed); err != nil {
		return nil, err
	}
	m, _ := rXfer.Message()
	return m, nil
}
