//
// io.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.

package ot

import (
	"crypto/rsa"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

// IO defines an I/O interface to communicate between peers.
type IO interface {
	// SendData sends binary data.
	SendData(val []byte) error

	// SendUint32 sends an uint32 value.
	SendUint32(val int) error

	// Flush flushed any pending data in the connection.
	Flush() error

	// ReceiveData receives binary data.
	ReceiveData() ([]byte, error)

	// ReceiveUint32 receives an uint32 value.
	ReceiveUint32() (int, error)
}

// ReceiveBigInt receives a big.Int from the connection.
func ReceiveBigInt(io IO) (*big.Int, error) {
	data, err := io.ReceiveData()
	if err != nil {
		return nil, err
	}
	return big.NewInt(0).SetBytes(data), nil
}

// SendPublicKey sends the RSA public key.
func SendPublicKey(io IO, pub *rsa.PublicKey) error {
	if err := io.SendData(pub.N.Bytes()); err != nil {
		return err
	}
	return io.SendUint32(pub.E)
}

// ReceivePublicKey receives an RSA public key.
func ReceivePublicKey(io IO) (*rsa.PublicKey, error) {
	n, err := ReceiveBigInt(io)
	if err != nil {
		return nil, err
	}
	e, err := io.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if n.BitLen() < MinKeyBits || e < 3 || e&1 == 0 {
		return nil, errors.Wrap(mpcerr.ErrMalformedMessage,
			"invalid public key")
	}
	return &rsa.PublicKey{
		N: n,
		E: e,
	}, nil
}

// Send runs the sender side of one 1-out-of-N transfer of the
// messages.
func (s *Sender) Send(io IO, messages [][]byte) error {
	xfer, err := s.NewTransfer(messages)
	if err != nil {
		return err
	}
	if err := io.SendUint32(len(messages)); err != nil {
		return err
	}
	for _, x := range xfer.RandomMessages() {
		if err := io.SendData(x); err != nil {
			return err
		}
	}
	if err := io.Flush(); err != nil {
		return err
	}
	v, err := io.ReceiveData()
	if err != nil {
		return err
	}
	if err := xfer.ReceiveV(v); err != nil {
		return err
	}
	sealed, err := xfer.Messages()
	if err != nil {
		return err
	}
	for _, m := range sealed {
		if err := io.SendData(m); err != nil {
			return err
		}
	}
	return io.Flush()
}

// Receive runs the receiver side of one 1-out-of-N transfer and
// returns the choice:th message.
func (r *Receiver) Receive(io IO, choice int) ([]byte, error) {
	count, err := io.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	xfer, err := r.NewTransfer(choice, count)
	if err != nil {
		return nil, err
	}
	xs := make([][]byte, count)
	for i := range xs {
		xs[i], err = io.ReceiveData()
		if err != nil {
			return nil, err
		}
	}
	if err := xfer.ReceiveRandomMessages(xs); err != nil {
		return nil, err
	}
	if err := io.SendData(xfer.V()); err != nil {
		return nil, err
	}
	if err := io.Flush(); err != nil {
		return nil, err
	}
	sealed := make([][]byte, count)
	for i := range sealed {
		sealed[i], err = io.ReceiveData()
		if err != nil {
			return nil, err
		}
	}
	if err := xfer.ReceiveMessages(sealed); err != nil {
		return nil, err
	}
	m, _ := xfer.Message()
	return m, nil
}
