//
// rsa.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"context"
	"crypto/rsa"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/mpint"
)

// MinKeyBits defines the minimum RSA modulus size.
const MinKeyBits = 1024

// MaxMessages defines the maximum number of messages in one transfer.
const MaxMessages = 1 << 16

// KeyPair holds the sender's RSA key. The key is used only as a
// blinding and blind signature primitive, never for encryption.
type KeyPair struct {
	key *rsa.PrivateKey
}

// GenerateKeyPair creates a new RSA key pair. The key generation is
// aborted when the context is done.
func GenerateKeyPair(ctx context.Context, rnd io.Reader, bits int) (
	*KeyPair, error) {

	if bits < MinKeyBits {
		return nil, errors.Wrapf(mpcerr.ErrInvalidInput,
			"key size %d too small", bits)
	}

	type result struct {
		key *rsa.PrivateKey
		err error
	}
	c := make(chan result, 1)
	go func() {
		key, err := rsa.GenerateKey(rnd, bits)
		c <- result{
			key: key,
			err: err,
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-c:
		if r.err != nil {
			return nil, errors.Mark(errors.Wrap(r.err, "rsa key"),
				mpcerr.ErrPrimeGeneration)
		}
		return &KeyPair{
			key: r.key,
		}, nil
	}
}

// PublicKey returns the public key of the key pair.
func (kp *KeyPair) PublicKey() *rsa.PublicKey {
	return &kp.key.PublicKey
}

// Size returns the modulus size in bytes.
func (kp *KeyPair) Size() int {
	return kp.key.PublicKey.Size()
}

// Destroy clears the private exponent and primes.
func (kp *KeyPair) Destroy() {
	mpint.Wipe(kp.key.D)
	mpint.Wipe(kp.key.Primes...)
	mpint.Wipe(kp.key.Precomputed.Dp, kp.key.Precomputed.Dq,
		kp.key.Precomputed.Qinv)
}

// sign computes x^d mod N.
func (kp *KeyPair) sign(x *big.Int) *big.Int {
	return mpint.Exp(x, kp.key.D, kp.key.PublicKey.N)
}

// Sender implements the sender role of the 1-out-of-N oblivious
// transfer.
type Sender struct {
	kp   *KeyPair
	rand io.Reader
}

// NewSender creates a new OT sender for the key pair.
func NewSender(kp *KeyPair, rnd io.Reader) *Sender {
	return &Sender{
		kp:   kp,
		rand: rnd,
	}
}

// MessageSize returns the size of the random messages.
func (s *Sender) MessageSize() int {
	return s.kp.Size()
}

// PublicKey returns the sender's public key.
func (s *Sender) PublicKey() *rsa.PublicKey {
	return s.kp.PublicKey()
}

// NewTransfer creates a new transfer of the messages.
func (s *Sender) NewTransfer(messages [][]byte) (*SenderXfer, error) {
	if len(messages) == 0 {
		return nil, errors.Wrap(mpcerr.ErrInvalidInput, "no messages")
	}
	if len(messages) > MaxMessages {
		return nil, errors.Wrapf(mpcerr.ErrInvalidInput,
			"too many messages: %d > %d", len(messages), MaxMessages)
	}
	xs := make([]*big.Int, len(messages))
	for i := range xs {
		x, err := mpint.RandomInt(s.rand, s.kp.PublicKey().N)
		if err != nil {
			return nil, err
		}
		xs[i] = x
	}
	return &SenderXfer{
		sender:   s,
		messages: messages,
		xs:       xs,
	}, nil
}

// SenderXfer implements one OT transfer of the sender.
type SenderXfer struct {
	sender   *Sender
	messages [][]byte
	xs       []*big.Int
	ks       []*big.Int
}

// MessageSize returns the size of the random messages.
func (s *SenderXfer) MessageSize() int {
	return s.sender.MessageSize()
}

// RandomMessages returns the random per-index values x_i.
func (s *SenderXfer) RandomMessages() [][]byte {
	result := make([][]byte, len(s.xs))
	for i, x := range s.xs {
		result[i] = pad(x, s.MessageSize())
	}
	return result
}

// ReceiveV processes the receiver's blinded value v. It computes
// k_i = (v - x_i)^d for each index. Only the index chosen by the
// receiver gives the receiver's blinding factor; the others are
// decoys.
func (s *SenderXfer) ReceiveV(data []byte) error {
	n := s.sender.kp.PublicKey().N
	v := mpint.FromBytes(data)
	if v.Cmp(n) >= 0 {
		return errors.Wrap(mpcerr.ErrMalformedMessage, "v out of range")
	}
	s.ks = make([]*big.Int, len(s.xs))
	for i, x := range s.xs {
		s.ks[i] = s.sender.kp.sign(mpint.Mod(mpint.Sub(v, x), n))
	}
	return nil
}

// Messages returns the messages, each sealed with the key derived
// from its k_i.
func (s *SenderXfer) Messages() ([][]byte, error) {
	if s.ks == nil {
		return nil, errors.New("v not received")
	}
	result := make([][]byte, len(s.messages))
	for i, m := range s.messages {
		sealed, err := seal(pad(s.ks[i], s.MessageSize()), i, m)
		if err != nil {
			return nil, err
		}
		result[i] = sealed
	}
	mpint.Wipe(s.ks...)
	return result, nil
}

// Receiver implements the receiver role of the 1-out-of-N oblivious
// transfer.
type Receiver struct {
	pub  *rsa.PublicKey
	rand io.Reader
}

// NewReceiver creates a new OT receiver for the sender's public key.
func NewReceiver(pub *rsa.PublicKey, rnd io.Reader) *Receiver {
	return &Receiver{
		pub:  pub,
		rand: rnd,
	}
}

// MessageSize returns the size of the random messages.
func (r *Receiver) MessageSize() int {
	return r.pub.Size()
}

// NewTransfer creates a new transfer for receiving the choice:th
// message of count messages.
func (r *Receiver) NewTransfer(choice, count int) (*ReceiverXfer, error) {
	if count <= 0 || count > MaxMessages {
		return nil, errors.Wrapf(mpcerr.ErrInvalidInput,
			"invalid message count %d", count)
	}
	if choice < 0 || choice >= count {
		return nil, errors.Wrapf(mpcerr.ErrInvalidChoice,
			"choice outside [0, %d)", count)
	}
	return &ReceiverXfer{
		receiver: r,
		choice:   choice,
		count:    count,
	}, nil
}

// ReceiverXfer implements one OT transfer of the receiver.
type ReceiverXfer struct {
	receiver *Receiver
	choice   int
	count    int
	k        *big.Int
	v        *big.Int
	mb       []byte
}

// ReceiveRandomMessages processes the sender's random values and
// blinds the chosen one.
func (r *ReceiverXfer) ReceiveRandomMessages(xs [][]byte) error {
	if len(xs) != r.count {
		return errors.Wrapf(mpcerr.ErrMalformedMessage,
			"got %d random messages, expected %d", len(xs), r.count)
	}
	n := r.receiver.pub.N

	k, err := mpint.RandomInt(r.receiver.rand, n)
	if err != nil {
		return err
	}
	r.k = k

	xb := mpint.FromBytes(xs[r.choice])
	e := big.NewInt(int64(r.receiver.pub.E))
	r.v = mpint.Mod(mpint.Add(xb, mpint.Exp(r.k, e, n)), n)

	return nil
}

// V returns the blinded value v.
func (r *ReceiverXfer) V() []byte {
	return pad(r.v, r.receiver.MessageSize())
}

// ReceiveMessages opens the chosen message from the sealed messages.
func (r *ReceiverXfer) ReceiveMessages(sealed [][]byte) error {
	if len(sealed) != r.count {
		return errors.Wrapf(mpcerr.ErrMalformedMessage,
			"got %d messages, expected %d", len(sealed), r.count)
	}
	key := pad(r.k, r.receiver.MessageSize())
	mb, err := open(key, r.choice, sealed[r.choice])
	mpint.Wipe(r.k)
	clear(key)
	if err != nil {
		return err
	}
	r.mb = mb
	return nil
}

// Message returns the received message and the choice.
func (r *ReceiverXfer) Message() (m []byte, choice int) {
	return r.mb, r.choice
}

// pad returns the big-endian bytes of x padded to size bytes.
func pad(x *big.Int, size int) []byte {
	return x.FillBytes(make([]byte, size))
}
