//
// paillier.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package paillier implements the Paillier additively homomorphic
// public key cryptosystem with the generator g = n+1.
package paillier

import (
	"context"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/mpint"
)

// MinKeyBits defines the minimum modulus size.
const MinKeyBits = 64

const maxKeyAttempts = 16

var (
	one = big.NewInt(1)
)

// PublicKey defines the Paillier public key.
type PublicKey struct {
	N       *big.Int
	NSquare *big.Int
	G       *big.Int
}

// NewPublicKey creates a public key for the modulus n.
func NewPublicKey(n *big.Int) *PublicKey {
	return &PublicKey{
		N:       n,
		NSquare: mpint.Mul(n, n),
		G:       mpint.Add(n, one),
	}
}

// Bits returns the modulus size in bits.
func (pub *PublicKey) Bits() int {
	return pub.N.BitLen()
}

// PrivateKey defines the Paillier private key.
type PrivateKey struct {
	PublicKey
	Lambda *big.Int
	Mu     *big.Int
}

// GenerateKey creates a new key pair whose modulus has exactly bits
// bits. The prime search is bounded by trials candidates per prime;
// zero trials selects the default budget.
func GenerateKey(ctx context.Context, rnd io.Reader, bits, trials int) (
	*PrivateKey, error) {

	if bits < MinKeyBits {
		return nil, errors.Wrapf(mpcerr.ErrInvalidInput,
			"key size %d too small", bits)
	}
	pBits := (bits + 1) / 2
	qBits := bits - pBits

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		p, err := mpint.RandomPrime(ctx, rnd, pBits, trials)
		if err != nil {
			return nil, err
		}
		q, err := mpint.RandomPrime(ctx, rnd, qBits, trials)
		if err != nil {
			mpint.Wipe(p)
			return nil, err
		}
		if p.Cmp(q) == 0 {
			mpint.Wipe(p, q)
			continue
		}
		n := mpint.Mul(p, q)
		p1 := mpint.Sub(p, one)
		q1 := mpint.Sub(q, one)

		if n.BitLen() != bits ||
			mpint.GCD(n, mpint.Mul(p1, q1)).Cmp(one) != 0 {
			mpint.Wipe(p, q, p1, q1)
			continue
		}
		lambda := mpint.LCM(p1, q1)
		mu, ok := mpint.ModInverse(lambda, n)
		mpint.Wipe(p, q, p1, q1)
		if !ok {
			mpint.Wipe(lambda)
			continue
		}
		return &PrivateKey{
			PublicKey: *NewPublicKey(n),
			Lambda:    lambda,
			Mu:        mu,
		}, nil
	}
	return nil, errors.Wrapf(mpcerr.ErrPrimeGeneration,
		"no valid %d-bit key in %d attempts", bits, maxKeyAttempts)
}

// Encrypt encrypts the plaintext m, 0 <= m < n. Each encryption uses
// fresh randomness so encrypting the same plaintext twice gives
// different ciphertexts.
func (pub *PublicKey) Encrypt(rnd io.Reader, m *big.Int) (*big.Int, error) {
	if m == nil || m.Sign() < 0 || m.Cmp(pub.N) >= 0 {
		return nil, errors.Wrapf(mpcerr.ErrInvalidPlaintext,
			"plaintext outside [0, n) for %d-bit key", pub.Bits())
	}
	r, err := mpint.RandomCoprime(rnd, pub.N)
	if err != nil {
		return nil, err
	}
	// g^m = (1+n)^m = 1 + m*n mod n^2
	gm := mpint.Mod(mpint.Add(one, mpint.Mul(m, pub.N)), pub.NSquare)
	rn := mpint.Exp(r, pub.N, pub.NSquare)
	mpint.Wipe(r)

	return mpint.Mod(mpint.Mul(gm, rn), pub.NSquare), nil
}

// Add returns the encryption of m1+m2 mod n for the ciphertexts c1
// and c2.
func (pub *PublicKey) Add(c1, c2 *big.Int) *big.Int {
	return mpint.Mod(mpint.Mul(c1, c2), pub.NSquare)
}

// ScalarMultiply returns the encryption of k*m mod n for the
// ciphertext c of m.
func (pub *PublicKey) ScalarMultiply(c, k *big.Int) (*big.Int, error) {
	if k == nil || k.Sign() < 0 {
		return nil, errors.Wrap(mpcerr.ErrInvalidInput, "negative scalar")
	}
	return mpint.Exp(c, k, pub.NSquare), nil
}

// Decrypt decrypts the ciphertext c.
func (priv *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	if priv.Lambda == nil {
		return nil, errors.Wrap(mpcerr.ErrDecryptionFailed, "key destroyed")
	}
	if c == nil || c.Sign() < 0 || c.Cmp(priv.NSquare) >= 0 {
		return nil, errors.Wrap(mpcerr.ErrDecryptionFailed,
			"ciphertext outside [0, n^2)")
	}
	x := mpint.Sub(mpint.Exp(c, priv.Lambda, priv.NSquare), one)

	l, rem := big.NewInt(0).QuoRem(x, priv.N, big.NewInt(0))
	if x.Sign() < 0 || rem.Sign() != 0 {
		return nil, errors.Wrap(mpcerr.ErrDecryptionFailed,
			"invalid ciphertext")
	}
	return mpint.Mod(mpint.Mul(l, priv.Mu), priv.N), nil
}

// Destroy clears the private key values. The key cannot be used for
// decryption after this call.
func (priv *PrivateKey) Destroy() {
	mpint.Wipe(priv.Lambda, priv.Mu)
	priv.Lambda = nil
	priv.Mu = nil
}
