//
// mpint.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package mpint implements multi-precision integer helpers for the
// MPC engines.
package mpint

import (
	"context"
	"crypto/rand"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

// MillerRabinRounds defines the number of Miller-Rabin rounds in
// primality tests.
const MillerRabinRounds = 20

var (
	one = big.NewInt(1)
)

func FromBytes(data []byte) *big.Int {
	return big.NewInt(0).SetBytes(data)
}

func Add(a, b *big.Int) *big.Int {
	return big.NewInt(0).Add(a, b)
}

func Sub(a, b *big.Int) *big.Int {
	return big.NewInt(0).Sub(a, b)
}

func Mul(a, b *big.Int) *big.Int {
	return big.NewInt(0).Mul(a, b)
}

func Exp(x, y, m *big.Int) *big.Int {
	return big.NewInt(0).Exp(x, y, m)
}

// Mod returns x mod y in range [0, |y|).
func Mod(x, y *big.Int) *big.Int {
	return big.NewInt(0).Mod(x, y)
}

// ModInverse returns the inverse of a modulo m. The boolean return
// value is false if the inverse does not exist.
func ModInverse(a, m *big.Int) (*big.Int, bool) {
	r := big.NewInt(0).ModInverse(a, m)
	if r == nil {
		return nil, false
	}
	return r, true
}

func GCD(a, b *big.Int) *big.Int {
	return big.NewInt(0).GCD(nil, nil, a, b)
}

// LCM returns the least common multiple of positive a and b.
func LCM(a, b *big.Int) *big.Int {
	return big.NewInt(0).Mul(big.NewInt(0).Div(a, GCD(a, b)), b)
}

// RandomInt returns a uniform random number in range [0, max).
func RandomInt(rnd io.Reader, max *big.Int) (*big.Int, error) {
	r, err := rand.Int(rnd, max)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "random number"),
			mpcerr.ErrRandomness)
	}
	return r, nil
}

// RandomCoprime returns a uniform random number r in range [1, n) for
// which gcd(r, n) = 1.
func RandomCoprime(rnd io.Reader, n *big.Int) (*big.Int, error) {
	for {
		r, err := RandomInt(rnd, n)
		if err != nil {
			return nil, err
		}
		if r.Sign() > 0 && GCD(r, n).Cmp(one) == 0 {
			return r, nil
		}
	}
}

// DefaultTrials returns the default prime search budget for primes of
// the argument size.
func DefaultTrials(bits int) int {
	return 64 * bits
}

// RandomPrime returns a probable prime of exactly bits bits. The two
// most significant bits of the prime are set so that the product of
// two such primes has exactly 2*bits bits. The search fails with
// mpcerr.ErrPrimeGeneration after trials candidates; zero trials
// selects DefaultTrials(bits).
func RandomPrime(ctx context.Context, rnd io.Reader, bits, trials int) (
	*big.Int, error) {

	if bits < 8 {
		return nil, errors.Wrapf(mpcerr.ErrInvalidInput,
			"prime size %d too small", bits)
	}
	if trials <= 0 {
		trials = DefaultTrials(bits)
	}

	buf := make([]byte, (bits+7)/8)
	excess := uint(len(buf)*8 - bits)
	p := new(big.Int)

	for i := 0; i < trials; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(rnd, buf); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "prime candidate"),
				mpcerr.ErrRandomness)
		}
		buf[0] &= byte(0xff >> excess)

		p.SetBytes(buf)
		p.SetBit(p, bits-1, 1)
		p.SetBit(p, bits-2, 1)
		p.SetBit(p, 0, 1)

		if p.ProbablyPrime(MillerRabinRounds) {
			clear(buf)
			return p, nil
		}
	}
	clear(buf)
	return nil, errors.Wrapf(mpcerr.ErrPrimeGeneration,
		"no %d-bit prime in %d trials", bits, trials)
}

// Wipe clears the values of the argument integers.
func Wipe(values ...*big.Int) {
	for _, v := range values {
		if v == nil {
			continue
		}
		words := v.Bits()
		clear(words)
		v.SetInt64(0)
	}
}
