//
// shamir.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package shamir implements Shamir's (t, n) threshold secret sharing
// over the prime field GF(2^521-1).
package shamir

import (
	"fmt"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/mpint"
)

// Prime is the Mersenne prime 2^521-1 defining the share field.
var Prime = big.NewInt(0).Sub(big.NewInt(0).Lsh(big.NewInt(1), 521),
	big.NewInt(1))

var field = mpint.NewField(Prime)

// Share defines a secret share: the point (X, Y) of the sharing
// polynomial.
type Share struct {
	X *big.Int
	Y *big.Int
}

func (s Share) String() string {
	return fmt.Sprintf("share{x=%s}", s.X)
}

// Scheme implements a threshold scheme where Threshold shares
// reconstruct the secret.
type Scheme struct {
	Threshold int
	rand      io.Reader
}

// New creates a new sharing scheme with the threshold t >= 2.
func New(t int, rnd io.Reader) (*Scheme, error) {
	if t < 2 {
		return nil, errors.Wrapf(mpcerr.ErrInvalidThreshold,
			"threshold %d < 2", t)
	}
	return &Scheme{
		Threshold: t,
		rand:      rnd,
	}, nil
}

// Share splits the secret into n shares at x = 1..n.
func (s *Scheme) Share(secret *big.Int, n int) ([]Share, error) {
	if s.Threshold > n {
		return nil, errors.Wrapf(mpcerr.ErrInvalidThreshold,
			"threshold %d > %d shares", s.Threshold, n)
	}
	if !field.Contains(secret) {
		return nil, errors.Wrap(mpcerr.ErrInvalidInput,
			"secret outside share field")
	}

	// coeffs[0] is the secret; coeffs[1..t-1] are random.
	coeffs := make([]*big.Int, s.Threshold)
	coeffs[0] = secret
	for i := 1; i < len(coeffs); i++ {
		c, err := field.Random(s.rand)
		if err != nil {
			mpint.Wipe(coeffs[1:i]...)
			return nil, err
		}
		coeffs[i] = c
	}

	shares := make([]Share, n)
	for i := 0; i < n; i++ {
		x := big.NewInt(int64(i + 1))
		shares[i] = Share{
			X: x,
			Y: eval(coeffs, x),
		}
	}
	mpint.Wipe(coeffs[1:]...)

	return shares, nil
}

// eval evaluates the polynomial at x with Horner's method.
func eval(coeffs []*big.Int, x *big.Int) *big.Int {
	result := big.NewInt(0)
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = field.Add(field.Mul(result, x), coeffs[i])
	}
	return result
}

// Reconstruct recovers the secret from at least Threshold shares with
// distinct x coordinates. Duplicate shares are ignored. The shares
// beyond the first Threshold must lie on the polynomial the first
// Threshold shares define.
func (s *Scheme) Reconstruct(shares []Share) (*big.Int, error) {
	if len(shares) == 0 {
		return nil, errors.Wrap(mpcerr.ErrInvalidInput, "no shares")
	}
	distinct, err := Dedup(shares)
	if err != nil {
		return nil, err
	}
	if len(distinct) < s.Threshold {
		return nil, errors.Wrapf(mpcerr.ErrInsufficientShares,
			"%d distinct shares, threshold %d", len(distinct), s.Threshold)
	}
	basis := distinct[:s.Threshold]
	for _, share := range distinct[s.Threshold:] {
		y, err := interpolateAt(basis, share.X)
		if err != nil {
			return nil, err
		}
		if y.Cmp(share.Y) != 0 {
			return nil, errors.Wrapf(mpcerr.ErrInconsistentShares,
				"share x=%s not on the polynomial", share.X)
		}
	}
	return Interpolate(basis)
}

// Dedup returns the shares with distinct x coordinates. Two shares
// with the same x but different y are an error.
func Dedup(shares []Share) ([]Share, error) {
	seen := make(map[string]*big.Int)
	var result []Share

	for _, share := range shares {
		if share.X == nil || share.Y == nil {
			return nil, errors.Wrap(mpcerr.ErrInvalidInput, "incomplete share")
		}
		if !field.Contains(share.X) || share.X.Sign() == 0 ||
			!field.Contains(share.Y) {
			return nil, errors.Wrapf(mpcerr.ErrInvalidInput,
				"share %v outside share field", share)
		}
		key := share.X.String()
		y, ok := seen[key]
		if ok {
			if y.Cmp(share.Y) != 0 {
				return nil, errors.Wrapf(mpcerr.ErrInvalidInput,
					"conflicting shares for x=%s", key)
			}
			continue
		}
		seen[key] = share.Y
		result = append(result, share)
	}
	return result, nil
}

// Interpolate computes the Lagrange interpolation of the polynomial
// defined by the points at x = 0. The points must have distinct x
// coordinates.
func Interpolate(shares []Share) (*big.Int, error) {
	return interpolateAt(shares, big.NewInt(0))
}

func interpolateAt(shares []Share, x *big.Int) (*big.Int, error) {
	result := big.NewInt(0)

	for i, si := range shares {
		num := big.NewInt(1)
		den := big.NewInt(1)
		for j, sj := range shares {
			if i == j {
				continue
			}
			// l_i(x) = prod (x - x_j) / (x_i - x_j)
			num = field.Mul(num, field.Sub(x, sj.X))
			den = field.Mul(den, field.Sub(si.X, sj.X))
		}
		inv, err := field.Inv(den)
		if err != nil {
			return nil, err
		}
		term := field.Mul(si.Y, field.Mul(num, inv))
		result = field.Add(result, term)
	}
	return result, nil
}
