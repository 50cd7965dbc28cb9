//
// field.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpint

import (
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

// Field implements arithmetic in the prime field GF(P).
type Field struct {
	P *big.Int
}

// NewField creates a new prime field for the prime p.
func NewField(p *big.Int) *Field {
	return &Field{
		P: p,
	}
}

// Contains tests if the value is a canonical field element.
func (f *Field) Contains(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(f.P) < 0
}

func (f *Field) Reduce(v *big.Int) *big.Int {
	return Mod(v, f.P)
}

func (f *Field) Add(a, b *big.Int) *big.Int {
	return f.Reduce(Add(a, b))
}

func (f *Field) Sub(a, b *big.Int) *big.Int {
	return f.Reduce(Sub(a, b))
}

func (f *Field) Mul(a, b *big.Int) *big.Int {
	return f.Reduce(Mul(a, b))
}

// Inv returns the multiplicative inverse of a.
func (f *Field) Inv(a *big.Int) (*big.Int, error) {
	inv, ok := ModInverse(f.Reduce(a), f.P)
	if !ok {
		return nil, errors.Wrap(mpcerr.ErrInvalidInput, "no inverse")
	}
	return inv, nil
}

// Random returns a uniform random field element.
func (f *Field) Random(rnd io.Reader) (*big.Int, error) {
	return RandomInt(rnd, f.P)
}
