//
// blind.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/rsa"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/mpint"
	"golang.org/x/crypto/sha3"
)

// TagSize defines the size of signature tags in bytes.
const TagSize = 32

var (
	fdhDomain = []byte("mpcsuite fdh v1")
	tagDomain = []byte("mpcsuite tag v1")
)

// HashToInt maps data into Z_N with a SHAKE256 full domain hash.
func HashToInt(pub *rsa.PublicKey, data []byte) *big.Int {
	h := sha3.NewShake256()
	h.Write(fdhDomain)
	h.Write(data)

	buf := make([]byte, pub.Size()+16)
	h.Read(buf)

	return mpint.Mod(mpint.FromBytes(buf), pub.N)
}

// Tag computes the fixed size tag of the signature sig. Tags are
// equal only when the signed data are equal.
func Tag(pub *rsa.PublicKey, sig *big.Int) []byte {
	h := sha3.New256()
	h.Write(tagDomain)
	h.Write(pad(sig, pub.Size()))
	return h.Sum(nil)
}

// SignData computes the full domain hash signature H(data)^d.
func (kp *KeyPair) SignData(data []byte) *big.Int {
	return kp.sign(HashToInt(kp.PublicKey(), data))
}

// SignBlinded signs the blinded value without learning the value
// behind the blinding.
func (kp *KeyPair) SignBlinded(blinded *big.Int) (*big.Int, error) {
	if blinded == nil || blinded.Sign() < 0 ||
		blinded.Cmp(kp.PublicKey().N) >= 0 {
		return nil, errors.Wrap(mpcerr.ErrMalformedMessage,
			"blinded value out of range")
	}
	return kp.sign(blinded), nil
}

// Blinding holds the state of one blinded signature request.
type Blinding struct {
	pub  *rsa.PublicKey
	h    *big.Int
	rInv *big.Int
}

// Blind blinds the full domain hash of data: H(data)*r^e mod N for a
// random r coprime to N.
func Blind(rnd io.Reader, pub *rsa.PublicKey, data []byte) (
	*big.Int, *Blinding, error) {

	r, err := mpint.RandomCoprime(rnd, pub.N)
	if err != nil {
		return nil, nil, err
	}
	rInv, ok := mpint.ModInverse(r, pub.N)
	if !ok {
		return nil, nil, errors.Wrap(mpcerr.ErrRandomness, "blinding factor")
	}
	h := HashToInt(pub, data)
	e := big.NewInt(int64(pub.E))
	blinded := mpint.Mod(mpint.Mul(h, mpint.Exp(r, e, pub.N)), pub.N)
	mpint.Wipe(r)

	return blinded, &Blinding{
		pub:  pub,
		h:    h,
		rInv: rInv,
	}, nil
}

// Unblind removes the blinding from the blind signature and verifies
// the resulting signature H(data)^d.
func (b *Blinding) Unblind(blindSig *big.Int) (*big.Int, error) {
	if blindSig == nil || blindSig.Sign() < 0 || blindSig.Cmp(b.pub.N) >= 0 {
		return nil, errors.Wrap(mpcerr.ErrMalformedMessage,
			"signature out of range")
	}
	sig := mpint.Mod(mpint.Mul(blindSig, b.rInv), b.pub.N)
	mpint.Wipe(b.rInv)

	e := big.NewInt(int64(b.pub.E))
	if mpint.Exp(sig, e, b.pub.N).Cmp(b.h) != 0 {
		return nil, errors.Wrap(mpcerr.ErrMalformedMessage,
			"invalid blind signature")
	}
	return sig, nil
}
