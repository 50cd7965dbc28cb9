//
// mpint_test.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package mpint

import (
	"bytes"
	"context"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

var (
	oneData   = []byte{0x1}
	twoData   = []byte{0x2}
	threeData = []byte{0x3}
)

func TestMPInt(t *testing.T) {
	one := FromBytes(oneData)
	two := FromBytes(twoData)
	three := FromBytes(threeData)

	sum := Add(one, two)
	if sum.Cmp(three) != 0 {
		t.Errorf("%s + %s = %s, expected %s\n", one, two, sum, three)
	}
	diff := Sub(one, two)
	if Mod(diff, three).Int64() != 2 {
		t.Errorf("(%s - %s) mod %s = %s, expected 2\n",
			one, two, three, Mod(diff, three))
	}
}

func TestLCM(t *testing.T) {
	l := LCM(big.NewInt(12), big.NewInt(18))
	if l.Int64() != 36 {
		t.Errorf("lcm(12, 18) = %s, expected 36", l)
	}
	g := GCD(big.NewInt(12), big.NewInt(18))
	if g.Int64() != 6 {
		t.Errorf("gcd(12, 18) = %s, expected 6", g)
	}
}

func TestModInverse(t *testing.T) {
	inv, ok := ModInverse(big.NewInt(3), big.NewInt(7))
	if !ok || inv.Int64() != 5 {
		t.Errorf("3^-1 mod 7 = %v, expected 5", inv)
	}
	_, ok = ModInverse(big.NewInt(4), big.NewInt(8))
	if ok {
		t.Errorf("4^-1 mod 8 exists")
	}
}

func TestRandomPrime(t *testing.T) {
	for _, bits := range []int{64, 256, 512} {
		p, err := RandomPrime(context.Background(), rand.Reader, bits, 0)
		if err != nil {
			t.Fatalf("RandomPrime(%d): %v", bits, err)
		}
		if p.BitLen() != bits {
			t.Errorf("RandomPrime(%d): got %d bits", bits, p.BitLen())
		}
		if p.Bit(bits-2) != 1 {
			t.Errorf("RandomPrime(%d): second bit not set", bits)
		}
		if !p.ProbablyPrime(MillerRabinRounds) {
			t.Errorf("RandomPrime(%d): not a prime", bits)
		}
	}
}

func TestRandomPrimeBudget(t *testing.T) {
	// An all-zero source produces only the candidate 0b1100...001.
	zero := bytes.NewReader(make([]byte, 1024*1024))
	_, err := RandomPrime(context.Background(), zero, 512, 3)
	if err != nil && !errors.Is(err, mpcerr.ErrPrimeGeneration) {
		t.Fatalf("unexpected error: %v", err)
	}
	if err != nil && !mpcerr.Retryable(err) {
		t.Errorf("budget error is not retryable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RandomPrime(ctx, rand.Reader, 512, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled search: got %v", err)
	}
}

func TestRandomCoprime(t *testing.T) {
	n := big.NewInt(3 * 5 * 7 * 11)
	for i := 0; i < 100; i++ {
		r, err := RandomCoprime(rand.Reader, n)
		if err != nil {
			t.Fatal(err)
		}
		if r.Sign() <= 0 || r.Cmp(n) >= 0 {
			t.Fatalf("RandomCoprime: %s out of range", r)
		}
		if GCD(r, n).Int64() != 1 {
			t.Fatalf("RandomCoprime: gcd(%s, %s) != 1", r, n)
		}
	}
}

func TestField(t *testing.T) {
	f := NewField(big.NewInt(97))

	a := big.NewInt(50)
	b := big.NewInt(60)
	if f.Add(a, b).Int64() != 13 {
		t.Errorf("50+60 mod 97 = %s", f.Add(a, b))
	}
	if f.Sub(a, b).Int64() != 87 {
		t.Errorf("50-60 mod 97 = %s", f.Sub(a, b))
	}
	inv, err := f.Inv(a)
	if err != nil {
		t.Fatal(err)
	}
	if f.Mul(a, inv).Int64() != 1 {
		t.Errorf("50*50^-1 mod 97 = %s", f.Mul(a, inv))
	}
	if f.Contains(big.NewInt(97)) || f.Contains(big.NewInt(-1)) {
		t.Errorf("Contains accepts non-canonical values")
	}
}

func TestWipe(t *testing.T) {
	v := big.NewInt(0).Lsh(big.NewInt(1), 300)
	Wipe(v, nil)
	if v.Sign() != 0 {
		t.Errorf("Wipe: %s", v)
	}
}
