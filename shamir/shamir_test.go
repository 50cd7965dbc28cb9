//
// shamir_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package shamir

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

func newScheme(t *testing.T, threshold int) *Scheme {
	s, err := New(threshold, rand.Reader)
	if err != nil {
		t.Fatalf("New(%d): %v", threshold, err)
	}
	return s
}

func TestReconstruct(t *testing.T) {
	secret := big.NewInt(123456789)
	s := newScheme(t, 3)

	shares, err := s.Share(secret, 5)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if len(shares) != 5 {
		t.Fatalf("Share: got %d shares", len(shares))
	}

	// Every 3-subset reconstructs the secret.
	for i := 0; i < 5; i++ {
		for j := i + 1; j < 5; j++ {
			for k := j + 1; k < 5; k++ {
				got, err := s.Reconstruct(
					[]Share{shares[i], shares[j], shares[k]})
				if err != nil {
					t.Fatalf("Reconstruct(%d,%d,%d): %v", i, j, k, err)
				}
				if got.Cmp(secret) != 0 {
					t.Errorf("Reconstruct(%d,%d,%d) = %s", i, j, k, got)
				}
			}
		}
	}

	got, err := s.Reconstruct(shares)
	if err != nil || got.Cmp(secret) != 0 {
		t.Errorf("Reconstruct(all): %v, %v", got, err)
	}
}

func TestInsufficientShares(t *testing.T) {
	s := newScheme(t, 3)
	shares, err := s.Share(big.NewInt(123456789), 5)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Reconstruct(shares[:2])
	if !errors.Is(err, mpcerr.ErrInsufficientShares) {
		t.Errorf("2 of 3: got %v", err)
	}

	// Duplicates do not count.
	_, err = s.Reconstruct([]Share{shares[0], shares[0], shares[1]})
	if !errors.Is(err, mpcerr.ErrInsufficientShares) {
		t.Errorf("duplicates: got %v", err)
	}
}

func TestInconsistentShares(t *testing.T) {
	s := newScheme(t, 2)
	first, err := s.Share(big.NewInt(111), 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Share(big.NewInt(222), 2)
	if err != nil {
		t.Fatal(err)
	}
	mixed := []Share{second[0], second[1], first[2]}
	_, err = s.Reconstruct(mixed)
	if !errors.Is(err, mpcerr.ErrInconsistentShares) {
		t.Errorf("mixed distributions: got %v", err)
	}
	_, err = s.Reconstruct([]Share{first[2], second[0], second[1]})
	if !errors.Is(err, mpcerr.ErrInconsistentShares) {
		t.Errorf("stale share first: got %v", err)
	}
	got, err := s.Reconstruct(second)
	if err != nil || got.Int64() != 222 {
		t.Errorf("Reconstruct(second): %v, %v", got, err)
	}
}

func TestInvalidThreshold(t *testing.T) {
	for _, threshold := range []int{-1, 0, 1} {
		_, err := New(threshold, rand.Reader)
		if !errors.Is(err, mpcerr.ErrInvalidThreshold) {
			t.Errorf("New(%d): got %v", threshold, err)
		}
	}
	s := newScheme(t, 4)
	_, err := s.Share(big.NewInt(1), 3)
	if !errors.Is(err, mpcerr.ErrInvalidThreshold) {
		t.Errorf("t > n: got %v", err)
	}
}

func TestInvalidShares(t *testing.T) {
	s := newScheme(t, 2)

	_, err := s.Reconstruct(nil)
	if !errors.Is(err, mpcerr.ErrInvalidInput) {
		t.Errorf("empty: got %v", err)
	}
	_, err = s.Reconstruct([]Share{
		{X: big.NewInt(1), Y: big.NewInt(5)},
		{X: big.NewInt(1), Y: big.NewInt(6)},
	})
	if !errors.Is(err, mpcerr.ErrInvalidInput) {
		t.Errorf("conflicting: got %v", err)
	}
	_, err = s.Reconstruct([]Share{
		{X: big.NewInt(0), Y: big.NewInt(5)},
		{X: big.NewInt(1), Y: big.NewInt(6)},
	})
	if !errors.Is(err, mpcerr.ErrInvalidInput) {
		t.Errorf("x=0: got %v", err)
	}
	_, err = s.Share(Prime, 3)
	if !errors.Is(err, mpcerr.ErrInvalidInput) {
		t.Errorf("secret=P: got %v", err)
	}
}

func TestEdgeSecrets(t *testing.T) {
	s := newScheme(t, 2)
	for _, secret := range []*big.Int{
		big.NewInt(0),
		big.NewInt(0).Sub(Prime, big.NewInt(1)),
	} {
		shares, err := s.Share(secret, 2)
		if err != nil {
			t.Fatal(err)
		}
		got, err := s.Reconstruct([]Share{shares[1], shares[0]})
		if err != nil {
			t.Fatal(err)
		}
		if got.Cmp(secret) != 0 {
			t.Errorf("Reconstruct: got %s, expected %s", got, secret)
		}
	}
}

func BenchmarkShare(b *testing.B) {
	s, err := New(3, rand.Reader)
	if err != nil {
		b.Fatal(err)
	}
	secret := big.NewInt(123456789)
	for i := 0; i < b.N; i++ {
		shares, err := s.Share(secret, 5)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := s.Reconstruct(shares[:3]); err != nil {
			b.Fatal(err)
		}
	}
}
