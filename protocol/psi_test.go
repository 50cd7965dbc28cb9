//
// psi_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"bytes"
	"context"
	"testing"

	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/ot"
	"github.com/markkurossi/mpcsuite/registry"
	"github.com/stretchr/testify/require"
)

const psiField = "customer_id"

func newPSITestbed(t *testing.T, sets map[string][]string) *testbed {
	tb := newTestbed(t, testConfig, "bank1", "bank2", "bank3")
	for id, set := range sets {
		tb.parties[id].SetSet(psiField, set)
	}
	return tb
}

func TestPSI(t *testing.T) {
	tb := newPSITestbed(t, map[string][]string{
		"bank1": {"alice", "bob", "carol", "dave"},
		"bank2": {"bob", "dave", "erin"},
		"bank3": {"frank", "dave", "bob", "carol"},
	})
	result, err := tb.run(t, &Request{
		Type:         PSI,
		Participants: []string{"bank1", "bank2", "bank3"},
		Field:        psiField,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.IntersectionSize)
	require.Equal(t, []bool{false, true, false, true}, result.Membership)
	require.Empty(t, result.Intersection)
	require.Equal(t, PSI, result.Type)
	require.NotZero(t, result.Stats.Sum())

	job, ok := tb.jobs.Job(result.JobID)
	require.True(t, ok)
	require.Equal(t, registry.StatusSucceeded, job.Status)
	require.Equal(t, "PSI", job.Protocol)
	require.NotContains(t, job.Outcome.Summary, "bob")
}

func TestPSIReveal(t *testing.T) {
	tb := newPSITestbed(t, map[string][]string{
		"bank1": {"alice", "bob", "carol", "dave", "bob"},
		"bank2": {"bob", "dave", "erin", "carol"},
		"bank3": {"dave", "bob", "carol"},
	})
	result, err := tb.run(t, &Request{
		Type:         PSI,
		Participants: []string{"bank1", "bank2", "bank3"},
		Field:        psiField,
		Reveal:       true,
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.IntersectionSize)
	require.Equal(t, []bool{false, true, true, true, true}, result.Membership)
	require.Equal(t, []string{"bob", "carol", "dave"}, result.Intersection)
}

func TestPSIEmptyIntersection(t *testing.T) {
	tb := newPSITestbed(t, map[string][]string{
		"bank1": {"alice", "bob"},
		"bank2": {"carol"},
		"bank3": {},
	})
	result, err := tb.run(t, &Request{
		Type:         PSI,
		Participants: []string{"bank1", "bank2", "bank3"},
		Field:        psiField,
		Reveal:       true,
	})
	require.NoError(t, err)
	require.Zero(t, result.IntersectionSize)
	require.Equal(t, []bool{false, false}, result.Membership)
	require.Empty(t, result.Intersection)
}

func TestPSIEmptySet(t *testing.T) {
	tb := newPSITestbed(t, map[string][]string{
		"bank1": {},
		"bank2": {"carol"},
	})
	result, err := tb.run(t, &Request{
		Type:         PSI,
		Participants: []string{"bank1", "bank2"},
		Field:        psiField,
	})
	require.NoError(t, err)
	require.Zero(t, result.IntersectionSize)
	require.Empty(t, result.Membership)
}

func TestPSIMissingSet(t *testing.T) {
	tb := newPSITestbed(t, map[string][]string{
		"bank1": {"alice"},
	})
	_, err := tb.run(t, &Request{
		Type:         PSI,
		Participants: []string{"bank1", "bank2"},
		Field:        psiField,
	})
	requireKind(t, err, mpcerr.Validation)
	require.ErrorIs(t, err, mpcerr.ErrInvalidInput)
	require.Equal(t, registry.StatusFailed, tb.lastJob(t).Status)
}

func TestPSIBuckets(t *testing.T) {
	kp, err := ot.GenerateKeyPair(context.Background(), testConfig.GetRandom(),
		testConfig.GetOTBits())
	require.NoError(t, err)
	defer kp.Destroy()

	p := NewParty("bank2", testConfig)
	set := []string{"bob", "dave", "erin", "frank", "gina", "dave"}

	buckets, err := p.psiBuckets(kp, psiField, set)
	require.NoError(t, err)
	require.Len(t, buckets, 5)

	size := len(buckets[0])
	for _, b := range buckets {
		require.Len(t, b, size)
		require.Zero(t, len(b)%ot.TagSize)
		for i := ot.TagSize; i < len(b); i += ot.TagSize {
			require.True(t, bytes.Compare(b[i-ot.TagSize:i],
				b[i:i+ot.TagSize]) <= 0)
		}
	}
	for _, v := range set {
		tag := ot.Tag(kp.PublicKey(), kp.SignData(elementData(psiField, v)))
		require.True(t, bucketContains(buckets[bucketIndex(tag, 5)], tag))
	}
	tag := ot.Tag(kp.PublicKey(), kp.SignData(elementData(psiField, "alice")))
	require.False(t, bucketContains(buckets[bucketIndex(tag, 5)], tag))

	buckets, err = p.psiBuckets(kp, psiField, nil)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Len(t, buckets[0], ot.TagSize)
}
