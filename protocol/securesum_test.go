//
// securesum_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/markkurossi/mpcsuite/env"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/paillier"
	"github.com/markkurossi/mpcsuite/registry"
	"github.com/stretchr/testify/require"
)

const sumField = "deposits"

func newSumTestbed(t *testing.T, config *env.Config,
	values ...int64) *testbed {

	ids := []string{"bank1", "bank2", "bank3", "bank4", "bank5"}[:len(values)]
	tb := newTestbed(t, config, ids...)
	for i, v := range values {
		tb.parties[ids[i]].SetValue(sumField, big.NewInt(v))
	}
	return tb
}

func TestSecureSum(t *testing.T) {
	tb := newSumTestbed(t, testConfig, 10, 20, 30)
	result, err := tb.run(t, &Request{
		Type:         SecureSum,
		Participants: []string{"bank1", "bank2", "bank3"},
		Field:        sumField,
	})
	require.NoError(t, err)
	require.Equal(t, int64(60), result.Sum.Int64())
	require.Equal(t, SecureSum, result.Type)
	require.NotEmpty(t, result.Timing.Samples)

	job, ok := tb.jobs.Job(result.JobID)
	require.True(t, ok)
	require.Equal(t, registry.StatusSucceeded, job.Status)
	require.NotContains(t, job.Outcome.Summary, "60")
}

func TestSecureSum2048(t *testing.T) {
	if testing.Short() {
		t.Skip("2048-bit key generation")
	}
	config := &env.Config{
		PaillierBits: 2048,
		Workers:      4,
	}
	tb := newSumTestbed(t, config, 10, 20, 30, 0, 1)
	result, err := tb.run(t, &Request{
		Type:         SecureSum,
		Participants: []string{"bank1", "bank2", "bank3", "bank4", "bank5"},
		Field:        sumField,
	})
	require.NoError(t, err)
	require.Equal(t, int64(61), result.Sum.Int64())
}

func TestSecureSumNegative(t *testing.T) {
	tb := newSumTestbed(t, testConfig, 10, -20, 30)
	_, err := tb.run(t, &Request{
		Type:         SecureSum,
		Participants: []string{"bank1", "bank2", "bank3"},
		Field:        sumField,
	})
	requireKind(t, err, mpcerr.Validation)
	require.ErrorIs(t, err, mpcerr.ErrInvalidPlaintext)
	require.False(t, mpcerr.Retryable(err))

	job := tb.lastJob(t)
	require.Equal(t, registry.StatusFailed, job.Status)
	require.Equal(t, "validation", job.Outcome.ErrorKind)
}

func TestSecureSumMissingValue(t *testing.T) {
	tb := newSumTestbed(t, testConfig, 10, 20)
	_, err := tb.run(t, &Request{
		Type:         SecureSum,
		Participants: []string{"bank1", "bank2"},
		Field:        "loans",
	})
	requireKind(t, err, mpcerr.Validation)
}

// TestSumKeyDecryptsOnce checks that the key holder decrypts only
// one aggregate per key.
func TestSumKeyDecryptsOnce(t *testing.T) {
	tb := newSumTestbed(t, testConfig, 42, 1)
	ep, err := tb.dir.Resolve(context.Background(), "bank1")
	require.NoError(t, err)

	conn, err := tb.network.Dial(context.Background(), ep)
	require.NoError(t, err)
	defer conn.Close()

	var key sumKey
	require.NoError(t, call(conn, OpSumKeygen, &sumKeygen{
		Session: "test",
		Bits:    testConfig.GetPaillierBits(),
	}, &key))

	var ct ciphertext
	require.NoError(t, call(conn, OpSumContribute, &sumContribute{
		Session: "test",
		Field:   sumField,
		N:       key.N,
	}, &ct))

	pub := paillier.NewPublicKey(key.N)
	double := pub.Add(ct.C, ct.C)

	var res sumResult
	require.NoError(t, call(conn, OpSumDecrypt, &ciphertext{C: double}, &res))
	require.Equal(t, int64(84), res.Sum.Int64())

	err = call(conn, OpSumDecrypt, &ciphertext{C: ct.C}, &res)
	require.ErrorIs(t, err, mpcerr.ErrInvalidInput)
}

func TestSecureSumKeygenTimeout(t *testing.T) {
	config := *testConfig
	config.PaillierBits = 2048
	tb := newSumTestbed(t, &config, 10, 20)

	slow := config
	slow.KeygenTimeout = time.Nanosecond
	tb.parties["bank1"].Config = &slow

	_, err := tb.run(t, &Request{
		Type:         SecureSum,
		Participants: []string{"bank1", "bank2"},
		Field:        sumField,
	})
	requireKind(t, err, mpcerr.Resource)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, mpcerr.Retryable(err))
	require.Equal(t, "resource", tb.lastJob(t).Outcome.ErrorKind)
}
