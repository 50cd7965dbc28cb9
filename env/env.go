//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements global environment for the MPC engines.
package env

import (
	"crypto/rand"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultPaillierBits  = 2048
	DefaultOTBits        = 2048
	DefaultThreshold     = 2
	DefaultKeygenTimeout = 2 * time.Minute
	DefaultQueueSize     = 64
)

// Config defines the global system configuration for the MPC
// engines. It configures system operation for all MPC modules. Config
// must not be modified after being passed to any MPC module. It is
// safe for concurrent use by multiple modules as they do not modify
// it. The zero value and nil pointer are valid configurations that
// use the default values.
type Config struct {
	Rand          io.Reader
	PaillierBits  int
	OTBits        int
	Threshold     int
	PrimeTrials   int
	KeygenTimeout time.Duration
	Workers       int
	QueueSize     int
	Verbose       bool
}

// GetRandom returns the source of entropy for key generation, OT, and
// other cryptography operations.
func (config *Config) GetRandom() io.Reader {
	if config != nil && config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// GetPaillierBits returns the modulus size for homomorphic
// encryption keys.
func (config *Config) GetPaillierBits() int {
	if config != nil && config.PaillierBits > 0 {
		return config.PaillierBits
	}
	return DefaultPaillierBits
}

// GetOTBits returns the RSA modulus size for oblivious transfer keys.
func (config *Config) GetOTBits() int {
	if config != nil && config.OTBits > 0 {
		return config.OTBits
	}
	return DefaultOTBits
}

// GetThreshold returns the default reconstruction threshold.
func (config *Config) GetThreshold() int {
	if config != nil && config.Threshold > 0 {
		return config.Threshold
	}
	return DefaultThreshold
}

// GetPrimeTrials returns the prime search trial budget. Zero selects
// the size-dependent default budget.
func (config *Config) GetPrimeTrials() int {
	if config != nil && config.PrimeTrials > 0 {
		return config.PrimeTrials
	}
	return 0
}

// GetKeygenTimeout returns the upper bound for one key generation.
func (config *Config) GetKeygenTimeout() time.Duration {
	if config != nil && config.KeygenTimeout > 0 {
		return config.KeygenTimeout
	}
	return DefaultKeygenTimeout
}

// GetWorkers returns the number of concurrent protocol sessions.
func (config *Config) GetWorkers() int {
	if config != nil && config.Workers > 0 {
		return config.Workers
	}
	return runtime.NumCPU()
}

// GetQueueSize returns the number of sessions that can wait for a
// worker.
func (config *Config) GetQueueSize() int {
	if config != nil && config.QueueSize > 0 {
		return config.QueueSize
	}
	return DefaultQueueSize
}

// Load loads configuration from the optional configuration file and
// from MPC_ prefixed environment variables. Values not set in either
// source get their defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("paillier_bits", DefaultPaillierBits)
	v.SetDefault("ot_bits", DefaultOTBits)
	v.SetDefault("threshold", DefaultThreshold)
	v.SetDefault("prime_trials", 0)
	v.SetDefault("keygen_timeout", DefaultKeygenTimeout)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("queue_size", DefaultQueueSize)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("MPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if len(path) > 0 {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
	}

	config := &Config{
		PaillierBits:  v.GetInt("paillier_bits"),
		OTBits:        v.GetInt("ot_bits"),
		Threshold:     v.GetInt("threshold"),
		PrimeTrials:   v.GetInt("prime_trials"),
		KeygenTimeout: v.GetDuration("keygen_timeout"),
		Workers:       v.GetInt("workers"),
		QueueSize:     v.GetInt("queue_size"),
		Verbose:       v.GetBool("verbose"),
	}
	if config.PaillierBits < 64 {
		return nil, errors.Newf("invalid paillier_bits %d", config.PaillierBits)
	}
	if config.OTBits < 1024 {
		return nil, errors.Newf("invalid ot_bits %d", config.OTBits)
	}
	if config.Threshold < 2 {
		return nil, errors.Newf("invalid threshold %d", config.Threshold)
	}
	return config, nil
}
