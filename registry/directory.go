//
// directory.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package registry defines the participant directory and the job
// service the MPC protocols use, and their in-memory implementations.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

// Endpoint describes how to reach a participant.
type Endpoint struct {
	ID        string
	Address   string
	PublicKey []byte
	Online    bool
}

// Directory resolves participant identifiers to endpoints.
type Directory interface {
	Resolve(ctx context.Context, id string) (*Endpoint, error)
}

// MemoryDirectory implements Directory in memory.
type MemoryDirectory struct {
	m         sync.RWMutex
	endpoints map[string]*Endpoint
}

// NewMemoryDirectory creates a new empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		endpoints: make(map[string]*Endpoint),
	}
}

// Register adds or replaces the endpoint.
func (d *MemoryDirectory) Register(ep Endpoint) error {
	if len(ep.ID) == 0 || len(ep.Address) == 0 {
		return errors.Wrap(mpcerr.ErrInvalidInput, "incomplete endpoint")
	}
	d.m.Lock()
	defer d.m.Unlock()

	d.endpoints[ep.ID] = &ep
	return nil
}

// SetOnline sets the participant's online status.
func (d *MemoryDirectory) SetOnline(id string, online bool) error {
	d.m.Lock()
	defer d.m.Unlock()

	ep, ok := d.endpoints[id]
	if !ok {
		return errors.Wrapf(mpcerr.ErrInvalidInput,
			"unknown participant %s", id)
	}
	ep.Online = online
	return nil
}

// Resolve implements Directory.Resolve. Unknown participants are
// validation errors, offline participants are unreachable.
func (d *MemoryDirectory) Resolve(ctx context.Context, id string) (
	*Endpoint, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.m.RLock()
	defer d.m.RUnlock()

	ep, ok := d.endpoints[id]
	if !ok {
		return nil, errors.Wrapf(mpcerr.ErrInvalidInput,
			"unknown participant %s", id)
	}
	if !ep.Online {
		return nil, errors.Wrapf(mpcerr.ErrUnreachable,
			"participant %s offline", id)
	}
	result := *ep
	return &result, nil
}

// IDs returns the registered participant IDs in sorted order.
func (d *MemoryDirectory) IDs() []string {
	d.m.RLock()
	defer d.m.RUnlock()

	var result []string
	for id := range d.endpoints {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}
