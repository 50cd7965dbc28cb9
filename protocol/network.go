//
// network.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/p2p"
	"github.com/markkurossi/mpcsuite/registry"
)

// LocalAddressPrefix is the address prefix of parties served by a
// LocalNetwork.
const LocalAddressPrefix = "local:"

// Network connects to participant endpoints.
type Network interface {
	// Dial opens a protocol connection to the endpoint.
	Dial(ctx context.Context, ep *registry.Endpoint) (*p2p.Conn, error)
}

// LocalNetwork implements Network with in-process pipes. Each dial
// starts a serving goroutine at the remote party.
type LocalNetwork struct {
	m       sync.RWMutex
	parties map[string]*Party
}

// NewLocalNetwork creates a new local network.
func NewLocalNetwork() *LocalNetwork {
	return &LocalNetwork{
		parties: make(map[string]*Party),
	}
}

// Add adds the party to the network and returns its endpoint.
func (n *LocalNetwork) Add(p *Party) registry.Endpoint {
	n.m.Lock()
	defer n.m.Unlock()

	addr := LocalAddressPrefix + p.ID
	n.parties[addr] = p
	p.Network = n

	return registry.Endpoint{
		ID:      p.ID,
		Address: addr,
		Online:  true,
	}
}

// Dial implements Network.Dial.
func (n *LocalNetwork) Dial(ctx context.Context, ep *registry.Endpoint) (
	*p2p.Conn, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.m.RLock()
	party, ok := n.parties[ep.Address]
	n.m.RUnlock()
	if !ok {
		return nil, errors.Wrapf(mpcerr.ErrUnreachable,
			"no route to %s", ep.Address)
	}

	local, remote := p2p.Pipe()
	go party.Serve(ctx, remote)

	return local, nil
}

// TCPNetwork implements Network over TCP. Endpoint addresses are TCP
// host:port addresses of parties serving with Party.Listen.
type TCPNetwork struct{}

// Dial implements Network.Dial.
func (TCPNetwork) Dial(ctx context.Context, ep *registry.Endpoint) (
	*p2p.Conn, error) {
	return p2p.Dial(ctx, ep.Address)
}
