//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"context"
	"log"
	"net"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

// Handler handles an accepted connection. The connection is closed
// when the handler returns.
type Handler func(conn *Conn)

// Listener accepts TCP protocol connections.
type Listener struct {
	listener net.Listener
	handler  Handler
	wg       sync.WaitGroup
}

// Listen creates a new listener for the address. Each accepted
// connection is served by the handler in its own goroutine.
func Listen(addr string, handler Handler) (*Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		listener: listener,
		handler:  handler,
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return l, nil
}

// Addr returns the listener's network address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Close closes the listener and waits until the accept loop has
// terminated. Active connections are not closed.
func (l *Listener) Close() error {
	err := l.listener.Close()
	l.wg.Wait()
	return err
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		nc, err := l.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("p2p %s: accept failed: %s\n", l.Addr(), err)
			}
			return
		}
		conn := NewConn(nc)
		go func() {
			l.handler(conn)
			conn.Close()
		}()
	}
}

// Dial connects to the TCP address.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, mpcerr.Unreachable(err)
	}
	return NewConn(nc), nil
}
