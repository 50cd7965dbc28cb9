//
// party.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/big"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/env"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/p2p"
	"github.com/markkurossi/mpcsuite/paillier"
	"github.com/markkurossi/mpcsuite/registry"
	"github.com/markkurossi/mpcsuite/shamir"
)

// QueryKey identifies a Joint Query record.
type QueryKey struct {
	Type   string
	Target string
}

func (k QueryKey) String() string {
	return fmt.Sprintf("%s/%s", k.Type, k.Target)
}

// ShareRequest describes a Joint Query share release request.
type ShareRequest struct {
	Job       string
	QueryType string
	Target    string
}

// ConsentFunc decides if the party releases its share for the
// request.
type ConsentFunc func(req ShareRequest) bool

type storedShare struct {
	owner        string
	distribution string
	threshold    int
	share        shamir.Share
}

// Party implements a protocol participant. It holds the party's
// private inputs and serves protocol operations for the coordinator
// and the other participants.
type Party struct {
	ID     string
	Config *env.Config

	// Network connects the party to the other participants. NewParty
	// sets it to TCPNetwork.
	Network Network
	Verbose bool

	// Consent decides Joint Query share releases. The nil consent
	// releases all shares.
	Consent ConsentFunc

	m       sync.Mutex
	sets    map[string][]string
	values  map[string]*big.Int
	records map[QueryKey]*big.Int
	shares  map[QueryKey]storedShare
}

// NewParty creates a new party.
func NewParty(id string, config *env.Config) *Party {
	return &Party{
		ID:      id,
		Config:  config,
		Network: TCPNetwork{},
		Verbose: config != nil && config.Verbose,
		sets:    make(map[string][]string),
		values:  make(map[string]*big.Int),
		records: make(map[QueryKey]*big.Int),
		shares:  make(map[QueryKey]storedShare),
	}
}

// SetSet sets the party's private set for the PSI field.
func (p *Party) SetSet(field string, values []string) {
	p.m.Lock()
	defer p.m.Unlock()
	p.sets[field] = append([]string(nil), values...)
}

// SetValue sets the party's private value for the Secure Sum field.
func (p *Party) SetValue(field string, value *big.Int) {
	p.m.Lock()
	defer p.m.Unlock()
	p.values[field] = new(big.Int).Set(value)
}

// SetRecord sets the value the party owns for the Joint Query record.
func (p *Party) SetRecord(queryType, target string, value *big.Int) {
	p.m.Lock()
	defer p.m.Unlock()
	p.records[QueryKey{queryType, target}] = new(big.Int).Set(value)
}

// HasShare tests if the party holds a share of the Joint Query
// record.
func (p *Party) HasShare(queryType, target string) bool {
	p.m.Lock()
	defer p.m.Unlock()
	_, ok := p.shares[QueryKey{queryType, target}]
	return ok
}

func (p *Party) set(field string) ([]string, bool) {
	p.m.Lock()
	defer p.m.Unlock()
	set, ok := p.sets[field]
	return set, ok
}

func (p *Party) value(field string) (*big.Int, bool) {
	p.m.Lock()
	defer p.m.Unlock()
	v, ok := p.values[field]
	return v, ok
}

func (p *Party) record(key QueryKey) (*big.Int, bool) {
	p.m.Lock()
	defer p.m.Unlock()
	v, ok := p.records[key]
	return v, ok
}

func (p *Party) store(key QueryKey, share storedShare) {
	p.m.Lock()
	defer p.m.Unlock()
	p.shares[key] = share
}

func (p *Party) share(key QueryKey) (storedShare, bool) {
	p.m.Lock()
	defer p.m.Unlock()
	s, ok := p.shares[key]
	return s, ok
}

func (p *Party) consent(req ShareRequest) bool {
	if p.Consent == nil {
		return true
	}
	return p.Consent(req)
}

// dial opens a connection to another participant.
func (p *Party) dial(ctx context.Context, ep *registry.Endpoint) (
	*p2p.Conn, error) {

	if p.Network == nil {
		return nil, errors.Wrapf(mpcerr.ErrInvalidInput,
			"party %s has no network", p.ID)
	}
	conn, err := p.Network.Dial(ctx, ep)
	if err != nil {
		return nil, mpcerr.Unreachable(err)
	}
	return conn, nil
}

// Debugf prints debug output if the party is verbose.
func (p *Party) Debugf(format string, a ...interface{}) {
	if !p.Verbose {
		return
	}
	fmt.Printf("%s: %s", p.ID, fmt.Sprintf(format, a...))
}

// fatalError terminates the connection. It is returned when the
// handler fails after it has started streaming its response.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string {
	return e.err.Error()
}

func (e *fatalError) Unwrap() error {
	return e.err
}

func fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{
		err: err,
	}
}

// peerConn holds the per-connection state of a served connection.
type peerConn struct {
	party  *Party
	conn   *p2p.Conn
	sumKey *paillier.PrivateKey
}

func (peer *peerConn) close() {
	if peer.sumKey != nil {
		peer.sumKey.Destroy()
		peer.sumKey = nil
	}
	peer.conn.Close()
}

// Serve serves protocol operations from the connection until the
// peer closes it.
func (p *Party) Serve(ctx context.Context, conn *p2p.Conn) {
	peer := &peerConn{
		party: p,
		conn:  conn,
	}
	defer peer.close()

	for {
		op, err := conn.ReceiveByte()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				log.Printf("%s: receive: %s", p.ID, err)
			}
			return
		}
		p.Debugf("%s\n", Operand(op))

		err = peer.handle(ctx, Operand(op))
		if err == nil {
			continue
		}
		var fe *fatalError
		if errors.As(err, &fe) {
			log.Printf("%s: %s: %s", p.ID, Operand(op), mpcerr.KindOf(err))
			return
		}
		p.Debugf("%s failed: %s\n", Operand(op), mpcerr.KindOf(err))
		if err := respondError(conn, err); err != nil {
			return
		}
	}
}

// Listen serves protocol operations from TCP connections to the
// address. The caller closes the returned listener.
func (p *Party) Listen(ctx context.Context, addr string) (
	*p2p.Listener, error) {

	return p2p.Listen(addr, func(conn *p2p.Conn) {
		p.Serve(ctx, conn)
	})
}

func (peer *peerConn) handle(ctx context.Context, op Operand) error {
	switch op {
	case OpPSIQuery:
		return peer.psiQuery(ctx)
	case OpPSIHold:
		return peer.psiHold(ctx)
	case OpSumKeygen:
		return peer.sumKeygen(ctx)
	case OpSumContribute:
		return peer.sumContribute()
	case OpSumDecrypt:
		return peer.sumDecrypt()
	case OpShareDeal:
		return peer.shareDeal(ctx)
	case OpShareStore:
		return peer.shareStore()
	case OpShareRelease:
		return peer.shareRelease()
	default:
		return fatal(errors.Wrapf(mpcerr.ErrMalformedMessage,
			"unknown operand %v", op))
	}
}

// receive receives the request message. Decoding failures leave the
// connection in an unknown state so they are fatal.
func (peer *peerConn) receive(msg interface{}) error {
	return fatal(peer.conn.ReceiveMessage(msg))
}

func (peer *peerConn) respond(resp interface{}) error {
	return fatal(respond(peer.conn, resp))
}
