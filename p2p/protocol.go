//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements the framed peer-to-peer connection used by
// the MPC protocols.
package p2p

import (
	"bufio"
	"encoding/binary"
	"io"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/ot"
)

var (
	_  ot.IO = &Conn{}
	bo       = binary.BigEndian
)

const (
	writeBufSize = 64 * 1024
	readBufSize  = 1024 * 1024

	// MaxDataSize defines the maximum size of one data frame.
	MaxDataSize = 64 * 1024 * 1024
)

// Conn implements a protocol connection.
type Conn struct {
	conn  io.ReadWriter
	w     *bufio.Writer
	r     *bufio.Reader
	buf   [4]byte
	Stats IOStats
}

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Add adds the argument stats to this IOStats and returns the sum.
func (stats IOStats) Add(o IOStats) IOStats {
	sent := new(atomic.Uint64)
	sent.Store(stats.Sent.Load() + o.Sent.Load())

	recvd := new(atomic.Uint64)
	recvd.Store(stats.Recvd.Load() + o.Recvd.Load())

	flushed := new(atomic.Uint64)
	flushed.Store(stats.Flushed.Load() + o.Flushed.Load())

	return IOStats{
		Sent:    sent,
		Recvd:   recvd,
		Flushed: flushed,
	}
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

type counter struct {
	rw    io.ReadWriter
	recvd *atomic.Uint64
	sent  *atomic.Uint64
}

func (c *counter) Read(p []byte) (int, error) {
	n, err := c.rw.Read(p)
	c.recvd.Add(uint64(n))
	return n, err
}

func (c *counter) Write(p []byte) (int, error) {
	n, err := c.rw.Write(p)
	c.sent.Add(uint64(n))
	return n, err
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	stats := NewIOStats()
	cnt := &counter{
		rw:    conn,
		recvd: stats.Recvd,
		sent:  stats.Sent,
	}
	return &Conn{
		conn:  conn,
		w:     bufio.NewWriterSize(cnt, writeBufSize),
		r:     bufio.NewReaderSize(cnt, readBufSize),
		Stats: stats,
	}
}

// Flush flushed any pending data in the connection.
func (c *Conn) Flush() error {
	if c.w.Buffered() == 0 {
		return nil
	}
	if err := c.w.Flush(); err != nil {
		return mpcerr.Unreachable(err)
	}
	c.Stats.Flushed.Add(1)
	return nil
}

// Close flushes any pending data and closes the connection.
func (c *Conn) Close() error {
	ferr := c.Flush()
	closer, ok := c.conn.(io.Closer)
	if ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return ferr
}

func (c *Conn) write(data []byte) error {
	_, err := c.w.Write(data)
	if err != nil {
		return mpcerr.Unreachable(err)
	}
	return nil
}

func (c *Conn) read(data []byte) error {
	_, err := io.ReadFull(c.r, data)
	if err != nil {
		return mpcerr.Unreachable(err)
	}
	return nil
}

// SendByte sends a byte value.
func (c *Conn) SendByte(val byte) error {
	if err := c.w.WriteByte(val); err != nil {
		return mpcerr.Unreachable(err)
	}
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	bo.PutUint32(c.buf[:4], uint32(val))
	return c.write(c.buf[:4])
}

// SendData sends binary data.
func (c *Conn) SendData(val []byte) error {
	if len(val) > MaxDataSize {
		return errors.Wrapf(mpcerr.ErrInvalidInput,
			"data too long: %d > %d", len(val), MaxDataSize)
	}
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	return c.write(val)
}

// SendMessage sends the CBOR encoding of the message.
func (c *Conn) SendMessage(msg interface{}) error {
	data, err := cbor.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode message")
	}
	return c.SendData(data)
}

// ReceiveByte receives a byte value.
func (c *Conn) ReceiveByte() (byte, error) {
	val, err := c.r.ReadByte()
	if err != nil {
		return 0, mpcerr.Unreachable(err)
	}
	return val, nil
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	if err := c.read(c.buf[:4]); err != nil {
		return 0, err
	}
	return int(bo.Uint32(c.buf[:4])), nil
}

// ReceiveData receives binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	l, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if l > MaxDataSize {
		return nil, errors.Wrapf(mpcerr.ErrMalformedMessage,
			"data too long: %d > %d", l, MaxDataSize)
	}
	result := make([]byte, l)
	if err := c.read(result); err != nil {
		return nil, err
	}
	return result, nil
}

// ReceiveMessage receives a CBOR encoded message into msg.
func (c *Conn) ReceiveMessage(msg interface{}) error {
	data, err := c.ReceiveData()
	if err != nil {
		return err
	}
	if err := cbor.Unmarshal(data, msg); err != nil {
		return mpcerr.Malformed(errors.Wrap(err, "decode message"))
	}
	return nil
}
