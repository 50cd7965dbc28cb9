//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"io"
)

// Pipe creates an in-memory connection pair. Data sent to one end is
// received from the other. Closing one end makes the reads of the
// other end fail with io.EOF.
func Pipe() (*Conn, *Conn) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()

	return NewConn(&pipeEnd{ar, aw}), NewConn(&pipeEnd{br, bw})
}

type pipeEnd struct {
	*io.PipeReader
	*io.PipeWriter
}

func (p *pipeEnd) Close() error {
	p.PipeWriter.Close()
	return p.PipeReader.Close()
}
