//
// messages.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package protocol

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"github.com/markkurossi/mpcsuite/p2p"
	"github.com/markkurossi/mpcsuite/registry"
	"github.com/markkurossi/mpcsuite/shamir"
)

// Operand defines protocol operands.
type Operand byte

// Network protocol messages.
const (
	OpPSIQuery Operand = iota
	OpPSIHold
	OpSumKeygen
	OpSumContribute
	OpSumDecrypt
	OpShareDeal
	OpShareStore
	OpShareRelease
)

var operandNames = map[Operand]string{
	OpPSIQuery:      "PSIQuery",
	OpPSIHold:       "PSIHold",
	OpSumKeygen:     "SumKeygen",
	OpSumContribute: "SumContribute",
	OpSumDecrypt:    "SumDecrypt",
	OpShareDeal:     "ShareDeal",
	OpShareStore:    "ShareStore",
	OpShareRelease:  "ShareRelease",
}

func (op Operand) String() string {
	name, ok := operandNames[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{Operand %d}", op)
}

// Response status codes.
const (
	statusOK byte = iota
	statusError
)

type ack struct{}

type errorMsg struct {
	Code string
}

type psiQuery struct {
	Session string
	Field   string
	Holders []registry.Endpoint
	Reveal  bool
}

type psiHold struct {
	Session string
	Field   string
	Count   int
}

type blindRequest struct {
	Values []*big.Int
}

type blindResponse struct {
	Sigs []*big.Int
}

type psiResult struct {
	Size   int
	Flags  []bool
	Values []string
}

type sumKeygen struct {
	Session string
	Bits    int
}

type sumKey struct {
	N *big.Int
}

type sumContribute struct {
	Session string
	Field   string
	N       *big.Int
}

type ciphertext struct {
	C *big.Int
}

type sumResult struct {
	Sum *big.Int
}

type shareDeal struct {
	Session   string
	QueryType string
	Target    string
	Threshold int
	Holders   []registry.Endpoint
}

type dealResult struct {
	Holders int
}

type shareStore struct {
	Owner        string
	Distribution string
	QueryType    string
	Target       string
	Threshold    int
	Share        shamir.Share
}

type shareRelease struct {
	Session   string
	Job       string
	QueryType string
	Target    string
}

type shareReleased struct {
	Released     bool
	Distribution string
	Threshold    int
	Share        shamir.Share
}

// call sends the request with the operand and receives the response
// into resp.
func call(conn *p2p.Conn, op Operand, req, resp interface{}) error {
	if err := conn.SendByte(byte(op)); err != nil {
		return err
	}
	if err := conn.SendMessage(req); err != nil {
		return err
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	return receiveResponse(conn, resp)
}

func receiveResponse(conn *p2p.Conn, resp interface{}) error {
	status, err := conn.ReceiveByte()
	if err != nil {
		return err
	}
	switch status {
	case statusOK:
		return conn.ReceiveMessage(resp)

	case statusError:
		var msg errorMsg
		if err := conn.ReceiveMessage(&msg); err != nil {
			return err
		}
		return errors.Wrap(mpcerr.FromCode(msg.Code), "remote")

	default:
		return errors.Wrapf(mpcerr.ErrMalformedMessage,
			"invalid response status %d", status)
	}
}

func respond(conn *p2p.Conn, resp interface{}) error {
	if err := conn.SendByte(statusOK); err != nil {
		return err
	}
	if err := conn.SendMessage(resp); err != nil {
		return err
	}
	return conn.Flush()
}

func respondError(conn *p2p.Conn, cause error) error {
	if err := conn.SendByte(statusError); err != nil {
		return err
	}
	err := conn.SendMessage(&errorMsg{
		Code: mpcerr.Code(cause),
	})
	if err != nil {
		return err
	}
	return conn.Flush()
}
