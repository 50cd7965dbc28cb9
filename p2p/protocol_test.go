//
// protocol_test.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"bytes"
	"fmt"
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
)

type message struct {
	Op     int
	Field  string
	Values []*big.Int
}

var tests = []interface{}{
	byte(42),
	uint32(44),
	[]byte("Hello, world!"),
	make([]byte, 1024),
	make([]byte, 2*1024*1024),
	&message{
		Op:    1,
		Field: "customer_id",
		Values: []*big.Int{
			big.NewInt(17),
			big.NewInt(0).Lsh(big.NewInt(3), 1000),
		},
	},
}

func writer(c *Conn) {
	for _, test := range tests {
		switch d := test.(type) {
		case byte:
			if err := c.SendByte(d); err != nil {
				fmt.Printf("SendByte: %v\n", err)
			}

		case uint32:
			if err := c.SendUint32(int(d)); err != nil {
				fmt.Printf("SendUint32: %v\n", err)
			}

		case []byte:
			if err := c.SendData(d); err != nil {
				fmt.Printf("SendData [%v]byte: %v\n", len(d), err)
			}

		case *message:
			if err := c.SendMessage(d); err != nil {
				fmt.Printf("SendMessage: %v\n", err)
			}

		default:
			fmt.Printf("writer: invalid data: %v(%T)\n", test, test)
		}
	}
	if err := c.Flush(); err != nil {
		fmt.Printf("Flush: %v\n", err)
	}
}

func TestProtocol(t *testing.T) {
	cw, c := Pipe()
	done := make(chan struct{})

	go func() {
		writer(cw)
		close(done)
	}()

	for _, test := range tests {
		switch d := test.(type) {
		case byte:
			v, err := c.ReceiveByte()
			if err != nil {
				t.Fatalf("ReceiveByte: %v", err)
			}
			if v != d {
				t.Errorf("ReceiveByte: got %v, expected %v", v, d)
			}

		case uint32:
			v, err := c.ReceiveUint32()
			if err != nil {
				t.Fatalf("ReceiveUint32: %v", err)
			}
			if v != int(d) {
				t.Errorf("ReceiveUint32: got %v, expected %v", v, d)
			}

		case []byte:
			v, err := c.ReceiveData()
			if err != nil {
				t.Fatalf("ReceiveData: %v", err)
			}
			if !bytes.Equal(v, d) {
				t.Errorf("ReceiveData: got [%v]byte, expected [%v]byte",
					len(v), len(d))
			}

		case *message:
			var v message
			if err := c.ReceiveMessage(&v); err != nil {
				t.Fatalf("ReceiveMessage: %v", err)
			}
			if v.Op != d.Op || v.Field != d.Field ||
				len(v.Values) != len(d.Values) ||
				v.Values[1].Cmp(d.Values[1]) != 0 {
				t.Errorf("ReceiveMessage: got %v, expected %v", v, d)
			}

		default:
			t.Errorf("invalid value: %v(%T)", test, test)
		}
	}
	<-done
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if cw.Stats.Sent.Load() != c.Stats.Recvd.Load() {
		t.Errorf("stats mismatch: sent %v, received %v",
			cw.Stats.Sent.Load(), c.Stats.Recvd.Load())
	}
}

func TestMalformedMessage(t *testing.T) {
	cw, c := Pipe()

	go func() {
		cw.SendData([]byte{0xff, 0xff})
		cw.Flush()
	}()

	var v message
	err := c.ReceiveMessage(&v)
	if !errors.Is(err, mpcerr.ErrMalformedMessage) {
		t.Errorf("ReceiveMessage: got %v", err)
	}
}

func TestClosedPeer(t *testing.T) {
	cw, c := Pipe()
	if err := cw.Close(); err != nil {
		t.Fatal(err)
	}
	_, err := c.ReceiveUint32()
	if !mpcerr.Retryable(err) {
		t.Errorf("closed peer: got %v", err)
	}
}
