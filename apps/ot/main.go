//
// main.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/markkurossi/mpcsuite/ot"
)

func main() {
	bits := flag.Int("bits", 2048, "RSA key size in bits")
	choice := flag.Int("c", 0, "receiver's choice")
	flag.Parse()

	log.SetFlags(0)

	messages := [][]byte{
		[]byte("alpha"),
		[]byte("beta"),
		[]byte("gamma"),
	}
	if flag.NArg() > 0 {
		messages = nil
		for _, arg := range flag.Args() {
			messages = append(messages, []byte(arg))
		}
	}

	kp, err := ot.GenerateKeyPair(context.Background(), rand.Reader, *bits)
	if err != nil {
		log.Fatal(err)
	}
	defer kp.Destroy()

	sender := ot.NewSender(kp, rand.Reader)
	for i, m := range messages {
		fmt.Printf("  Sender m%d : %s\n", i, m)
	}

	receiver := ot.NewReceiver(sender.PublicKey(), rand.Reader)

	sXfer, err := sender.NewTransfer(messages)
	if err != nil {
		log.Fatal(err)
	}
	rXfer, err := receiver.NewTransfer(*choice, len(messages))
	if err != nil {
		log.Fatal(err)
	}

	err = rXfer.ReceiveRandomMessages(sXfer.RandomMessages())
	if err != nil {
		log.Fatal(err)
	}
	if err := sXfer.ReceiveV(rXfer.V()); err != nil {
		log.Fatal(err)
	}
	sealed, err := sXfer.Messages()
	if err != nil {
		log.Fatal(err)
	}
	if err := rXfer.ReceiveMessages(sealed); err != nil {
		log.Fatal(err)
	}

	m, c := rXfer.Message()
	fmt.Printf("Receiver m%d : %s\n", c, m)

	if !bytes.Equal(messages[c], m) {
		fmt.Printf("Verify failed!\n")
		os.Exit(1)
	}
}
