//
// aead.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/mpcsuite/mpcerr"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

var kdfInfo = []byte("mpcsuite ot message key v1")

// messageKey derives the AEAD key for the index:th message from the
// shared value k.
func messageKey(k []byte, index int) ([]byte, error) {
	var salt [4]byte
	binary.BigEndian.PutUint32(salt[:], uint32(index))

	kdf := hkdf.New(sha3.New256, k, salt[:], kdfInfo)
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, errors.Wrap(err, "hkdf")
	}
	return key, nil
}

// seal encrypts the message m with the key derived from k. Each key
// seals exactly one message so the nonce is fixed.
func seal(k []byte, index int, m []byte) ([]byte, error) {
	key, err := messageKey(k, index)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	var ad [4]byte
	binary.BigEndian.PutUint32(ad[:], uint32(index))

	return aead.Seal(nil, nonce[:], m, ad[:]), nil
}

// open decrypts the sealed message with the key derived from k.
func open(k []byte, index int, sealed []byte) ([]byte, error) {
	key, err := messageKey(k, index)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	var ad [4]byte
	binary.BigEndian.PutUint32(ad[:], uint32(index))

	m, err := aead.Open(nil, nonce[:], sealed, ad[:])
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "ot message"),
			mpcerr.ErrMalformedMessage)
	}
	return m, nil
}
