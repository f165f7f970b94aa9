// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package multiplication

import (
	"math/big"

	"github.com/bnb-chain/phe-lib/crypto"
)

// Client is the PSP side of the protocol: it holds the private key and sees
// only blinded operands.
type Client struct {
	provider crypto.Provider
	server   *Server
}

func NewClient(provider crypto.Provider) *Client {
	return &Client{provider: provider}
}

// SetServer attaches the Server side.
func (c *Client) SetServer(server *Server) {
	c.server = server
}

// Multiply decrypts the blinded operands and returns the encryption of their
// product. A decryption failure aborts the round and propagates unchanged.
func (c *Client) Multiply(lhs, rhs *crypto.Ciphertext) (*crypto.Ciphertext, error) {
	a, err := c.provider.Decrypt(lhs)
	if err != nil {
		return nil, err
	}
	b, err := c.provider.Decrypt(rhs)
	if err != nil {
		return nil, err
	}
	return c.provider.Encrypt(new(big.Int).Mul(a, b))
}
