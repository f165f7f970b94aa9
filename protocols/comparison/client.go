// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package comparison

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/crypto"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
)

// Client is the PSP side of the comparison.
type Client struct {
	paillier  crypto.Provider
	dgkClient *DgkClient
	server    *Server

	l       int
	twoPowL *big.Int
}

func NewClient(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk, params Params) (*Client, error) {
	params.applyDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	dgkClient, err := NewDgkClient(paillierProvider, dgkProvider, params.L)
	if err != nil {
		return nil, err
	}
	return &Client{
		paillier:  paillierProvider,
		dgkClient: dgkClient,
		l:         params.L,
		twoPowL:   new(big.Int).Lsh(big.NewInt(1), uint(params.L)),
	}, nil
}

// SetServer attaches the Server side, including its inner DGK role.
func (c *Client) SetServer(server *Server) {
	c.server = server
	c.dgkClient.SetServer(server.DgkServer())
}

// DgkClient exposes the inner subprotocol role for wiring.
func (c *Client) DgkClient() *DgkClient {
	return c.dgkClient
}

// ComputeMinusDModTwoPowL decrypts the blinded [d], keeps d mod 2^l for the
// inner DGK step, and returns [-(d mod 2^l)].
func (c *Client) ComputeMinusDModTwoPowL(d *crypto.Ciphertext) (*crypto.Ciphertext, error) {
	plain, err := c.paillier.Decrypt(d)
	if err != nil {
		return nil, err
	}
	if plain.Sign() < 0 {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "the blinded operand left the positive range")
	}
	hatD := new(big.Int).Mod(plain, c.twoPowL)
	c.dgkClient.SetHatD(hatD)
	return c.paillier.Encrypt(new(big.Int).Neg(hatD))
}
