// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package packed

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/crypto"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
)

// Client is the PSP side of the batched comparison.
type Client struct {
	paillier  crypto.Provider
	dgkClient *DgkClient
	server    *Server

	bucketBits  int
	bucketSpace *big.Int

	// buckets of the blinded packed value of the current round
	buckets []*big.Int
}

func NewClient(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk, params Params) (*Client, error) {
	params.applyDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	bucketBits := params.L + 2
	return &Client{
		paillier:    paillierProvider,
		dgkClient:   NewDgkClient(paillierProvider, dgkProvider),
		bucketBits:  bucketBits,
		bucketSpace: new(big.Int).Lsh(big.NewInt(1), uint(bucketBits)),
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

// UnpackZ decrypts the blinded packed ciphertext and extracts bucketCount
// bucket values for the per-bucket subprotocol rounds that follow.
func (c *Client) UnpackZ(z *crypto.Ciphertext, bucketCount int) error {
	plain, err := c.paillier.Decrypt(z)
	if err != nil {
		return err
	}
	if plain.Sign() < 0 {
		return errors.Wrap(crypto.ErrInvariantViolation, "the blinded packed value left the positive range")
	}
	c.buckets = make([]*big.Int, 0, bucketCount)
	remaining := new(big.Int).Set(plain)
	for i := 0; i < bucketCount; i++ {
		c.buckets = append(c.buckets, new(big.Int).Mod(remaining, c.bucketSpace))
		remaining.Rsh(remaining, uint(c.bucketBits))
	}
	return nil
}

// SelectBucket points the inner subprotocol at bucket i of the current
// round.
func (c *Client) SelectBucket(i int) error {
	if i < 0 || i >= len(c.buckets) {
		return errors.Wrapf(crypto.ErrInvariantViolation, "bucket %d out of range", i)
	}
	c.dgkClient.SetBucketValue(c.buckets[i])
	return nil
}
