// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package packed

import (
	"math/big"

	"github.com/bnb-chain/phe-lib/crypto"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
)

// DgkClient is the PSP side of the per-bucket subprotocol. It holds the
// decrypted bucket value of the blinded packed ciphertext and serves its
// bits on demand: fully decrypting tau is never needed, the DGK zero test
// suffices because tau is always an encryption of 0 or 1.
type DgkClient struct {
	paillier crypto.Provider
	dgk      *dgk.Dgk
	server   *DgkServer

	// b is the bucket value z^(i) of the current comparison
	b *big.Int
}

func NewDgkClient(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk) *DgkClient {
	return &DgkClient{paillier: paillierProvider, dgk: dgkProvider}
}

func (c *DgkClient) SetServer(server *DgkServer) {
	c.server = server
}

// SetBucketValue persists the plaintext bucket value for the current round.
func (c *DgkClient) SetBucketValue(b *big.Int) {
	c.b = b
}

// GetBi returns the DGK encryption of bit i of the bucket value.
func (c *DgkClient) GetBi(i int) (*crypto.Ciphertext, error) {
	return c.dgk.Encrypt(big.NewInt(int64(c.b.Bit(i))))
}

// GetTb returns [0] when bit i of the bucket value is 0 and tau otherwise,
// re-randomized so the server cannot recognise which.
func (c *DgkClient) GetTb(tau *crypto.Ciphertext, i int) (*crypto.Ciphertext, error) {
	if c.b.Bit(i) == 0 {
		zero, err := c.dgk.EncryptedZero(false)
		if err != nil {
			return nil, err
		}
		return c.dgk.Randomize(zero)
	}
	return c.dgk.Randomize(tau)
}

// ComputeDiPSP decrypts the blinded carry with the zero test and XORs it
// with the z-side share of the bucket's top bit, returning the Paillier
// encryption of the result.
func (c *DgkClient) ComputeDiPSP(tau *crypto.Ciphertext) (*crypto.Ciphertext, error) {
	isZero, err := c.dgk.IsEncryptedZero(tau)
	if err != nil {
		return nil, err
	}
	carry := uint(1)
	if isZero {
		carry = 0
	}
	di := c.b.Bit(c.server.MSBPosition()) ^ carry
	if di == 0 {
		return c.paillier.EncryptedZero(true)
	}
	return c.paillier.EncryptedOne(true)
}
