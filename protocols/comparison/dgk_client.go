// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package comparison

import (
	"math/big"

	"github.com/bnb-chain/phe-lib/crypto"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
)

// DgkClient is the PSP side of the bitwise subprotocol. It commits DGK
// encryptions of the bits of d-hat = d mod 2^l and later scans the server's
// masked vector with the fast DGK zero test: any encrypted zero means the
// branch the server chose behind its coin was hit.
type DgkClient struct {
	paillier crypto.Provider
	dgk      *dgk.Dgk
	server   *DgkServer

	l               int
	encMinusTwoPowL *crypto.Ciphertext

	hatD *big.Int
}

func NewDgkClient(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk, l int) (*DgkClient, error) {
	minusTwoPowL := new(big.Int).Lsh(big.NewInt(1), uint(l))
	encMinusTwoPowL, err := paillierProvider.EncryptNonrandom(minusTwoPowL.Neg(minusTwoPowL))
	if err != nil {
		return nil, err
	}
	return &DgkClient{
		paillier:        paillierProvider,
		dgk:             dgkProvider,
		l:               l,
		encMinusTwoPowL: encMinusTwoPowL,
	}, nil
}

func (c *DgkClient) SetServer(server *DgkServer) {
	c.server = server
}

// SetHatD persists the plaintext d mod 2^l for the current round.
func (c *DgkClient) SetHatD(hatD *big.Int) {
	c.hatD = hatD
}

// HatDBits returns DGK encryptions of the l bits of d-hat.
func (c *DgkClient) HatDBits() ([]*crypto.Ciphertext, error) {
	bits := make([]*crypto.Ciphertext, 0, c.l)
	for i := 0; i < c.l; i++ {
		enc, err := c.dgk.Encrypt(big.NewInt(int64(c.hatD.Bit(i))))
		if err != nil {
			return nil, err
		}
		bits = append(bits, enc)
	}
	return bits, nil
}

// ComputeLambda scans the masked vector; an encrypted zero means the
// comparison the server chose behind its coin holds (2*r-hat > 2*d-hat+1
// for coin 1, 2*d-hat+1 > 2*r-hat for coin 0), and the result is [-2^l].
// Otherwise it is [0]. The server maps this to the underflow indicator
// according to its coin.
func (c *DgkClient) ComputeLambda(e []*crypto.Ciphertext) (*crypto.Ciphertext, error) {
	for _, candidate := range e {
		isZero, err := c.dgk.IsEncryptedZero(candidate)
		if err != nil {
			return nil, err
		}
		if isZero {
			return c.paillier.Randomize(c.encMinusTwoPowL)
		}
	}
	return c.paillier.EncryptedZero(true)
}
