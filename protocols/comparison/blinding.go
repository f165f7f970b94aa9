// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package comparison

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
)

// blindingFactor is one precomputed tuple for the outer comparison step:
// r of l+1+kappa bits, [r], [r mod 2^l] and the bits of r mod 2^l, which the
// inner DGK step consumes.
type blindingFactor struct {
	r              *big.Int
	encR           *crypto.Ciphertext
	rModTwoPowL    *big.Int
	encRModTwoPowL *crypto.Ciphertext
	hatRBits       []uint
}

type blindingFactorCache struct {
	items []*blindingFactor
	index int
}

func newBlindingFactorCache(provider crypto.Provider, l, kappa, capacity int) (*blindingFactorCache, error) {
	if capacity <= 0 {
		capacity = crypto.DefaultCacheCapacity
	}
	twoPowL := new(big.Int).Lsh(big.NewInt(1), uint(l))
	c := &blindingFactorCache{items: make([]*blindingFactor, 0, capacity)}
	for i := 0; i < capacity; i++ {
		bf := &blindingFactor{r: common.MustGetRandomInt(l + 1 + kappa)}
		var err error
		if bf.encR, err = provider.Encrypt(bf.r); err != nil {
			return nil, errors.Wrapf(err, "blinding factor cache fill failed at element %d", i)
		}
		bf.rModTwoPowL = new(big.Int).Mod(bf.r, twoPowL)
		if bf.encRModTwoPowL, err = provider.Encrypt(bf.rModTwoPowL); err != nil {
			return nil, errors.Wrapf(err, "blinding factor cache fill failed at element %d", i)
		}
		bf.hatRBits = make([]uint, l)
		for j := 0; j < l; j++ {
			bf.hatRBits[j] = bf.rModTwoPowL.Bit(j)
		}
		c.items = append(c.items, bf)
	}
	return c, nil
}

func (c *blindingFactorCache) pop() *blindingFactor {
	current := c.items[c.index]
	c.index = (c.index + 1) % len(c.items)
	return current
}

// dgkBlindingFactor holds the l+1 random non-zero multipliers that mask the
// inner step's DGK ciphertexts, and l+1 encryptions of random non-zero
// plaintexts standing in for the branches the server does not take.
type dgkBlindingFactor struct {
	multipliers []*big.Int
	encNonZero  []*crypto.Ciphertext
}

type dgkBlindingFactorCache struct {
	items []*dgkBlindingFactor
	index int
}

func newDgkBlindingFactorCache(provider *dgk.Dgk, count, capacity int) (*dgkBlindingFactorCache, error) {
	if capacity <= 0 {
		capacity = crypto.DefaultCacheCapacity
	}
	u := provider.MessageSpaceUpperBound()
	uMinusOne := new(big.Int).Sub(u, big.NewInt(1))
	c := &dgkBlindingFactorCache{items: make([]*dgkBlindingFactor, 0, capacity)}
	for i := 0; i < capacity; i++ {
		bf := &dgkBlindingFactor{
			multipliers: make([]*big.Int, count),
			encNonZero:  make([]*crypto.Ciphertext, count),
		}
		for j := 0; j < count; j++ {
			bf.multipliers[j] = new(big.Int).Add(common.GetRandomPositiveInt(uMinusOne), big.NewInt(1))
			nonZero := new(big.Int).Add(common.GetRandomPositiveInt(uMinusOne), big.NewInt(1))
			enc, err := provider.Encrypt(nonZero)
			if err != nil {
				return nil, errors.Wrapf(err, "blinding factor cache fill failed at element %d", i)
			}
			bf.encNonZero[j] = enc
		}
		c.items = append(c.items, bf)
	}
	return c, nil
}

func (c *dgkBlindingFactorCache) pop() *dgkBlindingFactor {
	current := c.items[c.index]
	c.index = (c.index + 1) % len(c.items)
	return current
}
