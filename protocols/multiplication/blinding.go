// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package multiplication

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto"
)

// blindingFactor is one precomputed tuple for a secure multiplication:
// uniform r1, r2 of l+kappa bits together with [-r1], [-r2] and [-r1*r2].
type blindingFactor struct {
	r1, r2       *big.Int
	encMinusR1   *crypto.Ciphertext
	encMinusR2   *crypto.Ciphertext
	encMinusR1R2 *crypto.Ciphertext
}

// blindingFactorCache is a fixed-capacity pool of blinding tuples with the
// same wraparound semantics as the randomizer caches: every Pop returns a
// distinct fresh tuple until the capacity is exhausted.
type blindingFactorCache struct {
	items []*blindingFactor
	index int
}

func newBlindingFactorCache(provider crypto.Provider, operandBits, kappa, capacity int) (*blindingFactorCache, error) {
	if capacity <= 0 {
		capacity = crypto.DefaultCacheCapacity
	}
	c := &blindingFactorCache{items: make([]*blindingFactor, 0, capacity)}
	for i := 0; i < capacity; i++ {
		bf, err := newBlindingFactor(provider, operandBits, kappa)
		if err != nil {
			return nil, errors.Wrapf(err, "blinding factor cache fill failed at element %d", i)
		}
		c.items = append(c.items, bf)
	}
	return c, nil
}

func newBlindingFactor(provider crypto.Provider, operandBits, kappa int) (*blindingFactor, error) {
	bf := &blindingFactor{
		r1: common.MustGetRandomInt(operandBits + kappa),
		r2: common.MustGetRandomInt(operandBits + kappa),
	}
	var err error
	if bf.encMinusR1, err = provider.Encrypt(new(big.Int).Neg(bf.r1)); err != nil {
		return nil, err
	}
	if bf.encMinusR2, err = provider.Encrypt(new(big.Int).Neg(bf.r2)); err != nil {
		return nil, err
	}
	r1r2 := new(big.Int).Mul(bf.r1, bf.r2)
	if bf.encMinusR1R2, err = provider.Encrypt(r1r2.Neg(r1r2)); err != nil {
		return nil, err
	}
	return bf, nil
}

func (c *blindingFactorCache) pop() *blindingFactor {
	current := c.items[c.index]
	c.index = (c.index + 1) % len(c.items)
	return current
}
