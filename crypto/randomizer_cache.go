// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package crypto

import (
	"math/big"

	"github.com/pkg/errors"
)

// DefaultCacheCapacity is used when a configuration leaves the randomizer or
// blinding cache capacity unset.
const DefaultCacheCapacity = 100

// RandomizerCache is a fixed-capacity pool of precomputed re-randomization
// values, filled eagerly at construction. Pop returns elements in sequence
// and wraps around once the pool is exhausted: randomizers are independent of
// the plaintext, so reuse trades a weaker indistinguishability bound for not
// paying the modular exponentiation on every encryption.
//
// A cache is owned by exactly one cryptosystem instance and is not safe for
// concurrent use without external synchronization.
type RandomizerCache struct {
	items []*big.Int
	index int
}

// NewRandomizerCache fills a cache of the given capacity by calling the
// owner's randomizer generator `capacity` times in sequence.
func NewRandomizerCache(capacity int, generate func() (*big.Int, error)) (*RandomizerCache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &RandomizerCache{items: make([]*big.Int, 0, capacity)}
	for i := 0; i < capacity; i++ {
		r, err := generate()
		if err != nil {
			return nil, errors.Wrapf(err, "randomizer cache fill failed at element %d", i)
		}
		c.items = append(c.items, r)
	}
	return c, nil
}

// Pop returns the next randomizer, advancing the index modulo the capacity.
func (c *RandomizerCache) Pop() *big.Int {
	current := c.items[c.index]
	c.index = (c.index + 1) % len(c.items)
	return current
}

// Capacity returns the number of distinct randomizers held.
func (c *RandomizerCache) Capacity() int {
	return len(c.items)
}
