// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package packed

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto"
)

// blindingFactor is one precomputed additive blinding for a packed
// comparison: r spans every bucket plus the kappa security margin, and the
// per-bucket shares are the bucket-aligned slices of r that the bitwise
// subprotocol consumes.
type blindingFactor struct {
	r            *big.Int
	encR         *crypto.Ciphertext
	bucketShares []*big.Int
}

type blindingFactorCache struct {
	items []*blindingFactor
	index int
}

func newBlindingFactorCache(provider crypto.Provider, bucketBits, bucketCount, kappa, capacity int) (*blindingFactorCache, error) {
	if capacity <= 0 {
		capacity = crypto.DefaultCacheCapacity
	}
	bucketSpace := new(big.Int).Lsh(big.NewInt(1), uint(bucketBits))
	c := &blindingFactorCache{items: make([]*blindingFactor, 0, capacity)}
	for i := 0; i < capacity; i++ {
		bf := &blindingFactor{r: common.MustGetRandomInt(bucketBits*bucketCount + kappa)}
		var err error
		if bf.encR, err = provider.Encrypt(bf.r); err != nil {
			return nil, errors.Wrapf(err, "blinding factor cache fill failed at element %d", i)
		}
		bf.bucketShares = make([]*big.Int, bucketCount)
		for j := 0; j < bucketCount; j++ {
			share := new(big.Int).Rsh(bf.r, uint(j*bucketBits))
			bf.bucketShares[j] = share.Mod(share, bucketSpace)
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
