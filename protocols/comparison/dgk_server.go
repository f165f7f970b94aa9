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

// DgkServer runs the server side of the bitwise subprotocol that produces
// the underflow indicator lambda for the outer comparison. It walks the bits
// of r-hat from the MSB down, maintaining an "already differs" accumulator
// sigma (the count of higher positions where d-hat and r-hat differ), masks
// each position with a random
// non-zero multiplier, hides the taken branch behind a fair coin s and ships
// the l+1 DGK ciphertexts to the PSP in a random order. Comparing 2*d-hat+1
// against 2*r-hat removes the equality case, which is what the extra
// position below bit zero implements.
type DgkServer struct {
	paillier crypto.Provider
	dgk      *dgk.Dgk
	client   *DgkClient

	l               int
	encMinusTwoPowL *crypto.Ciphertext
	cache           *dgkBlindingFactorCache
}

func NewDgkServer(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk, l, cacheCapacity int) (*DgkServer, error) {
	minusTwoPowL := new(big.Int).Lsh(big.NewInt(1), uint(l))
	encMinusTwoPowL, err := paillierProvider.EncryptNonrandom(minusTwoPowL.Neg(minusTwoPowL))
	if err != nil {
		return nil, err
	}
	cache, err := newDgkBlindingFactorCache(dgkProvider, l+1, cacheCapacity)
	if err != nil {
		return nil, err
	}
	return &DgkServer{
		paillier:        paillierProvider,
		dgk:             dgkProvider,
		l:               l,
		encMinusTwoPowL: encMinusTwoPowL,
		cache:           cache,
	}, nil
}

func (s *DgkServer) SetClient(client *DgkClient) {
	s.client = client
}

// ComputeLambda produces the encrypted underflow indicator: [0] when
// d-hat >= r-hat and [-2^l] when d-hat < r-hat. hatRBits are the l bits of
// the server's r mod 2^l share; coin hides which branch was evaluated.
func (s *DgkServer) ComputeLambda(hatRBits []uint, coin uint) (*crypto.Ciphertext, error) {
	if s.client == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "no client attached")
	}
	if len(hatRBits) != s.l {
		return nil, errors.Wrapf(crypto.ErrInvariantViolation, "expected %d bits of r-hat, got %d", s.l, len(hatRBits))
	}

	hatDBits, err := s.client.HatDBits()
	if err != nil {
		return nil, err
	}
	if len(hatDBits) != s.l {
		return nil, errors.Wrapf(crypto.ErrInvariantViolation, "expected %d bits of d-hat, got %d", s.l, len(hatDBits))
	}

	bf := s.cache.pop()
	encOne, err := s.dgk.EncryptedOne(false)
	if err != nil {
		return nil, err
	}

	e := make([]*crypto.Ciphertext, 0, s.l+1)

	// MSB position
	top := s.l - 1
	if coin == hatRBits[top] {
		var masked *crypto.Ciphertext
		if hatRBits[top] == 0 {
			if masked, err = hatDBits[top].Sub(encOne); err != nil {
				return nil, err
			}
		} else {
			masked = hatDBits[top]
		}
		if masked, err = masked.Mul(bf.multipliers[s.l]); err != nil {
			return nil, err
		}
		if masked, err = s.dgk.Randomize(masked); err != nil {
			return nil, err
		}
		e = append(e, masked)
	} else {
		e = append(e, bf.encNonZero[s.l])
	}

	// sigma accumulates xor([d-hat_i], r-hat_i) from the MSB down
	var sigma *crypto.Ciphertext
	if hatRBits[top] == 0 {
		sigma = hatDBits[top]
	} else if sigma, err = encOne.Sub(hatDBits[top]); err != nil {
		return nil, err
	}

	for i := s.l - 2; i >= 0; i-- {
		if coin == hatRBits[i] {
			c, err := hatDBits[i].Add(sigma)
			if err != nil {
				return nil, err
			}
			if coin == 0 {
				if c, err = c.Sub(encOne); err != nil {
					return nil, err
				}
				if c, err = c.Add(sigma); err != nil {
					return nil, err
				}
			}
			if c, err = c.Mul(bf.multipliers[i+1]); err != nil {
				return nil, err
			}
			if c, err = s.dgk.Randomize(c); err != nil {
				return nil, err
			}
			e = append(e, c)
		} else {
			e = append(e, bf.encNonZero[i+1])
		}

		var xorBit *crypto.Ciphertext
		if hatRBits[i] == 0 {
			xorBit = hatDBits[i]
		} else if xorBit, err = encOne.Sub(hatDBits[i]); err != nil {
			return nil, err
		}
		if sigma, err = sigma.Add(xorBit); err != nil {
			return nil, err
		}
	}

	// the appended differing LSBs: compare 2*d-hat+1 against 2*r-hat, whose
	// low bits are known to be 1 and 0
	if coin == 1 {
		e = append(e, bf.encNonZero[0])
	} else {
		last, err := sigma.Mul(bf.multipliers[0])
		if err != nil {
			return nil, err
		}
		if last, err = s.dgk.Randomize(last); err != nil {
			return nil, err
		}
		e = append(e, last)
	}

	permutation := common.NewPermutation(len(e))
	if err := permutation.Permute(len(e), func(i, j int) { e[i], e[j] = e[j], e[i] }); err != nil {
		return nil, err
	}

	lambda, err := s.client.ComputeLambda(e)
	if err != nil {
		return nil, err
	}

	if coin == 0 {
		// [lambda] = [-2^l] [lambda]^{-1}
		return s.encMinusTwoPowL.Sub(lambda)
	}
	return lambda, nil
}
