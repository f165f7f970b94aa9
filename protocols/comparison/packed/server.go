// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package packed batches many comparisons against one public threshold into
// single ciphertexts. Every operand v occupies an l+2 bit bucket holding
// 2*(2^l + v - delta); the top bit of a bucket is the outcome [v >= delta]
// for that slot. The server adds a precomputed "partial D" constant to the
// packed operands, blinds additively, and resolves each bucket of the
// decrypted blind through the per-bucket DGK subprotocol, yielding one
// encrypted indicator bit per operand. A ciphertext carries up to
// floor((bits(n) - kappa - 2) / (l+2)) comparisons.
package packed

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
)

// DefaultKappa is the statistical security margin, in bits, applied to the
// additive blinding when a Params leaves Kappa unset.
const DefaultKappa = 112

type Params struct {
	// L is the operand bit length: operands and the threshold are below 2^l.
	L int
	// Kappa is the statistical security margin of the blinding.
	Kappa int
	// BlindingCacheCapacity sets the precomputed tuple pool size.
	BlindingCacheCapacity int
}

func (p *Params) applyDefaults() {
	if p.Kappa == 0 {
		p.Kappa = DefaultKappa
	}
}

func (p Params) validate() error {
	if p.L < 2 {
		return errors.Wrap(crypto.ErrInvalidParameter, "L must be at least 2")
	}
	return nil
}

// Server is the ciphertext-holding side of the batched comparison.
type Server struct {
	paillier  crypto.Provider
	dgkServer *DgkServer
	client    *Client

	l                int
	bucketBits       int
	maxPackedBuckets int
	encPartialD      *crypto.Ciphertext
	cache            *blindingFactorCache
}

// NewServer prepares a batched comparison against `threshold`. The partial-D
// constant sum_i (2^{l+2})^i * 2*(2^l - threshold) is folded into a single
// nonrandom encryption once, here.
func NewServer(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk, threshold *big.Int, params Params) (*Server, error) {
	params.applyDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	twoPowL := new(big.Int).Lsh(big.NewInt(1), uint(params.L))
	if threshold.Sign() < 0 || threshold.Cmp(twoPowL) >= 0 {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "the threshold must be an l-bit value")
	}

	s := &Server{
		paillier:   paillierProvider,
		l:          params.L,
		bucketBits: params.L + 2,
	}
	s.maxPackedBuckets = (paillierProvider.MessageSpaceBits() - params.Kappa - 2) / s.bucketBits
	if s.maxPackedBuckets < 1 {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "no bucket fits the message space with the chosen kappa")
	}

	// partial D: every bucket preloaded with 2*(2^l - threshold)
	perBucket := new(big.Int).Sub(twoPowL, threshold)
	perBucket.Lsh(perBucket, 1)
	partialD := new(big.Int).Set(perBucket)
	for i := 1; i < s.maxPackedBuckets; i++ {
		term := new(big.Int).Lsh(perBucket, uint(s.bucketBits*i))
		partialD.Add(partialD, term)
	}
	var err error
	if s.encPartialD, err = paillierProvider.EncryptNonrandom(partialD); err != nil {
		return nil, err
	}

	if s.cache, err = newBlindingFactorCache(paillierProvider, s.bucketBits, s.maxPackedBuckets, params.Kappa, params.BlindingCacheCapacity); err != nil {
		return nil, err
	}

	// the subprotocol scans the l+1 low bucket bits; the bucket MSB travels
	// as additive shares
	s.dgkServer = NewDgkServer(paillierProvider, dgkProvider, params.L+1)
	return s, nil
}

// MaxPackedBuckets is the number of comparisons one ciphertext carries.
func (s *Server) MaxPackedBuckets() int {
	return s.maxPackedBuckets
}

// SetClient attaches the PSP side, including its inner DGK role.
func (s *Server) SetClient(client *Client) {
	s.client = client
	s.dgkServer.SetClient(client.DgkClient())
}

// DgkServer exposes the inner subprotocol role for wiring.
func (s *Server) DgkServer() *DgkServer {
	return s.dgkServer
}

// Compare consumes packed operands (each bucket holding 2*v at stride l+2,
// as produced by a Packer reserving kappa+2 bits) and returns one encrypted
// indicator [v >= threshold] per operand. countInLast tells how many buckets
// the final ciphertext holds.
func (s *Server) Compare(packedOperands []*crypto.Ciphertext, countInLast int) ([]*crypto.Ciphertext, error) {
	if s.client == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "no client attached")
	}
	if len(packedOperands) == 0 || countInLast < 1 || countInLast > s.maxPackedBuckets {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "malformed packed operand vector")
	}

	var gamma []*crypto.Ciphertext
	for idx, packed := range packedOperands {
		// [D] holds 2*(2^l + v - threshold) per bucket
		d, err := packed.Add(s.encPartialD)
		if err != nil {
			return nil, err
		}

		bf := s.cache.pop()
		z, err := d.Add(bf.encR)
		if err != nil {
			return nil, err
		}
		if z, err = s.paillier.Randomize(z); err != nil {
			return nil, err
		}

		bucketCount := s.maxPackedBuckets
		if idx == len(packedOperands)-1 {
			bucketCount = countInLast
		}

		// the PSP decrypts the blind and splits it back into buckets
		if err := s.client.UnpackZ(z, bucketCount); err != nil {
			return nil, err
		}

		for i := 0; i < bucketCount; i++ {
			if err := s.client.SelectBucket(i); err != nil {
				return nil, err
			}
			di, err := s.dgkServer.ComputeDi(bf.bucketShares[i])
			if err != nil {
				return nil, err
			}
			gamma = append(gamma, di)
		}
	}

	common.Logger.Debugf("packed comparison: resolved %d buckets over %d ciphertexts", len(gamma), len(packedOperands))
	return gamma, nil
}
