// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package comparison implements the two-party secure comparison of two
// encrypted l-bit integers. Compare(a, b) yields [1] when a <= b and [0]
// otherwise, without revealing a or b to either side.
//
// The outer step works on z = 2^l + b - a under Paillier: bit l of z is the
// comparison result. The low bits z mod 2^l are cleared interactively after
// additive blinding, and the inner DGK step (dgk_server.go, dgk_client.go)
// supplies the indicator that corrects the mod-n underflow of that
// subtraction.
package comparison

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
	// L is the operand bit length.
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

// Server is the ciphertext-holding side of the comparison.
type Server struct {
	paillier  crypto.Provider
	dgkServer *DgkServer
	client    *Client

	l                int
	twoPowL          *big.Int
	twoPowMinusLModN *big.Int
	encTwoPowL       *crypto.Ciphertext
	cache            *blindingFactorCache
}

func NewServer(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk, params Params) (*Server, error) {
	params.applyDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	twoPowL := new(big.Int).Lsh(big.NewInt(1), uint(params.L))
	twoPowMinusLModN := new(big.Int).ModInverse(twoPowL, paillierProvider.MessageSpaceUpperBound())
	if twoPowMinusLModN == nil {
		return nil, crypto.ErrInverseDoesNotExist
	}
	encTwoPowL, err := paillierProvider.Encrypt(twoPowL)
	if err != nil {
		return nil, err
	}
	cache, err := newBlindingFactorCache(paillierProvider, params.L, params.Kappa, params.BlindingCacheCapacity)
	if err != nil {
		return nil, err
	}
	dgkServer, err := NewDgkServer(paillierProvider, dgkProvider, params.L, params.BlindingCacheCapacity)
	if err != nil {
		return nil, err
	}
	return &Server{
		paillier:         paillierProvider,
		dgkServer:        dgkServer,
		l:                params.L,
		twoPowL:          twoPowL,
		twoPowMinusLModN: twoPowMinusLModN,
		encTwoPowL:       encTwoPowL,
		cache:            cache,
	}, nil
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

// Compare computes [a <= b] for l-bit operands.
func (s *Server) Compare(a, b *crypto.Ciphertext) (*crypto.Ciphertext, error) {
	if s.client == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "no client attached")
	}

	// [z] = [2^l + b - a]; bit l of z is the comparison result
	z, err := s.encTwoPowL.Add(b)
	if err != nil {
		return nil, err
	}
	if z, err = z.Sub(a); err != nil {
		return nil, err
	}

	// additively blind: [d] = [z + r]
	bf := s.cache.pop()
	d, err := z.Add(bf.encR)
	if err != nil {
		return nil, err
	}
	if d, err = s.paillier.Randomize(d); err != nil {
		return nil, err
	}

	// the PSP clears the low bits: [-(d mod 2^l)]
	minusDModTwoPowL, err := s.client.ComputeMinusDModTwoPowL(d)
	if err != nil {
		return nil, err
	}

	// z mod 2^l = ((d mod 2^l) - (r mod 2^l)) mod 2^l; the subtraction is
	// carried out mod n, so an underflow needs a +2^l correction. The
	// indicator lambda in {0, -2^l} comes from the bitwise subprotocol
	// comparing the server's r mod 2^l against the PSP's d mod 2^l.
	coin := common.GetRandomBit()
	lambda, err := s.dgkServer.ComputeLambda(bf.hatRBits, coin)
	if err != nil {
		return nil, err
	}

	// y = ([z] [-(d mod 2^l)] [r mod 2^l] [lambda])^{2^{-l} mod n}
	y, err := z.Add(minusDModTwoPowL)
	if err != nil {
		return nil, err
	}
	if y, err = y.Add(bf.encRModTwoPowL); err != nil {
		return nil, err
	}
	if y, err = y.Add(lambda); err != nil {
		return nil, err
	}
	return y.Mul(s.twoPowMinusLModN)
}
