// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package multiplication implements the two-party secure multiplication of
// two ciphertexts. The Server holds only ciphertexts and the public key; the
// PSP (the Client here) holds the private key. Neither side learns the
// operands:
//
//	Server: alpha = [a - r1], beta = [b - r2], sent to the PSP
//	PSP:    decrypts and returns [ (a - r1)(b - r2) ]
//	Server: [a b] = [(a-r1)(b-r2)] [a]^{r2} [b]^{r1} [-r1 r2]
//
// r1 and r2 are uniform over a range larger than the operands by the
// statistical security margin kappa.
package multiplication

import (
	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/crypto"
)

// DefaultKappa is the statistical security margin, in bits, applied to
// blinding values when a Params leaves Kappa unset.
const DefaultKappa = 112

type Params struct {
	// OperandBits bounds the bit length of the multiplication operands.
	OperandBits int
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

// Server is the ciphertext-holding side of the protocol.
type Server struct {
	provider crypto.Provider
	cache    *blindingFactorCache
	client   *Client
}

func NewServer(provider crypto.Provider, params Params) (*Server, error) {
	params.applyDefaults()
	if params.OperandBits <= 0 {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "OperandBits must be positive")
	}
	cache, err := newBlindingFactorCache(provider, params.OperandBits, params.Kappa, params.BlindingCacheCapacity)
	if err != nil {
		return nil, err
	}
	return &Server{provider: provider, cache: cache}, nil
}

// SetClient attaches the PSP side.
func (s *Server) SetClient(client *Client) {
	s.client = client
}

// Multiply computes [lhs * rhs] interactively.
func (s *Server) Multiply(lhs, rhs *crypto.Ciphertext) (*crypto.Ciphertext, error) {
	if s.client == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "no client attached")
	}
	bf := s.cache.pop()

	alpha, err := lhs.Add(bf.encMinusR1)
	if err != nil {
		return nil, err
	}
	beta, err := rhs.Add(bf.encMinusR2)
	if err != nil {
		return nil, err
	}

	// interact with the PSP
	product, err := s.client.Multiply(alpha, beta)
	if err != nil {
		return nil, err
	}

	// [a b] = [(a-r1)(b-r2)] [a]^{r2} [b]^{r1} [-r1 r2]
	lhsR2, err := lhs.Mul(bf.r2)
	if err != nil {
		return nil, err
	}
	rhsR1, err := rhs.Mul(bf.r1)
	if err != nil {
		return nil, err
	}
	out, err := product.Add(lhsR2)
	if err != nil {
		return nil, err
	}
	if out, err = out.Add(rhsR1); err != nil {
		return nil, err
	}
	return out.Add(bf.encMinusR1R2)
}
