// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package extremum selects the minimum or maximum of an encrypted vector by
// a recursive tournament: adjacent pairs are resolved through one secure
// comparison and one secure multiplication each, halving the vector per
// round. A vector of length m costs O(m) comparisons and multiplications in
// ceil(log2 m) rounds.
package extremum

import (
	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
	"github.com/bnb-chain/phe-lib/protocols/comparison"
	"github.com/bnb-chain/phe-lib/protocols/multiplication"
)

type Params struct {
	// L is the operand bit length of the comparisons.
	L int
	// Kappa is the statistical security margin of the blindings.
	Kappa int
	// BlindingCacheCapacity sets the precomputed tuple pool sizes.
	BlindingCacheCapacity int
}

// Server is the ciphertext-holding side of the tournament.
type Server struct {
	comparisonServer     *comparison.Server
	multiplicationServer *multiplication.Server
}

func NewServer(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk, params Params) (*Server, error) {
	comparisonServer, err := comparison.NewServer(paillierProvider, dgkProvider, comparison.Params{
		L:                     params.L,
		Kappa:                 params.Kappa,
		BlindingCacheCapacity: params.BlindingCacheCapacity,
	})
	if err != nil {
		return nil, err
	}
	multiplicationServer, err := multiplication.NewServer(paillierProvider, multiplication.Params{
		OperandBits:           params.L,
		Kappa:                 params.Kappa,
		BlindingCacheCapacity: params.BlindingCacheCapacity,
	})
	if err != nil {
		return nil, err
	}
	return &Server{
		comparisonServer:     comparisonServer,
		multiplicationServer: multiplicationServer,
	}, nil
}

// SetClient attaches the PSP side, wiring both subprotocol roles.
func (s *Server) SetClient(client *Client) {
	s.comparisonServer.SetClient(client.ComparisonClient())
	s.multiplicationServer.SetClient(client.MultiplicationClient())
}

// ComparisonServer exposes the comparison role for wiring.
func (s *Server) ComparisonServer() *comparison.Server {
	return s.comparisonServer
}

// MultiplicationServer exposes the multiplication role for wiring.
func (s *Server) MultiplicationServer() *multiplication.Server {
	return s.multiplicationServer
}

// Minimum computes the encrypted minimum of the vector. With
// gamma = [x <= y], each pair folds to
//
//	[min] = [gamma * (x - y) + y]
//
// which is [x] when x <= y and [y] otherwise.
func (s *Server) Minimum(items []*crypto.Ciphertext) (*crypto.Ciphertext, error) {
	return s.tournament(items, func(x, y *crypto.Ciphertext) (*crypto.Ciphertext, error) {
		gamma, err := s.comparisonServer.Compare(x, y)
		if err != nil {
			return nil, err
		}
		diff, err := x.Sub(y)
		if err != nil {
			return nil, err
		}
		selected, err := s.multiplicationServer.Multiply(gamma, diff)
		if err != nil {
			return nil, err
		}
		return selected.Add(y)
	})
}

// Maximum computes the encrypted maximum of the vector: the same fold with
// the comparison operands swapped, gamma = [y <= x], so
//
//	[max] = [gamma * (x - y) + y]
//
// is [x] when x >= y and [y] otherwise.
func (s *Server) Maximum(items []*crypto.Ciphertext) (*crypto.Ciphertext, error) {
	return s.tournament(items, func(x, y *crypto.Ciphertext) (*crypto.Ciphertext, error) {
		gamma, err := s.comparisonServer.Compare(y, x)
		if err != nil {
			return nil, err
		}
		diff, err := x.Sub(y)
		if err != nil {
			return nil, err
		}
		selected, err := s.multiplicationServer.Multiply(gamma, diff)
		if err != nil {
			return nil, err
		}
		return selected.Add(y)
	})
}

// tournament repeatedly folds adjacent pairs until one element remains. Odd
// tails ride along unchanged.
func (s *Server) tournament(items []*crypto.Ciphertext, fold func(x, y *crypto.Ciphertext) (*crypto.Ciphertext, error)) (*crypto.Ciphertext, error) {
	if len(items) == 0 {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "empty input vector")
	}
	round := 0
	for len(items) > 1 {
		next := make([]*crypto.Ciphertext, 0, len(items)/2+len(items)%2)
		for i := 0; i+1 < len(items); i += 2 {
			winner, err := fold(items[i], items[i+1])
			if err != nil {
				return nil, err
			}
			next = append(next, winner)
		}
		if len(items)%2 == 1 {
			next = append(next, items[len(items)-1])
		}
		round++
		common.Logger.Debugf("extremum: round %d reduced %d -> %d", round, len(items), len(next))
		items = next
	}
	return items[0], nil
}
