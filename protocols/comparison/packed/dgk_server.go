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
	"github.com/bnb-chain/phe-lib/crypto/dgk"
)

// DgkServer runs the server side of the bitwise subprotocol over one bucket.
// Unlike the subprotocol of the parent package, which masks a whole vector
// and has the PSP scan it for a zero, this variant keeps the comparison
// accumulator
//
//	t_{i+1} = (1 - (a_i - b_i)^2) t_i + a_i (1 - b_i)
//
// rolling across the low bits, blinding t with a fresh coin at every step,
// and finishes by XORing additive shares of the bucket's top bit.
type DgkServer struct {
	paillier crypto.Provider
	dgk      *dgk.Dgk
	client   *DgkClient

	// lowBits is the number of low bucket positions fed to the accumulator;
	// the share exchange covers position lowBits, the bucket MSB.
	lowBits int
}

func NewDgkServer(paillierProvider crypto.Provider, dgkProvider *dgk.Dgk, lowBits int) *DgkServer {
	return &DgkServer{paillier: paillierProvider, dgk: dgkProvider, lowBits: lowBits}
}

func (s *DgkServer) SetClient(client *DgkClient) {
	s.client = client
}

// MSBPosition is the bucket bit index resolved through the share exchange.
func (s *DgkServer) MSBPosition() int {
	return s.lowBits
}

// ComputeDi resolves one bucket: given the server's blinding share for the
// bucket, it returns the Paillier-encrypted top bit of the unblinded bucket
// value, which is the comparison outcome for that bucket.
func (s *DgkServer) ComputeDi(share *big.Int) (*crypto.Ciphertext, error) {
	if s.client == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "no client attached")
	}

	coin := common.GetRandomBit()

	tau, err := s.computeTau(share, coin)
	if err != nil {
		return nil, err
	}
	if tau, err = s.dgk.Randomize(tau); err != nil {
		return nil, err
	}

	// the PSP folds its z-side share of the top bit into the carry
	diPSP, err := s.client.ComputeDiPSP(tau)
	if err != nil {
		return nil, err
	}

	// fold in the r-side share of the top bit
	diSP := coin ^ share.Bit(s.MSBPosition())
	if diSP == 0 {
		return diPSP, nil
	}
	encOne, err := s.paillier.EncryptedOne(false)
	if err != nil {
		return nil, err
	}
	return encOne.Sub(diPSP)
}

// computeTau evaluates the carry accumulator over the low bits of the
// server's share a against the PSP's bucket value b, blinded by tSP.
func (s *DgkServer) computeTau(a *big.Int, tSP uint) (*crypto.Ciphertext, error) {
	b0, err := s.client.GetBi(0)
	if err != nil {
		return nil, err
	}
	encOne, err := s.dgk.EncryptedOne(false)
	if err != nil {
		return nil, err
	}

	var t *crypto.Ciphertext
	if a.Bit(0) == 0 {
		if t, err = s.dgk.EncryptedZero(false); err != nil {
			return nil, err
		}
	} else if t, err = encOne.Sub(b0); err != nil {
		return nil, err
	}

	for i := 1; i < s.lowBits; i++ {
		// blind t by tossing a fair coin before it crosses to the PSP
		coin := common.GetRandomBit()

		tau := t
		if coin == 1 {
			if tau, err = encOne.Sub(t); err != nil {
				return nil, err
			}
		}
		if tau, err = s.dgk.Randomize(tau); err != nil {
			return nil, err
		}

		tb, err := s.client.GetTb(tau, i)
		if err != nil {
			return nil, err
		}
		bi, err := s.client.GetBi(i)
		if err != nil {
			return nil, err
		}
		if coin == 1 {
			if tb, err = bi.Sub(tb); err != nil {
				return nil, err
			}
		}

		if a.Bit(i) == 0 {
			if t, err = t.Sub(tb); err != nil {
				return nil, err
			}
		} else {
			oneMinusBi, err := encOne.Sub(bi)
			if err != nil {
				return nil, err
			}
			if t, err = tb.Add(oneMinusBi); err != nil {
				return nil, err
			}
		}
	}

	if tSP == 0 {
		return t, nil
	}
	return encOne.Sub(t)
}
