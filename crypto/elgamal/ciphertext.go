// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package elgamal

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/crypto"
)

// Ciphertext is an exponential ElGamal ciphertext, the pair
// (x, y) = (gq^r, h^r gq^m) mod p. The homomorphic operators act
// componentwise.
type Ciphertext struct {
	X, Y    *big.Int
	Modulus *big.Int
}

func NewCiphertext(x, y, modulus *big.Int) *Ciphertext {
	return &Ciphertext{X: x, Y: y, Modulus: modulus}
}

func (c *Ciphertext) validate() error {
	if c == nil || c.X == nil || c.Y == nil || c.Modulus == nil {
		return errors.Wrap(crypto.ErrInvariantViolation, "uninitialised ciphertext")
	}
	return nil
}

func (c *Ciphertext) validatePair(o *Ciphertext) error {
	if err := c.validate(); err != nil {
		return err
	}
	if err := o.validate(); err != nil {
		return err
	}
	if c.Modulus.Cmp(o.Modulus) != 0 {
		return errors.Wrap(crypto.ErrInvariantViolation, "ciphertext moduli differ")
	}
	return nil
}

// Add computes the ciphertext of the sum of the two plaintexts.
func (c *Ciphertext) Add(o *Ciphertext) (*Ciphertext, error) {
	if err := c.validatePair(o); err != nil {
		return nil, err
	}
	x := new(big.Int).Mul(c.X, o.X)
	y := new(big.Int).Mul(c.Y, o.Y)
	return &Ciphertext{X: x.Mod(x, c.Modulus), Y: y.Mod(y, c.Modulus), Modulus: c.Modulus}, nil
}

// Neg computes the ciphertext of the negated plaintext.
func (c *Ciphertext) Neg() (*Ciphertext, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	x := new(big.Int).ModInverse(c.X, c.Modulus)
	y := new(big.Int).ModInverse(c.Y, c.Modulus)
	if x == nil || y == nil {
		return nil, crypto.ErrInverseDoesNotExist
	}
	return &Ciphertext{X: x, Y: y, Modulus: c.Modulus}, nil
}

// Sub computes the ciphertext of the difference of the two plaintexts.
func (c *Ciphertext) Sub(o *Ciphertext) (*Ciphertext, error) {
	if err := c.validatePair(o); err != nil {
		return nil, err
	}
	negO, err := o.Neg()
	if err != nil {
		return nil, err
	}
	return c.Add(negO)
}

// Mul computes the ciphertext of the plaintext scaled by k != 0.
func (c *Ciphertext) Mul(k *big.Int) (*Ciphertext, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if k == nil || k.Sign() == 0 {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "the plaintext factor must not be 0")
	}
	return &Ciphertext{
		X:       new(big.Int).Exp(c.X, k, c.Modulus),
		Y:       new(big.Int).Exp(c.Y, k, c.Modulus),
		Modulus: c.Modulus,
	}, nil
}

// Clone returns a deep copy.
func (c *Ciphertext) Clone() *Ciphertext {
	if c == nil {
		return nil
	}
	out := &Ciphertext{Modulus: c.Modulus}
	if c.X != nil {
		out.X = new(big.Int).Set(c.X)
	}
	if c.Y != nil {
		out.Y = new(big.Int).Set(c.Y)
	}
	return out
}
