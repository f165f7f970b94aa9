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

// Ciphertext is an element of an additively homomorphic cryptosystem's
// ciphertext group. It carries a reference to the group modulus; ciphertexts
// of the same scheme sharing a modulus form an abelian group under Add, with
// Neg as the inverse and Mul as multiplication by a plaintext scalar.
//
// A zero-value Ciphertext has no modulus and may not participate in any
// operation.
type Ciphertext struct {
	Data    *big.Int
	Modulus *big.Int
}

// NewCiphertext wraps raw ciphertext data and its group modulus.
func NewCiphertext(data, modulus *big.Int) *Ciphertext {
	return &Ciphertext{Data: data, Modulus: modulus}
}

func (c *Ciphertext) validate() error {
	if c == nil || c.Data == nil || c.Modulus == nil {
		return errors.Wrap(ErrInvariantViolation, "uninitialised ciphertext")
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
		return errors.Wrap(ErrInvariantViolation, "ciphertext moduli differ")
	}
	return nil
}

// Add computes the ciphertext of the sum of the two plaintexts: the modular
// product of the representations.
func (c *Ciphertext) Add(o *Ciphertext) (*Ciphertext, error) {
	if err := c.validatePair(o); err != nil {
		return nil, err
	}
	i := new(big.Int).Mul(c.Data, o.Data)
	return &Ciphertext{Data: i.Mod(i, c.Modulus), Modulus: c.Modulus}, nil
}

// Neg computes the ciphertext of the negated plaintext: the modular inverse
// of the representation.
func (c *Ciphertext) Neg() (*Ciphertext, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	inv := new(big.Int).ModInverse(c.Data, c.Modulus)
	if inv == nil {
		return nil, ErrInverseDoesNotExist
	}
	return &Ciphertext{Data: inv, Modulus: c.Modulus}, nil
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

// Mul computes the ciphertext of the plaintext scaled by k: the modular
// exponentiation of the representation. k must be non-zero; a zero exponent
// would collapse the ciphertext to a trivial encryption of zero.
func (c *Ciphertext) Mul(k *big.Int) (*Ciphertext, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if k == nil || k.Sign() == 0 {
		return nil, errors.Wrap(ErrInvariantViolation, "the plaintext factor must not be 0")
	}
	return &Ciphertext{Data: new(big.Int).Exp(c.Data, k, c.Modulus), Modulus: c.Modulus}, nil
}

// Clone returns a deep copy.
func (c *Ciphertext) Clone() *Ciphertext {
	if c == nil {
		return nil
	}
	out := &Ciphertext{}
	if c.Data != nil {
		out.Data = new(big.Int).Set(c.Data)
	}
	if c.Modulus != nil {
		out.Modulus = c.Modulus
	}
	return out
}
