// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package crypto_test

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/bnb-chain/phe-lib/crypto"
)

func TestCiphertextGroupOps(t *testing.T) {
	mod := big.NewInt(35)
	a := crypto.NewCiphertext(big.NewInt(4), mod)
	b := crypto.NewCiphertext(big.NewInt(9), mod)

	sum, err := a.Add(b)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), sum.Data.Int64())

	scaled, err := a.Mul(big.NewInt(3))
	assert.NoError(t, err)
	assert.Equal(t, int64(29), scaled.Data.Int64()) // 4^3 mod 35

	neg, err := a.Neg()
	assert.NoError(t, err)
	product := new(big.Int).Mul(neg.Data, a.Data)
	assert.Equal(t, int64(1), product.Mod(product, mod).Int64())

	diff, err := a.Sub(a)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), diff.Data.Int64(), "subtracting a ciphertext from itself leaves the group identity")
}

func TestCiphertextEmptyFails(t *testing.T) {
	var empty crypto.Ciphertext
	b := crypto.NewCiphertext(big.NewInt(9), big.NewInt(35))

	_, err := empty.Add(b)
	assert.Equal(t, crypto.ErrInvariantViolation, errors.Cause(err))
	_, err = empty.Neg()
	assert.Equal(t, crypto.ErrInvariantViolation, errors.Cause(err))
	_, err = empty.Mul(big.NewInt(2))
	assert.Equal(t, crypto.ErrInvariantViolation, errors.Cause(err))
}

func TestCiphertextModulusMismatch(t *testing.T) {
	a := crypto.NewCiphertext(big.NewInt(4), big.NewInt(35))
	b := crypto.NewCiphertext(big.NewInt(9), big.NewInt(33))

	_, err := a.Add(b)
	assert.Equal(t, crypto.ErrInvariantViolation, errors.Cause(err))
	_, err = a.Sub(b)
	assert.Equal(t, crypto.ErrInvariantViolation, errors.Cause(err))
}

func TestCiphertextMulByZeroFails(t *testing.T) {
	a := crypto.NewCiphertext(big.NewInt(4), big.NewInt(35))
	_, err := a.Mul(big.NewInt(0))
	assert.Equal(t, crypto.ErrInvariantViolation, errors.Cause(err))
}

func TestCiphertextNegNotInvertible(t *testing.T) {
	a := crypto.NewCiphertext(big.NewInt(5), big.NewInt(35))
	_, err := a.Neg()
	assert.Equal(t, crypto.ErrInverseDoesNotExist, errors.Cause(err))
}

func TestCiphertextClone(t *testing.T) {
	a := crypto.NewCiphertext(big.NewInt(4), big.NewInt(35))
	b := a.Clone()
	b.Data.SetInt64(7)
	assert.Equal(t, int64(4), a.Data.Int64())
}
