// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package common_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bnb-chain/phe-lib/common"
)

const (
	randomIntBitLen = 1024
)

func TestMustGetRandomInt(t *testing.T) {
	max := new(big.Int).Lsh(big.NewInt(1), randomIntBitLen)
	for i := 0; i < 10; i++ {
		r := common.MustGetRandomInt(randomIntBitLen)
		assert.True(t, r.Sign() >= 0 && r.Cmp(max) < 0)
	}
	assert.Panics(t, func() { common.MustGetRandomInt(0) })
}

func TestGetRandomPositiveInt(t *testing.T) {
	lessThan := common.MustGetRandomInt(randomIntBitLen)
	for i := 0; i < 10; i++ {
		r := common.GetRandomPositiveInt(lessThan)
		assert.True(t, common.IsInInterval(r, lessThan))
	}
	assert.Nil(t, common.GetRandomPositiveInt(big.NewInt(0)))
}

func TestGetRandomPrimeInt(t *testing.T) {
	for _, bits := range []int{16, 64, 256} {
		p := common.GetRandomPrimeInt(bits, common.DefaultPrimalityRounds)
		assert.Equal(t, bits, p.BitLen(), "the prime must have exactly the requested bit length")
		assert.True(t, p.ProbablyPrime(30))
	}
}

func TestGetRandomPositiveRelativelyPrimeInt(t *testing.T) {
	n := common.MustGetRandomInt(randomIntBitLen)
	for i := 0; i < 10; i++ {
		r := common.GetRandomPositiveRelativelyPrimeInt(n)
		assert.True(t, common.IsNumberInMultiplicativeGroup(n, r))
	}
}

func TestGetRandomBit(t *testing.T) {
	seen := map[uint]bool{}
	for i := 0; i < 256; i++ {
		b := common.GetRandomBit()
		assert.True(t, b == 0 || b == 1)
		seen[b] = true
	}
	assert.Len(t, seen, 2, "a fair coin should show both faces in 256 tosses")
}

func TestDeterministicRandomSource(t *testing.T) {
	seed := []byte("fixed seed for reproducible ciphertexts")

	src, err := common.NewDeterministicRandomSource(seed)
	assert.NoError(t, err)
	common.SetRandomSource(src)
	first := make([]*big.Int, 8)
	for i := range first {
		first[i] = common.MustGetRandomInt(128)
	}

	src, err = common.NewDeterministicRandomSource(seed)
	assert.NoError(t, err)
	common.SetRandomSource(src)
	for i := range first {
		assert.Zero(t, first[i].Cmp(common.MustGetRandomInt(128)))
	}

	common.ResetRandomSource()
	collision := true
	for i := range first {
		collision = collision && first[i].Cmp(common.MustGetRandomInt(128)) == 0
	}
	assert.False(t, collision)
}
