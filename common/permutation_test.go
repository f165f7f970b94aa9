// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package common_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bnb-chain/phe-lib/common"
)

func TestPermutationRoundTrip(t *testing.T) {
	const n = 64
	original := make([]int, n)
	for i := range original {
		original[i] = i
	}

	p := common.NewPermutation(n)
	shuffled := append([]int(nil), original...)
	err := p.Permute(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	assert.NoError(t, err)

	err = p.Invert(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	assert.NoError(t, err)
	assert.Equal(t, original, shuffled)
}

func TestPermutationShuffles(t *testing.T) {
	const n = 64
	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	p := common.NewPermutation(n)
	err := p.Permute(n, func(i, j int) { values[i], values[j] = values[j], values[i] })
	assert.NoError(t, err)

	moved := 0
	for i, v := range values {
		if i != v {
			moved++
		}
	}
	assert.True(t, moved > 0, "a 64-element shuffle leaving everything in place is all but impossible")
}

func TestPermutationReusableAcrossSequences(t *testing.T) {
	const n = 16
	a := make([]int, n)
	b := make([]int, n)
	for i := range a {
		a[i], b[i] = i, i
	}
	p := common.NewPermutation(n)
	assert.NoError(t, p.Permute(n, func(i, j int) { a[i], a[j] = a[j], a[i] }))
	assert.NoError(t, p.Permute(n, func(i, j int) { b[i], b[j] = b[j], b[i] }))
	assert.Equal(t, a, b)
}

func TestPermutationLengthMismatch(t *testing.T) {
	p := common.NewPermutation(8)
	err := p.Permute(9, func(i, j int) {})
	assert.Equal(t, common.ErrPermutationLength, err)
	err = p.Invert(7, func(i, j int) {})
	assert.Equal(t, common.ErrPermutationLength, err)
	assert.Equal(t, 8, p.Length())
}
