// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package common

import (
	"math/big"

	"github.com/pkg/errors"
)

// ErrPermutationLength is returned when a permutation is applied to a
// sequence whose length differs from the one it was built for.
var ErrPermutationLength = errors.New("the sequence does not have the expected length")

// Permutation is a Fisher-Yates shuffle with its swap list retained, so that
// the shuffle can be undone later. The swap list is the permutation's state;
// a Permutation drawn once can be applied to any number of equal-length
// sequences.
type Permutation struct {
	length int
	swaps  [][2]int
}

// NewPermutation draws a uniform permutation of `length` elements.
func NewPermutation(length int) *Permutation {
	p := &Permutation{length: length}
	for i := length - 1; i > 0; i-- {
		j := int(GetRandomPositiveInt(big.NewInt(int64(i + 1))).Int64())
		p.swaps = append(p.swaps, [2]int{i, j})
	}
	return p
}

func (p *Permutation) Length() int {
	return p.length
}

// Permute shuffles a sequence of `length` elements through the swap callback.
func (p *Permutation) Permute(length int, swap func(i, j int)) error {
	if length != p.length {
		return ErrPermutationLength
	}
	for _, s := range p.swaps {
		swap(s[0], s[1])
	}
	return nil
}

// Invert undoes Permute by applying the recorded swaps in reverse order.
func (p *Permutation) Invert(length int, swap func(i, j int)) error {
	if length != p.length {
		return ErrPermutationLength
	}
	for i := len(p.swaps) - 1; i >= 0; i-- {
		swap(p.swaps[i][0], p.swaps[i][1])
	}
	return nil
}
