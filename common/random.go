// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package common

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	mustGetRandomIntMaxBits = 5000
)

var (
	sourceMtx sync.Mutex
	// seeded once from the platform CSPRNG; never time-based
	source io.Reader = rand.Reader
)

// SetRandomSource replaces the process-wide entropy source. Intended for
// tests that need reproducible ciphertexts; see NewDeterministicRandomSource.
func SetRandomSource(r io.Reader) {
	sourceMtx.Lock()
	defer sourceMtx.Unlock()
	source = r
}

// ResetRandomSource restores the platform CSPRNG as the entropy source.
func ResetRandomSource() {
	SetRandomSource(rand.Reader)
}

func randomSource() io.Reader {
	sourceMtx.Lock()
	defer sourceMtx.Unlock()
	return source
}

// NewDeterministicRandomSource returns an unbounded pseudo-random stream
// expanded from `seed` with the BLAKE2Xb XOF.
func NewDeterministicRandomSource(seed []byte) (io.Reader, error) {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct the BLAKE2Xb XOF")
	}
	if _, err = xof.Write(seed); err != nil {
		return nil, errors.Wrap(err, "failed to absorb the seed")
	}
	return xof, nil
}

// MustGetRandomInt returns a uniform integer in [0, 2^bits). It panics if it
// is unable to gather entropy or when `bits` is out of range.
func MustGetRandomInt(bits int) *big.Int {
	if bits <= 0 || mustGetRandomIntMaxBits < bits {
		panic(fmt.Errorf("MustGetRandomInt: bits should be positive, non-zero and at most %d", mustGetRandomIntMaxBits))
	}
	// Exclusive upper bound e.g. 2^256, so the largest value is 2^256 - 1
	max := new(big.Int)
	max = max.Exp(two, big.NewInt(int64(bits)), nil)

	n, err := rand.Int(randomSource(), max)
	if err != nil {
		panic(errors.Wrap(err, "rand.Int failure in MustGetRandomInt!"))
	}
	return n
}

// GetRandomPositiveInt returns a uniform integer in [0, lessThan).
func GetRandomPositiveInt(lessThan *big.Int) *big.Int {
	if lessThan == nil || zero.Cmp(lessThan) != -1 {
		return nil
	}
	var try *big.Int
	for {
		try = MustGetRandomInt(lessThan.BitLen())
		if try.Cmp(lessThan) < 0 && try.Cmp(zero) >= 0 {
			break
		}
	}
	return try
}

// GetRandomBit returns a fair coin toss.
func GetRandomBit() uint {
	return uint(MustGetRandomInt(8).Bit(0))
}

// GetRandomPrimeInt returns a probable prime with exactly `bits` bits: it
// samples bits-1 random bits, forces the top bit and retries until the
// primality test passes.
func GetRandomPrimeInt(bits, primalityRounds int) *big.Int {
	if bits <= 1 {
		return nil
	}
	var try *big.Int
	for {
		try = MustGetRandomInt(bits - 1)
		try.SetBit(try, bits-1, 1)
		if IsProbablePrime(try, primalityRounds) {
			break
		}
	}
	return try
}

// Generate a random element in the group of all the elements in Z/nZ that
// has a multiplicative inverse.
func GetRandomPositiveRelativelyPrimeInt(n *big.Int) *big.Int {
	if n == nil || zero.Cmp(n) != -1 {
		return nil
	}
	var try *big.Int
	for {
		try = MustGetRandomInt(n.BitLen())
		if IsNumberInMultiplicativeGroup(n, try) {
			break
		}
	}
	return try
}

func IsNumberInMultiplicativeGroup(n, v *big.Int) bool {
	if n == nil || v == nil || zero.Cmp(n) != -1 {
		return false
	}
	gcd := big.NewInt(0)
	return v.Cmp(n) < 0 && v.Cmp(one) >= 0 &&
		gcd.GCD(nil, nil, v, n).Cmp(one) == 0
}
