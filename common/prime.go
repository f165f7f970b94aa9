// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package common

import (
	"math/big"

	"github.com/otiai10/primes"
)

const (
	// DefaultPrimalityRounds is the Miller-Rabin witness count used when a
	// configuration does not specify one. The false-positive probability is
	// at most 4^-k for k rounds.
	DefaultPrimalityRounds = 10

	trialDivisionBound = 1000
)

var smallPrimes []int64

func init() {
	// init primes cache
	_ = primes.Globally.Until(trialDivisionBound)
	smallPrimes = primes.Until(trialDivisionBound).List()
}

// IsProbablePrime reports whether x is a probable prime, using trial division
// by the primes below 1000 followed by `rounds` Miller-Rabin iterations.
func IsProbablePrime(x *big.Int, rounds int) bool {
	if x == nil || x.Sign() <= 0 {
		return false
	}
	if rounds <= 0 {
		rounds = DefaultPrimalityRounds
	}
	mod := new(big.Int)
	for _, p := range smallPrimes {
		bigP := big.NewInt(p)
		if x.Cmp(bigP) == 0 {
			return true
		}
		if mod.Mod(x, bigP).Sign() == 0 {
			return false
		}
	}
	return x.ProbablyPrime(rounds)
}

// NextPrime returns the smallest probable prime strictly greater than x.
func NextPrime(x *big.Int, rounds int) *big.Int {
	candidate := new(big.Int).Add(x, one)
	if candidate.Cmp(two) <= 0 {
		return big.NewInt(2)
	}
	if candidate.Bit(0) == 0 {
		candidate.Add(candidate, one)
	}
	for !IsProbablePrime(candidate, rounds) {
		candidate.Add(candidate, two)
	}
	return candidate
}
