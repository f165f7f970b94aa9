// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package common

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"sync"
	"sync/atomic"
)

// sievePrimes is a list of small, prime numbers that allows us to rapidly
// exclude some fraction of composite candidates when searching for a random
// prime. This list is truncated at the point where sievePrimesProduct exceeds
// a uint64. It does not include two because we ensure that the candidates are
// odd by construction.
var sievePrimes = []uint8{
	3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53,
}

// sievePrimesProduct is the product of the values in sievePrimes and allows us
// to reduce a candidate prime by this number and then determine whether it's
// coprime to all the elements of sievePrimes without further big.Int
// operations.
var sievePrimesProduct = new(big.Int).SetUint64(16294579238595022365)

// ErrGeneratorCancelled is returned from GetRandomPrimesConcurrent when the
// work of the generator has been cancelled as a result of the context being
// done (cancellation or timeout).
var ErrGeneratorCancelled = fmt.Errorf("generator work cancelled")

// GetRandomPrimesConcurrent finds `numPrimes` probable primes of exactly
// `bitLen` bits, searching on `concurrency` goroutines and accepting results
// as they arrive. How fast a prime is found is mostly a matter of luck with
// the first drawn bytes, so running several searches concurrently and taking
// the first results shortens the expected wall time considerably for key
// sizes of 1024 bits and up.
//
// Every returned prime has its top bit set, so products of two results never
// come up one bit short.
func GetRandomPrimesConcurrent(ctx context.Context, bitLen, numPrimes, concurrency, primalityRounds int) ([]*big.Int, error) {
	if bitLen < 6 {
		return nil, fmt.Errorf("prime size must be at least 6 bits")
	}
	if numPrimes < 1 {
		return nil, fmt.Errorf("numPrimes should be > 0")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if primalityRounds <= 0 {
		primalityRounds = DefaultPrimalityRounds
	}

	primeCh := make(chan *big.Int, concurrency*numPrimes)
	errCh := make(chan error, concurrency*numPrimes)
	found := make([]*big.Int, 0, numPrimes)

	waitGroup := &sync.WaitGroup{}

	defer close(primeCh)
	defer close(errCh)
	defer waitGroup.Wait()

	generatorCtx, cancelGeneratorCtx := context.WithCancel(ctx)
	defer cancelGeneratorCtx()

	for i := 0; i < concurrency; i++ {
		waitGroup.Add(1)
		runGenPrimeRoutine(generatorCtx, primeCh, errCh, waitGroup, randomSource(), bitLen, primalityRounds)
	}

	needed := int32(numPrimes)
	for {
		select {
		case result := <-primeCh:
			found = append(found, result)
			if atomic.AddInt32(&needed, -1) <= 0 {
				return found[:numPrimes], nil
			}
		case err := <-errCh:
			return nil, err
		case <-ctx.Done():
			return nil, ErrGeneratorCancelled
		}
	}
}

// Starts a goroutine searching for a probable prime of exactly `bitLen` bits.
//
// The algorithm is as follows:
//  1. Generate a random odd number `p` of length `bitLen` with the two most
//     significant bits set to `1`.
//  2. Reduce `p` mod the product of sievePrimes and scan forward in steps of
//     two until the residue is coprime to every sieve prime. This eliminates
//     trivially composite candidates without any big.Int division.
//  3. Run the Miller-Rabin and Baillie-PSW tests on the survivor. If they
//     pass and the candidate still has the requested bit length (the sieve
//     scan can overshoot), report it. Otherwise go back to 1.
func runGenPrimeRoutine(
	ctx context.Context,
	primeCh chan<- *big.Int,
	errCh chan<- error,
	waitGroup *sync.WaitGroup,
	rand io.Reader,
	bitLen int,
	primalityRounds int,
) {
	b := uint(bitLen % 8)
	if b == 0 {
		b = 8
	}

	bytes := make([]byte, (bitLen+7)/8)
	p := new(big.Int)

	bigMod := new(big.Int)

	go func() {
		defer waitGroup.Done()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, err := io.ReadFull(rand, bytes)
				if err != nil {
					errCh <- err
					return
				}

				// Clear bits in the first byte to make sure the candidate has
				// a size <= bits.
				bytes[0] &= uint8(int(1<<b) - 1)
				// Don't let the value be too small: set the most significant
				// two bits, so that products of two primes are never one bit
				// short.
				if b >= 2 {
					bytes[0] |= 3 << (b - 2)
				} else {
					// Here b==1, because b cannot be zero.
					bytes[0] |= 1
					if len(bytes) > 1 {
						bytes[1] |= 0x80
					}
				}
				// Make the value odd since an even number this large certainly
				// isn't prime.
				bytes[len(bytes)-1] |= 1

				p.SetBytes(bytes)

				// Calculate the value mod the product of sievePrimes. If it's
				// a multiple of any of these primes we add two until it isn't.
				// The probability of overflowing is minimal and can be ignored
				// because we still perform Miller-Rabin tests on the result.
				bigMod.Mod(p, sievePrimesProduct)
				mod := bigMod.Uint64()

			NextDelta:
				for delta := uint64(0); delta < 1<<20; delta += 2 {
					m := mod + delta
					for _, prime := range sievePrimes {
						if m%uint64(prime) == 0 && (bitLen > 6 || m != uint64(prime)) {
							continue NextDelta
						}
					}

					if delta > 0 {
						bigMod.SetUint64(delta)
						p.Add(p, bigMod)
					}

					break
				}

				// There is a tiny possibility that, by adding delta, we caused
				// the number to be one bit too long. Thus we check BitLen here.
				if p.BitLen() == bitLen && p.ProbablyPrime(primalityRounds) {
					select {
					case primeCh <- p:
					case <-ctx.Done():
						return
					}
					p = new(big.Int)
				}
			}
		}
	}()
}
