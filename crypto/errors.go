// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package crypto

import (
	"errors"
)

var (
	// ErrInvalidParameter signals a configuration that violates a scheme's
	// documented constraints.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrKeyGenerationFailed signals a structural failure during key
	// generation, such as failing to reach the requested modulus length
	// within the retry budget.
	ErrKeyGenerationFailed = errors.New("key generation failed")

	// ErrSecretKeyRequired signals a decryption-class operation on an
	// instance constructed from a public key only.
	ErrSecretKeyRequired = errors.New("this operation requires the private key")

	// ErrUndecodable signals a lookup-based decryption whose ciphertext maps
	// to no plaintext in the precomputed window.
	ErrUndecodable = errors.New("the ciphertext cannot be decrypted")

	// ErrInverseDoesNotExist signals a modular inversion of a value that is
	// not coprime to the modulus.
	ErrInverseDoesNotExist = errors.New("the modular inverse does not exist")

	// ErrInvariantViolation signals misuse of the API: an uninitialised
	// ciphertext, mismatched moduli, a homomorphic multiplication by zero,
	// or an unpack count that disagrees with the packed data.
	ErrInvariantViolation = errors.New("invariant violation")
)
