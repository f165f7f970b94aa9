// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package crypto

import (
	"math/big"
)

// Provider is the contract shared by the cryptosystems whose ciphertexts are
// single group elements (Paillier, DGK, Okamoto-Uchiyama). ElGamal ciphertexts
// are pairs and live in their own package with the same method set over a
// pair type.
//
// Negative plaintexts are represented as M - |m| where M is the message-space
// upper bound; Decrypt maps values above PositiveNegativeBoundary back to
// their signed form.
type Provider interface {
	// Encrypt produces a randomized encryption of m.
	Encrypt(m *big.Int) (*Ciphertext, error)

	// EncryptNonrandom produces a deterministic encryption of m. The result
	// must be passed through Randomize before leaving the trust boundary.
	EncryptNonrandom(m *big.Int) (*Ciphertext, error)

	// Decrypt recovers the signed plaintext. Requires the private key.
	Decrypt(c *Ciphertext) (*big.Int, error)

	// Randomize re-randomizes a ciphertext, preserving the plaintext.
	Randomize(c *Ciphertext) (*Ciphertext, error)

	// EncryptedZero and EncryptedOne return the precomputed encryptions of 0
	// and 1, re-randomized when `randomize` is set.
	EncryptedZero(randomize bool) (*Ciphertext, error)
	EncryptedOne(randomize bool) (*Ciphertext, error)

	// MessageSpaceUpperBound is M: plaintexts live in [0, M).
	MessageSpaceUpperBound() *big.Int

	// PositiveNegativeBoundary is the last plaintext decoded as positive.
	PositiveNegativeBoundary() *big.Int

	// MessageSpaceBits is the bit size of the message space.
	MessageSpaceBits() int

	// EncryptionModulus is the modulus of the ciphertext group.
	EncryptionModulus() *big.Int
}
