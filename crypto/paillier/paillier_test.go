// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package paillier_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/phe-lib/crypto"
	. "github.com/bnb-chain/phe-lib/crypto/paillier"
)

const (
	testKeyLength = 1024
	testCacheCap  = 4
)

var testConfig = Config{KeyLength: testKeyLength, RandomizerCacheCapacity: testCacheCap}

func testInstances(t *testing.T) (keyed, publicOnly *Paillier) {
	privateKey, publicKey, err := GenerateKeyPair(context.Background(), testKeyLength)
	require.NoError(t, err)

	keyed, err = NewFromKeyPair(privateKey, testConfig)
	require.NoError(t, err)
	publicOnly, err = NewFromPublicKey(publicKey, testConfig)
	require.NoError(t, err)
	return keyed, publicOnly
}

func TestGenerateKeyPair(t *testing.T) {
	privateKey, publicKey, err := GenerateKeyPair(context.Background(), testKeyLength)
	assert.NoError(t, err)
	assert.NotZero(t, publicKey)
	assert.NotZero(t, privateKey)
	assert.Equal(t, testKeyLength, publicKey.N.BitLen())
	assert.Zero(t, new(big.Int).Mul(privateKey.P, privateKey.Q).Cmp(publicKey.N))
}

func TestEncryptDecrypt(t *testing.T) {
	keyed, _ := testInstances(t)

	for _, m := range []int64{0, 1, -1, 100, -100, 1 << 30, -(1 << 30)} {
		cipher, err := keyed.Encrypt(big.NewInt(m))
		assert.NoError(t, err)
		plain, err := keyed.Decrypt(cipher)
		assert.NoError(t, err)
		assert.Equal(t, m, plain.Int64(), "wrong decryption of", m)
	}
}

func TestBoundary(t *testing.T) {
	keyed, _ := testInstances(t)
	boundary := keyed.PositiveNegativeBoundary()

	cipher, err := keyed.Encrypt(boundary)
	assert.NoError(t, err)
	plain, err := keyed.Decrypt(cipher)
	assert.NoError(t, err)
	assert.Zero(t, plain.Cmp(boundary))

	cipher, err = keyed.Encrypt(new(big.Int).Add(boundary, big.NewInt(1)))
	assert.NoError(t, err)
	plain, err = keyed.Decrypt(cipher)
	assert.NoError(t, err)
	assert.Zero(t, plain.Cmp(new(big.Int).Neg(boundary)))
}

func TestHomomorphicAdd(t *testing.T) {
	keyed, publicOnly := testInstances(t)

	// Enc(3) + Enc(-2) = Enc(1)
	three, err := publicOnly.Encrypt(big.NewInt(3))
	assert.NoError(t, err)
	minusTwo, err := publicOnly.Encrypt(big.NewInt(-2))
	assert.NoError(t, err)
	sum, err := three.Add(minusTwo)
	assert.NoError(t, err)
	plain, err := keyed.Decrypt(sum)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), plain.Int64())
}

func TestHomomorphicNegSub(t *testing.T) {
	keyed, publicOnly := testInstances(t)

	a, _ := publicOnly.Encrypt(big.NewInt(42))
	b, _ := publicOnly.Encrypt(big.NewInt(15))

	neg, err := a.Neg()
	assert.NoError(t, err)
	plain, err := keyed.Decrypt(neg)
	assert.NoError(t, err)
	assert.Equal(t, int64(-42), plain.Int64())

	diff, err := a.Sub(b)
	assert.NoError(t, err)
	plain, err = keyed.Decrypt(diff)
	assert.NoError(t, err)
	assert.Equal(t, int64(27), plain.Int64())
}

func TestHomomorphicMulPlain(t *testing.T) {
	keyed, publicOnly := testInstances(t)

	a, _ := publicOnly.Encrypt(big.NewInt(7))
	scaled, err := a.Mul(big.NewInt(-6))
	assert.NoError(t, err)
	plain, err := keyed.Decrypt(scaled)
	assert.NoError(t, err)
	assert.Equal(t, int64(-42), plain.Int64())

	_, err = a.Mul(big.NewInt(0))
	assert.Equal(t, crypto.ErrInvariantViolation, errors.Cause(err))
}

func TestRandomizePreservesPlaintext(t *testing.T) {
	keyed, _ := testInstances(t)

	cipher, err := keyed.Encrypt(big.NewInt(1234))
	assert.NoError(t, err)
	randomized, err := keyed.Randomize(cipher)
	assert.NoError(t, err)
	assert.NotZero(t, cipher.Data.Cmp(randomized.Data), "re-randomization must change the representation")
	plain, err := keyed.Decrypt(randomized)
	assert.NoError(t, err)
	assert.Equal(t, int64(1234), plain.Int64())
}

func TestEncryptNonrandomDeterministic(t *testing.T) {
	_, publicOnly := testInstances(t)

	a, err := publicOnly.EncryptNonrandom(big.NewInt(99))
	assert.NoError(t, err)
	b, err := publicOnly.EncryptNonrandom(big.NewInt(99))
	assert.NoError(t, err)
	assert.Zero(t, a.Data.Cmp(b.Data))
}

func TestEncryptedZeroOne(t *testing.T) {
	keyed, _ := testInstances(t)

	zero, err := keyed.EncryptedZero(true)
	assert.NoError(t, err)
	plain, err := keyed.Decrypt(zero)
	assert.NoError(t, err)
	assert.Zero(t, plain.Sign())

	one, err := keyed.EncryptedOne(true)
	assert.NoError(t, err)
	plain, err = keyed.Decrypt(one)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), plain.Int64())
}

func TestDecryptRequiresSecretKey(t *testing.T) {
	keyed, publicOnly := testInstances(t)

	cipher, err := keyed.Encrypt(big.NewInt(5))
	assert.NoError(t, err)
	_, err = publicOnly.Decrypt(cipher)
	assert.Equal(t, crypto.ErrSecretKeyRequired, errors.Cause(err))
}

func TestEncryptMessageTooLong(t *testing.T) {
	keyed, _ := testInstances(t)
	_, err := keyed.Encrypt(keyed.MessageSpaceUpperBound())
	assert.Equal(t, ErrMessageTooLong, err)
}

func TestMetadata(t *testing.T) {
	keyed, publicOnly := testInstances(t)

	assert.Equal(t, testKeyLength, keyed.MessageSpaceBits())
	nSquared := new(big.Int).Mul(keyed.MessageSpaceUpperBound(), keyed.MessageSpaceUpperBound())
	assert.Zero(t, keyed.EncryptionModulus().Cmp(nSquared))
	assert.Zero(t, publicOnly.MessageSpaceUpperBound().Cmp(keyed.MessageSpaceUpperBound()))
}
