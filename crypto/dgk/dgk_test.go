// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package dgk_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/phe-lib/crypto"
	. "github.com/bnb-chain/phe-lib/crypto/dgk"
)

// Small parameters keep the generator searches and the decryption map cheap;
// the constraints 8 <= l <= 32, t > l and keyLength/2 >= l+t+10 still hold.
var testConfig = Config{
	KeyLength:               128,
	T:                       20,
	L:                       16,
	PrecomputeDecryptionMap: true,
	RandomizerCacheCapacity: 4,
}

func testInstances(t *testing.T) (keyed, publicOnly *Dgk) {
	privateKey, publicKey, err := GenerateKeyPair(context.Background(), testConfig)
	require.NoError(t, err)

	keyed, err = NewFromKeyPair(privateKey, testConfig)
	require.NoError(t, err)

	publicCfg := testConfig
	publicCfg.PrecomputeDecryptionMap = false
	publicOnly, err = NewFromPublicKey(publicKey, publicCfg)
	require.NoError(t, err)
	return keyed, publicOnly
}

func TestConfigValidate(t *testing.T) {
	bad := Config{KeyLength: 51, T: 8, L: 40}
	err := bad.Validate()
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	// l out of range, t <= l, odd keyLength, keyLength/2 < l+t+10
	assert.Len(t, merr.Errors, 4)
	for _, e := range merr.Errors {
		assert.Equal(t, crypto.ErrInvalidParameter, errors.Cause(e))
	}

	assert.NoError(t, testConfig.Validate())
}

func TestGenerateKeyPairStructure(t *testing.T) {
	privateKey, publicKey, err := GenerateKeyPair(context.Background(), testConfig)
	require.NoError(t, err)

	assert.Zero(t, new(big.Int).Mul(privateKey.P, privateKey.Q).Cmp(publicKey.N))
	assert.True(t, publicKey.U.BitLen() > testConfig.L+2)
	assert.True(t, publicKey.U.ProbablyPrime(30))
	assert.True(t, privateKey.Vp.ProbablyPrime(30))
	assert.True(t, privateKey.Vq.ProbablyPrime(30))
	assert.NotZero(t, privateKey.Vp.Cmp(privateKey.Vq))

	// vp*u divides p-1, vq*u divides q-1
	pMinusOne := new(big.Int).Sub(privateKey.P, big.NewInt(1))
	rem := new(big.Int).Mod(pMinusOne, new(big.Int).Mul(privateKey.Vp, publicKey.U))
	assert.Zero(t, rem.Sign())
	qMinusOne := new(big.Int).Sub(privateKey.Q, big.NewInt(1))
	rem = new(big.Int).Mod(qMinusOne, new(big.Int).Mul(privateKey.Vq, publicKey.U))
	assert.Zero(t, rem.Sign())

	// h has order vp*vq: h^{vp*vq} = 1 mod n and h != 1
	vpvq := new(big.Int).Mul(privateKey.Vp, privateKey.Vq)
	assert.Zero(t, new(big.Int).Exp(publicKey.H, vpvq, publicKey.N).Cmp(big.NewInt(1)))
	assert.NotZero(t, publicKey.H.Cmp(big.NewInt(1)))

	// g has order u*vp*vq
	assert.Zero(t, new(big.Int).Exp(publicKey.G, new(big.Int).Mul(vpvq, publicKey.U), publicKey.N).Cmp(big.NewInt(1)))
	assert.NotZero(t, new(big.Int).Exp(publicKey.G, vpvq, publicKey.N).Cmp(big.NewInt(1)))
}

func TestEncryptDecrypt(t *testing.T) {
	keyed, publicOnly := testInstances(t)

	for _, m := range []int64{0, 1, -1, 100, -100, 65535} {
		cipher, err := keyed.Encrypt(big.NewInt(m))
		assert.NoError(t, err)
		plain, err := keyed.Decrypt(cipher)
		assert.NoError(t, err)
		assert.Equal(t, m, plain.Int64(), "wrong decryption of", m)

		// the CRT shortcut and the public-key path must agree
		cipher, err = publicOnly.Encrypt(big.NewInt(m))
		assert.NoError(t, err)
		plain, err = keyed.Decrypt(cipher)
		assert.NoError(t, err)
		assert.Equal(t, m, plain.Int64())
	}
}

func TestBoundary(t *testing.T) {
	keyed, _ := testInstances(t)
	boundary := keyed.PositiveNegativeBoundary()

	cipher, err := keyed.Encrypt(boundary)
	require.NoError(t, err)
	plain, err := keyed.Decrypt(cipher)
	require.NoError(t, err)
	assert.Zero(t, plain.Cmp(boundary))

	cipher, err = keyed.Encrypt(new(big.Int).Add(boundary, big.NewInt(1)))
	require.NoError(t, err)
	plain, err = keyed.Decrypt(cipher)
	require.NoError(t, err)
	assert.Zero(t, plain.Cmp(new(big.Int).Neg(boundary)))
}

func TestIsEncryptedZero(t *testing.T) {
	keyed, publicOnly := testInstances(t)

	zero, err := keyed.EncryptedZero(true)
	require.NoError(t, err)
	isZero, err := keyed.IsEncryptedZero(zero)
	assert.NoError(t, err)
	assert.True(t, isZero)

	one, err := keyed.EncryptedOne(true)
	require.NoError(t, err)
	isZero, err = keyed.IsEncryptedZero(one)
	assert.NoError(t, err)
	assert.False(t, isZero)

	_, err = publicOnly.IsEncryptedZero(zero)
	assert.Equal(t, crypto.ErrSecretKeyRequired, errors.Cause(err))
}

func TestDecryptWithoutMap(t *testing.T) {
	privateKey, _, err := GenerateKeyPair(context.Background(), testConfig)
	require.NoError(t, err)

	noMapCfg := testConfig
	noMapCfg.PrecomputeDecryptionMap = false
	keyed, err := NewFromKeyPair(privateKey, noMapCfg)
	require.NoError(t, err)

	// the zero test still works
	zero, err := keyed.EncryptedZero(true)
	require.NoError(t, err)
	isZero, err := keyed.IsEncryptedZero(zero)
	assert.NoError(t, err)
	assert.True(t, isZero)

	one, err := keyed.EncryptedOne(true)
	require.NoError(t, err)
	_, err = keyed.Decrypt(one)
	assert.Equal(t, crypto.ErrSecretKeyRequired, errors.Cause(err))
}

func TestHomomorphicOps(t *testing.T) {
	keyed, _ := testInstances(t)

	a, _ := keyed.Encrypt(big.NewInt(17))
	b, _ := keyed.Encrypt(big.NewInt(-5))

	sum, err := a.Add(b)
	require.NoError(t, err)
	plain, err := keyed.Decrypt(sum)
	require.NoError(t, err)
	assert.Equal(t, int64(12), plain.Int64())

	scaled, err := a.Mul(big.NewInt(3))
	require.NoError(t, err)
	plain, err = keyed.Decrypt(scaled)
	require.NoError(t, err)
	assert.Equal(t, int64(51), plain.Int64())
}

func TestRandomizePreservesPlaintext(t *testing.T) {
	keyed, _ := testInstances(t)

	cipher, err := keyed.Encrypt(big.NewInt(42))
	require.NoError(t, err)
	randomized, err := keyed.Randomize(cipher)
	require.NoError(t, err)
	assert.NotZero(t, cipher.Data.Cmp(randomized.Data))
	plain, err := keyed.Decrypt(randomized)
	require.NoError(t, err)
	assert.Equal(t, int64(42), plain.Int64())
}
