// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package extremum_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/phe-lib/crypto"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
	"github.com/bnb-chain/phe-lib/crypto/paillier"
	"github.com/bnb-chain/phe-lib/protocols/extremum"
)

var testDgkConfig = dgk.Config{
	KeyLength:               128,
	T:                       20,
	L:                       8,
	RandomizerCacheCapacity: 4,
}

type fixture struct {
	server         *extremum.Server
	serverPaillier *paillier.Paillier
	pspPaillier    *paillier.Paillier
}

func setup(t *testing.T) *fixture {
	paillierSK, paillierPK, err := paillier.GenerateKeyPair(context.Background(), 1024)
	require.NoError(t, err)
	dgkSK, dgkPK, err := dgk.GenerateKeyPair(context.Background(), testDgkConfig)
	require.NoError(t, err)

	pspPaillier, err := paillier.NewFromKeyPair(paillierSK, paillier.Config{RandomizerCacheCapacity: 4})
	require.NoError(t, err)
	serverPaillier, err := paillier.NewFromPublicKey(paillierPK, paillier.Config{RandomizerCacheCapacity: 4})
	require.NoError(t, err)
	pspDgk, err := dgk.NewFromKeyPair(dgkSK, testDgkConfig)
	require.NoError(t, err)
	serverDgk, err := dgk.NewFromPublicKey(dgkPK, testDgkConfig)
	require.NoError(t, err)

	params := extremum.Params{L: 16, BlindingCacheCapacity: 4}
	server, err := extremum.NewServer(serverPaillier, serverDgk, params)
	require.NoError(t, err)
	client, err := extremum.NewClient(pspPaillier, pspDgk, params)
	require.NoError(t, err)
	server.SetClient(client)
	client.SetServer(server)

	return &fixture{server: server, serverPaillier: serverPaillier, pspPaillier: pspPaillier}
}

func (f *fixture) encryptAll(t *testing.T, values []int64) []*crypto.Ciphertext {
	out := make([]*crypto.Ciphertext, len(values))
	for i, v := range values {
		enc, err := f.serverPaillier.Encrypt(big.NewInt(v))
		require.NoError(t, err)
		out[i] = enc
	}
	return out
}

func TestMinimumMaximum(t *testing.T) {
	f := setup(t)
	items := f.encryptAll(t, []int64{7, 3, 9, 5})

	min, err := f.server.Minimum(items)
	require.NoError(t, err)
	plain, err := f.pspPaillier.Decrypt(min)
	require.NoError(t, err)
	assert.Equal(t, int64(3), plain.Int64())

	max, err := f.server.Maximum(items)
	require.NoError(t, err)
	plain, err = f.pspPaillier.Decrypt(max)
	require.NoError(t, err)
	assert.Equal(t, int64(9), plain.Int64())
}

func TestOddLengthVector(t *testing.T) {
	f := setup(t)
	items := f.encryptAll(t, []int64{12, 4, 8, 1, 30})

	min, err := f.server.Minimum(items)
	require.NoError(t, err)
	plain, err := f.pspPaillier.Decrypt(min)
	require.NoError(t, err)
	assert.Equal(t, int64(1), plain.Int64())

	max, err := f.server.Maximum(items)
	require.NoError(t, err)
	plain, err = f.pspPaillier.Decrypt(max)
	require.NoError(t, err)
	assert.Equal(t, int64(30), plain.Int64())
}

func TestSingleElement(t *testing.T) {
	f := setup(t)
	items := f.encryptAll(t, []int64{77})

	min, err := f.server.Minimum(items)
	require.NoError(t, err)
	plain, err := f.pspPaillier.Decrypt(min)
	require.NoError(t, err)
	assert.Equal(t, int64(77), plain.Int64())
}

func TestEmptyVector(t *testing.T) {
	f := setup(t)
	_, err := f.server.Minimum(nil)
	assert.Equal(t, crypto.ErrInvariantViolation, errors.Cause(err))
}

func TestDuplicateExtremum(t *testing.T) {
	if testing.Short() {
		t.Skip("interactive rounds are slow")
	}
	f := setup(t)
	items := f.encryptAll(t, []int64{5, 5, 2, 2, 9, 9})

	min, err := f.server.Minimum(items)
	require.NoError(t, err)
	plain, err := f.pspPaillier.Decrypt(min)
	require.NoError(t, err)
	assert.Equal(t, int64(2), plain.Int64())

	max, err := f.server.Maximum(items)
	require.NoError(t, err)
	plain, err = f.pspPaillier.Decrypt(max)
	require.NoError(t, err)
	assert.Equal(t, int64(9), plain.Int64())
}
