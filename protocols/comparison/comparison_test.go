// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package comparison_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto/dgk"
	"github.com/bnb-chain/phe-lib/crypto/paillier"
	"github.com/bnb-chain/phe-lib/protocols/comparison"
)

const testL = 16

var testDgkConfig = dgk.Config{
	KeyLength:               128,
	T:                       20,
	L:                       8,
	RandomizerCacheCapacity: 4,
}

type fixture struct {
	server *comparison.Server
	// the Server side evaluates on public keys only
	serverPaillier *paillier.Paillier
	// the PSP side holds both private keys
	pspPaillier *paillier.Paillier
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

	params := comparison.Params{L: testL, BlindingCacheCapacity: 4}
	server, err := comparison.NewServer(serverPaillier, serverDgk, params)
	require.NoError(t, err)
	client, err := comparison.NewClient(pspPaillier, pspDgk, params)
	require.NoError(t, err)
	server.SetClient(client)
	client.SetServer(server)

	return &fixture{server: server, serverPaillier: serverPaillier, pspPaillier: pspPaillier}
}

func (f *fixture) compare(t *testing.T, a, b int64) int64 {
	encA, err := f.serverPaillier.Encrypt(big.NewInt(a))
	require.NoError(t, err)
	encB, err := f.serverPaillier.Encrypt(big.NewInt(b))
	require.NoError(t, err)

	result, err := f.server.Compare(encA, encB)
	require.NoError(t, err)
	plain, err := f.pspPaillier.Decrypt(result)
	require.NoError(t, err)
	return plain.Int64()
}

func TestCompare(t *testing.T) {
	f := setup(t)

	assert.Equal(t, int64(1), f.compare(t, 42, 100), "42 <= 100")
	assert.Equal(t, int64(0), f.compare(t, 100, 42), "100 > 42")
	assert.Equal(t, int64(1), f.compare(t, 57, 57), "57 <= 57")
	assert.Equal(t, int64(1), f.compare(t, 0, 0))
	assert.Equal(t, int64(1), f.compare(t, 0, 65535))
	assert.Equal(t, int64(0), f.compare(t, 65535, 0))
	assert.Equal(t, int64(1), f.compare(t, 65534, 65535))
	assert.Equal(t, int64(0), f.compare(t, 65535, 65534))
}

func TestCompareRandomPairs(t *testing.T) {
	if testing.Short() {
		t.Skip("interactive rounds are slow")
	}
	f := setup(t)

	bound := big.NewInt(1 << testL)
	for i := 0; i < 24; i++ {
		a := common.GetRandomPositiveInt(bound).Int64()
		b := common.GetRandomPositiveInt(bound).Int64()
		want := int64(0)
		if a <= b {
			want = 1
		}
		assert.Equal(t, want, f.compare(t, a, b), "compare", a, b)
	}
}

func TestCompareBlindingWraparound(t *testing.T) {
	f := setup(t)

	// more rounds than the blinding cache capacity
	for i := 0; i < 10; i++ {
		assert.Equal(t, int64(1), f.compare(t, 7, 9))
	}
}
