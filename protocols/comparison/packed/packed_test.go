// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package packed_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnb-chain/phe-lib/crypto/dgk"
	"github.com/bnb-chain/phe-lib/crypto/packing"
	"github.com/bnb-chain/phe-lib/crypto/paillier"
	"github.com/bnb-chain/phe-lib/protocols/comparison/packed"
)

const (
	testL     = 8
	testKappa = 40
)

var testDgkConfig = dgk.Config{
	KeyLength:               128,
	T:                       20,
	L:                       8,
	RandomizerCacheCapacity: 4,
}

type fixture struct {
	server         *packed.Server
	packer         *packing.Packer
	serverPaillier *paillier.Paillier
	pspPaillier    *paillier.Paillier
}

func setup(t *testing.T, threshold int64) *fixture {
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

	params := packed.Params{L: testL, Kappa: testKappa, BlindingCacheCapacity: 4}
	server, err := packed.NewServer(serverPaillier, serverDgk, big.NewInt(threshold), params)
	require.NoError(t, err)
	client, err := packed.NewClient(pspPaillier, pspDgk, params)
	require.NoError(t, err)
	server.SetClient(client)
	client.SetServer(server)

	// the operand packer mirrors the server geometry: l+2 bit buckets with
	// kappa+2 bits of blinding headroom
	packer, err := packing.NewPackerReserving(serverPaillier, testL+2, 0, 0, testKappa+2)
	require.NoError(t, err)
	require.Equal(t, server.MaxPackedBuckets(), packer.BucketsPerCiphertext())

	return &fixture{server: server, packer: packer, serverPaillier: serverPaillier, pspPaillier: pspPaillier}
}

// packOperands packs 2*v per bucket, the operand format of the batched
// comparison.
func (f *fixture) packOperands(t *testing.T, values []int64) []packing.Bucket {
	buckets := make([]packing.Bucket, 0, len(values))
	for _, v := range values {
		buckets = append(buckets, packing.Bucket{Data: big.NewInt(2 * v)})
	}
	return buckets
}

func (f *fixture) compareAll(t *testing.T, values []int64) []int64 {
	packedOperands, err := f.packer.Pack(f.packOperands(t, values))
	require.NoError(t, err)

	countInLast := len(values) % f.server.MaxPackedBuckets()
	if countInLast == 0 {
		countInLast = f.server.MaxPackedBuckets()
	}
	gamma, err := f.server.Compare(packedOperands, countInLast)
	require.NoError(t, err)
	require.Len(t, gamma, len(values))

	out := make([]int64, len(values))
	for i, g := range gamma {
		plain, err := f.pspPaillier.Decrypt(g)
		require.NoError(t, err)
		out[i] = plain.Int64()
	}
	return out
}

func TestPackedCompare(t *testing.T) {
	const threshold = 100
	f := setup(t, threshold)

	values := []int64{0, 42, 99, 100, 101, 200, 255, 100, 7}
	results := f.compareAll(t, values)
	for i, v := range values {
		want := int64(0)
		if v >= threshold {
			want = 1
		}
		assert.Equal(t, want, results[i], "comparison of", v, "against", threshold)
	}
}

func TestPackedCompareEdgeThresholds(t *testing.T) {
	f := setup(t, 1)
	results := f.compareAll(t, []int64{0, 1, 2, 255})
	assert.Equal(t, []int64{0, 1, 1, 1}, results)
}

func TestPackedCompareCapacity(t *testing.T) {
	f := setup(t, 128)
	// 10-bit buckets with 42 reserved bits over 1024: 98 comparisons per
	// ciphertext
	assert.Equal(t, 98, f.server.MaxPackedBuckets())
}

func TestPackedCompareMultipleCiphertexts(t *testing.T) {
	if testing.Short() {
		t.Skip("interactive rounds are slow")
	}
	const threshold = 100
	f := setup(t, threshold)

	capacity := f.server.MaxPackedBuckets()
	values := make([]int64, capacity+3)
	for i := range values {
		values[i] = int64(i * 2 % 256)
	}
	results := f.compareAll(t, values)
	for i, v := range values {
		want := int64(0)
		if v >= threshold {
			want = 1
		}
		assert.Equal(t, want, results[i], "comparison of", v)
	}
}
