// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package packing packs vectors of small non-negative integers into single
// ciphertexts using fixed-width bit buckets. A bucket is (front padding,
// data, back padding); the paddings give homomorphic sums and scalings room
// to grow without spilling into the neighbouring bucket.
package packing

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/crypto"
)

// Bucket holds the three unpacked fields of one slot. All fields are
// non-negative and bounded by the widths the Packer was built with.
type Bucket struct {
	FrontPadding *big.Int
	Data         *big.Int
	BackPadding  *big.Int
}

// Packer packs and unpacks bucket vectors through one cryptosystem instance.
// Bucket bit widths are fixed at construction.
type Packer struct {
	provider crypto.Provider

	frontBits, dataBits, backBits int
	bucketBits                    int
	bucketsPerCiphertext          int

	frontSpace, dataSpace, backSpace *big.Int
}

// NewPacker derives the bucket geometry from the provider's message space:
// a ciphertext holds floor(messageSpaceBits / bucketBits) buckets.
func NewPacker(provider crypto.Provider, dataBits, frontBits, backBits int) (*Packer, error) {
	return NewPackerReserving(provider, dataBits, frontBits, backBits, 0)
}

// NewPackerReserving keeps reservedBits of the message space free of buckets.
// Interactive protocols blind packed ciphertexts additively and need that
// headroom so the blinding cannot wrap the message space.
func NewPackerReserving(provider crypto.Provider, dataBits, frontBits, backBits, reservedBits int) (*Packer, error) {
	if dataBits <= 0 || frontBits < 0 || backBits < 0 || reservedBits < 0 {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "bucket widths must be non-negative with dataBits > 0")
	}
	p := &Packer{
		provider:   provider,
		frontBits:  frontBits,
		dataBits:   dataBits,
		backBits:   backBits,
		bucketBits: frontBits + dataBits + backBits,
		frontSpace: new(big.Int).Lsh(big.NewInt(1), uint(frontBits)),
		dataSpace:  new(big.Int).Lsh(big.NewInt(1), uint(dataBits)),
		backSpace:  new(big.Int).Lsh(big.NewInt(1), uint(backBits)),
	}
	p.bucketsPerCiphertext = (provider.MessageSpaceBits() - reservedBits) / p.bucketBits
	if p.bucketsPerCiphertext < 1 {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "the bucket does not fit the message space")
	}
	return p, nil
}

func (p *Packer) BucketsPerCiphertext() int {
	return p.bucketsPerCiphertext
}

func (p *Packer) BucketBits() int {
	return p.bucketBits
}

func (p *Packer) checkField(v *big.Int, space *big.Int) error {
	if v.Sign() < 0 || v.Cmp(space) >= 0 {
		return errors.Wrapf(crypto.ErrInvariantViolation, "bucket field %s out of range [0, %s)", v, space)
	}
	return nil
}

// Pack concatenates the bucket bit patterns at positions i*bucketBits and
// encrypts each full group, ending with a final, possibly partial group.
func (p *Packer) Pack(buckets []Bucket) ([]*crypto.Ciphertext, error) {
	var out []*crypto.Ciphertext

	packed := big.NewInt(0)
	counter := 0
	for _, bucket := range buckets {
		if counter == p.bucketsPerCiphertext {
			c, err := p.provider.Encrypt(packed)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
			packed = big.NewInt(0)
			counter = 0
		}

		offset := uint(counter * p.bucketBits)
		if p.frontBits > 0 {
			front := bucket.FrontPadding
			if front == nil {
				front = big.NewInt(0)
			}
			if err := p.checkField(front, p.frontSpace); err != nil {
				return nil, err
			}
			packed.Add(packed, new(big.Int).Lsh(front, offset))
		}
		if err := p.checkField(bucket.Data, p.dataSpace); err != nil {
			return nil, err
		}
		packed.Add(packed, new(big.Int).Lsh(bucket.Data, offset+uint(p.frontBits)))
		if p.backBits > 0 {
			back := bucket.BackPadding
			if back == nil {
				back = big.NewInt(0)
			}
			if err := p.checkField(back, p.backSpace); err != nil {
				return nil, err
			}
			packed.Add(packed, new(big.Int).Lsh(back, offset+uint(p.frontBits+p.dataBits)))
		}
		counter++
	}

	// the last group may hold fewer buckets; the caller must remember the
	// total bucket count to unpack
	c, err := p.provider.Encrypt(packed)
	if err != nil {
		return nil, err
	}
	return append(out, c), nil
}

// Unpack decrypts the packed ciphertexts and extracts totalBucketCount
// buckets by shift-and-mask.
func (p *Packer) Unpack(packed []*crypto.Ciphertext, totalBucketCount int) ([]Bucket, error) {
	var out []Bucket

	for _, c := range packed {
		plain, err := p.provider.Decrypt(c)
		if err != nil {
			return nil, err
		}
		remaining := new(big.Int).Set(plain)
		for i := 0; i < p.bucketsPerCiphertext; i++ {
			var bucket Bucket
			if p.frontBits > 0 {
				bucket.FrontPadding = new(big.Int).Mod(remaining, p.frontSpace)
				remaining.Rsh(remaining, uint(p.frontBits))
			} else {
				bucket.FrontPadding = big.NewInt(0)
			}
			bucket.Data = new(big.Int).Mod(remaining, p.dataSpace)
			remaining.Rsh(remaining, uint(p.dataBits))
			if p.backBits > 0 {
				bucket.BackPadding = new(big.Int).Mod(remaining, p.backSpace)
				remaining.Rsh(remaining, uint(p.backBits))
			} else {
				bucket.BackPadding = big.NewInt(0)
			}
			out = append(out, bucket)

			if len(out) == totalBucketCount {
				return out, nil
			}
		}
	}

	return nil, errors.Wrapf(crypto.ErrInvariantViolation,
		"unexpected number of packed buckets: have %d, want %d", len(out), totalBucketCount)
}

// Add performs a per-bucket homomorphic addition of two packed vectors. The
// caller is responsible for widths that keep per-bucket sums from
// overflowing into the neighbouring bucket.
func (p *Packer) Add(lhs, rhs []*crypto.Ciphertext) ([]*crypto.Ciphertext, error) {
	if len(lhs) != len(rhs) {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "packed vectors differ in length")
	}
	out := make([]*crypto.Ciphertext, 0, len(lhs))
	for i := range lhs {
		c, err := lhs[i].Add(rhs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Mul scales every bucket of the packed vector by k, with the same overflow
// caveat as Add.
func (p *Packer) Mul(lhs []*crypto.Ciphertext, k *big.Int) ([]*crypto.Ciphertext, error) {
	out := make([]*crypto.Ciphertext, 0, len(lhs))
	for _, c := range lhs {
		scaled, err := c.Mul(k)
		if err != nil {
			return nil, err
		}
		out = append(out, scaled)
	}
	return out, nil
}
