// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package elgamal implements exponential ElGamal over the subgroup of order q
// in Z/p*, with p = 2 m n q + 1 for small primes m, n. Messages ride in the
// exponent, so decryption needs an inverse discrete log: a precomputed table
// of gq^i mod p covers two windows of the message space, [0, 2^t) for the
// positives and (q - 2^t, q) for the negatives, with an unused gap in the
// middle. A fast "is zero" check avoids the lookup entirely.
package elgamal

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto"
)

const (
	DefaultKeyLength            = 1024
	DefaultLargePrimeFactorSize = 160
	DefaultThresholdBits        = 16
)

type (
	PublicKey struct {
		P, Q *big.Int
		// Gq generates the order-q subgroup; H = Gq^s.
		Gq, H *big.Int
	}

	PrivateKey struct {
		PublicKey
		S *big.Int
	}

	// Randomizer is the pair (gq^r, h^r) mod p.
	Randomizer struct {
		X, Y *big.Int
	}

	Config struct {
		KeyLength            int
		LargePrimeFactorSize int
		// MessageSpaceThresholdBits is t: decryptable plaintexts live in
		// (-2^t, 2^t).
		MessageSpaceThresholdBits int
		PrecomputeDecryptionMap   bool
		PrimalityRounds           int
		RandomizerCacheCapacity   int
	}

	ElGamal struct {
		publicKey  *PublicKey
		privateKey *PrivateKey
		cfg        Config

		threshold *big.Int
		negS      *big.Int

		decryptionMap map[string]*big.Int

		randomizers     []*Randomizer
		randomizerIndex int

		encZero *Ciphertext
		encOne  *Ciphertext
	}
)

var one = big.NewInt(1)

func (cfg *Config) applyDefaults() {
	if cfg.KeyLength == 0 {
		cfg.KeyLength = DefaultKeyLength
	}
	if cfg.LargePrimeFactorSize == 0 {
		cfg.LargePrimeFactorSize = DefaultLargePrimeFactorSize
	}
	if cfg.MessageSpaceThresholdBits == 0 {
		cfg.MessageSpaceThresholdBits = DefaultThresholdBits
	}
	if cfg.PrimalityRounds == 0 {
		cfg.PrimalityRounds = common.DefaultPrimalityRounds
	}
	if cfg.RandomizerCacheCapacity <= 0 {
		cfg.RandomizerCacheCapacity = crypto.DefaultCacheCapacity
	}
}

// GenerateKeyPair builds an ElGamal keypair: p = 2 m n q + 1 with q a prime
// of cfg.LargePrimeFactorSize bits and m, n small primes, a generator g of
// Z/p* found with the known factorization of p-1, gq = g^{2mn} of order q,
// and h = gq^s for a secret s in [1, q).
func GenerateKeyPair(ctx context.Context, cfg Config) (*PrivateKey, *PublicKey, error) {
	cfg.applyDefaults()
	rounds := cfg.PrimalityRounds

	if cfg.LargePrimeFactorSize >= cfg.KeyLength {
		return nil, nil, errors.Wrap(crypto.ErrInvalidParameter, "the large prime factor must be smaller than the key length")
	}

	sizeR := cfg.KeyLength - cfg.LargePrimeFactorSize
	sizeMN := (sizeR - 1) / 2

	var p, q, m, n, r *big.Int
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, common.ErrGeneratorCancelled
		}
		q = common.GetRandomPrimeInt(cfg.LargePrimeFactorSize, rounds)
		m = common.GetRandomPrimeInt(sizeMN, rounds)
		n = common.GetRandomPrimeInt(sizeMN, rounds)
		r = new(big.Int).Mul(m, n)
		r.Lsh(r, 1)
		p = new(big.Int).Mul(q, r)
		p.Add(p, one)
		if common.IsProbablePrime(p, rounds) {
			break
		}
	}

	// generator search: g is a generator of Z/p* iff raising it to each
	// maximal proper divisor of p-1 = 2 m n q never yields 1
	cofactors := []*big.Int{
		new(big.Int).Mul(new(big.Int).Mul(q, m), n),
		new(big.Int).Lsh(new(big.Int).Mul(q, m), 1),
		new(big.Int).Lsh(new(big.Int).Mul(q, n), 1),
		new(big.Int).Lsh(new(big.Int).Mul(m, n), 1),
	}
	var g *big.Int
Search:
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, common.ErrGeneratorCancelled
		}
		g = common.GetRandomPositiveInt(p)
		if g.Cmp(one) <= 0 || new(big.Int).GCD(nil, nil, g, p).Cmp(one) != 0 {
			continue
		}
		for _, cofactor := range cofactors {
			if new(big.Int).Exp(g, cofactor, p).Cmp(one) == 0 {
				continue Search
			}
		}
		break
	}
	gq := new(big.Int).Exp(g, r, p)

	var s *big.Int
	for {
		s = common.GetRandomPositiveInt(q)
		if s.Sign() != 0 {
			break
		}
	}
	h := new(big.Int).Exp(gq, s, p)

	publicKey := &PublicKey{P: p, Q: q, Gq: gq, H: h}
	privateKey := &PrivateKey{PublicKey: *publicKey, S: s}
	return privateKey, publicKey, nil
}

// NewFromKeyPair builds an instance that can encrypt, evaluate, run the zero
// test and, with cfg.PrecomputeDecryptionMap, decrypt.
func NewFromKeyPair(privateKey *PrivateKey, cfg Config) (*ElGamal, error) {
	if privateKey == nil || privateKey.P == nil || privateKey.S == nil {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "incomplete private key")
	}
	cfg.applyDefaults()
	e := &ElGamal{publicKey: &privateKey.PublicKey, privateKey: privateKey, cfg: cfg}
	return e, e.precompute()
}

// NewFromPublicKey builds an encrypt/evaluate-only instance.
func NewFromPublicKey(publicKey *PublicKey, cfg Config) (*ElGamal, error) {
	if publicKey == nil || publicKey.P == nil || publicKey.Q == nil || publicKey.Gq == nil || publicKey.H == nil {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "incomplete public key")
	}
	cfg.applyDefaults()
	e := &ElGamal{publicKey: publicKey, cfg: cfg}
	return e, e.precompute()
}

func (e *ElGamal) precompute() (err error) {
	e.threshold = new(big.Int).Lsh(one, uint(e.cfg.MessageSpaceThresholdBits))
	if e.threshold.Cmp(e.publicKey.Q) >= 0 {
		return errors.Wrap(crypto.ErrInvalidParameter, "the message space threshold exceeds the subgroup order")
	}

	if e.privateKey != nil {
		e.negS = new(big.Int).Neg(e.privateKey.S)
		if e.cfg.PrecomputeDecryptionMap {
			e.buildDecryptionMap()
		}
	}

	e.randomizers = make([]*Randomizer, 0, e.cfg.RandomizerCacheCapacity)
	for i := 0; i < e.cfg.RandomizerCacheCapacity; i++ {
		e.randomizers = append(e.randomizers, e.GetRandomizer())
	}

	if e.encZero, err = e.Encrypt(big.NewInt(0)); err != nil {
		return err
	}
	if e.encOne, err = e.Encrypt(big.NewInt(1)); err != nil {
		return err
	}
	return nil
}

// buildDecryptionMap tabulates gq^i mod p -> i over the two decryptable
// windows, [0, 2^t) and (q - 2^t, q).
func (e *ElGamal) buildDecryptionMap() {
	pk := e.publicKey
	common.Logger.Infof("elgamal: precomputing decryption map over two windows of %s values", e.threshold.String())
	e.decryptionMap = make(map[string]*big.Int)

	acc := big.NewInt(1)
	for i := big.NewInt(0); i.Cmp(e.threshold) < 0; i = new(big.Int).Add(i, one) {
		e.decryptionMap[string(acc.Bytes())] = i
		acc = new(big.Int).Mul(acc, pk.Gq)
		acc.Mod(acc, pk.P)
	}
	// one less entry on the negative side: size(positives \ {0}) = size(negatives)
	start := new(big.Int).Sub(pk.Q, e.threshold)
	start.Add(start, one)
	acc = new(big.Int).Exp(pk.Gq, start, pk.P)
	for i := new(big.Int).Set(start); i.Cmp(pk.Q) < 0; i = new(big.Int).Add(i, one) {
		e.decryptionMap[string(acc.Bytes())] = i
		acc = new(big.Int).Mul(acc, pk.Gq)
		acc.Mod(acc, pk.P)
	}
	common.Logger.Infof("elgamal: decryption map ready (%d entries)", len(e.decryptionMap))
}

// GetRandomizer draws r uniform in [0, q) and returns the pair
// (gq^r, h^r) mod p.
func (e *ElGamal) GetRandomizer() *Randomizer {
	pk := e.publicKey
	r := common.GetRandomPositiveInt(pk.Q)
	return &Randomizer{
		X: new(big.Int).Exp(pk.Gq, r, pk.P),
		Y: new(big.Int).Exp(pk.H, r, pk.P),
	}
}

func (e *ElGamal) popRandomizer() *Randomizer {
	current := e.randomizers[e.randomizerIndex]
	e.randomizerIndex = (e.randomizerIndex + 1) % len(e.randomizers)
	return current
}

// EncryptNonrandom computes (x, y) = (1, gq^m mod p); Randomize supplies the
// missing (gq^r, h^r) factor. Negative plaintexts are remapped to q + m.
func (e *ElGamal) EncryptNonrandom(m *big.Int) (*Ciphertext, error) {
	pk := e.publicKey
	if m.CmpAbs(pk.Q) >= 0 {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "the message is too large for the message space")
	}
	exp := new(big.Int).Mod(m, pk.Q)
	return NewCiphertext(big.NewInt(1), new(big.Int).Exp(pk.Gq, exp, pk.P), pk.P), nil
}

// Encrypt is EncryptNonrandom followed by Randomize.
func (e *ElGamal) Encrypt(m *big.Int) (*Ciphertext, error) {
	c, err := e.EncryptNonrandom(m)
	if err != nil {
		return nil, err
	}
	return e.Randomize(c)
}

// Randomize multiplies a fresh randomizer pair into both components.
func (e *ElGamal) Randomize(c *Ciphertext) (*Ciphertext, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	pk := e.publicKey
	randomizer := e.popRandomizer()
	x := new(big.Int).Mul(c.X, randomizer.X)
	y := new(big.Int).Mul(c.Y, randomizer.Y)
	return NewCiphertext(x.Mod(x, pk.P), y.Mod(y, pk.P), pk.P), nil
}

// Decrypt recovers m from y x^{-s} mod p = gq^m mod p via the precomputed
// table; values in the negative window are remapped below zero.
func (e *ElGamal) Decrypt(c *Ciphertext) (*big.Int, error) {
	if e.privateKey == nil {
		return nil, crypto.ErrSecretKeyRequired
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	if e.decryptionMap == nil {
		return nil, errors.Wrap(crypto.ErrSecretKeyRequired, "this operation requires the decryption map")
	}
	gqPowM := e.referencePoint(c)
	if gqPowM.Cmp(one) == 0 {
		return big.NewInt(0), nil
	}
	m, ok := e.decryptionMap[string(gqPowM.Bytes())]
	if !ok {
		return nil, crypto.ErrUndecodable
	}
	out := new(big.Int).Set(m)
	if out.Cmp(e.threshold) > 0 {
		out.Sub(out, e.publicKey.Q)
	}
	return out, nil
}

// IsEncryptedZero tests y x^{-s} mod p == 1, which holds iff the plaintext
// is zero. No table lookup is required.
func (e *ElGamal) IsEncryptedZero(c *Ciphertext) (bool, error) {
	if e.privateKey == nil {
		return false, crypto.ErrSecretKeyRequired
	}
	if err := c.validate(); err != nil {
		return false, err
	}
	return e.referencePoint(c).Cmp(one) == 0, nil
}

// referencePoint computes y x^{-s} mod p.
func (e *ElGamal) referencePoint(c *Ciphertext) *big.Int {
	pk := e.publicKey
	out := new(big.Int).Exp(c.X, e.negS, pk.P)
	out.Mul(out, c.Y)
	return out.Mod(out, pk.P)
}

func (e *ElGamal) EncryptedZero(randomize bool) (*Ciphertext, error) {
	if randomize {
		return e.Randomize(e.encZero)
	}
	return e.encZero, nil
}

func (e *ElGamal) EncryptedOne(randomize bool) (*Ciphertext, error) {
	if randomize {
		return e.Randomize(e.encOne)
	}
	return e.encOne, nil
}

func (e *ElGamal) MessageSpaceUpperBound() *big.Int {
	return e.publicKey.Q
}

// PositiveNegativeBoundary is the threshold 2^t: plaintexts decode as
// positive in [0, 2^t) and as negative in (q - 2^t, q).
func (e *ElGamal) PositiveNegativeBoundary() *big.Int {
	return e.threshold
}

func (e *ElGamal) MessageSpaceBits() int {
	return e.publicKey.Q.BitLen()
}

func (e *ElGamal) EncryptionModulus() *big.Int {
	return e.publicKey.P
}

func (e *ElGamal) PublicKey() *PublicKey {
	return e.publicKey
}
