// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package okamotouchiyama implements the Okamoto-Uchiyama cryptosystem over
// n = p^2 q. The plaintext space is Z/p, which only the key holder knows:
// public-key-only instances advertise a smaller public bound 2^MessageSpaceBits
// instead, leaving a gap of unused values in the middle of [0, p). Homomorphic
// operations between ciphertexts produced on either side remain compatible.
package okamotouchiyama

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto"
)

const (
	DefaultKeyLength = 1024
	DefaultTSize     = 160
)

type (
	PublicKey struct {
		N, G, H *big.Int
	}

	PrivateKey struct {
		PublicKey
		P, Q *big.Int
		// T is the large prime factor of p-1; Gp = g^{p-1} mod p^2 has
		// order p and is the decryption reference point.
		T, Gp *big.Int
	}

	Config struct {
		KeyLength int
		// TSize is the bit length of the prime t with p = t*u + 1.
		TSize int
		// MessageSpaceBits is the public message-space bound advertised by
		// instances that do not hold the private key.
		MessageSpaceBits        int
		PrimalityRounds         int
		RandomizerCacheCapacity int
	}

	OkamotoUchiyama struct {
		publicKey  *PublicKey
		privateKey *PrivateKey
		cfg        Config

		pSquared     *big.Int
		lgpInv       *big.Int
		messageSpace *big.Int
		boundary     *big.Int

		randomizers *crypto.RandomizerCache
		encZero     *crypto.Ciphertext
		encOne      *crypto.Ciphertext
	}
)

var one = big.NewInt(1)

var _ crypto.Provider = (*OkamotoUchiyama)(nil)

func (cfg *Config) applyDefaults() {
	if cfg.KeyLength == 0 {
		cfg.KeyLength = DefaultKeyLength
	}
	if cfg.TSize == 0 {
		cfg.TSize = DefaultTSize
	}
	if cfg.MessageSpaceBits == 0 {
		cfg.MessageSpaceBits = cfg.TSize
	}
	if cfg.PrimalityRounds == 0 {
		cfg.PrimalityRounds = common.DefaultPrimalityRounds
	}
}

// GenerateKeyPair builds an Okamoto-Uchiyama keypair: primes p and q of
// roughly keyLength/3 bits with p = t*u + 1 for a prime t of cfg.TSize bits,
// n = p^2 q, G = g^u mod n for a g whose g^{p-1} mod p^2 has order p, and
// H = g'^{n*u} mod n for a second random g' coprime to n. The order of g' is
// not checked.
func GenerateKeyPair(ctx context.Context, cfg Config) (*PrivateKey, *PublicKey, error) {
	cfg.applyDefaults()
	rounds := cfg.PrimalityRounds

	primeLength := cfg.KeyLength / 3
	if cfg.TSize >= primeLength {
		return nil, nil, errors.Wrap(crypto.ErrInvalidParameter, "keyLength/3 must be larger than the t parameter size")
	}

	t := common.GetRandomPrimeInt(cfg.TSize, rounds)

	// p - 1 = t*u, with u random of the complementary size
	var p, u *big.Int
	sizeU := primeLength - cfg.TSize
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, common.ErrGeneratorCancelled
		}
		u = common.MustGetRandomInt(sizeU - 1)
		u.SetBit(u, sizeU-1, 1)
		p = new(big.Int).Mul(t, u)
		p.Add(p, one)
		if common.IsProbablePrime(p, rounds) {
			break
		}
	}
	pSquared := new(big.Int).Mul(p, p)

	q := common.GetRandomPrimeInt(primeLength, rounds)

	n := new(big.Int).Mul(pSquared, q)

	// g random in Z/n with gcd(g, p) = 1 such that gp = g^{p-1} mod p^2 has
	// order p
	pMinusOne := new(big.Int).Sub(p, one)
	var g, gp *big.Int
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, common.ErrGeneratorCancelled
		}
		g = common.GetRandomPositiveInt(n)
		if new(big.Int).GCD(nil, nil, g, p).Cmp(one) != 0 {
			continue
		}
		gp = new(big.Int).Exp(g, pMinusOne, pSquared)
		if new(big.Int).Exp(gp, p, pSquared).Cmp(one) == 0 && gp.Cmp(one) != 0 {
			break
		}
	}
	G := new(big.Int).Exp(g, u, n)

	var gPrime *big.Int
	for {
		gPrime = common.GetRandomPositiveInt(n)
		if new(big.Int).GCD(nil, nil, gPrime, n).Cmp(one) == 0 {
			break
		}
	}
	H := new(big.Int).Exp(gPrime, new(big.Int).Mul(n, u), n)

	publicKey := &PublicKey{N: n, G: G, H: H}
	privateKey := &PrivateKey{PublicKey: *publicKey, P: p, Q: q, T: t, Gp: gp}
	return privateKey, publicKey, nil
}

// NewFromKeyPair builds an instance that can encrypt, evaluate and decrypt.
func NewFromKeyPair(privateKey *PrivateKey, cfg Config) (*OkamotoUchiyama, error) {
	if privateKey == nil || privateKey.N == nil || privateKey.P == nil || privateKey.T == nil || privateKey.Gp == nil {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "incomplete private key")
	}
	cfg.applyDefaults()
	o := &OkamotoUchiyama{publicKey: &privateKey.PublicKey, privateKey: privateKey, cfg: cfg}
	return o, o.precompute()
}

// NewFromPublicKey builds an encrypt/evaluate-only instance. Its message
// space is thresholded at 2^cfg.MessageSpaceBits, below the true bound p.
func NewFromPublicKey(publicKey *PublicKey, cfg Config) (*OkamotoUchiyama, error) {
	if publicKey == nil || publicKey.N == nil || publicKey.G == nil || publicKey.H == nil {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "incomplete public key")
	}
	cfg.applyDefaults()
	o := &OkamotoUchiyama{publicKey: publicKey, cfg: cfg}
	return o, o.precompute()
}

func (o *OkamotoUchiyama) precompute() (err error) {
	if o.privateKey != nil {
		sk := o.privateKey
		o.pSquared = new(big.Int).Mul(sk.P, sk.P)
		o.messageSpace = sk.P

		lgp := o.l(sk.Gp)
		if o.lgpInv = new(big.Int).ModInverse(lgp, sk.P); o.lgpInv == nil {
			return errors.Wrap(crypto.ErrInverseDoesNotExist, "L(gp)")
		}
	} else {
		o.messageSpace = new(big.Int).Lsh(one, uint(o.cfg.MessageSpaceBits))
	}
	o.boundary = new(big.Int).Rsh(o.messageSpace, 1)

	if o.randomizers, err = crypto.NewRandomizerCache(o.cfg.RandomizerCacheCapacity, o.GetRandomizer); err != nil {
		return err
	}
	if o.encZero, err = o.Encrypt(big.NewInt(0)); err != nil {
		return err
	}
	if o.encOne, err = o.Encrypt(big.NewInt(1)); err != nil {
		return err
	}
	return nil
}

// GetRandomizer draws r uniform in [1, n-1] and returns H^r mod n.
func (o *OkamotoUchiyama) GetRandomizer() (*big.Int, error) {
	n := o.publicKey.N
	r := new(big.Int).Add(common.GetRandomPositiveInt(new(big.Int).Sub(n, one)), one)
	return new(big.Int).Exp(o.publicKey.H, r, n), nil
}

// EncryptNonrandom computes c = G^m mod n. A negative plaintext is remapped
// to messageSpace + m when the private key is present; otherwise the true
// upper bound is unknown and |m| is encrypted and inverted, which is a
// homomorphic multiplication by -1.
func (o *OkamotoUchiyama) EncryptNonrandom(m *big.Int) (*crypto.Ciphertext, error) {
	n := o.publicKey.N
	if m.CmpAbs(o.messageSpace) >= 0 {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "the message is too large for the message space")
	}
	if m.Sign() < 0 && o.privateKey == nil {
		c := new(big.Int).Exp(o.publicKey.G, new(big.Int).Abs(m), n)
		if c = c.ModInverse(c, n); c == nil {
			return nil, crypto.ErrInverseDoesNotExist
		}
		return crypto.NewCiphertext(c, n), nil
	}
	e := new(big.Int).Mod(m, o.messageSpace)
	return crypto.NewCiphertext(new(big.Int).Exp(o.publicKey.G, e, n), n), nil
}

// Encrypt is EncryptNonrandom followed by Randomize.
func (o *OkamotoUchiyama) Encrypt(m *big.Int) (*crypto.Ciphertext, error) {
	c, err := o.EncryptNonrandom(m)
	if err != nil {
		return nil, err
	}
	return o.Randomize(c)
}

// Randomize multiplies in a fresh H^r mod n factor from the cache.
func (o *OkamotoUchiyama) Randomize(c *crypto.Ciphertext) (*crypto.Ciphertext, error) {
	if c == nil || c.Data == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "uninitialised ciphertext")
	}
	n := o.publicKey.N
	out := new(big.Int).Mul(c.Data, o.randomizers.Pop())
	return crypto.NewCiphertext(out.Mod(out, n), n), nil
}

// Decrypt computes m = L(c^t mod p^2) L(gp)^{-1} mod p with L(x) = (x-1)/p.
func (o *OkamotoUchiyama) Decrypt(c *crypto.Ciphertext) (*big.Int, error) {
	if o.privateKey == nil {
		return nil, crypto.ErrSecretKeyRequired
	}
	if c == nil || c.Data == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "uninitialised ciphertext")
	}
	sk := o.privateKey
	m := o.l(new(big.Int).Exp(c.Data, sk.T, o.pSquared))
	m.Mul(m, o.lgpInv).Mod(m, sk.P)

	if m.Cmp(o.boundary) > 0 {
		m.Sub(m, o.messageSpace)
	}
	return m, nil
}

func (o *OkamotoUchiyama) EncryptedZero(randomize bool) (*crypto.Ciphertext, error) {
	if randomize {
		return o.Randomize(o.encZero)
	}
	return o.encZero, nil
}

func (o *OkamotoUchiyama) EncryptedOne(randomize bool) (*crypto.Ciphertext, error) {
	if randomize {
		return o.Randomize(o.encOne)
	}
	return o.encOne, nil
}

func (o *OkamotoUchiyama) MessageSpaceUpperBound() *big.Int {
	return o.messageSpace
}

func (o *OkamotoUchiyama) PositiveNegativeBoundary() *big.Int {
	return o.boundary
}

func (o *OkamotoUchiyama) MessageSpaceBits() int {
	return o.messageSpace.BitLen()
}

func (o *OkamotoUchiyama) EncryptionModulus() *big.Int {
	return o.publicKey.N
}

func (o *OkamotoUchiyama) PublicKey() *PublicKey {
	return o.publicKey
}

// l computes L(x) = (x - 1) / p
func (o *OkamotoUchiyama) l(x *big.Int) *big.Int {
	t := new(big.Int).Sub(x, one)
	return t.Div(t, o.privateKey.P)
}
