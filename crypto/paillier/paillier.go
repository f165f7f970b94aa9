// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// The Paillier Crypto-system is an additive crypto-system. This means that given two ciphertexts, one can perform operations equivalent to adding the respective plain texts.
// Additionally, Paillier Crypto-system supports further computations:
//
// * Encrypted integers can be added together
// * Encrypted integers can be multiplied by an unencrypted integer
// * Encrypted integers and unencrypted integers can be added together
//
// This implementation uses the g = n+1 shortcut for encryption and decrypts
// through the CRT, so the private key keeps the prime factors of n around.

package paillier

import (
	"context"
	"math/big"
	"runtime"

	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto"
)

const (
	// DefaultKeyLength is used when a Config leaves KeyLength unset.
	DefaultKeyLength = 1024

	keyGenRetryBudget = 100
)

type (
	PublicKey struct {
		N *big.Int
	}

	PrivateKey struct {
		PublicKey
		P, Q *big.Int
	}

	Config struct {
		KeyLength               int
		PrimalityRounds         int
		RandomizerCacheCapacity int
	}

	// Paillier evaluates the cryptosystem for one keypair. An instance built
	// from a public key only can encrypt and evaluate the homomorphism; an
	// instance built from a keypair can also decrypt.
	Paillier struct {
		publicKey  *PublicKey
		privateKey *PrivateKey

		nSquared *big.Int
		boundary *big.Int

		// CRT decryption terms
		pSquared, qSquared,
		pMinusOne, qMinusOne,
		hp, hq,
		pTimesPInvModQ, qTimesQInvModP *big.Int

		randomizers *crypto.RandomizerCache
		encZero     *crypto.Ciphertext
		encOne      *crypto.Ciphertext
	}
)

var (
	ErrMessageTooLong = errors.New("the message is too large for the message space")

	one = big.NewInt(1)
)

var _ crypto.Provider = (*Paillier)(nil)

// GenerateKeyPair produces two independent keyLength/2-bit primes p != q and
// retries until n = pq has exactly keyLength bits.
func GenerateKeyPair(ctx context.Context, keyLength int, optionalConcurrency ...int) (*PrivateKey, *PublicKey, error) {
	var concurrency int
	if 0 < len(optionalConcurrency) {
		if 1 < len(optionalConcurrency) {
			panic(errors.New("GenerateKeyPair: expected 0 or 1 item in `optionalConcurrency`"))
		}
		concurrency = optionalConcurrency[0]
	} else {
		concurrency = runtime.NumCPU()
	}
	if keyLength <= 0 {
		keyLength = DefaultKeyLength
	}

	var P, Q, N *big.Int
	for i := 0; i < keyGenRetryBudget; i++ {
		ps, err := common.GetRandomPrimesConcurrent(ctx, keyLength/2, 2, concurrency, common.DefaultPrimalityRounds)
		if err != nil {
			return nil, nil, err
		}
		P, Q = ps[0], ps[1]
		if P.Cmp(Q) == 0 {
			continue
		}
		N = new(big.Int).Mul(P, Q)
		if N.BitLen() == keyLength {
			publicKey := &PublicKey{N: N}
			privateKey := &PrivateKey{PublicKey: *publicKey, P: P, Q: Q}
			return privateKey, publicKey, nil
		}
	}
	return nil, nil, errors.Wrapf(crypto.ErrKeyGenerationFailed, "no %d-bit modulus after %d attempts", keyLength, keyGenRetryBudget)
}

// NewFromKeyPair builds an instance that can encrypt, evaluate and decrypt.
func NewFromKeyPair(privateKey *PrivateKey, cfg Config) (*Paillier, error) {
	if privateKey == nil || privateKey.N == nil || privateKey.P == nil || privateKey.Q == nil {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "incomplete private key")
	}
	p := &Paillier{
		publicKey:  &privateKey.PublicKey,
		privateKey: privateKey,
	}
	return p, p.precompute(cfg)
}

// NewFromPublicKey builds an encrypt/evaluate-only instance.
func NewFromPublicKey(publicKey *PublicKey, cfg Config) (*Paillier, error) {
	if publicKey == nil || publicKey.N == nil {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "incomplete public key")
	}
	p := &Paillier{publicKey: publicKey}
	return p, p.precompute(cfg)
}

func (p *Paillier) precompute(cfg Config) (err error) {
	n := p.publicKey.N
	p.nSquared = new(big.Int).Mul(n, n)
	p.boundary = new(big.Int).Rsh(n, 1)

	if p.privateKey != nil {
		sk := p.privateKey
		p.pMinusOne = new(big.Int).Sub(sk.P, one)
		p.qMinusOne = new(big.Int).Sub(sk.Q, one)
		p.pSquared = new(big.Int).Mul(sk.P, sk.P)
		p.qSquared = new(big.Int).Mul(sk.Q, sk.Q)

		g := p.gamma()
		hp := l(new(big.Int).Exp(g, p.pMinusOne, p.pSquared), sk.P)
		if p.hp = hp.ModInverse(hp, sk.P); p.hp == nil {
			return errors.Wrap(crypto.ErrInverseDoesNotExist, "hp")
		}
		hq := l(new(big.Int).Exp(g, p.qMinusOne, p.qSquared), sk.Q)
		if p.hq = hq.ModInverse(hq, sk.Q); p.hq == nil {
			return errors.Wrap(crypto.ErrInverseDoesNotExist, "hq")
		}

		pInvModQ := new(big.Int).ModInverse(sk.P, sk.Q)
		qInvModP := new(big.Int).ModInverse(sk.Q, sk.P)
		if pInvModQ == nil || qInvModP == nil {
			return errors.Wrap(crypto.ErrKeyGenerationFailed, "p and q are not coprime")
		}
		p.pTimesPInvModQ = new(big.Int).Mul(sk.P, pInvModQ)
		p.qTimesQInvModP = new(big.Int).Mul(sk.Q, qInvModP)
	}

	if p.randomizers, err = crypto.NewRandomizerCache(cfg.RandomizerCacheCapacity, p.GetRandomizer); err != nil {
		return err
	}
	if p.encZero, err = p.Encrypt(big.NewInt(0)); err != nil {
		return err
	}
	if p.encOne, err = p.Encrypt(big.NewInt(1)); err != nil {
		return err
	}
	return nil
}

// gamma returns the generator g = n+1
func (p *Paillier) gamma() *big.Int {
	return new(big.Int).Add(p.publicKey.N, one)
}

// GetRandomizer draws r uniform in [1, n-1] and returns r^n mod n^2.
func (p *Paillier) GetRandomizer() (*big.Int, error) {
	r := new(big.Int).Add(common.GetRandomPositiveInt(new(big.Int).Sub(p.publicKey.N, one)), one)
	return r.Exp(r, p.publicKey.N, p.nSquared), nil
}

// EncryptNonrandom computes the deterministic part of the encryption,
// c = (1 + n*m) mod n^2. Negative plaintexts are remapped to the upper half
// of the message space.
func (p *Paillier) EncryptNonrandom(m *big.Int) (*crypto.Ciphertext, error) {
	n := p.publicKey.N
	if m.CmpAbs(n) >= 0 {
		return nil, ErrMessageTooLong
	}
	mm := new(big.Int).Mod(m, n)
	c := new(big.Int).Mul(n, mm)
	c.Add(c, one).Mod(c, p.nSquared)
	return crypto.NewCiphertext(c, p.nSquared), nil
}

// Encrypt is EncryptNonrandom followed by Randomize.
func (p *Paillier) Encrypt(m *big.Int) (*crypto.Ciphertext, error) {
	c, err := p.EncryptNonrandom(m)
	if err != nil {
		return nil, err
	}
	return p.Randomize(c)
}

// Randomize multiplies in a fresh r^n mod n^2 factor from the cache.
func (p *Paillier) Randomize(c *crypto.Ciphertext) (*crypto.Ciphertext, error) {
	if c == nil || c.Data == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "uninitialised ciphertext")
	}
	out := new(big.Int).Mul(c.Data, p.randomizers.Pop())
	return crypto.NewCiphertext(out.Mod(out, p.nSquared), p.nSquared), nil
}

// Decrypt recovers the signed plaintext through the CRT:
//
//	m_p = L_p(c^{p-1} mod p^2) h_p mod p
//	m_q = L_q(c^{q-1} mod q^2) h_q mod q
//	m   = (m_p q (q^{-1} mod p) + m_q p (p^{-1} mod q)) mod n
func (p *Paillier) Decrypt(c *crypto.Ciphertext) (*big.Int, error) {
	if p.privateKey == nil {
		return nil, crypto.ErrSecretKeyRequired
	}
	if c == nil || c.Data == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "uninitialised ciphertext")
	}
	sk := p.privateKey
	mp := l(new(big.Int).Exp(c.Data, p.pMinusOne, p.pSquared), sk.P)
	mp.Mul(mp, p.hp).Mod(mp, sk.P)
	mq := l(new(big.Int).Exp(c.Data, p.qMinusOne, p.qSquared), sk.Q)
	mq.Mul(mq, p.hq).Mod(mq, sk.Q)

	m := new(big.Int).Mul(mp, p.qTimesQInvModP)
	m.Add(m, new(big.Int).Mul(mq, p.pTimesPInvModQ))
	m.Mod(m, p.publicKey.N)

	if m.Cmp(p.boundary) > 0 {
		m.Sub(m, p.publicKey.N)
	}
	return m, nil
}

func (p *Paillier) EncryptedZero(randomize bool) (*crypto.Ciphertext, error) {
	if randomize {
		return p.Randomize(p.encZero)
	}
	return p.encZero, nil
}

func (p *Paillier) EncryptedOne(randomize bool) (*crypto.Ciphertext, error) {
	if randomize {
		return p.Randomize(p.encOne)
	}
	return p.encOne, nil
}

func (p *Paillier) MessageSpaceUpperBound() *big.Int {
	return p.publicKey.N
}

func (p *Paillier) PositiveNegativeBoundary() *big.Int {
	return p.boundary
}

func (p *Paillier) MessageSpaceBits() int {
	return p.publicKey.N.BitLen()
}

func (p *Paillier) EncryptionModulus() *big.Int {
	return p.nSquared
}

func (p *Paillier) PublicKey() *PublicKey {
	return p.publicKey
}

// l computes L(u) = (u - 1) / d
func l(u, d *big.Int) *big.Int {
	t := new(big.Int).Sub(u, one)
	return t.Div(t, d)
}
