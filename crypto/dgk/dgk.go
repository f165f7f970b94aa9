// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package dgk implements the Damgard-Geisler-Kroigaard cryptosystem from
// "Efficient and Secure Comparison for On-Line Auctions" (2007) together with
// the 2009 correction. DGK trades a tiny message space Z/u for ciphertexts in
// Z/n and a constant-time "is zero" test on the private side, which is what
// makes it the workhorse of the bitwise comparison subprotocol.
//
// h and g are constructed with Algorithm 4.83 from the Handbook of Applied
// Cryptography: generators modulo p and modulo q are found with Algorithm
// 4.80 (p-1 and q-1 have known factorizations by construction), combined
// through the CRT (Gauss's Algorithm 2.121) and raised to the cofactor so
// that h has order vp*vq and g has order u*vp*vq in Z/n*.
package dgk

import (
	"context"
	"math/big"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/bnb-chain/phe-lib/common"
	"github.com/bnb-chain/phe-lib/crypto"
)

const (
	DefaultKeyLength = 1024
	DefaultT         = 160
	DefaultL         = 16
)

type (
	PublicKey struct {
		N, G, H *big.Int
		// U is the message space modulus, the smallest prime of more than
		// L+2 bits.
		U *big.Int
	}

	PrivateKey struct {
		PublicKey
		P, Q, Vp, Vq *big.Int
	}

	Config struct {
		KeyLength int
		// T is the bit length of the secret prime orders vp and vq.
		T int
		// L is the operand bit length of the comparison protocol carried on
		// top of this scheme.
		L int
		// PrecomputeDecryptionMap builds the g^{vp*i} mod p lookup table at
		// construction time. Without it only IsEncryptedZero is available.
		PrecomputeDecryptionMap bool
		PrimalityRounds         int
		RandomizerCacheCapacity int
	}

	Dgk struct {
		publicKey  *PublicKey
		privateKey *PrivateKey
		cfg        Config

		boundary *big.Int

		// CRT shortcut terms, private-key instances only
		pTimesPInvModQ, qTimesQInvModP *big.Int

		decryptionMap map[string]*big.Int

		randomizers *crypto.RandomizerCache
		encZero     *crypto.Ciphertext
		encOne      *crypto.Ciphertext
	}
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

var _ crypto.Provider = (*Dgk)(nil)

func (cfg *Config) applyDefaults() {
	if cfg.KeyLength == 0 {
		cfg.KeyLength = DefaultKeyLength
	}
	if cfg.T == 0 {
		cfg.T = DefaultT
	}
	if cfg.L == 0 {
		cfg.L = DefaultL
	}
	if cfg.PrimalityRounds == 0 {
		cfg.PrimalityRounds = common.DefaultPrimalityRounds
	}
}

// Validate reports every violated parameter constraint, not just the first.
func (cfg Config) Validate() error {
	var result *multierror.Error
	if cfg.L < 8 || cfg.L > 32 {
		result = multierror.Append(result, errors.Wrap(crypto.ErrInvalidParameter, "l must satisfy 8 <= l <= 32"))
	}
	if cfg.T <= cfg.L {
		result = multierror.Append(result, errors.Wrap(crypto.ErrInvalidParameter, "t must be greater than l"))
	}
	if cfg.KeyLength <= cfg.T {
		result = multierror.Append(result, errors.Wrap(crypto.ErrInvalidParameter, "keyLength must be greater than t"))
	}
	if cfg.KeyLength%2 != 0 {
		result = multierror.Append(result, errors.Wrap(crypto.ErrInvalidParameter, "keyLength must be even"))
	}
	if cfg.KeyLength/2 < cfg.L+cfg.T+10 {
		result = multierror.Append(result, errors.Wrap(crypto.ErrInvalidParameter, "keyLength, l, t must satisfy keyLength/2 >= l+t+10"))
	}
	return result.ErrorOrNil()
}

// GenerateKeyPair builds a DGK keypair:
//
//	u  = the smallest prime of more than l+2 bits
//	vp, vq = distinct t-bit primes
//	p  = 2 p_r vp u + 1,  q = 2 q_r vq u + 1  with p_r, q_r prime
//	n  = p q
//
// vp != vq is enforced; were they equal, the order of elements of H could be
// read off the factorization of n-1.
func GenerateKeyPair(ctx context.Context, cfg Config) (*PrivateKey, *PublicKey, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	rounds := cfg.PrimalityRounds

	u := common.NextPrime(new(big.Int).Lsh(one, uint(cfg.L+2)), rounds)

	vp := common.GetRandomPrimeInt(cfg.T, rounds)
	vq := common.GetRandomPrimeInt(cfg.T, rounds)
	for vq.Cmp(vp) == 0 {
		vq = common.GetRandomPrimeInt(cfg.T, rounds)
	}

	common.Logger.Debugf("dgk: searching for %d-bit factor primes", cfg.KeyLength/2)
	p, pRand, err := findFactorPrime(ctx, cfg, u, vp)
	if err != nil {
		return nil, nil, err
	}
	q, qRand, err := findFactorPrime(ctx, cfg, u, vq)
	if err != nil {
		return nil, nil, err
	}
	n := new(big.Int).Mul(p, q)

	hRandP, err := findMaxOrderElement(ctx, p, pRand, vp, u)
	if err != nil {
		return nil, nil, err
	}
	hRandQ, err := findMaxOrderElement(ctx, q, qRand, vq, u)
	if err != nil {
		return nil, nil, err
	}
	hRand, err := crtCombine(hRandP, hRandQ, p, q, n)
	if err != nil {
		return nil, nil, err
	}
	// h = hRand^{2 u p_r q_r} mod n, of order vp*vq
	hExp := new(big.Int).Mul(two, u)
	hExp.Mul(hExp, pRand).Mul(hExp, qRand)
	h := new(big.Int).Exp(hRand, hExp, n)

	gRandP, err := findMaxOrderElement(ctx, p, pRand, vp, u)
	if err != nil {
		return nil, nil, err
	}
	gRandQ, err := findMaxOrderElement(ctx, q, qRand, vq, u)
	if err != nil {
		return nil, nil, err
	}
	gRand, err := crtCombine(gRandP, gRandQ, p, q, n)
	if err != nil {
		return nil, nil, err
	}
	// g = gRand^{2 p_r q_r} mod n, of order u*vp*vq
	gExp := new(big.Int).Mul(two, pRand)
	gExp.Mul(gExp, qRand)
	g := new(big.Int).Exp(gRand, gExp, n)

	publicKey := &PublicKey{N: n, G: g, H: h, U: u}
	privateKey := &PrivateKey{PublicKey: *publicKey, P: p, Q: q, Vp: vp, Vq: vq}
	common.Logger.Debugf("dgk: keygen done, modulus has %d bits", n.BitLen())
	return privateKey, publicKey, nil
}

// findFactorPrime searches for a prime p = pRand * 2*u*v + 1 of keyLength/2
// bits with pRand prime.
func findFactorPrime(ctx context.Context, cfg Config, u, v *big.Int) (p, pRand *big.Int, err error) {
	aux := new(big.Int).Mul(two, u)
	aux.Mul(aux, v)
	sizeRand := cfg.KeyLength/2 - aux.BitLen()
	if sizeRand <= 1 {
		return nil, nil, errors.Wrap(crypto.ErrInvalidParameter, "keyLength is too small for the chosen l and t")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, common.ErrGeneratorCancelled
		}
		pRand = common.GetRandomPrimeInt(sizeRand, cfg.PrimalityRounds)
		p = new(big.Int).Mul(pRand, aux)
		p.Add(p, one)
		if common.IsProbablePrime(p, cfg.PrimalityRounds) {
			return p, pRand, nil
		}
	}
}

// findMaxOrderElement implements Algorithm 4.80 for the group Z/p* whose
// order p-1 = 2 * pRand * v * u has a known factorization: a random element
// is a generator iff raising it to each maximal proper divisor of the order
// does not yield 1.
func findMaxOrderElement(ctx context.Context, p, pRand, v, u *big.Int) (*big.Int, error) {
	pMinusOne := new(big.Int).Sub(p, one)
	cofactors := []*big.Int{
		new(big.Int).Div(pMinusOne, pRand),
		new(big.Int).Div(pMinusOne, v),
		new(big.Int).Div(pMinusOne, u),
		new(big.Int).Div(pMinusOne, two),
	}
Search:
	for {
		if err := ctx.Err(); err != nil {
			return nil, common.ErrGeneratorCancelled
		}
		candidate := common.GetRandomPositiveInt(p)
		if candidate.Cmp(one) <= 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, candidate, p).Cmp(one) != 0 {
			continue
		}
		for _, cofactor := range cofactors {
			if new(big.Int).Exp(candidate, cofactor, p).Cmp(one) == 0 {
				continue Search
			}
		}
		return candidate, nil
	}
}

// crtCombine solves x = a mod p, x = b mod q with Gauss's algorithm.
func crtCombine(a, b, p, q, n *big.Int) (*big.Int, error) {
	qInvModP := new(big.Int).ModInverse(q, p)
	pInvModQ := new(big.Int).ModInverse(p, q)
	if qInvModP == nil || pInvModQ == nil {
		return nil, errors.Wrap(crypto.ErrKeyGenerationFailed, "p and q are not coprime")
	}
	x := new(big.Int).Mul(a, q)
	x.Mul(x, qInvModP)
	y := new(big.Int).Mul(b, p)
	y.Mul(y, pInvModQ)
	x.Add(x, y)
	return x.Mod(x, n), nil
}

// NewFromKeyPair builds an instance holding the private key. Full decryption
// additionally needs cfg.PrecomputeDecryptionMap; without it only the fast
// zero test is decidable.
func NewFromKeyPair(privateKey *PrivateKey, cfg Config) (*Dgk, error) {
	if privateKey == nil || privateKey.N == nil || privateKey.P == nil || privateKey.Vp == nil {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "incomplete private key")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Dgk{publicKey: &privateKey.PublicKey, privateKey: privateKey, cfg: cfg}
	return d, d.precompute()
}

// NewFromPublicKey builds an encrypt/evaluate-only instance.
func NewFromPublicKey(publicKey *PublicKey, cfg Config) (*Dgk, error) {
	if publicKey == nil || publicKey.N == nil || publicKey.G == nil || publicKey.H == nil || publicKey.U == nil {
		return nil, errors.Wrap(crypto.ErrInvalidParameter, "incomplete public key")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Dgk{publicKey: publicKey, cfg: cfg}
	return d, d.precompute()
}

func (d *Dgk) precompute() (err error) {
	d.boundary = new(big.Int).Rsh(d.publicKey.U, 1)

	if d.privateKey != nil {
		sk := d.privateKey
		pInvModQ := new(big.Int).ModInverse(sk.P, sk.Q)
		qInvModP := new(big.Int).ModInverse(sk.Q, sk.P)
		if pInvModQ == nil || qInvModP == nil {
			return errors.Wrap(crypto.ErrKeyGenerationFailed, "p and q are not coprime")
		}
		d.pTimesPInvModQ = new(big.Int).Mul(sk.P, pInvModQ)
		d.qTimesQInvModP = new(big.Int).Mul(sk.Q, qInvModP)

		if d.cfg.PrecomputeDecryptionMap {
			d.buildDecryptionMap()
		}
	}

	if d.randomizers, err = crypto.NewRandomizerCache(d.cfg.RandomizerCacheCapacity, d.GetRandomizer); err != nil {
		return err
	}
	if d.encZero, err = d.Encrypt(big.NewInt(0)); err != nil {
		return err
	}
	if d.encOne, err = d.Encrypt(big.NewInt(1)); err != nil {
		return err
	}
	return nil
}

// buildDecryptionMap tabulates g^{vp*i} mod p -> i for every i in Z/u.
// m is uniquely determined by c^{vp} mod p = g^{vp*m} mod p.
func (d *Dgk) buildDecryptionMap() {
	sk := d.privateKey
	common.Logger.Infof("dgk: precomputing decryption map for %s plaintexts", sk.U.String())
	d.decryptionMap = make(map[string]*big.Int)
	gPowVp := new(big.Int).Exp(sk.G, sk.Vp, sk.P)
	acc := big.NewInt(1)
	for i := big.NewInt(0); i.Cmp(sk.U) < 0; i = new(big.Int).Add(i, one) {
		d.decryptionMap[string(acc.Bytes())] = i
		acc = new(big.Int).Mul(acc, gPowVp)
		acc.Mod(acc, sk.P)
	}
	common.Logger.Infof("dgk: decryption map ready (%d entries)", len(d.decryptionMap))
}

// GetRandomizer draws r uniform in [0, 2^{2t}) and returns h^r mod n. The
// public key does not reveal vp*vq, so a 2t-bit exponent stands in for a
// uniform element of the subgroup generated by h.
func (d *Dgk) GetRandomizer() (*big.Int, error) {
	r := common.MustGetRandomInt(2 * d.cfg.T)
	if d.privateKey != nil {
		return d.crtExp(d.publicKey.H, r), nil
	}
	return new(big.Int).Exp(d.publicKey.H, r, d.publicKey.N), nil
}

// crtExp computes base^e mod n as
// (base^e mod p) q (q^{-1} mod p) + (base^e mod q) p (p^{-1} mod q) mod n.
func (d *Dgk) crtExp(base, e *big.Int) *big.Int {
	sk := d.privateKey
	x := new(big.Int).Exp(base, e, sk.P)
	x.Mul(x, d.qTimesQInvModP)
	y := new(big.Int).Exp(base, e, sk.Q)
	y.Mul(y, d.pTimesPInvModQ)
	x.Add(x, y)
	return x.Mod(x, d.publicKey.N)
}

// EncryptNonrandom computes c = g^m mod n, remapping negative plaintexts to
// the upper half of Z/u first.
func (d *Dgk) EncryptNonrandom(m *big.Int) (*crypto.Ciphertext, error) {
	u := d.publicKey.U
	if m.CmpAbs(u) >= 0 {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "the message is too large for the message space")
	}
	e := new(big.Int).Mod(m, u)
	var c *big.Int
	if d.privateKey != nil {
		c = d.crtExp(d.publicKey.G, e)
	} else {
		c = new(big.Int).Exp(d.publicKey.G, e, d.publicKey.N)
	}
	return crypto.NewCiphertext(c, d.publicKey.N), nil
}

// Encrypt computes c = g^m h^r mod n with the h^r factor from the cache.
func (d *Dgk) Encrypt(m *big.Int) (*crypto.Ciphertext, error) {
	c, err := d.EncryptNonrandom(m)
	if err != nil {
		return nil, err
	}
	return d.Randomize(c)
}

// Randomize multiplies in a fresh h^r mod n factor from the cache.
func (d *Dgk) Randomize(c *crypto.Ciphertext) (*crypto.Ciphertext, error) {
	if c == nil || c.Data == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "uninitialised ciphertext")
	}
	out := new(big.Int).Mul(c.Data, d.randomizers.Pop())
	return crypto.NewCiphertext(out.Mod(out, d.publicKey.N), d.publicKey.N), nil
}

// Decrypt looks up c^{vp} mod p in the precomputed table. It requires both
// the private key and the decryption map.
func (d *Dgk) Decrypt(c *crypto.Ciphertext) (*big.Int, error) {
	if d.privateKey == nil {
		return nil, crypto.ErrSecretKeyRequired
	}
	if d.decryptionMap == nil {
		return nil, errors.Wrap(crypto.ErrSecretKeyRequired, "this operation requires the decryption map")
	}
	if c == nil || c.Data == nil {
		return nil, errors.Wrap(crypto.ErrInvariantViolation, "uninitialised ciphertext")
	}
	sk := d.privateKey
	cPowVpModP := new(big.Int).Exp(c.Data, sk.Vp, sk.P)
	if cPowVpModP.Cmp(one) == 0 {
		return big.NewInt(0), nil
	}
	m, ok := d.decryptionMap[string(cPowVpModP.Bytes())]
	if !ok {
		return nil, crypto.ErrUndecodable
	}
	out := new(big.Int).Set(m)
	if out.Cmp(d.boundary) > 0 {
		out.Sub(out, d.publicKey.U)
	}
	return out, nil
}

// IsEncryptedZero tests c^{vp} mod p == 1, which holds iff the plaintext is
// zero. This skips the table lookup entirely.
func (d *Dgk) IsEncryptedZero(c *crypto.Ciphertext) (bool, error) {
	if d.privateKey == nil {
		return false, crypto.ErrSecretKeyRequired
	}
	if c == nil || c.Data == nil {
		return false, errors.Wrap(crypto.ErrInvariantViolation, "uninitialised ciphertext")
	}
	sk := d.privateKey
	return new(big.Int).Exp(c.Data, sk.Vp, sk.P).Cmp(one) == 0, nil
}

func (d *Dgk) EncryptedZero(randomize bool) (*crypto.Ciphertext, error) {
	if randomize {
		return d.Randomize(d.encZero)
	}
	return d.encZero, nil
}

func (d *Dgk) EncryptedOne(randomize bool) (*crypto.Ciphertext, error) {
	if randomize {
		return d.Randomize(d.encOne)
	}
	return d.encOne, nil
}

func (d *Dgk) MessageSpaceUpperBound() *big.Int {
	return d.publicKey.U
}

func (d *Dgk) PositiveNegativeBoundary() *big.Int {
	return d.boundary
}

func (d *Dgk) MessageSpaceBits() int {
	return d.publicKey.U.BitLen()
}

func (d *Dgk) EncryptionModulus() *big.Int {
	return d.publicKey.N
}

func (d *Dgk) PublicKey() *PublicKey {
	return d.publicKey
}

// L returns the configured operand bit length of the comparison protocol.
func (d *Dgk) L() int {
	return d.cfg.L
}
