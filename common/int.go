// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

package common

import (
	"math/big"

	"github.com/pkg/errors"
)

// modInt is a *big.Int that performs all of its arithmetic with modular reduction.
type modInt big.Int

var (
	zero = big.NewInt(0)
	one  = big.NewInt(1)
	two  = big.NewInt(2)
)

// ErrNegativeBitAccess is returned by Bit for negative inputs.
var ErrNegativeBitAccess = errors.New("bit access is defined for non-negative integers only")

func ModInt(mod *big.Int) *modInt {
	return (*modInt)(mod)
}

func (mi *modInt) Add(x, y *big.Int) *big.Int {
	i := new(big.Int)
	i.Add(x, y)
	return i.Mod(i, mi.i())
}

func (mi *modInt) Sub(x, y *big.Int) *big.Int {
	i := new(big.Int)
	i.Sub(x, y)
	return i.Mod(i, mi.i())
}

func (mi *modInt) Mul(x, y *big.Int) *big.Int {
	i := new(big.Int)
	i.Mul(x, y)
	return i.Mod(i, mi.i())
}

func (mi *modInt) Exp(x, y *big.Int) *big.Int {
	return new(big.Int).Exp(x, y, mi.i())
}

func (mi *modInt) ModInverse(g *big.Int) *big.Int {
	return new(big.Int).ModInverse(g, mi.i())
}

func (mi *modInt) i() *big.Int {
	return (*big.Int)(mi)
}

func IsInInterval(b *big.Int, bound *big.Int) bool {
	return b.Cmp(bound) == -1 && b.Cmp(zero) >= 0
}

// Lcm returns the least common multiple of a and b.
func Lcm(a, b *big.Int) *big.Int {
	gcd := new(big.Int).GCD(nil, nil, a, b)
	i := new(big.Int).Mul(a, b)
	return i.Div(i, gcd)
}

// Bit returns bit i of x. Bit access on negative integers is representation
// dependent, so x must be non-negative.
func Bit(x *big.Int, i int) (uint, error) {
	if x.Sign() < 0 {
		return 0, ErrNegativeBitAccess
	}
	return x.Bit(i), nil
}

// ScaledInt converts a float to a big.Int by multiplying it with `scale`
// and truncating the result toward zero.
func ScaledInt(value float64, scale *big.Int) *big.Int {
	f := new(big.Float).SetFloat64(value)
	f.Mul(f, new(big.Float).SetInt(scale))
	i, _ := f.Int(nil)
	return i
}

// ScaledIntRounded is ScaledInt with round-half-away-from-zero instead of truncation.
func ScaledIntRounded(value float64, scale *big.Int) *big.Int {
	f := new(big.Float).SetFloat64(value)
	f.Mul(f, new(big.Float).SetInt(scale))
	half := big.NewFloat(0.5)
	if f.Sign() < 0 {
		f.Sub(f, half)
	} else {
		f.Add(f, half)
	}
	i, _ := f.Int(nil)
	return i
}
