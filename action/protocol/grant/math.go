// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package grant

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-grant/action"
)

// _maxAmountBits is the width of every amount and counter kept in state
const _maxAmountBits = 128

var _feeBase = uint256.NewInt(action.MaxFeePoint)

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "negative amount %s", v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow || u.BitLen() > _maxAmountBits {
		return nil, errors.Wrapf(ErrOverflow, "amount %s exceeds %d bits", v, _maxAmountBits)
	}
	return u, nil
}

func fromU256(u *uint256.Int) (*big.Int, error) {
	if u.BitLen() > _maxAmountBits {
		return nil, errors.Wrapf(ErrOverflow, "result %s exceeds %d bits", u.ToBig(), _maxAmountBits)
	}
	return u.ToBig(), nil
}

// voteWeight returns units*(units+1)/2 + units*voted, the increase of f(n) = n*(n+1)/2 from voted
// to voted+units
func voteWeight(units uint64, voted *big.Int) (*big.Int, error) {
	v, err := toU256(voted)
	if err != nil {
		return nil, err
	}
	n := uint256.NewInt(units)
	// n < 2^64, so n*(n+1) cannot overflow 256 bits
	tri := new(uint256.Int).Mul(n, new(uint256.Int).AddUint64(n, 1))
	tri.Rsh(tri, 1)
	carry, overflow := new(uint256.Int).MulOverflow(n, v)
	if overflow {
		return nil, errors.Wrap(ErrOverflow, "vote weight")
	}
	w, overflow := new(uint256.Int).AddOverflow(tri, carry)
	if overflow {
		return nil, errors.Wrap(ErrOverflow, "vote weight")
	}
	return fromU256(w)
}

// mulAmount returns a*b, failing beyond 128 bits
func mulAmount(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	// both operands fit 128 bits
	return fromU256(new(uint256.Int).Mul(x, y))
}

// addAmount returns a+b, failing beyond 128 bits
func addAmount(a, b *big.Int) (*big.Int, error) {
	x, err := toU256(a)
	if err != nil {
		return nil, err
	}
	y, err := toU256(b)
	if err != nil {
		return nil, err
	}
	return fromU256(new(uint256.Int).Add(x, y))
}

// splitFee returns floor(amount*feePoint/10000) and the remainder
func splitFee(amount *big.Int, feePoint uint64) (fee *big.Int, net *big.Int, err error) {
	a, err := toU256(amount)
	if err != nil {
		return nil, nil, err
	}
	f := new(uint256.Int).Mul(a, uint256.NewInt(feePoint))
	f.Div(f, _feeBase)
	return f.ToBig(), new(uint256.Int).Sub(a, f).ToBig(), nil
}

// poolShare returns floor(projectArea*pool/roundArea), zero when roundArea is zero
func poolShare(projectArea, pool, roundArea *big.Int) (*big.Int, error) {
	if roundArea == nil || roundArea.Sign() == 0 {
		return big.NewInt(0), nil
	}
	pa, err := toU256(projectArea)
	if err != nil {
		return nil, err
	}
	p, err := toU256(pool)
	if err != nil {
		return nil, err
	}
	ra, err := toU256(roundArea)
	if err != nil {
		return nil, err
	}
	share, overflow := new(uint256.Int).MulDivOverflow(pa, p, ra)
	if overflow {
		return nil, errors.Wrap(ErrOverflow, "pool share")
	}
	return share.ToBig(), nil
}
