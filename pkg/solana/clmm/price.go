package clmm

import (
	"math/big"

	"lukechampine.com/uint128"
)

var (
	MinSqrtPriceX64 = uint128.From64(4295048016)
	MaxSqrtPriceX64 = uint128.FromBig(mustBig("79226673521066979257578248091"))

	q64 = new(big.Int).Lsh(big.NewInt(1), 64)
)

// Multipliers for bit i of |tick|, each sqrt(1.0001^-(2^i)) in Q64.64.
var tickRatioMultipliers = []string{
	"18444899583751176192",
	"18443055278223355904",
	"18439367220385607680",
	"18431993317065453568",
	"18417254355718170624",
	"18387811781193609216",
	"18329067761203558400",
	"18212142134806163456",
	"17980523815641700352",
	"17526086738831433728",
	"16651378430235570176",
	"15030750278694412288",
	"12247334978884435968",
	"8131365268886854656",
	"3584323654725218816",
	"696457651848324352",
	"26294789957507116",
	"37481735321082",
}

var tickRatioMultipliersBig = func() []*big.Int {
	out := make([]*big.Int, len(tickRatioMultipliers))
	for i, s := range tickRatioMultipliers {
		out[i] = mustBig(s)
	}
	return out
}()

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid integer constant " + s)
	}
	return v
}

// SqrtPriceX64FromTick returns sqrt(1.0001^tick) as a Q64.64 fixed-point value, the
// initial price argument of pool initialization.
func SqrtPriceX64FromTick(tick int32) (uint128.Uint128, error) {
	if tick < MinTick || tick > MaxTick {
		return uint128.Zero, invalid(OpInitialize, "tick %d outside [%d, %d]", tick, MinTick, MaxTick)
	}
	abs := tick
	if abs < 0 {
		abs = -abs
	}

	ratio := new(big.Int).Set(q64)
	if abs&0x1 != 0 {
		ratio = mustBig("18445821805675395072")
	}
	for i, mul := range tickRatioMultipliersBig {
		if abs&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, mul)
			ratio.Rsh(ratio, 64)
		}
	}
	if tick > 0 {
		ratio.Div(maxUint128, ratio)
	}
	return uint128.FromBig(ratio), nil
}

// SqrtPriceX64FromPrice converts a human price of token1 per token0 into Q64.64, adjusting
// for the mint decimals.
func SqrtPriceX64FromPrice(price *big.Float, decimals0, decimals1 uint8) (uint128.Uint128, error) {
	if price == nil || price.Sign() <= 0 {
		return uint128.Zero, invalid(OpInitialize, "price must be positive")
	}
	const prec = 256
	p := new(big.Float).SetPrec(prec).Set(price)
	exp := int64(decimals1) - int64(decimals0)
	scale := new(big.Float).SetPrec(prec).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(abs64(exp)), nil))
	if exp >= 0 {
		p.Mul(p, scale)
	} else {
		p.Quo(p, scale)
	}
	p.Sqrt(p)
	p.Mul(p, new(big.Float).SetPrec(prec).SetInt(q64))

	v, _ := p.Int(nil)
	if v.Cmp(MinSqrtPriceX64.Big()) < 0 || v.Cmp(MaxSqrtPriceX64.Big()) > 0 {
		return uint128.Zero, invalid(OpInitialize, "price %s outside the supported sqrt price range", price.Text('g', 10))
	}
	return uint128.FromBig(v), nil
}
