package clmm

import (
	"math/big"
	"strings"

	"lukechampine.com/uint128"
)

// Op names a lifecycle transition. It tags errors, journal rows and queue messages.
type Op string

const (
	OpInitialize Op = "initialize"
	OpOpen       Op = "open_position"
	OpIncrease   Op = "increase_liquidity"
	OpDecrease   Op = "decrease_liquidity"
	OpClose      Op = "close_position"
)

// Phase is the lifecycle stage of a position.
type Phase uint8

const (
	Unopened Phase = iota
	Open
	Closed
)

func (p Phase) String() string {
	switch p {
	case Unopened:
		return "unopened"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// State is a single read of a position's lifecycle. Values are derived from freshly
// fetched chain data (see DeriveState) and are never cached between operations.
// Transition methods return the state the chain will hold once the bundle commits.
type State struct {
	Phase     Phase
	Liquidity uint128.Uint128
	TickLower int32
	TickUpper int32

	rangeKnown bool
}

func UnopenedState() State { return State{Phase: Unopened} }

func ClosedState() State { return State{Phase: Closed} }

// OpenState is an open position with known bounds.
func OpenState(tickLower, tickUpper int32, liquidity uint128.Uint128) State {
	return State{
		Phase:      Open,
		Liquidity:  liquidity,
		TickLower:  tickLower,
		TickUpper:  tickUpper,
		rangeKnown: true,
	}
}

// DeriveState maps a fetched personal position (nil when the account does not exist)
// to a lifecycle state. retired reports that the position NFT was opened before, so a
// missing account means the position was closed rather than never opened.
func DeriveState(position *PersonalPosition, retired bool) State {
	if position != nil {
		return OpenState(position.TickLowerIndex, position.TickUpperIndex, position.Liquidity)
	}
	if retired {
		return ClosedState()
	}
	return UnopenedState()
}

type OpenParams struct {
	TickLower    int32
	TickUpper    int32
	Liquidity    uint128.Uint128
	Amount0Max   uint64
	Amount1Max   uint64
	WithMetadata bool
}

type IncreaseParams struct {
	TickLower  int32
	TickUpper  int32
	Liquidity  uint128.Uint128
	Amount0Max uint64
	Amount1Max uint64
	// BaseFlag is forwarded as Option<bool>; nil encodes None.
	BaseFlag *bool
}

type DecreaseParams struct {
	TickLower  int32
	TickUpper  int32
	Liquidity  uint128.Uint128
	Amount0Min uint64
	Amount1Min uint64
}

// Open validates an open request against s.
func (s State) Open(p OpenParams, tickSpacing uint16) (State, error) {
	if s.Phase != Unopened {
		return s, precondition(OpOpen, "position is %s, open requires unopened", s.Phase)
	}
	if err := ValidateTickRange(OpOpen, p.TickLower, p.TickUpper, tickSpacing); err != nil {
		return s, err
	}
	return OpenState(p.TickLower, p.TickUpper, p.Liquidity), nil
}

// Increase validates an increase request against s.
func (s State) Increase(p IncreaseParams, tickSpacing uint16) (State, error) {
	if err := s.requireOpen(OpIncrease, p.TickLower, p.TickUpper, tickSpacing); err != nil {
		return s, err
	}
	sum := s.Liquidity.AddWrap(p.Liquidity)
	if sum.Cmp(s.Liquidity) < 0 {
		return s, invalid(OpIncrease, "liquidity %s + %s overflows u128", s.Liquidity, p.Liquidity)
	}
	return OpenState(p.TickLower, p.TickUpper, sum), nil
}

// Decrease validates a decrease request against s. Liquidity may not go below zero.
func (s State) Decrease(p DecreaseParams, tickSpacing uint16) (State, error) {
	if err := s.requireOpen(OpDecrease, p.TickLower, p.TickUpper, tickSpacing); err != nil {
		return s, err
	}
	if p.Liquidity.Cmp(s.Liquidity) > 0 {
		return s, precondition(OpDecrease, "cannot remove %s liquidity from position holding %s", p.Liquidity, s.Liquidity)
	}
	return OpenState(p.TickLower, p.TickUpper, s.Liquidity.Sub(p.Liquidity)), nil
}

// Close validates a close request against s. Only an open position with zero liquidity may close.
func (s State) Close() (State, error) {
	if s.Phase != Open {
		return s, precondition(OpClose, "position is %s, close requires open", s.Phase)
	}
	if !s.Liquidity.IsZero() {
		return s, precondition(OpClose, "position still holds %s liquidity", s.Liquidity)
	}
	return ClosedState(), nil
}

func (s State) requireOpen(op Op, tickLower, tickUpper int32, tickSpacing uint16) error {
	if s.Phase != Open {
		return precondition(op, "position is %s, %s requires open", s.Phase, op)
	}
	if err := ValidateTickRange(op, tickLower, tickUpper, tickSpacing); err != nil {
		return err
	}
	if s.rangeKnown && (s.TickLower != tickLower || s.TickUpper != tickUpper) {
		return precondition(op, "tick range [%d, %d] differs from opened range [%d, %d]",
			tickLower, tickUpper, s.TickLower, s.TickUpper)
	}
	return nil
}

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// ParseLiquidity parses a decimal liquidity amount. Negative and oversized values are rejected.
func ParseLiquidity(op Op, s string) (uint128.Uint128, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uint128.Zero, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return uint128.Zero, invalid(op, "liquidity %q is not an integer", s)
	}
	if v.Sign() < 0 {
		return uint128.Zero, invalid(op, "liquidity %s is negative", s)
	}
	if v.Cmp(maxUint128) > 0 {
		return uint128.Zero, invalid(op, "liquidity %s overflows u128", s)
	}
	return uint128.FromBig(v), nil
}
