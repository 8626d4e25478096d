package business

import (
	"context"
	"encoding/json"
	"fmt"

	"lpcontrol/pkg/solana/clmm"
)

// Command is a lifecycle request queued for the worker. Exactly one payload matching Op is set.
type Command struct {
	Op         clmm.Op          `json:"op"`
	RequestID  string           `json:"request_id"`
	Initialize *InitPoolRequest `json:"initialize,omitempty"`
	Open       *OpenRequest     `json:"open,omitempty"`
	Increase   *IncreaseRequest `json:"increase,omitempty"`
	Decrease   *DecreaseRequest `json:"decrease,omitempty"`
	Close      *CloseRequest    `json:"close,omitempty"`
}

// DecodeCommand parses a queued command. Malformed bodies are validation errors so the
// worker drops them instead of requeueing.
func DecodeCommand(body []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		return cmd, &clmm.ValidationError{Reason: fmt.Sprintf("malformed command: %v", err)}
	}
	return cmd, nil
}

// Dispatch runs a queued command.
func (s *PositionService) Dispatch(ctx context.Context, cmd Command) (*Result, error) {
	missing := &clmm.ValidationError{Op: cmd.Op, Reason: "command payload missing"}
	switch cmd.Op {
	case clmm.OpInitialize:
		if cmd.Initialize == nil {
			return nil, missing
		}
		res, _, err := s.InitializePool(ctx, *cmd.Initialize)
		return res, err
	case clmm.OpOpen:
		if cmd.Open == nil {
			return nil, missing
		}
		return s.OpenPosition(ctx, *cmd.Open)
	case clmm.OpIncrease:
		if cmd.Increase == nil {
			return nil, missing
		}
		return s.IncreaseLiquidity(ctx, *cmd.Increase)
	case clmm.OpDecrease:
		if cmd.Decrease == nil {
			return nil, missing
		}
		return s.DecreaseLiquidity(ctx, *cmd.Decrease)
	case clmm.OpClose:
		if cmd.Close == nil {
			return nil, missing
		}
		return s.ClosePosition(ctx, *cmd.Close)
	}
	return nil, &clmm.ValidationError{Op: cmd.Op, Reason: fmt.Sprintf("unknown command %q", cmd.Op)}
}
