package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"lpcontrol/internal/handlers/business"
)

func rangeFlags(f *pflag.FlagSet) {
	f.Int32("tick-lower", 0, "lower tick of the range")
	f.Int32("tick-upper", 0, "upper tick of the range")
	f.String("liquidity", "", "liquidity amount (u128)")
}

func positionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Open, resize and close positions",
	}

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a position with a new NFT mint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			req := business.OpenRequest{}
			req.Pool, _ = f.GetString("pool")
			req.Owner, _ = f.GetString("owner")
			req.TickLower, _ = f.GetInt32("tick-lower")
			req.TickUpper, _ = f.GetInt32("tick-upper")
			req.Liquidity, _ = f.GetString("liquidity")
			req.Amount0Max, _ = f.GetUint64("amount0-max")
			req.Amount1Max, _ = f.GetUint64("amount1-max")
			req.WithMetadata, _ = f.GetBool("metadata")

			return runOp(cmd, func(svc *business.PositionService) (interface{}, error) {
				return svc.OpenPosition(cmd.Context(), req)
			})
		},
	}
	openCmd.Flags().String("pool", "", "pool address")
	openCmd.Flags().String("owner", "", "position owner, must be in the keystore")
	rangeFlags(openCmd.Flags())
	openCmd.Flags().Uint64("amount0-max", 0, "max token0 to deposit")
	openCmd.Flags().Uint64("amount1-max", 0, "max token1 to deposit")
	openCmd.Flags().Bool("metadata", false, "create NFT metadata")
	_ = openCmd.MarkFlagRequired("pool")
	_ = openCmd.MarkFlagRequired("owner")

	increaseCmd := &cobra.Command{
		Use:   "increase <nft-mint>",
		Short: "Add liquidity to a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			req := business.IncreaseRequest{NftMint: args[0]}
			req.Owner, _ = f.GetString("owner")
			req.TickLower, _ = f.GetInt32("tick-lower")
			req.TickUpper, _ = f.GetInt32("tick-upper")
			req.Liquidity, _ = f.GetString("liquidity")
			req.Amount0Max, _ = f.GetUint64("amount0-max")
			req.Amount1Max, _ = f.GetUint64("amount1-max")
			baseFlag, err := optionalBool(cmd, "base-flag")
			if err != nil {
				return err
			}
			req.BaseFlag = baseFlag

			return runOp(cmd, func(svc *business.PositionService) (interface{}, error) {
				return svc.IncreaseLiquidity(cmd.Context(), req)
			})
		},
	}
	increaseCmd.Flags().String("owner", "", "position owner, defaults to the journaled owner")
	rangeFlags(increaseCmd.Flags())
	increaseCmd.Flags().Uint64("amount0-max", 0, "max token0 to deposit")
	increaseCmd.Flags().Uint64("amount1-max", 0, "max token1 to deposit")
	increaseCmd.Flags().Bool("base-flag", false, "treat amount0 (true) or amount1 (false) as the base amount")

	decreaseCmd := &cobra.Command{
		Use:   "decrease <nft-mint>",
		Short: "Remove liquidity from a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			req := business.DecreaseRequest{NftMint: args[0]}
			req.Owner, _ = f.GetString("owner")
			req.TickLower, _ = f.GetInt32("tick-lower")
			req.TickUpper, _ = f.GetInt32("tick-upper")
			req.Liquidity, _ = f.GetString("liquidity")
			req.Amount0Min, _ = f.GetUint64("amount0-min")
			req.Amount1Min, _ = f.GetUint64("amount1-min")

			return runOp(cmd, func(svc *business.PositionService) (interface{}, error) {
				return svc.DecreaseLiquidity(cmd.Context(), req)
			})
		},
	}
	decreaseCmd.Flags().String("owner", "", "position owner, defaults to the journaled owner")
	rangeFlags(decreaseCmd.Flags())
	decreaseCmd.Flags().Uint64("amount0-min", 0, "min token0 to receive")
	decreaseCmd.Flags().Uint64("amount1-min", 0, "min token1 to receive")

	closeCmd := &cobra.Command{
		Use:   "close <nft-mint>",
		Short: "Close an empty position and burn its NFT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := business.CloseRequest{NftMint: args[0]}
			req.Owner, _ = cmd.Flags().GetString("owner")

			return runOp(cmd, func(svc *business.PositionService) (interface{}, error) {
				return svc.ClosePosition(cmd.Context(), req)
			})
		},
	}
	closeCmd.Flags().String("owner", "", "position owner, defaults to the journaled owner")

	showCmd := &cobra.Command{
		Use:   "show <nft-mint>",
		Short: "Read a position from chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOp(cmd, func(svc *business.PositionService) (interface{}, error) {
				return svc.GetPosition(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(openCmd, increaseCmd, decreaseCmd, closeCmd, showCmd)
	return cmd
}

// runOp builds the service, runs fn under the signal context and prints its result.
func runOp(cmd *cobra.Command, fn func(svc *business.PositionService) (interface{}, error)) error {
	svc, ctx, stop, err := newService(cmd)
	if err != nil {
		return err
	}
	defer stop()

	cmd.SetContext(ctx)
	out, err := fn(svc)
	if err != nil {
		return err
	}
	return printJSON(out)
}
