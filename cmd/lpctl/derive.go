package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"lpcontrol/pkg/solana/clmm"
)

// deriveCmd prints program addresses without touching the network.
func deriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive CLMM program addresses offline",
	}

	derivePool := &cobra.Command{
		Use:   "pool",
		Short: "Derive the pool, vault, observation and bitmap extension addresses of a mint pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			a, err := mintFlag(cmd, "mint-a", "token-program-a")
			if err != nil {
				return err
			}
			b, err := mintFlag(cmd, "mint-b", "token-program-b")
			if err != nil {
				return err
			}
			spacing, _ := f.GetUint16("tick-spacing")

			keys, err := clmm.NewPoolKeys(s.ClmmProgramID, s.AmmConfig, spacing, a, b)
			if err != nil {
				return err
			}
			return printJSON(keys)
		},
	}
	derivePool.Flags().String("mint-a", "", "first mint")
	derivePool.Flags().String("mint-b", "", "second mint")
	derivePool.Flags().String("token-program-a", solana.TokenProgramID.String(), "token program of mint-a")
	derivePool.Flags().String("token-program-b", solana.TokenProgramID.String(), "token program of mint-b")
	derivePool.Flags().Uint16("tick-spacing", 10, "tick spacing of the amm config")
	_ = derivePool.MarkFlagRequired("mint-a")
	_ = derivePool.MarkFlagRequired("mint-b")

	derivePosition := &cobra.Command{
		Use:   "position <nft-mint>",
		Short: "Derive the personal position, metadata and, with --pool, range accounts of a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			nftMint, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid nft mint: %w", err)
			}
			out := map[string]interface{}{}

			personal, err := clmm.GetPersonalPositionAddress(s.ClmmProgramID, nftMint)
			if err != nil {
				return err
			}
			out["personal_position"] = personal
			metadata, err := clmm.GetNftMetadataAddress(nftMint)
			if err != nil {
				return err
			}
			out["metadata"] = metadata

			f := cmd.Flags()
			if poolStr, _ := f.GetString("pool"); poolStr != "" {
				pool, err := solana.PublicKeyFromBase58(poolStr)
				if err != nil {
					return fmt.Errorf("invalid pool: %w", err)
				}
				spacing, _ := f.GetUint16("tick-spacing")
				lower, _ := f.GetInt32("tick-lower")
				upper, _ := f.GetInt32("tick-upper")
				if err := clmm.ValidateTickRange("", lower, upper, spacing); err != nil {
					return err
				}

				protocol, err := clmm.GetProtocolPositionAddress(s.ClmmProgramID, pool, lower, upper)
				if err != nil {
					return err
				}
				out["protocol_position"] = protocol

				arrays := make([]map[string]interface{}, 0, 2)
				for _, tick := range []int32{lower, upper} {
					start, err := clmm.ArrayStartIndex(tick, spacing)
					if err != nil {
						return err
					}
					ta, err := clmm.GetTickArrayAddress(s.ClmmProgramID, pool, start)
					if err != nil {
						return err
					}
					page, err := clmm.ResolveBitmapPage(start, spacing)
					if err != nil {
						return err
					}
					arrays = append(arrays, map[string]interface{}{
						"tick":       tick,
						"tick_array": ta,
						"bitmap":     page,
					})
				}
				out["tick_arrays"] = arrays
			}
			return printJSON(out)
		},
	}
	derivePosition.Flags().String("pool", "", "pool address")
	derivePosition.Flags().Uint16("tick-spacing", 10, "tick spacing of the pool")
	derivePosition.Flags().Int32("tick-lower", 0, "lower tick of the range")
	derivePosition.Flags().Int32("tick-upper", 0, "upper tick of the range")

	cmd.AddCommand(derivePool, derivePosition)
	return cmd
}

func mintFlag(cmd *cobra.Command, mintName, programName string) (clmm.MintInfo, error) {
	mintStr, _ := cmd.Flags().GetString(mintName)
	programStr, _ := cmd.Flags().GetString(programName)
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return clmm.MintInfo{}, fmt.Errorf("invalid %s: %w", mintName, err)
	}
	program, err := solana.PublicKeyFromBase58(programStr)
	if err != nil {
		return clmm.MintInfo{}, fmt.Errorf("invalid %s: %w", programName, err)
	}
	return clmm.MintInfo{Mint: mint, TokenProgram: program}, nil
}
