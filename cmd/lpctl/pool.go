package main

import (
	"github.com/spf13/cobra"

	"lpcontrol/internal/handlers/business"
)

func poolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Create and inspect pools",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a pool for a mint pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, ctx, stop, err := newService(cmd)
			if err != nil {
				return err
			}
			defer stop()

			f := cmd.Flags()
			req := business.InitPoolRequest{}
			req.Creator, _ = f.GetString("creator")
			req.MintA, _ = f.GetString("mint-a")
			req.MintB, _ = f.GetString("mint-b")
			req.TickSpacing, _ = f.GetUint16("tick-spacing")
			req.Price, _ = f.GetString("price")
			req.OpenTime, _ = f.GetUint64("open-time")
			if f.Changed("tick") {
				tick, _ := f.GetInt32("tick")
				req.InitialTick = &tick
			}

			res, keys, err := svc.InitializePool(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{"result": res, "pool": keys})
		},
	}
	initCmd.Flags().String("creator", "", "pool creator, must be in the keystore")
	initCmd.Flags().String("mint-a", "", "first mint")
	initCmd.Flags().String("mint-b", "", "second mint")
	initCmd.Flags().Uint16("tick-spacing", 10, "tick spacing of the amm config")
	initCmd.Flags().Int32("tick", 0, "initial tick")
	initCmd.Flags().String("price", "", "initial price as mint1 per mint0, instead of --tick")
	initCmd.Flags().Uint64("open-time", 0, "unix time the pool opens for swaps")
	_ = initCmd.MarkFlagRequired("creator")
	_ = initCmd.MarkFlagRequired("mint-a")
	_ = initCmd.MarkFlagRequired("mint-b")

	showCmd := &cobra.Command{
		Use:   "show <address>",
		Short: "Read a pool from chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, ctx, stop, err := newService(cmd)
			if err != nil {
				return err
			}
			defer stop()

			view, err := svc.GetPool(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(view)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
