package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lpcontrol/internal/handlers/business"
	"lpcontrol/pkg/config"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:          "lpctl",
		Short:        "Manage Raydium CLMM pools and positions through the proxy program",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("rpc", "", "Solana RPC URL")
	pf.String("wss", "", "Solana websocket URL")
	pf.String("clmm-program", "", "CLMM program id")
	pf.String("proxy-program", "", "proxy program id")
	pf.String("amm-config", "", "AMM config account")
	pf.Uint32("compute-units", 0, "compute unit limit per bundle")
	pf.Bool("skip-preflight", true, "skip preflight simulation")
	pf.String("commitment", "", "confirmation commitment (processed, confirmed, finalized)")
	pf.String("keystore", "", "keystore directory")
	pf.String("keystore-password", "", "keystore password")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(poolCmd(), positionCmd(), deriveCmd(), keystoreCmd(), dbCmd(), queueCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings reads settings for cmd. Flags only override when set explicitly.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	s, err := config.Load(cfgFile, changedFlags(cmd))
	if err != nil {
		return s, err
	}
	if level, err := logrus.ParseLevel(s.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	return s, nil
}

// newService connects to the chain. The journal is used only when a database is configured.
func newService(cmd *cobra.Command) (*business.PositionService, context.Context, context.CancelFunc, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)

	executor, err := business.NewExecutor(ctx, s)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}

	var journal business.Journal = business.NopJournal{}
	if s.DBHost != "" {
		config.InitDB(s)
		journal = business.NewGormJournal(config.DB)
	}
	return business.NewServiceFromSettings(executor, journal, s), ctx, stop, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
