package main

import (
	"fmt"
	"os"

	"FinSignal/pkg/config"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "finsignal",
		Short: "Technical signal pipeline for crypto OHLC bars",
		Long: `FinSignal reads OHLC bars, computes indicators and the EMA(33) channel,
classifies the market regime and emits scored buy/sell/hold signals.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")

	root.AddCommand(serveCmd(), runCmd(), signalsCmd(), regimesCmd(), doctorCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}
