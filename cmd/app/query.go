package main

import (
	"fmt"
	"os"

	"FinSignal/internal/di"
	"FinSignal/internal/domain/models"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func signalsCmd() *cobra.Command {
	var req models.ListSignalsRequest
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "List recent signals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			q, cleanup, err := di.InitializeQueryService(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			rows, err := q.ListSignals(cmd.Context(), req)
			if err != nil {
				return err
			}
			printSignals(rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Symbol, "symbol", "s", "", "filter by symbol")
	cmd.Flags().StringVarP(&req.Interval, "interval", "i", "", "filter by interval")
	cmd.Flags().StringVar(&req.Status, "status", "", "filter by status: active, closed, expired")
	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 20, "number of signals")
	return cmd
}

func printSignals(rows []models.TradingSignal) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"ID", "Time", "Symbol", "TF", "Signal", "Strategy", "Conf", "Entry", "Stop", "Status", "PnL%"}),
	)
	for _, s := range rows {
		table.Append([]string{
			fmt.Sprintf("%d", s.ID),
			s.Timestamp.Format("2006-01-02 15:04"),
			s.Symbol,
			s.Interval,
			s.SignalType,
			s.Strategy,
			fmt.Sprintf("%.0f", s.Confidence),
			s.EntryPrice.StringFixed(4),
			nullable(s.StopLoss.Valid, s.StopLoss.Decimal.StringFixed(4)),
			s.Status,
			floatOrDash(s.PnLPct),
		})
	}
	table.Render()
}

func regimesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regimes SYMBOL",
		Short: "Show the latest regime of every interval for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			q, cleanup, err := di.InitializeQueryService(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			rows, err := q.ListLatestRegimes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"TF", "Time", "Regime", "Trend", "Higher TF", "ADX", "In %", "Width %", "Vol ratio"}),
			)
			for _, r := range rows {
				higher := "-"
				if r.HigherTFTrend != nil {
					higher = *r.HigherTFTrend
				}
				table.Append([]string{
					r.Interval,
					r.Timestamp.Format("2006-01-02 15:04"),
					r.RegimeType,
					r.TrendDirection,
					higher,
					fmt.Sprintf("%.2f", r.ADX),
					fmt.Sprintf("%.2f", r.ChannelInPct),
					floatOrDash(r.ChannelWidthPct),
					floatOrDash(r.VolumeRatio),
				})
			}
			table.Render()
			return nil
		},
	}
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func nullable(ok bool, s string) string {
	if !ok {
		return "-"
	}
	return s
}
