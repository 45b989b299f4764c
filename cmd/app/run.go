package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"FinSignal/internal/di"
	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/usecase"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var symbols, intervals []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the stage summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ivs, err := domrepo.ParseIntervals(intervals)
			if err != nil {
				return err
			}
			if len(intervals) == 0 {
				ivs = nil
			}
			for i, s := range symbols {
				symbols[i] = strings.ToUpper(strings.TrimSpace(s))
			}

			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := app.Pipeline().Run(cmd.Context(), usecase.TriggerCLI, symbols, ivs)
			if run != nil {
				printRun(run)
			}
			if err != nil {
				return err
			}
			if n := run.Failed(); n > 0 {
				return fmt.Errorf("%d units failed", n)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&symbols, "symbols", "s", nil, "symbols to process (default: configured universe)")
	cmd.Flags().StringSliceVarP(&intervals, "intervals", "i", nil, "intervals to process: 1H,4H,1D,1W (default: configured)")
	return cmd
}

func printRun(run *models.RunSummary) {
	fmt.Printf("run %s (%s) %s\n", run.RunID, run.Trigger, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Stage", "Success", "Skipped", "Failed", "Duration"}),
	)
	for _, s := range run.Stages {
		table.Append([]string{
			s.Stage,
			fmt.Sprintf("%d", s.Success),
			fmt.Sprintf("%d", s.Skipped),
			fmt.Sprintf("%d", s.Failed),
			s.Duration.Round(time.Millisecond).String(),
		})
	}
	table.Render()
}
