package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"FinSignal/pkg/cache"
	pkgch "FinSignal/pkg/clickhouse"
	"FinSignal/pkg/config"
	pkgpg "FinSignal/pkg/postgres"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type check struct {
	name string
	fn   func(ctx context.Context, cfg *config.Config) (string, error)
}

var checks = []check{
	{"postgres", func(ctx context.Context, cfg *config.Config) (string, error) {
		d, err := pkgpg.Ping(ctx, cfg.Postgres.DSN)
		return d.Round(time.Millisecond).String(), err
	}},
	{"clickhouse", func(ctx context.Context, cfg *config.Config) (string, error) {
		ch := cfg.ClickHouse
		c, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		)
		if err != nil {
			return "", err
		}
		defer c.Close()
		start := time.Now()
		if err := c.Health(ctx); err != nil {
			return "", err
		}
		return time.Since(start).Round(time.Millisecond).String(), nil
	}},
	{"redis", func(ctx context.Context, cfg *config.Config) (string, error) {
		if !cfg.Redis.Enabled {
			return "disabled", nil
		}
		start := time.Now()
		c, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Addr),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
		)
		if err != nil {
			return "", err
		}
		defer c.Close()
		return time.Since(start).Round(time.Millisecond).String(), c.Ping(ctx)
	}},
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity to every backing store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Check", "Status", "Detail"}),
			)
			failed := 0
			for _, c := range checks {
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				detail, err := c.fn(ctx, cfg)
				cancel()
				status := "ok"
				if err != nil {
					status, detail = "FAIL", err.Error()
					failed++
				}
				table.Append([]string{c.name, status, detail})
			}
			table.Render()
			if failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			return nil
		},
	}
}
