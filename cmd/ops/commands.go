package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/internal/config"
	pgInfra "github.com/fastygo/todoboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/todoboard/internal/infrastructure/redis"
	"github.com/fastygo/todoboard/internal/services"
	"github.com/fastygo/todoboard/pkg/heatmap"
	"github.com/fastygo/todoboard/pkg/todoclient"
	"github.com/fastygo/todoboard/repository/postgres"
	redisRepo "github.com/fastygo/todoboard/repository/redis"
	"github.com/fastygo/todoboard/usecase"
	analyticsUC "github.com/fastygo/todoboard/usecase/analytics"
)

func newSweepCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one deadline status sweep directly against Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.StoragePostgres {
				return fmt.Errorf("sweep needs STORAGE=postgres, got %q", cfg.Storage.Driver)
			}

			pool, err := pgInfra.NewPool(cmd.Context(), cfg.Database, opts.logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			var invalidator usecase.AnalyticsInvalidator
			if cfg.Redis.Enabled {
				client, err := redisInfra.NewClient(cfg.Redis, opts.logger)
				if err != nil {
					opts.logger.Warn("redis unavailable, cached analytics stay until they expire", zap.Error(err))
				} else {
					defer client.Close()
					cache := redisRepo.NewCacheRepository(client, cfg.AppName+":", cfg.Analytics.CacheTTL)
					invalidator = analyticsUC.New(postgres.NewAnalyticsRepository(pool), cache, nil, analyticsUC.Config{}, opts.logger)
				}
			}

			sweeper := services.NewStatusSweeper(
				postgres.NewTaskRepository(pool),
				postgres.NewEventRepository(pool),
				invalidator,
				opts.logger,
				services.SweeperConfig{Interval: cfg.Sweep.Interval, BatchSize: cfg.Sweep.BatchSize},
			)
			result, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d updated=%d stale=%d failed=%d\n",
				result.Scanned, result.Updated, result.Stale, result.Failed)
			return nil
		},
	}
}

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Derive every task's status client-side and patch the ones that differ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := todoclient.New(opts.apiURL)
			tasks, err := client.ListAll(cmd.Context(), "")
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			changed, failed := 0, 0
			for _, task := range tasks {
				next := domain.DeriveStatus(task.Status, task.Deadline, now)
				if next == task.Status {
					continue
				}
				log := opts.logger.With(zap.String("todo_id", task.ID),
					zap.String("from", string(task.Status)),
					zap.String("to", string(next)))
				if dryRun {
					log.Info("would update status")
					changed++
					continue
				}
				if _, err := client.Patch(cmd.Context(), task.ID, todoclient.PatchInput{Status: &next}); err != nil {
					failed++
					log.Warn("status update failed", zap.Error(err))
					continue
				}
				changed++
				log.Info("status updated")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d changed=%d failed=%d\n", len(tasks), changed, failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without patching")
	return cmd
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create tasks from a YAML fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fixture, err := loadFixture(file)
			if err != nil {
				return err
			}

			client := todoclient.New(opts.apiURL)
			now := time.Now().UTC()
			for _, todo := range fixture.Todos {
				input, err := todo.Input(now)
				if err != nil {
					return err
				}
				created, err := client.Create(cmd.Context(), input)
				if err != nil {
					return fmt.Errorf("create %q: %w", todo.Title, err)
				}
				opts.logger.Info("seeded todo",
					zap.String("todo_id", created.ID),
					zap.String("title", created.Title),
					zap.String("status", string(created.Status)))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded=%d\n", len(fixture.Todos))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "fixtures.yaml", "fixture file")
	return cmd
}

func newHeatmapCommand(opts *rootOptions) *cobra.Command {
	var (
		asJSON       bool
		fallbackDays int
	)
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Fetch completion stats and print the daily activity series",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := todoclient.New(opts.apiURL)
			stats, err := client.CompletionStats(cmd.Context())
			if err != nil {
				return err
			}

			days := heatmap.Assemble(stats.WeeklyCompletion, heatmap.Options{
				Now:          time.Now().UTC(),
				FallbackDays: fallbackDays,
			})
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(days)
			}
			return printHeatmap(cmd.OutOrStdout(), days)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().IntVar(&fallbackDays, "fallback-days", heatmap.DefaultFallbackDays, "days shown when there is no data")
	return cmd
}

func printHeatmap(w io.Writer, days []domain.DailyActivityPoint) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCOUNT\tTOTAL\tPCT")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d%%\n", d.Date, d.Count, d.Total, d.Percentage)
	}
	return tw.Flush()
}
