// Command beastwatch is the operational CLI for the beast care checker.
//
// Usage:
//
//	beastwatch check run
//	beastwatch check watch --interval 1m
//	beastwatch notify test --token <fcm-token>
//	beastwatch notify log --owner 0xabc
//	beastwatch cooldown get --owner 0xabc
//	beastwatch cooldown clear --owner 0xabc
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bytebeasts/beastwatch/internal/config"
	"github.com/bytebeasts/beastwatch/internal/cooldown"
	"github.com/bytebeasts/beastwatch/internal/db"
	"github.com/bytebeasts/beastwatch/internal/notify"
	"github.com/bytebeasts/beastwatch/internal/torii"
	"github.com/bytebeasts/beastwatch/internal/watch"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "beastwatch",
		Short: "Beast care check and notification CLI",
	}

	root.AddCommand(checkCmd())
	root.AddCommand(notifyCmd())
	root.AddCommand(cooldownCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run beast care checks",
	}
	cmd.AddCommand(checkRunCmd())
	cmd.AddCommand(checkWatchCmd())
	return cmd
}

func checkRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one check run and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				runner := buildRunner(cfg, pool)
				start := time.Now()
				result, err := runner.Run(ctx)
				if err != nil {
					return fmt.Errorf("check run: %w", err)
				}
				logger.Info("Check run finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				for _, e := range result.Errors {
					logger.Warn("run error", "error", e)
				}
				return nil
			})
		},
	}
}

func checkWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run checks on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if interval > 0 {
					cfg.CheckInterval = interval
				}
				runner := buildRunner(cfg, pool)
				watch.StartScheduler(ctx, runner, cfg.CheckInterval, nil, logger)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Override CHECK_INTERVAL")
	return cmd
}

// --------------------------------------------------------------------------
// notify command
// --------------------------------------------------------------------------

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Push delivery utilities",
	}
	cmd.AddCommand(notifyTestCmd())
	cmd.AddCommand(notifyLogCmd())
	return cmd
}

func notifyTestCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send one diagnostic notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if token == "" {
				token = cfg.TestFCMToken
			}
			if token == "" {
				return fmt.Errorf("--token or TEST_FCM_TOKEN is required")
			}

			sender := notify.NewFCMSender(cfg.FCMServerKey, logger)
			if sender == nil {
				return fmt.Errorf("FCM_SERVER_KEY is required")
			}
			if err := sender.Send(ctx, token, "🔔 Test Notification", "Check your beast."); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			logger.Info("Test notification sent", "token", token)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Destination FCM token (default TEST_FCM_TOKEN)")
	return cmd
}

func notifyLogCmd() *cobra.Command {
	var owner string
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent notification outcomes for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" {
				return fmt.Errorf("--owner is required")
			}
			return withDeps(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				rows, err := pool.Query(ctx, "notification_log_recent", owner, limit)
				if err != nil {
					return fmt.Errorf("query notification log: %w", err)
				}
				defer rows.Close()

				count := 0
				for rows.Next() {
					var ownerID, beastID, title, status string
					var createdAt time.Time
					if err := rows.Scan(&ownerID, &beastID, &title, &status, &createdAt); err != nil {
						return fmt.Errorf("scan notification log: %w", err)
					}
					fmt.Printf("%s  %-6s  beast=%s  %s\n",
						createdAt.Format(time.RFC3339), status, beastID, title)
					count++
				}
				if count == 0 {
					fmt.Println("no notifications recorded for", owner)
				}
				return rows.Err()
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner address")
	cmd.Flags().IntVar(&limit, "limit", 20, "Max rows to show")
	return cmd
}

// --------------------------------------------------------------------------
// cooldown command
// --------------------------------------------------------------------------

func cooldownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cooldown",
		Short: "Inspect and clear owner cooldowns",
	}
	cmd.AddCommand(cooldownGetCmd())
	cmd.AddCommand(cooldownClearCmd())
	return cmd
}

func cooldownGetCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show an owner's last-notified time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" {
				return fmt.Errorf("--owner is required")
			}
			return withDeps(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				store := cooldown.NewPostgresStore(pool.Pool)
				ts, found, err := store.Get(ctx, owner)
				if err != nil {
					return err
				}
				if !found {
					fmt.Println("owner has never been notified:", owner)
					return nil
				}
				fmt.Printf("last notified: %s (%d)\n", time.UnixMilli(ts).UTC().Format(time.RFC3339), ts)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner address")
	return cmd
}

func cooldownClearCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear an owner's cooldown so the next run may notify",
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" {
				return fmt.Errorf("--owner is required")
			}
			return withDeps(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if err := cooldown.NewPostgresStore(pool.Pool).Clear(ctx, owner); err != nil {
					return err
				}
				logger.Info("Cooldown cleared", "owner", owner)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner address")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// buildRunner wires a check runner from configuration.
func buildRunner(cfg *config.Config, pool *db.Pool) *watch.Runner {
	client := torii.NewClient(cfg.ToriiURL, cfg.ToriiRequestsPerMinute, logger)
	gate := cooldown.NewGate(cooldown.NewPostgresStore(pool.Pool), cfg.CooldownWindow)
	sender := notify.NewFCMSender(cfg.FCMServerKey, logger)
	audit := notify.NewAuditLog(pool.Pool, logger)
	return watch.NewRunner(client, gate, sender, audit, watch.RunnerConfig{
		VitalThreshold: cfg.VitalThreshold,
		Workers:        cfg.CheckWorkers,
		TestMode:       cfg.TestMode,
		TestFCMToken:   cfg.TestFCMToken,
	}, logger)
}

// withDeps handles config loading, DB connection, and context cancellation.
func withDeps(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
