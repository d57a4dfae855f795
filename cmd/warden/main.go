package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/flocksocial/integrity/engine"
	"github.com/flocksocial/integrity/util/dbutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "warden",
		Usage:   "trust and integrity daemon (keeps the flock honest)",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/warden/integrity.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   40,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL; counters, caches, and flags stay in-process when empty",
			EnvVars: []string{"WARDEN_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":3985",
			EnvVars: []string{"WARDEN_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3984",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "sweep-interval",
			Usage:   "how often to run the sanction expiry sweep; 0 disables the loop",
			Value:   5 * time.Minute,
			EnvVars: []string{"WARDEN_SWEEP_INTERVAL"},
		},
		&cli.IntFlag{
			Name:    "severe-quota-day",
			Usage:   "max automatic severe sanctions per day before downgrading (circuit breaker)",
			Value:   50,
			EnvVars: []string{"WARDEN_SEVERE_QUOTA_DAY"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		if q := cctx.Int("severe-quota-day"); q > 0 {
			engine.QuotaSevereSanctionDay = q
		}

		db, err := dbutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}

		srv, err := NewServer(
			db,
			Config{
				Logger:        logger,
				RedisURL:      cctx.String("redis-url"),
				Bind:          cctx.String("bind"),
				SweepInterval: cctx.Duration("sweep-interval"),
			},
		)
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run integrity service: %w", err)
		}
		return nil
	},
}
