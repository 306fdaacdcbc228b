package main

import (
	"context"
	"fmt"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/kaiodadalt/task-management-system/config"
	"github.com/kaiodadalt/task-management-system/modules/api"
	"github.com/kaiodadalt/task-management-system/modules/auth"
	"github.com/kaiodadalt/task-management-system/modules/broadcast"
	"github.com/kaiodadalt/task-management-system/modules/task"
	"github.com/kaiodadalt/task-management-system/seed"
	"github.com/urfave/cli/v3"
)

func newRootCommand() *cli.Command {
	defaults := config.Default()
	return &cli.Command{
		Name:           "tasks",
		Usage:          "Task management API with realtime notifications",
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db-path",
				Usage:   "SQLite database file",
				Value:   defaults.DBPath,
				Sources: cli.EnvVars("DB_PATH"),
			},
			&cli.BoolFlag{
				Name:    "db-debug",
				Usage:   "Log every SQL statement",
				Sources: cli.EnvVars("DB_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "jwt-secret",
				Usage:   "HMAC secret used to sign tokens",
				Value:   defaults.JWTSecret,
				Sources: cli.EnvVars("JWT_SECRET_KEY"),
			},
			&cli.StringFlag{
				Name:    "jwt-issuer",
				Usage:   "Issuer claim of signed tokens",
				Value:   defaults.JWTIssuer,
				Sources: cli.EnvVars("JWT_ISSUER"),
			},
			&cli.DurationFlag{
				Name:    "access-token-ttl",
				Value:   defaults.AccessTokenTTL,
				Sources: cli.EnvVars("ACCESS_TOKEN_TTL"),
			},
			&cli.DurationFlag{
				Name:    "refresh-token-ttl",
				Value:   defaults.RefreshTokenTTL,
				Sources: cli.EnvVars("REFRESH_TOKEN_TTL"),
			},
		},
		Commands: []*cli.Command{
			newServeCommand(defaults),
			newSeedCommand(),
		},
	}
}

func newServeCommand(defaults config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   defaults.Port,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for broadcasting; empty disables it",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.DurationFlag{
				Name:    "shutdown-timeout",
				Value:   defaults.ShutdownTimeout,
				Sources: cli.EnvVars("SHUTDOWN_TIMEOUT"),
			},
			&cli.IntFlag{
				Name:    "notify-buffer",
				Usage:   "Queued notifications before new ones are dropped",
				Value:   defaults.NotifyBuffer,
				Sources: cli.EnvVars("NOTIFY_BUFFER"),
			},
		},
		Action: runServe,
	}
}

func newSeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Fill the database with demo users and tasks",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Value: 3},
			&cli.IntFlag{Name: "tasks", Value: 50},
		},
		Action: runSeed,
	}
}

// loadConfig reads the flags shared by every command. extra applies the
// command's own flags before validation.
func loadConfig(cmd *cli.Command, extra func(*config.Config)) (config.Config, error) {
	cfg := config.Default()
	cfg.DBPath = cmd.String("db-path")
	cfg.DBDebug = cmd.Bool("db-debug")
	cfg.JWTSecret = cmd.String("jwt-secret")
	cfg.JWTIssuer = cmd.String("jwt-issuer")
	cfg.AccessTokenTTL = cmd.Duration("access-token-ttl")
	cfg.RefreshTokenTTL = cmd.Duration("refresh-token-ttl")
	if extra != nil {
		extra(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, func(cfg *config.Config) {
		cfg.Port = cmd.Int("port")
		cfg.RedisAddr = cmd.String("redis-addr")
		cfg.RedisPassword = cmd.String("redis-password")
		cfg.ShutdownTimeout = cmd.Duration("shutdown-timeout")
		cfg.NotifyBuffer = cmd.Int("notify-buffer")
	})
	if err != nil {
		return err
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	logger := app.Logger()

	authModule := auth.NewModule(cfg, logger.WithModule("auth"))
	taskModule := task.NewModule(cfg, logger.WithModule("task"))
	broadcastModule := broadcast.NewModule(cfg, logger.WithModule("broadcast"))
	apiModule := api.NewModule(cfg, logger.WithModule("api"))

	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.AddHealthCheck("auth", authModule)
	apiModule.AddHealthCheck("task", taskModule)
	apiModule.AddHealthCheck("broadcast", broadcastModule)

	// Independent modules first, then dependent modules.
	app.Register(authModule)
	app.Register(taskModule)
	app.Register(broadcastModule)
	app.Register(apiModule)

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	logger.Info("Application started", "port", cfg.Port, "db", cfg.DBPath)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
	return nil
}

func runSeed(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	result, err := seed.Run(ctx, cfg, seed.Options{
		Users: cmd.Int("users"),
		Tasks: cmd.Int("tasks"),
	}, app.Logger().WithModule("seed"))
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d users and %d tasks. Every user's password is %q.\n",
		len(result.Users), result.Tasks, seed.DemoPassword)
	return nil
}
