// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command gatekeeper-admin administers user profiles from a terminal.
//
// It connects to the same PostgreSQL and Redis instances as the API server,
// signs in as an administrator through a private workspace and runs one
// directory command. Destructive commands ask for confirmation unless --yes
// is given.
//
// Usage:
//
//	gatekeeper-admin --email root@example.com list [disabled]
//	gatekeeper-admin --email root@example.com disable <user-id>
//	gatekeeper-admin --email root@example.com enable <user-id>
//	gatekeeper-admin --email root@example.com delete <user-id>
//	gatekeeper-admin --email root@example.com reset <email>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	"github.com/taibuivan/gatekeeper/internal/identity"
	"github.com/taibuivan/gatekeeper/internal/platform/config"
	"github.com/taibuivan/gatekeeper/internal/platform/constants"
	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
	"github.com/taibuivan/gatekeeper/internal/platform/kvcache"
	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
	pgstore "github.com/taibuivan/gatekeeper/internal/platform/postgres"
	redisstore "github.com/taibuivan/gatekeeper/internal/platform/redis"
	"github.com/taibuivan/gatekeeper/internal/users/profile"
	"github.com/taibuivan/gatekeeper/internal/workspace"
	"github.com/taibuivan/gatekeeper/pkg/uuid"
)

// credentials are the CLI's own environment variables.
type credentials struct {
	Password string `env:"GATEKEEPER_ADMIN_PASSWORD"`
}

// options holds the parsed command line. The store settings start from the
// same environment variables the API server reads.
type options struct {
	backend   config.Backend
	email     string
	password  string
	assumeYes bool
	verbose   bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(arguments []string, input io.Reader, output, errorOutput io.Writer) error {
	backend, err := config.LoadBackend()
	if err != nil {
		return err
	}
	secrets, err := env.ParseAs[credentials]()
	if err != nil {
		return fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	opts := options{backend: *backend}

	flagSet := pflag.NewFlagSet("gatekeeper-admin", pflag.ContinueOnError)
	flagSet.SetOutput(errorOutput)
	flagSet.StringVar(&opts.backend.DatabaseURL, "database-url", opts.backend.DatabaseURL, "PostgreSQL connection string (default $DATABASE_URL)")
	flagSet.StringVar(&opts.backend.RedisURL, "redis-url", opts.backend.RedisURL, "Redis connection URL (default $REDIS_URL)")
	flagSet.StringVar(&opts.backend.PublicBaseURL, "public-base-url", opts.backend.PublicBaseURL, "base URL of links in password reset emails")
	flagSet.StringVar(&opts.backend.ProfileCollection, "collection", opts.backend.ProfileCollection, "profile document collection")
	flagSet.StringVarP(&opts.email, "email", "e", "", "administrator email")
	flagSet.StringVar(&opts.password, "password", secrets.Password, "administrator password (default $GATEKEEPER_ADMIN_PASSWORD)")
	flagSet.BoolVarP(&opts.assumeYes, "yes", "y", false, "skip the confirmation prompt")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")
	flagSet.Usage = func() {
		fmt.Fprintln(errorOutput, "Usage: gatekeeper-admin [flags] list [disabled] | enable <id> | disable <id> | delete <id> | reset <email>")
		fmt.Fprintln(errorOutput, "\nFlags:")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(arguments); err != nil {
		return err
	}

	positional := flagSet.Args()
	if len(positional) == 0 {
		flagSet.Usage()
		return errors.New("missing command")
	}
	if opts.email == "" || opts.password == "" {
		return errors.New("--email and --password are required")
	}
	if err := opts.backend.RequireURLs(); err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errorOutput, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName+"-admin"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shared, closeShared, err := connect(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer closeShared()

	current := workspace.New(uuid.New(), shared)
	defer current.Close()

	terminal := newConsole(current, input, output, opts.assumeYes)
	defer terminal.flushNotifications()

	if err := terminal.signIn(ctx, opts.email, opts.password); err != nil {
		return err
	}
	defer func() { _, _ = current.Flows.SignOut(context.Background()) }()

	return terminal.run(ctx, positional[0], positional[1:])
}

// connect builds the shared collaborators on PostgreSQL and Redis.
func connect(ctx context.Context, opts options, logger *slog.Logger) (workspace.Shared, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := pgstore.NewPool(connectCtx, opts.backend.DatabaseURL, pgstore.PoolOptions{MaxConns: 2, MinConns: 1}, logger)
	if err != nil {
		return workspace.Shared{}, nil, fmt.Errorf("connect postgres: %w", err)
	}

	rdb, err := redisstore.NewClient(connectCtx, opts.backend.RedisURL, logger)
	if err != nil {
		pool.Close()
		return workspace.Shared{}, nil, fmt.Errorf("connect redis: %w", err)
	}

	documents := docstore.NewPostgres(pool)
	service := identity.NewService(
		identity.NewAccountRepository(pool),
		identity.NewTokenRepository(rdb, constants.RedisPrefixResetToken),
		identity.NewTokenRepository(rdb, constants.RedisPrefixVerifyToken),
		identity.NewLogMailer(logger),
		identity.ServiceOptions{
			PublicBaseURL:      opts.backend.PublicBaseURL,
			EmailRatePerMinute: opts.backend.EmailRatePerMinute,
		},
		logger,
	)
	service.SetAccountGuard(profile.NewDisabledChecker(documents, opts.backend.ProfileCollection))

	shared := workspace.Shared{
		Identity:  service,
		Documents: documents,
		// The operator's local profile copy lives only for this process.
		Caches:   kvcache.NewMemoryBackend(),
		Recorder: metrics.Nop{},
		Logger:   logger,
		Profile:  profile.Options{Collection: opts.backend.ProfileCollection},
	}

	closeAll := func() {
		_ = rdb.Close()
		pool.Close()
	}
	return shared, closeAll, nil
}
