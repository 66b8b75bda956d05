package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
)

func main() {
	env, err := LoadEnv(".env")
	if err != nil {
		slog.Error("[main][config]", "error", err)
		os.Exit(1)
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              env.SentryDSN,
		Environment:      env.Environment,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		slog.Error("[main][sentry]", "error", err)
		os.Exit(1)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, env)
	if err != nil {
		slog.Error("[main][app]", "error", err)
		sentry.CaptureException(err)
		return
	}

	if err := app.start(ctx); err != nil {
		slog.Error("[main][start]", "error", err)
		sentry.CaptureException(err)
	}
}
