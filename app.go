package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-co-op/gocron/v2"
	"github.com/samgozman/release-thread/jobs"
	"github.com/samgozman/release-thread/pkg/week"
	"github.com/samgozman/release-thread/publisher"
	"github.com/samgozman/release-thread/scavenger"
	"github.com/samgozman/release-thread/scavenger/cos"
	"github.com/samgozman/release-thread/scavenger/fetcher"
	"github.com/samgozman/release-thread/scavenger/stereogum"
)

type App struct {
	env       *Env
	scavenger *scavenger.Scavenger
	publisher *publisher.TelegramPublisher
	logger    *slog.Logger
}

// NewApp wires the release sources and, in production, connects the publisher.
func NewApp(ctx context.Context, env *Env) (*App, error) {
	logger := slog.Default()
	plain := fetcher.NewPlain()
	rendered := fetcher.NewRendered().WithExecPath(env.ChromePath).WithWait(env.RenderTimeout)

	sg := stereogum.New(env.StereogumURL, plain, rendered).WithLogger(logger)
	if env.StereogumFeedURL != "" {
		sg = sg.WithFeed(env.StereogumFeedURL)
	}

	a := &App{
		env: env,
		scavenger: scavenger.NewScavenger(
			cos.New(env.CosURL, plain).WithLogger(logger),
			sg,
		).WithLogger(logger),
		logger: logger,
	}

	if env.IsProduction() {
		p, err := publisher.NewTelegramPublisher(ctx, env.TelegramChannelID, env.TelegramBotToken, 5)
		if err != nil {
			return nil, fmt.Errorf("error creating publisher: %w", err)
		}
		a.publisher = p
	}

	return a, nil
}

// job builds the weekly releases job.
func (a *App) job() *jobs.ReleasesJob {
	var p jobs.Publisher
	if a.publisher != nil {
		p = a.publisher
	}

	j := jobs.NewReleasesJob(a.scavenger, p).
		Limit(a.env.MessageLimit).
		Timeout(2*time.Minute + 4*a.env.RenderTimeout).
		WithLogger(a.logger)
	if a.env.IsProduction() {
		j = j.Publish()
	}
	return j
}

// start runs the job once or schedules it on every release day and blocks until ctx is done.
func (a *App) start(ctx context.Context) error {
	run := a.job().Run()
	if a.env.RunOnce {
		run()
		return nil
	}

	// Sentry hub for fatal errors
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
	})
	defer hub.Flush(2 * time.Second)

	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		hub.CaptureException(err)
		return fmt.Errorf("error creating scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.WeeklyJob(1, gocron.NewWeekdays(week.Target), gocron.NewAtTimes(gocron.NewAtTime(a.env.ScheduleHour, 0, 0))),
		gocron.NewTask(run),
		gocron.WithName("releases"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		hub.AddBreadcrumb(&sentry.Breadcrumb{
			Category: "scheduler",
			Message:  "Error scheduling job for weekly releases",
			Level:    sentry.LevelFatal,
		}, nil)
		hub.CaptureException(err)
		return fmt.Errorf("error scheduling releases job: %w", err)
	}

	s.Start()
	a.logger.Info("[app] scheduler started", "weekday", week.Target, "hour", a.env.ScheduleHour)

	<-ctx.Done()
	return s.Shutdown()
}
