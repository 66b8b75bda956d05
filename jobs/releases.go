package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/avast/retry-go"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/samgozman/release-thread/composer"
	"github.com/samgozman/release-thread/internal/utils"
	"github.com/samgozman/release-thread/registry"
)

// Collector gathers the releases of the week from every source.
type Collector interface {
	Collect(ctx context.Context, now time.Time) (*registry.Registry, error)
}

// Publisher delivers one text block and returns the id of the published message.
type Publisher interface {
	Publish(msg string) (pubID string, err error)
}

// ReleasesJob collects the weekly releases, composes the digest and publishes it block by block.
type ReleasesJob struct {
	collector Collector           // scavenger that will collect releases from all the sources
	publisher Publisher           // publisher that will publish the digest to the channel
	logger    *slog.Logger        // special logger for the job
	options   *releasesJobOptions // options for the job
	now       func() time.Time
}

type releasesJobOptions struct {
	shouldPublish bool          // if true, will publish the digest to the channel. Else: will just print it (for development)
	limit         int           // max size of one published block, in characters
	timeout       time.Duration // timeout for the whole run
	attempts      uint          // publish attempts per block
	delay         time.Duration // delay between publish attempts
	out           io.Writer     // where the digest is printed when not published
}

// NewReleasesJob creates a new ReleasesJob with the default options: print only,
// Telegram sized blocks, 2 minutes per run and 3 publish attempts per block.
func NewReleasesJob(collector Collector, publisher Publisher) *ReleasesJob {
	return &ReleasesJob{
		collector: collector,
		publisher: publisher,
		logger:    slog.Default(),
		options: &releasesJobOptions{
			limit:    composer.TelegramLimit,
			timeout:  2 * time.Minute,
			attempts: 3,
			delay:    30 * time.Second,
			out:      os.Stdout,
		},
		now: time.Now,
	}
}

// Publish sets the flag that will publish the digest to the channel. Else: will just print it to the console (for development).
func (j *ReleasesJob) Publish() *ReleasesJob {
	j.options.shouldPublish = true
	return j
}

// Limit sets the max size of one block.
func (j *ReleasesJob) Limit(n int) *ReleasesJob {
	j.options.limit = n
	return j
}

// Timeout sets the timeout of one run. Rendered fetches are slow, keep it well above the render wait.
func (j *ReleasesJob) Timeout(d time.Duration) *ReleasesJob {
	if d > 0 {
		j.options.timeout = d
	}
	return j
}

// RetryPolicy sets how many times and how often a failed block is published again.
func (j *ReleasesJob) RetryPolicy(attempts uint, delay time.Duration) *ReleasesJob {
	j.options.attempts = max(attempts, 1)
	j.options.delay = delay
	return j
}

// PrintTo sets where the digest is printed when the job doesn't publish.
func (j *ReleasesJob) PrintTo(w io.Writer) *ReleasesJob {
	j.options.out = w
	return j
}

// WithLogger replaces the default logger.
func (j *ReleasesJob) WithLogger(l *slog.Logger) *ReleasesJob {
	j.logger = l
	return j
}

// Run returns the job function that will be executed by the scheduler.
func (j *ReleasesJob) Run() JobFunc {
	return func() {
		_ = j.run(context.Background())
	}
}

func (j *ReleasesJob) run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.options.timeout)
	defer cancel()

	runID := uuid.NewString()
	logger := j.logger.With("run_id", runID)

	tx := sentry.StartTransaction(ctx, "Job.Releases")
	tx.Op = "job-releases"
	tx.SetTag("run_id", runID)

	// Sentry performance monitoring
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
		ctx = sentry.SetHubOnContext(ctx, hub)
	}

	defer func() {
		tx.Finish()
		hub.Flush(2 * time.Second)
	}()

	span := tx.StartChild("Collect")
	reg, err := j.collector.Collect(ctx, j.now())
	span.Finish()
	if err != nil {
		// Degraded sources still return a displayable registry.
		logger.Warn("[releases][collect]", "error", err)
		hub.AddBreadcrumb(&sentry.Breadcrumb{
			Category: "scavenger",
			Message:  "Some sources returned degraded results",
			Level:    sentry.LevelWarning,
		}, nil)
		utils.CaptureSentryException("jobReleasesCollectError", hub, err)
	}
	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "successful",
		Message:  fmt.Sprintf("Collect returned %d releases", reg.Len()),
		Level:    sentry.LevelInfo,
	}, nil)

	span = tx.StartChild("Digest")
	blocks := composer.Digest(reg, j.options.limit)
	span.Finish()
	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "successful",
		Message:  fmt.Sprintf("Digest returned %d blocks", len(blocks)),
		Level:    sentry.LevelInfo,
	}, nil)

	if !j.options.shouldPublish {
		for _, b := range blocks {
			fmt.Fprintln(j.options.out, b)
		}
		return nil
	}

	span = tx.StartChild("Publish")
	defer span.Finish()
	for i, b := range blocks {
		id, err := j.publish(ctx, b)
		if err != nil {
			e := fmt.Errorf("error publishing block %d of %d: %w", i+1, len(blocks), err)
			logger.Error("[releases][publish]", "error", e)
			hub.AddBreadcrumb(&sentry.Breadcrumb{
				Category: "publisher",
				Message:  "Error publishing releases digest",
				Level:    sentry.LevelError,
			}, nil)
			utils.CaptureSentryException("jobReleasesPublishError", hub, e)
			// Remaining blocks are dropped.
			return e
		}
		logger.Info("[releases][publish] block published", "id", id, "block", i+1)
	}

	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "successful",
		Message:  fmt.Sprintf("Published %d blocks", len(blocks)),
		Level:    sentry.LevelInfo,
	}, nil)

	return nil
}

// publish sends one block, retrying on failure.
func (j *ReleasesJob) publish(ctx context.Context, block string) (string, error) {
	var id string
	err := retry.Do(func() error {
		var err error
		id, err = j.publisher.Publish(block)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(j.options.attempts),
		retry.Delay(j.options.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			j.logger.Warn("[releases][publish] retrying", "attempt", n+1, "error", err)
		}),
	)
	return id, err
}
