package scavenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samgozman/release-thread/registry"
	"golang.org/x/sync/errgroup"
)

// Fetcher downloads the markup of a page.
//
// ready is a CSS selector the page must contain before its markup is returned. Fetchers that
// cannot wait for elements (plain HTTP) ignore it.
type Fetcher interface {
	Fetch(ctx context.Context, url, ready string) (string, error)
}

// Extractor turns one external release source into a registry.
//
// Extract never fails hard: the returned registry is always non-nil and displayable,
// holding either releases or a message explaining what went wrong. A non-nil error only
// classifies the degradation (see Error) for logs and Sentry.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, now time.Time) (*registry.Registry, error)
}

// Scavenger is the struct that fetches weekly releases from all the defined sources and merges them.
//
// Sources are merged in the order they were given: on a band collision the later source wins.
type Scavenger struct {
	extractors []Extractor
	logger     *slog.Logger
}

// NewScavenger creates a Scavenger for the given extractors.
func NewScavenger(extractors ...Extractor) *Scavenger {
	for _, e := range extractors {
		if e == nil {
			panic("scavenger: nil extractor")
		}
	}
	return &Scavenger{
		extractors: extractors,
		logger:     slog.Default(),
	}
}

// WithLogger replaces the default logger.
func (s *Scavenger) WithLogger(l *slog.Logger) *Scavenger {
	s.logger = l
	return s
}

// Collect runs all the extractors concurrently and merges their registries.
// The merged registry is always non-nil, the error joins every extractor degradation.
func (s *Scavenger) Collect(ctx context.Context, now time.Time) (*registry.Registry, error) {
	results := make([]*registry.Registry, len(s.extractors))
	errs := make([]error, len(s.extractors))

	var g errgroup.Group
	for i, e := range s.extractors {
		i, e := i, e
		g.Go(func() error {
			results[i], errs[i] = extract(ctx, e, now)
			return nil
		})
	}
	_ = g.Wait()

	merged := registry.New()
	for i, r := range results {
		if errs[i] != nil {
			s.logger.Warn(fmt.Sprintf("[scavenger][%s]", s.extractors[i].Name()), "error", errs[i])
		}
		merged = registry.Merge(merged, r)
	}

	s.logger.Info("[scavenger] collected releases", "count", merged.Len())
	return merged, errors.Join(errs...)
}

// extract shields the caller from an extractor that panics or breaks the non-nil contract.
func extract(ctx context.Context, e Extractor, now time.Time) (r *registry.Registry, err error) {
	defer func() {
		if p := recover(); p != nil {
			r = registry.NewWithMessage(fmt.Sprintf("Error scraping %s: %v", e.Name(), p))
			err = NewError(e.Name(), ErrStructuralMiss, fmt.Errorf("panic: %v", p))
		}
	}()

	r, err = e.Extract(ctx, now)
	if r == nil {
		r = registry.New()
	}
	return r, err
}
