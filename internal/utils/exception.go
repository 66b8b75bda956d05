package utils

import (
	"github.com/getsentry/sentry-go"
	"github.com/samgozman/release-thread/pkg/errlvl"
)

type sentryHub interface {
	CaptureException(exception error) *sentry.EventID
	WithScope(callback func(scope *sentry.Scope))
}

// CaptureSentryException captures err under the given name instead of the Go error type
// (which is almost always *errors.errorString or *fmt.wrapErrors).
// The event level follows the errlvl severity of err.
func CaptureSentryException(name string, hub sentryHub, err error) {
	level := errorsLevelMatcher(err)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		scope.AddEventProcessor(func(e *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// e.Exception is ordered from the innermost error, the last one is the top of the chain.
			if len(e.Exception) > 0 {
				e.Exception[len(e.Exception)-1].Type = name
			}
			e.Level = level
			return e
		})
		hub.CaptureException(err)
	})
}

// errorsLevelMatcher returns the Sentry level for the given error.
func errorsLevelMatcher(err error) sentry.Level {
	if err == nil {
		return sentry.LevelDebug
	}
	switch errlvl.Of(err) {
	case errlvl.FATAL:
		return sentry.LevelFatal
	case errlvl.ERROR:
		return sentry.LevelError
	case errlvl.WARN:
		return sentry.LevelWarning
	case errlvl.INFO:
		return sentry.LevelInfo
	case errlvl.DEBUG:
		return sentry.LevelDebug
	default:
		return sentry.LevelError
	}
}
