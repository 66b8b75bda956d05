package scavenger

import (
	"errors"
	"fmt"

	"github.com/samgozman/release-thread/pkg/errlvl"
)

// Degradation kinds. Every extractor failure is classified as exactly one of them.
var (
	ErrSourceUnreachable = errors.New("source unreachable") // fetch failed or returned a non-success status
	ErrStructuralMiss    = errors.New("structural miss")    // expected markup node is absent, the page layout changed
	ErrStaleContent      = errors.New("stale content")      // fetched article predates the current window
	ErrEmptyResult       = errors.New("empty result")       // well-formed page without matching records
)

// levels holds the default severity of every degradation kind.
var levels = map[error]errlvl.Lvl{
	ErrSourceUnreachable: errlvl.WARN,
	ErrStructuralMiss:    errlvl.WARN,
	ErrStaleContent:      errlvl.INFO,
	ErrEmptyResult:       errlvl.INFO,
}

// Error describes why an extractor returned a degraded registry.
type Error struct {
	level  errlvl.Lvl // severity level of the error
	kind   error      // one of the degradation kinds
	errs   []error    // underlying causes
	source string     // name of the extractor
}

// NewError creates a new Error of the given kind for the source. The level is derived from the kind.
func NewError(source string, kind error, causes ...error) *Error {
	lvl, ok := levels[kind]
	if !ok {
		lvl = errlvl.ERROR
	}
	return &Error{
		level:  lvl,
		kind:   kind,
		errs:   causes,
		source: source,
	}
}

// Kind returns the degradation kind.
func (e *Error) Kind() error {
	return e.kind
}

// Source returns the name of the extractor that failed.
func (e *Error) Source() string {
	return e.source
}

func (e *Error) Error() string {
	return e.getWrappedError().Error()
}

func (e *Error) Unwrap() error {
	return e.getWrappedError()
}

func (e *Error) getWrappedError() error {
	err := errors.Join(append([]error{e.kind}, e.errs...)...)
	if e.source != "" {
		err = fmt.Errorf("source %s: %w", e.source, err)
	}
	return errlvl.Wrap(err, e.level)
}
