package errlvl

import (
	"errors"
	"fmt"
)

// Lvl is the severity of an error raised somewhere in the release pipeline.
type Lvl uint8

const (
	DEBUG Lvl = iota + 1
	INFO
	WARN
	ERROR
	FATAL
)

// ErrorLevel is a type that represents the severity of an error in the application.
//
// Every package error is wrapped with one of these sentinels, so the caller can decide
// how loud a failure should be (log line, Sentry warning, page) with a plain errors.Is.
type ErrorLevel error

var (
	ErrDebug ErrorLevel = errors.New("[DEBUG]")
	ErrInfo  ErrorLevel = errors.New("[INFO]")
	ErrWarn  ErrorLevel = errors.New("[WARN]")
	ErrError ErrorLevel = errors.New("[ERROR]")
	ErrFatal ErrorLevel = errors.New("[FATAL]")
)

var sentinels = map[Lvl]ErrorLevel{
	DEBUG: ErrDebug,
	INFO:  ErrInfo,
	WARN:  ErrWarn,
	ERROR: ErrError,
	FATAL: ErrFatal,
}

// String returns the bracket-less level name.
func (l Lvl) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	case FATAL:
		return "fatal"
	default:
		return fmt.Sprintf("lvl(%d)", uint8(l))
	}
}

// Wrap wraps the given error with the given level. An error that already carries a level keeps it.
// Unknown levels are treated as ERROR.
func Wrap(err error, level Lvl) error {
	if err == nil {
		return nil
	}
	if hasLevel(err) {
		return err
	}

	s, ok := sentinels[level]
	if !ok {
		s = ErrError
	}
	return fmt.Errorf("%w %w", s, err)
}

// Of returns the most severe level found in the error tree, or 0 for nil and unleveled errors.
func Of(err error) Lvl {
	if err == nil {
		return 0
	}
	for _, l := range []Lvl{FATAL, ERROR, WARN, INFO, DEBUG} {
		if errors.Is(err, sentinels[l]) {
			return l
		}
	}
	return 0
}

// hasLevel checks if the given error has a level set already.
func hasLevel(err error) bool {
	return Of(err) != 0
}
