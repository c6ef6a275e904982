package probez

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the severity of a call site, ordered from most to least verbose.
type Level int8

const (
	// LevelTrace designates very fine-grained diagnostic output.
	LevelTrace Level = iota
	// LevelDebug designates developer-facing diagnostic output.
	LevelDebug
	// LevelInfo designates useful steady-state information.
	LevelInfo
	// LevelWarn designates potentially harmful conditions.
	LevelWarn
	// LevelError designates failures.
	LevelError

	// levelOff is one past LevelError; used as the "nothing enabled" hint.
	levelOff
)

// ErrBadLevel is returned by ParseLevel for unrecognized input.
var ErrBadLevel = errors.New("probez: unrecognized level")

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int8(l))
	}
}

// ParseLevel converts a level name to a Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelTrace, fmt.Errorf("%w: %q", ErrBadLevel, s)
	}
}

// AtLeast reports whether the level is at or above min severity.
func (l Level) AtLeast(min Level) bool {
	return l >= min
}

// LevelEnabled reports whether any call site at the given level could
// currently be enabled. It is a hint: a true result means "possibly
// enabled", a false result means no registered call site at this level has
// non-Never interest. The hint is exact after RebuildInterest and
// conservative (everything possibly enabled) after a default swap.
func LevelEnabled(l Level) bool {
	return l >= Level(levelHint.Load())
}
