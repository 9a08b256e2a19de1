package alloc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CheckMode selects whether the invariant checks run.
type CheckMode uint8

const (
	// ChecksDefault enables checks in heapkit_debug builds or when the
	// HEAPKIT_DEBUG environment variable is set.
	ChecksDefault CheckMode = iota

	// ChecksOff disables checks.
	ChecksOff

	// ChecksOn enables checks.
	ChecksOn
)

func (m CheckMode) String() string {
	switch m {
	case ChecksDefault:
		return "default"
	case ChecksOff:
		return "off"
	case ChecksOn:
		return "on"
	default:
		return fmt.Sprintf("checks(%d)", uint8(m))
	}
}

// ParseCheckMode parses "default", "off" or "on".
func ParseCheckMode(s string) (CheckMode, error) {
	switch s {
	case "", "default":
		return ChecksDefault, nil
	case "off", "false", "0":
		return ChecksOff, nil
	case "on", "true", "1":
		return ChecksOn, nil
	default:
		return ChecksDefault, fmt.Errorf("alloc: unknown check mode %q", s)
	}
}

// Runtime toggles, read once at startup.
var (
	envDebug    = os.Getenv("HEAPKIT_DEBUG") != ""
	envLogAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""
)

// Config controls allocator behaviour.
type Config struct {
	// Checks selects whether heap invariants are verified after every
	// mutating operation.
	Checks CheckMode

	// Logger receives debug-level traces of every operation. Nil discards
	// them unless HEAPKIT_LOG_ALLOC is set, in which case they go to stderr.
	Logger *slog.Logger

	// OnFatal is called with a *verify.ValidationError (possibly wrapped)
	// when an invariant is violated. Nil means Panic.
	OnFatal func(error)
}

// DefaultConfig leaves every setting at its default.
var DefaultConfig = Config{}

func (c *Config) checksEnabled() bool {
	switch c.Checks {
	case ChecksOn:
		return true
	case ChecksOff:
		return false
	default:
		return debugBuild || envDebug
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	if envLogAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Panic is the default fatal handler. An unrecovered panic terminates the
// process with the violation and a stack trace.
func Panic(err error) {
	panic(err)
}

// Exit is a fatal handler that prints the violation and exits with status 2.
func Exit(err error) {
	fmt.Fprintf(os.Stderr, "heapkit: fatal: %v\n", err)
	os.Exit(2)
}
