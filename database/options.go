package database

import (
	"fmt"
	"log/slog"

	"github.com/stevemurr/laws/snapshot"
)

// Recovery selects what Load does when a snapshot exists but cannot be loaded.
type Recovery int

const (
	// RecoverQuarantine moves the unreadable snapshot aside, then cold starts.
	RecoverQuarantine Recovery = iota
	// RecoverColdStart discards the unreadable snapshot and starts empty.
	RecoverColdStart
	// RecoverFail returns the load error and leaves the snapshot untouched.
	RecoverFail
)

func (r Recovery) String() string {
	switch r {
	case RecoverQuarantine:
		return "quarantine"
	case RecoverColdStart:
		return "coldstart"
	case RecoverFail:
		return "fail"
	default:
		return fmt.Sprintf("Recovery(%d)", int(r))
	}
}

// ParseRecovery maps a configuration value to a Recovery policy.
func ParseRecovery(s string) (Recovery, error) {
	switch s {
	case "quarantine", "":
		return RecoverQuarantine, nil
	case "coldstart", "cold_start":
		return RecoverColdStart, nil
	case "fail":
		return RecoverFail, nil
	default:
		return 0, fmt.Errorf("unknown recovery policy: %q (supported: quarantine, coldstart, fail)", s)
	}
}

// Options configures a Database.
type Options struct {
	// Sink is where snapshots are loaded from and saved to.
	// Default: an in-memory sink.
	Sink snapshot.Sink

	// Recovery is applied when the snapshot exists but cannot be loaded.
	// Default: RecoverQuarantine
	Recovery Recovery

	// Logger receives load, recovery and save events.
	// Default: slog.Default()
	Logger *slog.Logger
}

// validate fills in defaults.
func (o *Options) validate() {
	if o.Sink == nil {
		o.Sink = snapshot.NewMemorySink()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Recovery < RecoverQuarantine || o.Recovery > RecoverFail {
		o.Recovery = RecoverQuarantine
	}
}
