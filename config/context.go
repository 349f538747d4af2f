// Package config carries an explicit context value in place of a
// process-wide globals struct: thresholds, compression/checksum flags, a
// clock and a logger, built with a generic functional-option pattern
// (internal/options.Option[T]).
package config

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/emberkv/rdbsnap/internal/options"
)

// Thresholds drive the load-time re-encoding choices between a value's
// packed and expanded in-memory forms.
type Thresholds struct {
	ListMaxPackedEntries int
	ListMaxPackedValue   int
	SetMaxPackedEntries  int
	ZSetMaxPackedEntries int
	ZSetMaxPackedValue   int
	HashMaxPackedEntries int
	HashMaxPackedValue   int
}

// DefaultThresholds mirror common defaults for these kinds of packed/expanded
// cutovers: small collections stay packed, anything bigger or with a large
// element expands into the general-purpose encoding.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ListMaxPackedEntries: 128,
		ListMaxPackedValue:   64,
		SetMaxPackedEntries:  512,
		ZSetMaxPackedEntries: 128,
		ZSetMaxPackedValue:   64,
		HashMaxPackedEntries: 128,
		HashMaxPackedValue:   64,
	}
}

// SnapshotContext is passed explicitly to every save, load, bgsave and
// replicate operation, in place of a process-wide globals struct.
type SnapshotContext struct {
	Thresholds Thresholds

	DatabaseCount             int
	CompressionEnabled        bool
	ChecksumEnabled           bool
	LenientChecksumRead       bool // opt-in: tolerate a short or missing checksum trailer on load; a mismatch still fails
	AssertUniqueKeys          bool
	LoadProgressBytesInterval int64

	// KillSignal is the signal bgsave.Registry treats as "abort without
	// recording failure" when sent to an in-progress child.
	KillSignal os.Signal

	Clock  func() time.Time
	Logger *zap.Logger
}

// Option configures a SnapshotContext at construction time.
type Option = options.Option[*SnapshotContext]

// New builds a SnapshotContext with sensible defaults, then applies opts in
// order. It returns an error if any option or the final, fully-applied
// configuration is invalid.
func New(opts ...Option) (*SnapshotContext, error) {
	ctx := &SnapshotContext{
		Thresholds:                DefaultThresholds(),
		DatabaseCount:             16,
		CompressionEnabled:        true,
		ChecksumEnabled:           true,
		LoadProgressBytesInterval: 2 * 1024 * 1024,
		KillSignal:                syscall.SIGUSR1,
		Clock:                     time.Now,
		Logger:                    zap.NewNop(),
	}

	if err := options.Apply(ctx, opts...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := ctx.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return ctx, nil
}

// Validate reports whether the context is internally consistent.
func (c *SnapshotContext) Validate() error {
	if c.DatabaseCount <= 0 {
		return fmt.Errorf("database count must be positive, got %d", c.DatabaseCount)
	}
	if c.LoadProgressBytesInterval <= 0 {
		return fmt.Errorf("load progress interval must be positive, got %d", c.LoadProgressBytesInterval)
	}
	if c.Clock == nil {
		return fmt.Errorf("clock must not be nil")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger must not be nil")
	}

	return nil
}

// WithDatabaseCount sets the maximum legal database index plus one.
func WithDatabaseCount(n int) Option {
	return options.NoError(func(c *SnapshotContext) { c.DatabaseCount = n })
}

// WithCompression toggles LZF string compression on the writer.
func WithCompression(enabled bool) Option {
	return options.NoError(func(c *SnapshotContext) { c.CompressionEnabled = enabled })
}

// WithChecksum toggles CRC-64 computation/validation.
func WithChecksum(enabled bool) Option {
	return options.NoError(func(c *SnapshotContext) { c.ChecksumEnabled = enabled })
}

// WithLenientChecksumRead opts into tolerating a missing checksum on a
// pre-v5-style truncated trailer instead of treating it as fatal.
func WithLenientChecksumRead(enabled bool) Option {
	return options.NoError(func(c *SnapshotContext) { c.LenientChecksumRead = enabled })
}

// WithAssertUniqueKeys enables the debug-mode key-uniqueness tracker
// (internal/keytrack) during the save database scan.
func WithAssertUniqueKeys(enabled bool) Option {
	return options.NoError(func(c *SnapshotContext) { c.AssertUniqueKeys = enabled })
}

// WithListThresholds sets the list packed/expanded cutover.
func WithListThresholds(maxEntries, maxValue int) Option {
	return options.NoError(func(c *SnapshotContext) {
		c.Thresholds.ListMaxPackedEntries = maxEntries
		c.Thresholds.ListMaxPackedValue = maxValue
	})
}

// WithSetMaxPackedEntries sets the set packed-intset cutover.
func WithSetMaxPackedEntries(maxEntries int) Option {
	return options.NoError(func(c *SnapshotContext) { c.Thresholds.SetMaxPackedEntries = maxEntries })
}

// WithZSetThresholds sets the sorted-set packed/expanded cutover.
func WithZSetThresholds(maxEntries, maxValue int) Option {
	return options.NoError(func(c *SnapshotContext) {
		c.Thresholds.ZSetMaxPackedEntries = maxEntries
		c.Thresholds.ZSetMaxPackedValue = maxValue
	})
}

// WithHashThresholds sets the hash packed/expanded cutover.
func WithHashThresholds(maxEntries, maxValue int) Option {
	return options.NoError(func(c *SnapshotContext) {
		c.Thresholds.HashMaxPackedEntries = maxEntries
		c.Thresholds.HashMaxPackedValue = maxValue
	})
}

// WithLoadProgressInterval sets the byte interval between load progress
// callback invocations.
func WithLoadProgressInterval(n int64) Option {
	return options.NoError(func(c *SnapshotContext) { c.LoadProgressBytesInterval = n })
}

// WithKillSignal sets the signal the parent treats as "abort without
// error" for a background-save child.
func WithKillSignal(sig os.Signal) Option {
	return options.NoError(func(c *SnapshotContext) { c.KillSignal = sig })
}

// WithClock overrides the wall clock, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return options.NoError(func(c *SnapshotContext) { c.Clock = clock })
}

// WithLogger sets the zap logger used for operational events.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *SnapshotContext) { c.Logger = logger })
}
