// Package generator implements the synthetic event source used for
// load testing and pipeline smoke-tests: produces a bounded,
// rate-limited stream of log events in one of several formats.
//
// Grounded on original_source/src/sources/generator.rs, rebuilt in the
// teacher's idiom (logrus/viper/clock-injected timers) while keeping
// the original's tick algorithm.
package generator

import (
	"errors"
	"fmt"
	"time"
)

// Format selects which kind of line the generator synthesizes on each
// tick (spec.md §4.1 Formats).
type Format int

const (
	FormatShuffle Format = iota
	FormatApacheCommon
	FormatApacheError
	FormatSyslog
	FormatBsdSyslog
	FormatJSON
)

// ErrShuffleItemsEmpty is ConfigInvalid: Shuffle requires a non-empty
// Lines list (spec.md §4.1).
var ErrShuffleItemsEmpty = errors.New("generator: a non-empty list of lines is required for the shuffle format")

// OutputFormat is the closed-variant configuration for Format,
// carrying Shuffle's extra fields.
type OutputFormat struct {
	Format   Format
	Sequence bool     // Shuffle only: prepend the zero-based tick number
	Lines    []string // Shuffle only: candidate lines to pick from
}

// formatNames maps the config-file spelling of a format to its Format
// value, mirroring original_source's serde-tagged enum.
var formatNames = map[string]Format{
	"shuffle":       FormatShuffle,
	"apache_common": FormatApacheCommon,
	"apache_error":  FormatApacheError,
	"syslog":        FormatSyslog,
	"bsd_syslog":    FormatBsdSyslog,
	"json":          FormatJSON,
}

// parseFormat resolves a config-file format name, defaulting to
// FormatJSON when name is empty (original_source's OutputFormat
// default).
func parseFormat(name string) (Format, error) {
	if name == "" {
		return FormatJSON, nil
	}
	f, ok := formatNames[name]
	if !ok {
		return 0, fmt.Errorf("generator: unknown format %q", name)
	}
	return f, nil
}

// Validate enforces the "Shuffle requires non-empty lines" invariant.
func (f OutputFormat) Validate() error {
	if f.Format == FormatShuffle && len(f.Lines) == 0 {
		return ErrShuffleItemsEmpty
	}
	return nil
}

// Config is the declarative configuration surface for the generator
// source (spec.md §6). Interval and Count are pointers so the zero
// value of each ("disable pacing", "yield zero events") can be told
// apart from "not configured, use the default" - both are meaningful
// per spec.md's boundary behaviors. FormatName/Sequence/Lines decode
// directly from viper; Format is resolved from them by ResolveFormat
// and is what Source actually reads.
type Config struct {
	Interval   *float64 `mapstructure:"interval"`
	Count      *int     `mapstructure:"count"`
	FormatName string   `mapstructure:"format"`
	Sequence   bool     `mapstructure:"sequence"`
	Lines      []string `mapstructure:"lines"`

	Format OutputFormat `mapstructure:"-"`
}

// ResolveFormat populates c.Format from FormatName/Sequence/Lines.
// Callers decoding Config from viper must call this once before
// constructing a Source.
func (c *Config) ResolveFormat() error {
	f, err := parseFormat(c.FormatName)
	if err != nil {
		return err
	}
	c.Format = OutputFormat{Format: f, Sequence: c.Sequence, Lines: c.Lines}
	return c.Format.Validate()
}

const defaultInterval = 1.0

// DefaultCount mirrors the original's isize::MAX-as-count default:
// "run until shutdown or channel closure", represented here as the
// largest practical tick count.
const DefaultCount = int(^uint(0) >> 1)

type resolvedConfig struct {
	Interval float64
	Count    int
	Format   OutputFormat
}

// resolve applies interval/count defaults, preserving an explicit zero.
func (c Config) resolve() resolvedConfig {
	r := resolvedConfig{Interval: defaultInterval, Count: DefaultCount, Format: c.Format}
	if c.Interval != nil {
		r.Interval = *c.Interval
	}
	if c.Count != nil {
		r.Count = *c.Count
	}
	return r
}

func (r resolvedConfig) intervalDuration() time.Duration {
	return time.Duration(r.Interval * float64(time.Second))
}
