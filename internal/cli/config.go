// Package cli implements memtest's out-of-scope-but-informative
// front-end (spec.md §6): flag parsing, an optional JSONC config file,
// and rendering/persisting the resulting ReportList. None of this is
// part of the core library; it exists to demonstrate how a real
// front-end drives it.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/memtest/pkg/memtest"
)

// Config holds the defaults a memtest.hujson file may supply. Any flag
// given on the command line overrides the matching field.
type Config struct {
	Megabytes             int    `json:"megabytes,omitempty"`
	TimeoutMS             int    `json:"timeout_ms,omitempty"`
	LockMode              string `json:"lock_mode,omitempty"`
	AllowWorkingSetResize *bool  `json:"allow_ws_resize,omitempty"`
	AllowMultithread      *bool  `json:"allow_multithread,omitempty"`
	AllowEarlyTermination *bool  `json:"allow_early_termination,omitempty"`
}

// DefaultConfig mirrors the positional-argument defaults spec.md §6
// describes for the CLI front-end.
func DefaultConfig() Config {
	return Config{
		Megabytes: 64,
		TimeoutMS: 60_000,
		LockMode:  "disabled",
	}
}

// loadConfigFile reads and parses a JSONC config file at path if it
// exists. A missing file is not an error: it simply yields the zero
// Config (no overrides).
func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// merge overlays non-zero fields of override onto base.
func merge(base, override Config) Config {
	out := base

	if override.Megabytes != 0 {
		out.Megabytes = override.Megabytes
	}

	if override.TimeoutMS != 0 {
		out.TimeoutMS = override.TimeoutMS
	}

	if override.LockMode != "" {
		out.LockMode = override.LockMode
	}

	if override.AllowWorkingSetResize != nil {
		out.AllowWorkingSetResize = override.AllowWorkingSetResize
	}

	if override.AllowMultithread != nil {
		out.AllowMultithread = override.AllowMultithread
	}

	if override.AllowEarlyTermination != nil {
		out.AllowEarlyTermination = override.AllowEarlyTermination
	}

	return out
}

func parseLockMode(s string) (memtest.LockMode, error) {
	switch s {
	case "resizable":
		return memtest.Resizable, nil
	case "fixedsize":
		return memtest.FixedSize, nil
	case "disabled", "":
		return memtest.Disabled, nil
	default:
		return 0, fmt.Errorf("%w: %s", errUnknownLockMode, s)
	}
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}

	return *p
}
