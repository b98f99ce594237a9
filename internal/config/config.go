// Package config resolves casegen settings from defaults and the
// environment.
package config

import (
	"os"
	"strings"

	"github.com/roach88/casegen/internal/log"
)

// Environment variables read by FromEnv, in addition to the CASEGEN_LOG_*
// variables handled by the log package.
const (
	EnvReportDB = "CASEGEN_REPORT_DB"
	EnvFilter   = "CASEGEN_FILTER"
)

// Config holds the settings shared by suites and the CLI.
type Config struct {
	// Log configures the logger built by Logger.
	Log *log.Config

	// ReportDB is the SQLite file outcomes are recorded to. Empty disables
	// recording.
	ReportDB string

	// ScenarioFilter is a doublestar pattern, relative to the scenario
	// directory, selecting which scenario files are imported. Empty selects
	// all of them.
	ScenarioFilter string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{Log: log.DefaultConfig()}
}

// FromEnv overlays environment variables on Default.
func FromEnv() *Config {
	cfg := Default()
	cfg.Log = log.FromEnv()
	cfg.ReportDB = strings.TrimSpace(os.Getenv(EnvReportDB))
	cfg.ScenarioFilter = strings.TrimSpace(os.Getenv(EnvFilter))
	return cfg
}

// RecordsOutcomes reports whether a report database is configured.
func (c *Config) RecordsOutcomes() bool {
	return c.ReportDB != ""
}
