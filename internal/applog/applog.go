// Package applog provides the process-wide structured logger. All
// components log to stderr through this package so stdout stays reserved
// for the JSON-RPC tool protocol.
package applog

import (
	"os"

	"github.com/charmbracelet/log"
)

// prefix is the stable marker every log line carries, so operators can
// grep for it regardless of level.
const prefix = "[oracle]"

var base = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          prefix,
})

// Logger is the shared logger type, re-exported so callers don't import
// charmbracelet/log directly.
type Logger = log.Logger

// Default returns the process-wide logger.
func Default() *Logger { return base }

// With returns a derived logger carrying the given key/value pairs.
func With(kv...any) *Logger { return base.With(kv...) }

// Named returns a derived logger tagged with a component name.
func Named(component string) *Logger { return base.With("component", component) }
