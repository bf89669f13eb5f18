// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the CLI's leveled logger and utilities for secure
// logging and error presentation. Sensitive values such as JWTs, bearer tokens,
// and passwords embedded in server URLs are masked before they reach the terminal.
package logging

import (
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// ParseLevel maps a config log_level value to a pterm level. Unknown values map to info.
func ParseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	default:
		return pterm.LogLevelInfo
	}
}

// New returns a logger writing to w at the given level.
func New(w io.Writer, level string) *pterm.Logger {
	return pterm.DefaultLogger.
		WithWriter(w).
		WithLevel(ParseLevel(level)).
		WithTime(false)
}

// Discard returns a logger that drops everything. Used by tests and by
// library code that was not handed a logger.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithWriter(io.Discard).WithLevel(pterm.LogLevelDisabled)
}
