// Copyright (c) 2025 OpenIAP
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the JWT goes to the OS keychain.
//
// Besides the connection settings the file carries every sample payload the
// interactive commands send, so an operator can point the CLI at a different
// collection, queue, or robot without rebuilding it.
package config

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"

	"openiap/cli/internal/errors"
	"openiap/cli/internal/xdg"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file name inside the XDG config dir.
const FileName = "config.toml"

// Config holds non-sensitive CLI settings.
type Config struct {
	// Address is the server URL; empty means the client library default.
	Address               string  `toml:"address"`
	LogLevel              string  `toml:"log_level"`
	DefaultTimeoutSeconds int     `toml:"default_timeout_seconds"`
	Samples               Samples `toml:"samples"`
}

// Samples holds the payloads sent by the interactive commands.
type Samples struct {
	Collection    string `toml:"collection"`
	Query         string `toml:"query"`
	Projection    string `toml:"projection"`
	DistinctField string `toml:"distinct_field"`
	Item          string `toml:"item"`
	Items         string `toml:"items"`

	Queue             string `toml:"queue"`
	Message           string `toml:"message"`
	QueueReply        string `toml:"queue_reply"`
	RPCTimeoutSeconds int    `toml:"rpc_timeout_seconds"`

	CustomCommand               string `toml:"custom_command"`
	CustomCommandTimeoutSeconds int    `toml:"custom_command_timeout_seconds"`

	RobotID             string `toml:"robot_id"`
	WorkflowID          string `toml:"workflow_id"`
	RobotPayload        string `toml:"robot_payload"`
	RobotTimeoutSeconds int    `toml:"robot_timeout_seconds"`

	GaugeF64 string `toml:"gauge_f64"`
	GaugeU64 string `toml:"gauge_u64"`
	GaugeI64 string `toml:"gauge_i64"`
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads configuration from the default path; a missing file returns defaults.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Default(), errors.Wrap(errors.Config, "resolve config dir", err)
	}
	return LoadFile(p)
}

// LoadFile reads configuration from path. Keys absent from the file keep
// their default values. A missing file returns defaults.
func LoadFile(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, errors.Wrap(errors.Config, "read "+path, err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(errors.Config, "parse "+path, err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Save writes configuration to the default path with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(p, c)
}

// SaveFile writes configuration to path with 0600 permissions.
func SaveFile(path string, c Config) error {
	b, err := Encode(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// Encode renders c as TOML.
func Encode(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Wrap(errors.Config, "encode config", err)
	}
	return buf.Bytes(), nil
}
