package config

import (
	"encoding/json"
	"fmt"

	"openiap/cli/internal/errors"
)

// LogLevels lists the accepted values for log_level.
var LogLevels = []string{"trace", "debug", "info", "warn", "error"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGeneral(); err != nil {
		return errors.Wrap(errors.Config, "invalid configuration", err)
	}
	if err := c.validateSamples(); err != nil {
		return errors.Wrap(errors.Config, "invalid configuration", err)
	}
	return nil
}

func (c *Config) validateGeneral() error {
	known := false
	for _, l := range LogLevels {
		if c.LogLevel == l {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("log_level %q must be one of %v", c.LogLevel, LogLevels)
	}
	if c.DefaultTimeoutSeconds <= 0 {
		return fmt.Errorf("default_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateSamples() error {
	s := c.Samples
	required := []struct {
		key, value string
	}{
		{"samples.collection", s.Collection},
		{"samples.distinct_field", s.DistinctField},
		{"samples.queue", s.Queue},
		{"samples.custom_command", s.CustomCommand},
		{"samples.robot_id", s.RobotID},
		{"samples.workflow_id", s.WorkflowID},
		{"samples.gauge_f64", s.GaugeF64},
		{"samples.gauge_u64", s.GaugeU64},
		{"samples.gauge_i64", s.GaugeI64},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s must be set", r.key)
		}
	}

	payloads := []struct {
		key, value string
	}{
		{"samples.query", s.Query},
		{"samples.projection", s.Projection},
		{"samples.item", s.Item},
		{"samples.items", s.Items},
		{"samples.message", s.Message},
		{"samples.queue_reply", s.QueueReply},
		{"samples.robot_payload", s.RobotPayload},
	}
	for _, p := range payloads {
		if !json.Valid([]byte(p.value)) {
			return fmt.Errorf("%s is not valid JSON", p.key)
		}
	}

	timeouts := []struct {
		key   string
		value int
	}{
		{"samples.rpc_timeout_seconds", s.RPCTimeoutSeconds},
		{"samples.custom_command_timeout_seconds", s.CustomCommandTimeoutSeconds},
		{"samples.robot_timeout_seconds", s.RobotTimeoutSeconds},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return fmt.Errorf("%s must be positive", t.key)
		}
	}
	return nil
}
