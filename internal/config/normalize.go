package config

import "strings"

func (c *Config) normalize() {
	c.Address = strings.TrimSpace(c.Address)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.DefaultTimeoutSeconds == 0 {
		c.DefaultTimeoutSeconds = defaultTimeoutSeconds
	}
	c.normalizeSamples()
}

// normalizeSamples trims names. Payloads are sent verbatim and left alone.
func (c *Config) normalizeSamples() {
	s := &c.Samples
	s.Collection = strings.TrimSpace(s.Collection)
	s.DistinctField = strings.TrimSpace(s.DistinctField)
	s.Queue = strings.TrimSpace(s.Queue)
	s.CustomCommand = strings.TrimSpace(s.CustomCommand)
	s.RobotID = strings.TrimSpace(s.RobotID)
	s.WorkflowID = strings.TrimSpace(s.WorkflowID)
	s.GaugeF64 = strings.TrimSpace(s.GaugeF64)
	s.GaugeU64 = strings.TrimSpace(s.GaugeU64)
	s.GaugeI64 = strings.TrimSpace(s.GaugeI64)
}
