package openiap

import (
	"context"
	"encoding/json"
	"sort"
	"time"
)

// GaugeKind is the numeric type of an observable gauge.
type GaugeKind string

const (
	GaugeF64 GaugeKind = "f64"
	GaugeU64 GaugeKind = "u64"
	GaugeI64 GaugeKind = "i64"
)

// Gauge is an enabled observable gauge.
type Gauge struct {
	Name        string
	Kind        GaugeKind
	Value       float64
	Description string
}

const gaugeSendTimeout = 5 * time.Second

// SetF64ObservableGauge enables or updates a floating point gauge.
func (c *Client) SetF64ObservableGauge(name string, value float64, description string) {
	c.setGauge(Gauge{Name: name, Kind: GaugeF64, Value: value, Description: description})
}

// SetU64ObservableGauge enables or updates an unsigned gauge.
func (c *Client) SetU64ObservableGauge(name string, value uint64, description string) {
	c.setGauge(Gauge{Name: name, Kind: GaugeU64, Value: float64(value), Description: description})
}

// SetI64ObservableGauge enables or updates a signed gauge.
func (c *Client) SetI64ObservableGauge(name string, value int64, description string) {
	c.setGauge(Gauge{Name: name, Kind: GaugeI64, Value: float64(value), Description: description})
}

// DisableObservableGauge stops reporting a gauge. Unknown names are ignored.
func (c *Client) DisableObservableGauge(name string) {
	c.mu.Lock()
	g, ok := c.gauges[name]
	delete(c.gauges, name)
	s := c.sess
	c.mu.Unlock()
	if ok {
		c.reportGauge(s, g, false)
	}
}

// Gauges returns the enabled gauges sorted by name.
func (c *Client) Gauges() []Gauge {
	c.mu.Lock()
	out := make([]Gauge, 0, len(c.gauges))
	for _, g := range c.gauges {
		out = append(out, g)
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Client) setGauge(g Gauge) {
	c.mu.Lock()
	c.gauges[g.Name] = g
	s := c.sess
	c.mu.Unlock()
	c.reportGauge(s, g, true)
}

// publishGauges reports every enabled gauge on a new connection.
func (c *Client) publishGauges(s *session) {
	for _, g := range c.Gauges() {
		c.reportGauge(s, g, true)
	}
}

// reportGauge sends a gauge update without waiting for a reply. Gauges set
// while disconnected are reported on the next Connect.
func (c *Client) reportGauge(s *session, g Gauge, enabled bool) {
	if s == nil {
		return
	}
	data, err := json.Marshal(gaugeData{
		Name:        g.Name,
		Type:        string(g.Kind),
		Value:       g.Value,
		Description: g.Description,
		Enabled:     enabled,
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), gaugeSendTimeout)
	defer cancel()
	if err := s.tr.Send(ctx, Envelope{ID: c.newID(), Command: "gauge", Data: string(data)}); err != nil {
		c.logger.Debug("gauge report failed", c.logger.Args("gauge", g.Name, "error", err.Error()))
	}
}
