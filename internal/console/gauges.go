package console

import (
	"fmt"

	"openiap/cli/internal/config"
	"openiap/cli/internal/openiap"
)

type gaugeToggle struct {
	name   string
	kind   openiap.GaugeKind
	active bool
}

func newGaugeToggles(s config.Samples) map[string]*gaugeToggle {
	return map[string]*gaugeToggle{
		"o":  {name: s.GaugeF64, kind: openiap.GaugeF64},
		"o2": {name: s.GaugeU64, kind: openiap.GaugeU64},
		"o3": {name: s.GaugeI64, kind: openiap.GaugeI64},
	}
}

// toggleGauge enables the gauge behind cmd with a random value, or disables
// it when it is already enabled.
func (c *Console) toggleGauge(cmd string) {
	g := c.gauges[cmd]
	if g.active {
		c.client.DisableObservableGauge(g.name)
		g.active = false
		fmt.Fprintf(c.out, "Observable gauge '%s' disabled.\n", g.name)
		return
	}

	v := c.rand()
	switch g.kind {
	case openiap.GaugeF64:
		c.client.SetF64ObservableGauge(g.name, float64(v), gaugeDescription)
	case openiap.GaugeU64:
		c.client.SetU64ObservableGauge(g.name, uint64(v), gaugeDescription)
	case openiap.GaugeI64:
		c.client.SetI64ObservableGauge(g.name, int64(v), gaugeDescription)
	}
	g.active = true
	fmt.Fprintf(c.out, "Observable gauge '%s' set to %d.\n", g.name, v)
}
