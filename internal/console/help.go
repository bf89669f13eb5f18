package console

import (
	"fmt"
	"strconv"

	"openiap/cli/internal/openiap"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, "Available commands:")
	fmt.Fprintln(c.out, renderHelp(c))
}

func renderHelp(c *Console) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Command", "Description"})
	for _, cmd := range commands {
		tw.AppendRow(table.Row{cmd.name, cmd.describe(c.samples)})
	}
	return tw.Render()
}

func renderGauges(gauges []openiap.Gauge) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Gauge", "Type", "Value"})
	for _, g := range gauges {
		tw.AppendRow(table.Row{g.Name, string(g.Kind), strconv.FormatFloat(g.Value, 'f', -1, 64)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
