package bigraph

import (
	"csscover/utils/debug"
)

// Dump returns a readable tree of the covering. It exists solely for manual
// inspection of optimization results.
func (c *Covering) Dump() string {
	if c == nil {
		return "<nil Covering>"
	}
	tw := debug.NewTreeWriter()
	tw.Line(0, "Covering: bicliques[%d] edges[%d/%d] cost[%d] pricing[%s]",
		len(c.members), c.Edges().Len(), c.g.EdgeCount(), c.Cost(), c.g.pricer)
	for i, b := range c.members {
		tw.Line(1, "Biclique[%d] length[%d]", i, b.Len())
		tw.TextBlock(2, "rule", b.String())
		tw.List(2, "selectors", b.Selectors())
		tw.List(2, "declarations", b.Declarations())
	}
	return tw.String()
}
