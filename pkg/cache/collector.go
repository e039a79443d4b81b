package cache

import "github.com/thymelang/thyme/pkg/deps"

// Collector accumulates the dependency footprint of one top-level
// execution. The evaluator records into the live set as it runs; view
// rendering merges each nested directive's stored dependencies and the
// content of every rendered note, so the outer entry goes stale
// whenever anything it displayed changes.
type Collector struct {
	set *deps.Set
}

// NewCollector starts an empty footprint.
func NewCollector() *Collector {
	return &Collector{set: deps.NewSet()}
}

// Collect wraps an existing set, so nested rendering can fold its
// findings into the enclosing execution's footprint.
func Collect(set *deps.Set) *Collector {
	return &Collector{set: set}
}

// Live returns the set the evaluator records into.
func (c *Collector) Live() *deps.Set {
	return c.set
}

// Merge folds a nested execution's dependencies into the footprint.
func (c *Collector) Merge(other *deps.Set) {
	c.set.Merge(other)
}

// AddRendered records that one note's name and body were displayed.
func (c *Collector) AddRendered(id string) {
	c.set.AddFirstLine(id)
	c.set.AddBody(id)
}

// MarkDynamic records that a nested execution was dynamic, which makes
// the enclosing result uncacheable.
func (c *Collector) MarkDynamic() {
	c.set.Dynamic = true
}
