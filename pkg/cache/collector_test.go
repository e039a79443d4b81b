package cache

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/thymelang/thyme/pkg/deps"
)

func TestCollectorMergesNestedDeps(t *testing.T) {
	c := NewCollector()
	c.Live().Existence = true // the outer view's own find

	nested := deps.NewSet()
	nested.AddFirstLine("n1")
	nested.Modified = true
	c.Merge(nested)
	c.AddRendered("n2")

	want := deps.NewSet()
	want.Existence = true
	want.Modified = true
	want.AddFirstLine("n1")
	want.AddFirstLine("n2")
	want.AddBody("n2")

	if diff := cmp.Diff(want, c.Live()); diff != "" {
		t.Errorf("footprint (-want +got):\n%s", diff)
	}
}

func TestCollectorDynamicPropagation(t *testing.T) {
	c := NewCollector()
	if c.Live().Dynamic {
		t.Fatal("new collector starts dynamic")
	}
	c.MarkDynamic()
	if !c.Live().Dynamic {
		t.Error("MarkDynamic had no effect")
	}

	// A nested set that was itself dynamic carries through Merge.
	c2 := NewCollector()
	nested := deps.NewSet()
	nested.Dynamic = true
	c2.Merge(nested)
	if !c2.Live().Dynamic {
		t.Error("merge dropped the dynamic mark")
	}
}
