package syncengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterOrdersByDependency(t *testing.T) {
	r := NewRegistry()
	r.Register(&ModelDef{Name: "prefix"})
	r.Register(&ModelDef{Name: "entry", DependsOn: []string{"prefix"}})
	r.Register(&ModelDef{Name: "tag_assignment", DependsOn: []string{"entry"}})

	order := r.Order()
	assert.Equal(t, []string{"prefix", "entry", "tag_assignment"}, order)
}

func TestRegisterPanicsOnCycle(t *testing.T) {
	r := NewRegistry()
	r.Register(&ModelDef{Name: "a", DependsOn: []string{"b"}})

	assert.Panics(t, func() {
		r.Register(&ModelDef{Name: "b", DependsOn: []string{"a"}})
	})
}

func TestRegisterPanicsOnDuplicateName(t *testing.T) {
	r := NewRegistry()
	r.Register(&ModelDef{Name: "entry"})
	assert.Panics(t, func() {
		r.Register(&ModelDef{Name: "entry"})
	})
}

func TestRankReflectsDependencyOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&ModelDef{Name: "prefix"})
	r.Register(&ModelDef{Name: "entry", DependsOn: []string{"prefix"}})

	assert.Less(t, r.rank("prefix"), r.rank("entry"))
}
