package machine

import "github.com/dolthub/swiss"

// Globals is the VM's top-level binding table, keyed by interned name. It
// does not need findString's content-probe or the intern table's
// weak-reference pruning, so it is backed directly by swiss's
// open-addressing map rather than the bespoke Table used for interning.
type Globals struct {
	m *swiss.Map[*ObjString, Value]
}

// NewGlobals returns an empty globals table.
func NewGlobals() *Globals {
	return &Globals{m: swiss.NewMap[*ObjString, Value](8)}
}

func (g *Globals) Get(name *ObjString) (Value, bool) {
	return g.m.Get(name)
}

func (g *Globals) Set(name *ObjString, v Value) {
	g.m.Put(name, v)
}

func (g *Globals) Delete(name *ObjString) bool {
	return g.m.Delete(name)
}

// Each calls fn for every binding, for the GC's root marking.
func (g *Globals) Each(fn func(name *ObjString, v Value)) {
	g.m.Iter(func(k *ObjString, v Value) bool {
		fn(k, v)
		return false
	})
}
