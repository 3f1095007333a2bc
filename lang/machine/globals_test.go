package machine

import "testing"

func TestGlobalsSetGetDelete(t *testing.T) {
	g := NewGlobals()
	name := &ObjString{Chars: "count", Hash: hashString("count")}

	if _, ok := g.Get(name); ok {
		t.Fatalf("Get on empty globals found a value")
	}

	g.Set(name, Number(1))
	if v, ok := g.Get(name); !ok || v.AsNumber() != 1 {
		t.Fatalf("Get = %v, %v", v, ok)
	}

	g.Set(name, Number(2))
	if v, ok := g.Get(name); !ok || v.AsNumber() != 2 {
		t.Fatalf("Get after overwrite = %v, %v", v, ok)
	}

	if !g.Delete(name) {
		t.Fatalf("Delete reported false")
	}
	if _, ok := g.Get(name); ok {
		t.Fatalf("key still present after Delete")
	}
}

func TestGlobalsEachVisitsEveryEntry(t *testing.T) {
	g := NewGlobals()
	names := []*ObjString{
		{Chars: "a", Hash: hashString("a")},
		{Chars: "b", Hash: hashString("b")},
		{Chars: "c", Hash: hashString("c")},
	}
	for i, n := range names {
		g.Set(n, Number(float64(i)))
	}

	seen := make(map[string]float64)
	g.Each(func(name *ObjString, v Value) {
		seen[name.Chars] = v.AsNumber()
	})
	if len(seen) != len(names) {
		t.Fatalf("Each visited %d entries, want %d", len(seen), len(names))
	}
	for i, n := range names {
		if seen[n.Chars] != float64(i) {
			t.Fatalf("Each: %s = %v, want %d", n.Chars, seen[n.Chars], i)
		}
	}
}
