package constpool

import (
	"testing"

	"github.com/matzehuels/mtlxport/pkg/types"
)

func TestInternSharing(t *testing.T) {
	p := New()
	a := p.Intern(types.FloatValue(0.5))
	if p.ShouldMaterialize(a) {
		t.Error("single use should not materialize")
	}
	b := p.Intern(types.FloatValue(0.5))
	if a != b {
		t.Errorf("equal values got different handles: %v, %v", a, b)
	}
	if !p.ShouldMaterialize(a) || p.Usage(a) != 2 {
		t.Errorf("Usage = %d, ShouldMaterialize = %v", p.Usage(a), p.ShouldMaterialize(a))
	}
	if p.Len() != 1 || p.Shared() != 1 {
		t.Errorf("Len = %d, Shared = %d", p.Len(), p.Shared())
	}
}

func TestInternKeysOnType(t *testing.T) {
	p := New()
	f := p.Intern(types.FloatValue(1))
	c := p.Intern(types.Vec(types.Color3, 1, 1, 1))
	i := p.Intern(types.IntValue(1))
	if f == c || f == i {
		t.Error("different types share a handle")
	}
	if p.Len() != 3 {
		t.Errorf("Len = %d, want 3", p.Len())
	}
}

func TestInternNormalizes(t *testing.T) {
	p := New()
	a := p.Intern(types.FloatValue(0.1 + 0.2))
	b := p.Intern(types.FloatValue(0.3))
	if a != b {
		t.Error("values equal at fixed precision should share a handle")
	}
}

func TestNames(t *testing.T) {
	p := New()
	p.Intern(types.FloatValue(1))
	p.Intern(types.Vec(types.Color3, 1, 0, 0))
	h := p.Intern(types.FloatValue(2))
	if got := p.Name(h); got != "constant_float_2" {
		t.Errorf("Name = %q, want constant_float_2", got)
	}
	entries := p.Entries()
	if entries[1].Name != "constant_color3_1" {
		t.Errorf("entries[1].Name = %q", entries[1].Name)
	}
}

func TestReset(t *testing.T) {
	p := New()
	h := p.Intern(types.FloatValue(1))
	p.Intern(types.FloatValue(1))
	p.Reset()
	if p.Len() != 0 || p.Usage(h) != 0 || p.ShouldMaterialize(h) {
		t.Error("Reset left state behind")
	}
	if _, ok := p.Value(h); ok {
		t.Error("Value found after Reset")
	}
	h2 := p.Intern(types.FloatValue(1))
	if p.Usage(h2) != 1 {
		t.Errorf("Usage after reset = %d, want 1", p.Usage(h2))
	}
}

func TestRelease(t *testing.T) {
	p := New()
	h := p.Intern(types.FloatValue(0.5))
	p.Intern(types.FloatValue(0.5))
	p.Release(h)
	if p.ShouldMaterialize(h) {
		t.Error("value still shared after release")
	}
	p.Release(h)
	p.Release(h)
	if p.Usage(h) != 0 {
		t.Errorf("Usage = %d, want 0", p.Usage(h))
	}
	p.Release(Handle{id: 42})
}
