// Package constpool deduplicates literal values within one material.
//
// Every literal bound to a target input is interned first. Once translation
// of the material is complete, values used exactly once are written inline
// and values used more than once become a single shared constant node.
package constpool

import (
	"fmt"

	"github.com/matzehuels/mtlxport/pkg/types"
)

// Handle identifies an interned value.
type Handle struct {
	id int
}

// Entry is one distinct value with its usage count.
type Entry struct {
	Handle Handle
	Value  types.Value
	Uses   int
	// Name is the provisional identifier, constant_<type>_<n>.
	Name string
}

type key struct {
	typ  types.Type
	text string
}

// Pool interns values keyed by type and normalized text. A Pool belongs to
// one material translation and is not safe for concurrent use.
type Pool struct {
	entries []*Entry
	index   map[key]int
	perType map[types.Type]int
}

// New creates an empty pool.
func New() *Pool {
	p := &Pool{}
	p.Reset()
	return p
}

// Intern records one use of v and returns its handle. Values that format
// identically share a handle.
func (p *Pool) Intern(v types.Value) Handle {
	k := key{typ: v.Type(), text: v.String()}
	if i, ok := p.index[k]; ok {
		p.entries[i].Uses++
		return p.entries[i].Handle
	}
	h := Handle{id: len(p.entries)}
	p.perType[k.typ]++
	p.entries = append(p.entries, &Entry{
		Handle: h,
		Value:  v,
		Uses:   1,
		Name:   fmt.Sprintf("constant_%s_%d", k.typ, p.perType[k.typ]),
	})
	p.index[k] = h.id
	return h
}

// Release withdraws one use of h, for a binding that was replaced before
// translation finished.
func (p *Pool) Release(h Handle) {
	if e := p.entry(h); e != nil && e.Uses > 0 {
		e.Uses--
	}
}

// ShouldMaterialize reports whether h is used more than once.
func (p *Pool) ShouldMaterialize(h Handle) bool {
	return p.Usage(h) > 1
}

// Usage returns how many times h was interned, or 0 for unknown handles.
func (p *Pool) Usage(h Handle) int {
	if e := p.entry(h); e != nil {
		return e.Uses
	}
	return 0
}

// Value returns the interned value of h.
func (p *Pool) Value(h Handle) (types.Value, bool) {
	if e := p.entry(h); e != nil {
		return e.Value, true
	}
	return types.Value{}, false
}

// Name returns the provisional identifier of h.
func (p *Pool) Name(h Handle) string {
	if e := p.entry(h); e != nil {
		return e.Name
	}
	return ""
}

// Entries returns all entries in first-interned order.
func (p *Pool) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	for i, e := range p.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of distinct values.
func (p *Pool) Len() int { return len(p.entries) }

// Shared returns the number of values that will be materialized.
func (p *Pool) Shared() int {
	n := 0
	for _, e := range p.entries {
		if e.Uses > 1 {
			n++
		}
	}
	return n
}

// Reset discards every entry.
func (p *Pool) Reset() {
	p.entries = nil
	p.index = make(map[key]int)
	p.perType = make(map[types.Type]int)
}

func (p *Pool) entry(h Handle) *Entry {
	if h.id < 0 || h.id >= len(p.entries) {
		return nil
	}
	return p.entries[h.id]
}
