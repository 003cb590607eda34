package deferred

import (
	"github.com/cottand/polyinfer/frontend/ast"
	"github.com/cottand/polyinfer/frontend/diag"
	"github.com/cottand/polyinfer/frontend/infer"
	"github.com/cottand/polyinfer/frontend/types"
)

// Entry is one speculatively attributed copy of a deferred tree
type Entry struct {
	Tree  ast.Expr
	Phase infer.Phase
}

// SpeculativeCache remembers, per candidate method and phase, the copy
// attributed when checking a deferred argument against that candidate.
type SpeculativeCache struct {
	entries map[*types.MethodSymbol][]Entry
}

func NewSpeculativeCache() *SpeculativeCache {
	return &SpeculativeCache{entries: make(map[*types.MethodSymbol][]Entry)}
}

func (c *SpeculativeCache) Get(msym *types.MethodSymbol, phase infer.Phase) *Entry {
	for i, e := range c.entries[msym] {
		if e.Phase == phase {
			return &c.entries[msym][i]
		}
	}
	return nil
}

// Put records tree for msym and phase, which must not have an entry yet
func (c *SpeculativeCache) Put(msym *types.MethodSymbol, tree ast.Expr, phase infer.Phase) {
	diag.Assert(c.Get(msym, phase) == nil, "speculative tree for %v already cached in phase %v", msym, phase)
	c.entries[msym] = append(c.entries[msym], Entry{Tree: tree, Phase: phase})
}

// Len is the number of cached trees
func (c *SpeculativeCache) Len() int {
	n := 0
	for _, es := range c.entries {
		n += len(es)
	}
	return n
}

func (c *SpeculativeCache) Clear() {
	clear(c.entries)
}

// DupAllTo records for to every tree cached for from
func (c *SpeculativeCache) DupAllTo(from, to *types.MethodSymbol) {
	for _, e := range c.entries[from] {
		c.Put(to, e.Tree, e.Phase)
	}
}
