package bigraph

import (
	"iter"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/maruel/natural"
)

const (
	selectorSeparator    = ","
	declarationSeparator = ";"
)

// Biclique is a complete bipartite subgraph: every selector in it carries every
// declaration in it. Bicliques are immutable, any change of composition
// produces a new one.
type Biclique struct {
	g     *Graph
	left  []int // selector ids, ascending
	right []int // declaration ids, ascending
	text  string

	extOnce sync.Once
	ext     extension
}

// extension holds the maximal growth a biclique permits: declarations adjacent
// to all of its selectors and selectors adjacent to all of its declarations.
type extension struct {
	decls, sels     map[int]struct{}
	anyDecl, anySel bool
}

// newBiclique partitions ids by side. Duplicates are dropped.
func newBiclique(g *Graph, ids ...[]int) *Biclique {
	b := &Biclique{g: g}
	for _, part := range ids {
		for _, id := range part {
			if g.nodes[id].Side == Selector {
				b.left = append(b.left, id)
			} else {
				b.right = append(b.right, id)
			}
		}
	}
	slices.Sort(b.left)
	b.left = slices.Compact(b.left)
	slices.Sort(b.right)
	b.right = slices.Compact(b.right)
	b.text = b.serialize()
	return b
}

func (b *Biclique) labels(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = b.g.nodes[id].Label
	}
	if b.g.sortLabels {
		sort.Sort(natural.StringSlice(out))
	}
	return out
}

func (b *Biclique) serialize() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(b.labels(b.left), selectorSeparator))
	sb.WriteByte('{')
	sb.WriteString(strings.Join(b.labels(b.right), declarationSeparator))
	sb.WriteByte('}')
	return sb.String()
}

// clone rebuilds the biclique with its own node containers.
func (b *Biclique) clone() *Biclique {
	return &Biclique{
		g:     b.g,
		left:  slices.Clone(b.left),
		right: slices.Clone(b.right),
		text:  b.text,
	}
}

// String returns the rule block: "<selectors>{<declarations>}".
func (b *Biclique) String() string { return b.text }

// Len returns the serialized length in bytes.
func (b *Biclique) Len() int { return len(b.text) }

// Selectors returns selector labels in serialization order.
func (b *Biclique) Selectors() []string { return b.labels(b.left) }

// Declarations returns declaration labels in serialization order.
func (b *Biclique) Declarations() []string { return b.labels(b.right) }

// Nodes returns all nodes of the biclique, selectors first.
func (b *Biclique) Nodes() []Node {
	out := make([]Node, 0, len(b.left)+len(b.right))
	for _, id := range b.left {
		out = append(out, b.g.nodes[id])
	}
	for _, id := range b.right {
		out = append(out, b.g.nodes[id])
	}
	return out
}

// Edges yields the graph edges this biclique covers: its own
// selectors x declarations filtered by actual adjacency.
func (b *Biclique) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for _, l := range b.left {
			for _, r := range b.right {
				if !b.g.adjacent(l, r) {
					continue
				}
				if !yield(Edge{Selector: b.g.nodes[l].Label, Declaration: b.g.nodes[r].Label}) {
					return
				}
			}
		}
	}
}

// Valid reports whether every selector x declaration pair is a graph edge.
func (b *Biclique) Valid() bool {
	for _, l := range b.left {
		for _, r := range b.right {
			if !b.g.adjacent(l, r) {
				return false
			}
		}
	}
	return true
}

func (b *Biclique) extension() *extension {
	b.extOnce.Do(func() {
		b.ext.decls, b.ext.anyDecl = b.g.common(b.left)
		b.ext.sels, b.ext.anySel = b.g.common(b.right)
	})
	return &b.ext
}

// admits reports whether all nodes of o fit within the extension of b.
func (e *extension) admits(o *Biclique) bool {
	if !e.anySel {
		for _, id := range o.left {
			if _, ok := e.sels[id]; !ok {
				return false
			}
		}
	}
	if !e.anyDecl {
		for _, id := range o.right {
			if _, ok := e.decls[id]; !ok {
				return false
			}
		}
	}
	return true
}

// CanMerge reports whether the union of both bicliques is still a biclique,
// i.e. each one lies within the maximal extension of the other.
func (b *Biclique) CanMerge(o *Biclique) bool {
	if b.g != o.g {
		return false
	}
	return b.extension().admits(o) && o.extension().admits(b)
}
