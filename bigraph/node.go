package bigraph

import "fmt"

// Side tells which partition of the graph a node belongs to.
type Side uint8

const (
	Selector Side = iota
	Declaration
)

func (s Side) String() string {
	switch s {
	case Selector:
		return "selector"
	case Declaration:
		return "declaration"
	default:
		return fmt.Sprintf("Side(%d)", s)
	}
}

// Opposite returns the other partition.
func (s Side) Opposite() Side {
	if s == Selector {
		return Declaration
	}
	return Selector
}

// Node is a graph vertex. Two nodes with the same label and side are the same
// node.
type Node struct {
	Label string
	Side  Side
}

// Sel is a shorthand for a selector node.
func Sel(label string) Node { return Node{Label: label, Side: Selector} }

// Decl is a shorthand for a declaration node.
func Decl(label string) Node { return Node{Label: label, Side: Declaration} }

func (n Node) String() string {
	return n.Side.String() + "(" + n.Label + ")"
}

// Edge is a (selector, declaration) association present in the source.
type Edge struct {
	Selector    string
	Declaration string
}

func (e Edge) String() string {
	return e.Selector + "{" + e.Declaration + "}"
}

// EdgeSet is an unordered set of edges.
type EdgeSet map[Edge]struct{}

// NewEdgeSet collects edges into a set.
func NewEdgeSet(edges ...Edge) EdgeSet {
	s := make(EdgeSet, len(edges))
	for _, e := range edges {
		s[e] = struct{}{}
	}
	return s
}

func (s EdgeSet) Add(e Edge) { s[e] = struct{}{} }

func (s EdgeSet) Has(e Edge) bool {
	_, ok := s[e]
	return ok
}

func (s EdgeSet) Len() int { return len(s) }

// Clone returns an independent copy of the set.
func (s EdgeSet) Clone() EdgeSet {
	c := make(EdgeSet, len(s))
	for e := range s {
		c[e] = struct{}{}
	}
	return c
}

// Without returns a new set holding the edges of s not present in other.
func (s EdgeSet) Without(other EdgeSet) EdgeSet {
	c := make(EdgeSet, len(s))
	for e := range s {
		if _, ok := other[e]; !ok {
			c[e] = struct{}{}
		}
	}
	return c
}

// Equal reports whether both sets contain exactly the same edges.
func (s EdgeSet) Equal(other EdgeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for e := range s {
		if _, ok := other[e]; !ok {
			return false
		}
	}
	return true
}
