package bigraph

import "iter"

// DefaultTerminator ends every serialized rule unless WithRuleTerminator says
// otherwise.
const DefaultTerminator = "\n"

type settings struct {
	pricer     Pricer
	sortLabels bool
	terminator string
}

// Option configures how coverings over a graph serialize and price themselves.
type Option func(*settings)

// WithPricer sets the cost function used by Covering.Cost. By default cost is
// the raw serialized length.
func WithPricer(p Pricer) Option {
	return func(s *settings) {
		s.pricer = p
	}
}

// WithSortedLabels makes bicliques serialize their labels in natural order
// instead of the order in which nodes were first seen.
func WithSortedLabels(on bool) Option {
	return func(s *settings) {
		s.sortLabels = on
	}
}

// WithRuleTerminator sets the string written after every rule of a covering,
// empty string produces fully compact output.
func WithRuleTerminator(term string) Option {
	return func(s *settings) {
		s.terminator = term
	}
}

// Graph is a bipartite graph of selector and declaration nodes. Nodes are
// interned: each (label, side) pair gets a stable integer id on first use and
// all adjacency is kept by id.
type Graph struct {
	settings

	index map[Node]int
	nodes []Node
	adj   []map[int]struct{} // symmetric by construction
	order [][]int            // adjacency in insertion order, for stable iteration
	sides [2][]int
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		index:    make(map[Node]int),
		settings: settings{terminator: DefaultTerminator},
	}
	for _, setOpt := range opts {
		setOpt(&g.settings)
	}
	return g
}

// Connect records that the selector carries the declaration, creating either
// node if necessary. Connecting an existing pair again is a no-op.
func (g *Graph) Connect(selector, declaration string) {
	s, d := g.intern(Sel(selector)), g.intern(Decl(declaration))
	if _, ok := g.adj[s][d]; ok {
		return
	}
	g.adj[s][d] = struct{}{}
	g.adj[d][s] = struct{}{}
	g.order[s] = append(g.order[s], d)
	g.order[d] = append(g.order[d], s)
}

func (g *Graph) intern(n Node) int {
	if id, ok := g.index[n]; ok {
		return id
	}
	id := len(g.nodes)
	g.index[n] = id
	g.nodes = append(g.nodes, n)
	g.adj = append(g.adj, make(map[int]struct{}))
	g.order = append(g.order, nil)
	g.sides[n.Side] = append(g.sides[n.Side], id)
	return id
}

func (g *Graph) lookup(n Node) (int, bool) {
	id, ok := g.index[n]
	return id, ok
}

func (g *Graph) adjacent(a, b int) bool {
	_, ok := g.adj[a][b]
	return ok
}

// Has reports whether the node is part of the graph.
func (g *Graph) Has(n Node) bool {
	_, ok := g.index[n]
	return ok
}

// Adjacent reports whether the selector carries the declaration.
func (g *Graph) Adjacent(selector, declaration string) bool {
	s, ok := g.lookup(Sel(selector))
	if !ok {
		return false
	}
	d, ok := g.lookup(Decl(declaration))
	if !ok {
		return false
	}
	return g.adjacent(s, d)
}

// Len returns number of nodes on the requested side.
func (g *Graph) Len(side Side) int {
	return len(g.sides[side])
}

// Nodes yields nodes of one side in the order they were first connected.
func (g *Graph) Nodes(side Side) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, id := range g.sides[side] {
			if !yield(g.nodes[id]) {
				return
			}
		}
	}
}

// Neighbors yields the nodes adjacent to n, or nothing when n is unknown.
func (g *Graph) Neighbors(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		id, ok := g.lookup(n)
		if !ok {
			return
		}
		for _, nb := range g.order[id] {
			if !yield(g.nodes[nb]) {
				return
			}
		}
	}
}

// Edges yields every (selector, declaration) association. The sequence is
// lazy and may be iterated any number of times.
func (g *Graph) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for _, s := range g.sides[Selector] {
			for _, d := range g.order[s] {
				if !yield(Edge{Selector: g.nodes[s].Label, Declaration: g.nodes[d].Label}) {
					return
				}
			}
		}
	}
}

// EdgeSet materializes all edges of the graph.
func (g *Graph) EdgeSet() EdgeSet {
	s := make(EdgeSet, g.EdgeCount())
	for e := range g.Edges() {
		s[e] = struct{}{}
	}
	return s
}

// EdgeCount returns number of edges in the graph.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, s := range g.sides[Selector] {
		n += len(g.order[s])
	}
	return n
}

// common returns ids of the opposite partition adjacent to every node in
// members. With no members there is no constraint and all is true.
func (g *Graph) common(members []int) (set map[int]struct{}, all bool) {
	if len(members) == 0 {
		return nil, true
	}
	set = make(map[int]struct{}, len(g.adj[members[0]]))
	for id := range g.adj[members[0]] {
		set[id] = struct{}{}
	}
	for _, m := range members[1:] {
		for id := range set {
			if !g.adjacent(m, id) {
				delete(set, id)
			}
		}
		if len(set) == 0 {
			break
		}
	}
	return set, false
}

// Rule is one (selectors, declarations) pair as produced by a stylesheet
// parser.
type Rule struct {
	Selectors    []string
	Declarations []string
}

// Build connects every rule into a new graph and returns it together with the
// base covering holding one biclique per rule. Rules missing either side carry
// no association and are skipped.
func Build(rules []Rule, opts ...Option) (*Graph, *Covering) {
	g := New(opts...)
	base := NewCovering(g)
	for _, r := range rules {
		if len(r.Selectors) == 0 || len(r.Declarations) == 0 {
			continue
		}
		ids := make([]int, 0, len(r.Selectors)+len(r.Declarations))
		for _, s := range r.Selectors {
			for _, d := range r.Declarations {
				g.Connect(s, d)
			}
			ids = append(ids, g.index[Sel(s)])
		}
		for _, d := range r.Declarations {
			ids = append(ids, g.index[Decl(d)])
		}
		base.members = append(base.members, newBiclique(g, ids))
	}
	return g, base
}
