package bigraph

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync/atomic"
)

var (
	// ErrUncoverable is returned by Cover when the requested edges cannot be
	// covered by the bicliques of the covering. It indicates caller error.
	ErrUncoverable = errors.New("edges cannot be covered")
	// ErrUnknownNode is returned when a node is not part of the graph.
	ErrUnknownNode = errors.New("node is not in the graph")
	// ErrInvalidBiclique is returned when nodes do not form a biclique of the
	// graph.
	ErrInvalidBiclique = errors.New("nodes do not form a biclique")
	// ErrGraphMismatch is returned when coverings of different graphs are
	// combined.
	ErrGraphMismatch = errors.New("coverings belong to different graphs")
)

// Covering is a set of bicliques over a single graph. A covering produced by
// Build, Copy, mutation or crossover covers every graph edge at least once.
type Covering struct {
	g       *Graph
	members []*Biclique

	// cached cost plus one, zero when unknown
	cost atomic.Int64
}

// NewCovering returns an empty covering of g.
func NewCovering(g *Graph) *Covering {
	return &Covering{g: g}
}

func (c *Covering) Graph() *Graph { return c.g }

// Len returns number of bicliques.
func (c *Covering) Len() int { return len(c.members) }

// Bicliques returns the member bicliques in covering order.
func (c *Covering) Bicliques() []*Biclique {
	out := make([]*Biclique, len(c.members))
	copy(out, c.members)
	return out
}

func (c *Covering) changed() { c.cost.Store(0) }

// Add inserts a biclique made of the given graph nodes.
func (c *Covering) Add(nodes ...Node) error {
	ids := make([]int, 0, len(nodes))
	for _, n := range nodes {
		id, ok := c.g.lookup(n)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, n)
		}
		ids = append(ids, id)
	}
	b := newBiclique(c.g, ids)
	if len(b.left) == 0 || len(b.right) == 0 {
		return fmt.Errorf("%w: both sides must be present", ErrInvalidBiclique)
	}
	if !b.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidBiclique, b)
	}
	c.members = append(c.members, b)
	c.changed()
	return nil
}

// String returns concatenation of all bicliques serializations, each followed
// by the rule terminator of the graph.
func (c *Covering) String() string {
	var sb strings.Builder
	sb.Grow(c.rawLen())
	for _, b := range c.members {
		sb.WriteString(b.text)
		sb.WriteString(c.g.terminator)
	}
	return sb.String()
}

// WriteTo writes serialized covering to w, implementing io.WriterTo.
func (c *Covering) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, b := range c.members {
		n, err := io.WriteString(w, b.text+c.g.terminator)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *Covering) rawLen() int {
	n := len(c.members) * len(c.g.terminator)
	for _, b := range c.members {
		n += len(b.text)
	}
	return n
}

// Cost returns the fitness of the covering, lower is better. Cost is cached
// until the covering changes.
func (c *Covering) Cost() int {
	if v := c.cost.Load(); v > 0 {
		return int(v - 1)
	}
	var v int
	if len(c.members) > 0 && c.g.pricer.Compressed() {
		v = c.g.pricer.Price([]byte(c.String()))
	} else {
		v = c.rawLen()
	}
	c.cost.Store(int64(v) + 1)
	return v
}

// Edges returns the union of edges covered by all member bicliques.
func (c *Covering) Edges() EdgeSet {
	return edgesOf(c.members)
}

func edgesOf(bs []*Biclique) EdgeSet {
	s := make(EdgeSet)
	for _, b := range bs {
		for e := range b.Edges() {
			s[e] = struct{}{}
		}
	}
	return s
}

// Complete reports whether the covering covers every graph edge.
func (c *Covering) Complete() bool {
	return c.Edges().Equal(c.g.EdgeSet())
}

// Valid reports whether every member is a biclique of the graph.
func (c *Covering) Valid() bool {
	for _, b := range c.members {
		if !b.Valid() {
			return false
		}
	}
	return true
}

// Copy rebuilds every member under a new covering sharing the same graph.
func (c *Covering) Copy() *Covering {
	cp := &Covering{g: c.g, members: make([]*Biclique, len(c.members))}
	for i, b := range c.members {
		cp.members[i] = b.clone()
	}
	if v := c.cost.Load(); v > 0 {
		cp.cost.Store(v)
	}
	return cp
}

// Cover draws random members without replacement until their edges include
// every edge of target. Members adding nothing new are discarded. Returned
// bicliques are members of c, not copies.
func (c *Covering) Cover(rng *rand.Rand, target EdgeSet) ([]*Biclique, error) {
	remaining := target.Clone()
	pool := make([]*Biclique, len(c.members))
	copy(pool, c.members)

	var out []*Biclique
	for len(remaining) > 0 {
		if len(pool) == 0 {
			return nil, fmt.Errorf("%w: %d edges left after exhausting %d bicliques", ErrUncoverable, len(remaining), len(c.members))
		}
		i := rng.IntN(len(pool))
		b := pool[i]
		last := len(pool) - 1
		pool[i], pool[last] = pool[last], nil
		pool = pool[:last]

		useful := false
		for e := range b.Edges() {
			if _, ok := remaining[e]; ok {
				delete(remaining, e)
				useful = true
			}
		}
		if useful {
			out = append(out, b)
		}
	}
	return out, nil
}

// Crossover mixes bicliques of c and other into two offspring, each covering
// the whole graph. The first takes a random half of c and completes it from
// other, the second takes what other did not give away and completes it from
// c.
func (c *Covering) Crossover(rng *rand.Rand, other *Covering) (*Covering, *Covering, error) {
	if c.g != other.g {
		return nil, nil, ErrGraphMismatch
	}
	all := c.g.EdgeSet()

	perm := rng.Perm(len(c.members))
	sb1 := make([]*Biclique, 0, len(c.members)/2)
	for _, i := range perm[:len(c.members)/2] {
		sb1 = append(sb1, c.members[i])
	}
	ob2, err := other.Cover(rng, all.Without(edgesOf(sb1)))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to complete first offspring: %w", err)
	}

	taken := make(map[*Biclique]struct{}, len(ob2))
	for _, b := range ob2 {
		taken[b] = struct{}{}
	}
	ob1 := make([]*Biclique, 0, len(other.members)-len(ob2))
	for _, b := range other.members {
		if _, ok := taken[b]; !ok {
			ob1 = append(ob1, b)
		}
	}
	sb2, err := c.Cover(rng, all.Without(edgesOf(ob1)))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to complete second offspring: %w", err)
	}
	return c.offspring(sb1, ob2), c.offspring(sb2, ob1), nil
}

// offspring builds a covering from fresh copies of the given bicliques. The
// same biclique listed twice is kept once.
func (c *Covering) offspring(parts ...[]*Biclique) *Covering {
	seen := make(map[*Biclique]struct{})
	o := NewCovering(c.g)
	for _, part := range parts {
		for _, b := range part {
			if _, ok := seen[b]; ok {
				continue
			}
			seen[b] = struct{}{}
			o.members = append(o.members, b.clone())
		}
	}
	return o
}

// MutateMerge replaces a random member and a random compatible partner with
// their union. It returns false when no partner exists.
func (c *Covering) MutateMerge(rng *rand.Rand) bool {
	if len(c.members) < 2 {
		return false
	}
	i := rng.IntN(len(c.members))
	b1 := c.members[i]

	var candidates []int
	for j, b2 := range c.members {
		if j != i && b1.CanMerge(b2) {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	j := candidates[rng.IntN(len(candidates))]
	b2 := c.members[j]

	merged := newBiclique(c.g, b1.left, b1.right, b2.left, b2.right)
	members := make([]*Biclique, 0, len(c.members)-1)
	for k, b := range c.members {
		if k != i && k != j {
			members = append(members, b)
		}
	}
	c.members = append(members, merged)
	c.changed()
	return true
}

// MutateSplit replaces a random member having more than one node on some side
// with two bicliques, each holding a non-empty part of that side and the whole
// other side. It returns false when no member can be split.
func (c *Covering) MutateSplit(rng *rand.Rand) bool {
	var splittable []int
	for i, b := range c.members {
		if len(b.left) > 1 || len(b.right) > 1 {
			splittable = append(splittable, i)
		}
	}
	if len(splittable) == 0 {
		return false
	}
	i := splittable[rng.IntN(len(splittable))]
	b := c.members[i]

	split, keep := b.left, b.right
	if rng.Float64() >= 0.5 {
		split, keep = keep, split
	}
	if len(split) == 1 {
		split, keep = keep, split
	}

	order := rng.Perm(len(split))
	k := 1 + rng.IntN(len(split)-1)
	part1 := make([]int, 0, k)
	part2 := make([]int, 0, len(split)-k)
	for n, idx := range order {
		if n < k {
			part1 = append(part1, split[idx])
		} else {
			part2 = append(part2, split[idx])
		}
	}

	c.members[i] = newBiclique(c.g, part1, keep)
	c.members = append(c.members, newBiclique(c.g, part2, keep))
	c.changed()
	return true
}

// Mutate merges with probability mergeProbability, otherwise splits. It
// returns whether the covering changed.
func (c *Covering) Mutate(rng *rand.Rand, mergeProbability float64) bool {
	if rng.Float64() < mergeProbability {
		return c.MutateMerge(rng)
	}
	return c.MutateSplit(rng)
}
