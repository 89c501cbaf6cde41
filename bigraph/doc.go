// Package bigraph models a stylesheet as a bipartite graph of selectors and
// declarations and represents candidate stylesheets as coverings of that graph
// by bicliques. Every biclique serializes to one rule block
// ("sel1,sel2{decl1;decl2}").
//
// Graph is append-only while rules are being connected and is only read
// afterwards, so it may be shared by any number of coverings and goroutines.
// Bicliques are immutable. A Covering is owned by a single goroutine at a time.
package bigraph
