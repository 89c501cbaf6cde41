// Enums shared by configuration and optimizer packages. String forms are used
// in YAML configuration and on the command line.
package common

//go:generate go tool go-enum --marshal --names

// Compressor used to price coverings when compression level is not 0.
// ENUM(zlib, gzip, s2, snappy)
type Compressor int

// How mutation probability is applied to a child covering: once per child or
// once per biclique of the child.
// ENUM(individual, member)
type MutationMode int

// Trials returns number of mutation trials for a child having n bicliques.
func (m MutationMode) Trials(n int) int {
	if m == MutationModeMember {
		return n
	}
	return 1
}
