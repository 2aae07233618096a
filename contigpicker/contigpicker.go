// Package contigpicker implements a weighted sampler that maps a
// fragment ordinal to a (contig, haplotype) pair with probability
// proportional to contig length.
package contigpicker

import (
	"math/rand"
	"sort"
)

// ContigPicker draws (contig, haplotype) pairs with probability
// proportional to contig length. One ContigPicker is shared read-only
// across the distribute phase; Pick draws from the caller-supplied RNG
// (the orchestrator's RNG, not a worker's — distribution happens before
// the parallel phase starts, per spec.md §4.12).
type ContigPicker struct {
	numHaplotypes int
	lengths       []uint64 // per contig
	prefixSums    []uint64 // prefixSums[i] = sum(lengths[0..i])
	total         uint64
}

// New builds a ContigPicker over the given per-contig lengths, with
// numHaplotypes haplotypes per contig (every haplotype of a contig
// shares the contig's length weight).
func New(lengths []uint64, numHaplotypes int) *ContigPicker {
	cp := &ContigPicker{numHaplotypes: numHaplotypes, lengths: lengths}
	cp.prefixSums = make([]uint64, len(lengths))
	var sum uint64
	for i, l := range lengths {
		sum += l
		cp.prefixSums[i] = sum
	}
	cp.total = sum
	return cp
}

// Pick draws a uniform 64-bit integer in [0, total_length) from rng and
// returns the contig index whose prefix sum first exceeds the draw,
// found by binary search. On the boundary the lower-index contig wins,
// per spec.md §4.2.
func (cp *ContigPicker) Pick(rng *rand.Rand) (contig int) {
	if cp.total == 0 {
		return 0
	}
	draw := uint64(rng.Int63n(int64(cp.total)))
	return sort.Search(len(cp.prefixSums), func(i int) bool {
		return cp.prefixSums[i] > draw
	})
}

// PickHaplotype draws a contig as Pick does, then a uniform haplotype
// index in [0, numHaplotypes) from the same rng.
func (cp *ContigPicker) PickHaplotype(rng *rand.Rand) (contig, hap int) {
	contig = cp.Pick(rng)
	hap = int(rng.Int31n(int32(cp.numHaplotypes)))
	return contig, hap
}

// ToID linearizes a (contig, haplotype) pair into a single bucket index,
// per spec.md §4.2.
func (cp *ContigPicker) ToID(contig, hap int) int {
	return contig*cp.numHaplotypes + hap
}

// NumBuckets returns the total number of (contig, haplotype) buckets.
func (cp *ContigPicker) NumBuckets() int {
	return len(cp.lengths) * cp.numHaplotypes
}

// NumContigs returns the number of contigs.
func (cp *ContigPicker) NumContigs() int { return len(cp.lengths) }

// NumHaplotypes returns the number of haplotypes per contig.
func (cp *ContigPicker) NumHaplotypes() int { return cp.numHaplotypes }
