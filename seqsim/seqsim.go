// Package seqsim defines the SequencingSimulator trait (spec.md §4.6)
// and a concrete Illumina-like default implementation.
package seqsim

import "math/rand"

// CigarOp is a base-level alignment operation describing how a read
// relates to the materialized haplotype it was drawn from; unlike
// align.Op this is produced directly by the simulator before any
// realignment against the original reference happens.
type CigarOp byte

const (
	OpMatch  CigarOp = 'M'
	OpInsert CigarOp = 'I'
	OpDelete CigarOp = 'D'
)

// CigarElem is one run-length-encoded base-level operation.
type CigarElem struct {
	Op  CigarOp
	Len int
}

// Info is the SequencingSimulationInfo of spec.md §3: the true origin of
// a simulated read relative to the materialized haplotype it was drawn
// from.
type Info struct {
	RefID      int
	HapID      int
	BeginPos   uint64
	IsForward  bool
	Cigar      []CigarElem
}

// ReferenceLength returns the number of materialized-haplotype positions
// consumed by the info's CIGAR (sum of M and D run lengths), per the
// invariant in spec.md §3.
func (info Info) ReferenceLength() int {
	n := 0
	for _, e := range info.Cigar {
		if e.Op == OpMatch || e.Op == OpDelete {
			n += e.Len
		}
	}
	return n
}

// Fragment is an interval [Begin, End) on a haplotype's materialized
// sequence, per spec.md §3.
type Fragment struct {
	Begin, End uint64
}

func (f Fragment) Len() uint64 { return f.End - f.Begin }

// MethylationLevels is the optional per-haplotype parallel track of
// bytes consumed read-only by the SequencingSimulator, per spec.md §3.
type MethylationLevels struct {
	Top, Bottom []byte
}

// Simulator is the SequencingSimulator trait of spec.md §4.6. Calls
// consult only the RNG passed to them (never a package-global one),
// making implementations safe to call concurrently as long as each
// worker passes its own *rand.Rand — this is the mechanism by which
// spec.md §5's "workers own their RNG" invariant is upheld at the
// simulator layer.
type Simulator interface {
	// SimulateSingleEnd synthesizes a single read from fragment,
	// consuming haplotypeSeq[fragment.Begin:fragment.End]. meth may be
	// nil.
	SimulateSingleEnd(rng *rand.Rand, haplotypeSeq []byte, fragment Fragment, meth *MethylationLevels) (seq, qual []byte, info Info)

	// SimulatePairedEnd synthesizes the left and right mates of a
	// fragment.
	SimulatePairedEnd(rng *rand.Rand, haplotypeSeq []byte, fragment Fragment, meth *MethylationLevels) (seqL, qualL []byte, infoL Info, seqR, qualR []byte, infoR Info)
}
