// Package simconfig defines the simulator's configuration struct,
// following the teacher's Opts/DefaultOpts idiom (see pileup/snp.Opts
// in the teacher repo).
package simconfig

import (
	"github.com/grailbio/readsim/fragment"
	"github.com/grailbio/readsim/seqsim"
)

// Options is the full set of tunables spec.md §6 lists abstractly as
// the CLI surface.
type Options struct {
	ReferencePath    string
	ReferenceIndex   string
	VariantsPath     string
	MethylationPath  string

	NumFragments int64
	NumThreads   int
	ChunkSize    int
	Seed         int64
	SeedSpacing  int64

	ReadNamePrefix string
	EmbedReadInfo  bool

	OutputLeft  string
	OutputRight string // empty for single-end
	OutputSAM   string // empty to skip alignment output

	ForceSingleEnd bool

	NumHaplotypes int

	Fragment fragment.Options
	Illumina seqsim.IlluminaOptions
}

// DefaultOptions matches a modest single-node run: 4 threads, 10k-read
// chunks, the default Illumina-like error model and normal fragment
// length distribution.
var DefaultOptions = Options{
	NumFragments:   1_000_000,
	NumThreads:     4,
	ChunkSize:      10_000,
	Seed:           0,
	SeedSpacing:    1_000_000,
	ReadNamePrefix: "simulated.",
	NumHaplotypes:  1,
	Fragment:       fragment.DefaultOptions,
	Illumina:       seqsim.DefaultIlluminaOptions,
}
