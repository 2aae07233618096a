// Package fragment implements the FragmentSampler of spec.md §4.5:
// given a contig length and a desired count, produces fragment
// intervals according to a configured length distribution.
package fragment

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/grailbio/readsim/seqsim"
)

// DistributionKind selects the fragment-length distribution.
type DistributionKind int

const (
	// Normal draws lengths from a Gaussian, grounded on
	// gonum.org/v1/gonum/stat/distuv.Normal (see SPEC_FULL.md §4.5a).
	Normal DistributionKind = iota
	// Uniform draws lengths uniformly over [MinLength, MaxLength].
	Uniform
)

// Options configures a Sampler, following the teacher's Opts/DefaultOpts
// configuration idiom (see pileup/snp.Opts in the teacher repo).
type Options struct {
	Distribution DistributionKind
	MinLength    uint64
	MaxLength    uint64
	Mean         float64 // Normal only
	StdDev       float64 // Normal only
}

// DefaultOptions matches a typical Illumina paired-end library.
var DefaultOptions = Options{
	Distribution: Normal,
	MinLength:    100,
	MaxLength:    800,
	Mean:         400,
	StdDev:       60,
}

// Sampler is the FragmentSampler of spec.md §4.5. One Sampler is owned
// per worker, per spec.md §5's "each worker owns its ... sampler ...
// these are never shared".
type Sampler struct {
	opts Options
}

// New constructs a Sampler with the given options.
func New(opts Options) *Sampler {
	return &Sampler{opts: opts}
}

// GenerateMany fills buffer with n fragments whose lengths follow the
// configured distribution and whose begin positions are uniform over
// [0, contigLength-length]. A drawn length longer than contigLength is
// cut down to contigLength. When contigLength is smaller than the
// minimum fragment length, GenerateMany emits zero fragments and
// returns buffer[:0], matching spec.md §4.5's degenerate-contig rule.
func (s *Sampler) GenerateMany(rng *rand.Rand, buffer []seqsim.Fragment, contigLength uint64, n int) []seqsim.Fragment {
	buffer = buffer[:0]
	if contigLength < s.opts.MinLength {
		return buffer
	}
	for i := 0; i < n; i++ {
		length := s.sampleLength(rng, contigLength)
		if length > contigLength {
			length = contigLength
		}
		span := contigLength - length
		var begin uint64
		if span > 0 {
			begin = uint64(rng.Int63n(int64(span) + 1))
		}
		buffer = append(buffer, seqsim.Fragment{Begin: begin, End: begin + length})
	}
	return buffer
}

// gonumSource adapts a worker-owned *rand.Rand to distuv.Normal's Src
// field, which is typed against golang.org/x/exp/rand.Source
// (Uint64()/Seed(uint64)), not math/rand.Source. Seed is a no-op: the
// worker-owned rng passed to GenerateMany is already seeded per
// spec.md §4.10/§5, and
// every draw must keep consuming that single owned sequence rather
// than let gonum reseed it.
type gonumSource struct {
	rng *rand.Rand
}

func (s gonumSource) Uint64() uint64 { return s.rng.Uint64() }
func (s gonumSource) Seed(uint64)    {}

func (s *Sampler) sampleLength(rng *rand.Rand, contigLength uint64) uint64 {
	switch s.opts.Distribution {
	case Uniform:
		lo, hi := s.opts.MinLength, s.opts.MaxLength
		if hi <= lo {
			return lo
		}
		return lo + uint64(rng.Int63n(int64(hi-lo+1)))
	default: // Normal
		dist := distuv.Normal{Mu: s.opts.Mean, Sigma: s.opts.StdDev, Src: gonumSource{rng}}
		v := dist.Rand()
		if v < float64(s.opts.MinLength) {
			v = float64(s.opts.MinLength)
		}
		if v > float64(s.opts.MaxLength) {
			v = float64(s.opts.MaxLength)
		}
		return uint64(v)
	}
}
