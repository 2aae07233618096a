package seqsim

import "math/rand"

// bases is the 4-letter alphabet substitution errors are drawn from.
var bases = [4]byte{'A', 'C', 'G', 'T'}

// IlluminaOptions configures the Illumina-like default Simulator. It
// models only substitution errors, at a fixed per-base probability
// that does not depend on the base's quality, matching the "technology-specific base-call error
// models" spec.md §1 explicitly puts out of scope for anything beyond a
// trait contract — this is the one concrete implementation SPEC_FULL.md
// supplies so the pipeline is runnable end-to-end.
type IlluminaOptions struct {
	// MismatchRate is the per-base probability of a substitution error.
	MismatchRate float64
	// QualityMean and QualityStdDev parameterize the Phred quality score
	// (offset 33, "!"-based) assigned to each base.
	QualityMean, QualityStdDev float64
}

// DefaultIlluminaOptions matches typical short-read mismatch rates.
var DefaultIlluminaOptions = IlluminaOptions{
	MismatchRate:   0.004,
	QualityMean:    40,
	QualityStdDev:  2,
}

// Illumina is the default Simulator: single-base substitution errors,
// no indels, at a fixed per-base rate; qualities are drawn from a
// clamped Gaussian around QualityMean.
type Illumina struct {
	Opts IlluminaOptions
}

// NewIllumina constructs an Illumina simulator with the given options.
func NewIllumina(opts IlluminaOptions) *Illumina {
	return &Illumina{Opts: opts}
}

func (s *Illumina) draw(rng *rand.Rand, haplotypeSeq []byte, fragment Fragment, isForward bool) (seq, qual []byte, info Info) {
	length := int(fragment.Len())
	seq = make([]byte, length)
	qual = make([]byte, length)
	copy(seq, haplotypeSeq[fragment.Begin:fragment.End])

	for i := range seq {
		q := s.Opts.QualityMean + rng.NormFloat64()*s.Opts.QualityStdDev
		if q < 2 {
			q = 2
		}
		if q > 41 {
			q = 41
		}
		qual[i] = byte(33 + int(q))
		if rng.Float64() < s.Opts.MismatchRate {
			seq[i] = randomOtherBase(rng, seq[i])
		}
	}

	if !isForward {
		reverseComplementInPlace(seq)
		reverseInPlace(qual)
	}

	info = Info{
		BeginPos:  fragment.Begin,
		IsForward: isForward,
		Cigar:     []CigarElem{{Op: OpMatch, Len: length}},
	}
	return seq, qual, info
}

// SimulateSingleEnd implements Simulator.
func (s *Illumina) SimulateSingleEnd(rng *rand.Rand, haplotypeSeq []byte, fragment Fragment, meth *MethylationLevels) (seq, qual []byte, info Info) {
	isForward := rng.Intn(2) == 0
	return s.draw(rng, haplotypeSeq, fragment, isForward)
}

// SimulatePairedEnd implements Simulator: the two mates are drawn from
// opposite strands of the fragment; whether the left mate is the
// forward one is drawn at random from rng.
func (s *Illumina) SimulatePairedEnd(rng *rand.Rand, haplotypeSeq []byte, fragment Fragment, meth *MethylationLevels) (seqL, qualL []byte, infoL Info, seqR, qualR []byte, infoR Info) {
	isForward := rng.Intn(2) == 0
	seqL, qualL, infoL = s.draw(rng, haplotypeSeq, fragment, isForward)
	seqR, qualR, infoR = s.draw(rng, haplotypeSeq, fragment, !isForward)
	return seqL, qualL, infoL, seqR, qualR, infoR
}

func randomOtherBase(rng *rand.Rand, orig byte) byte {
	for {
		b := bases[rng.Intn(len(bases))]
		if b != orig {
			return b
		}
	}
}

var complement = map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}

func reverseComplementInPlace(seq []byte) {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		ci, cj := complement[seq[i]], complement[seq[j]]
		seq[i], seq[j] = cj, ci
	}
}

func reverseInPlace(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
