// Package materializer implements the VcfMaterializer of spec.md §4.4:
// an iterator that yields, per (contig, haplotype) pair, a materialized
// haplotype sequence and its PositionMap. Result has a Meth field for a
// methylation level track, but the materializer leaves it nil, also when
// a MethylationIndex is given.
package materializer

import (
	"github.com/pkg/errors"

	"github.com/grailbio/readsim/posmap"
	"github.com/grailbio/readsim/reference"
	"github.com/grailbio/readsim/seqsim"
	"github.com/grailbio/readsim/variant"
)

// Result is one (ref_id, hap_id) pair's materialized output.
type Result struct {
	RefID, HapID int
	Sequence     []byte
	PosMap       *posmap.PositionMap
	Meth         *seqsim.MethylationLevels
}

// Materializer iterates (ref_id, hap_id) pairs in lexicographic order,
// applying the variant records that target each haplotype to the
// reference contig.
type Materializer struct {
	ref           *reference.Index
	meth          *reference.MethylationIndex
	numHaplotypes int
	byContig      map[string][]variant.Record

	refID, hapID int
}

// New constructs a Materializer. records is the full set of variant
// records for all contigs, which New groups by contig name;
// numHaplotypes is the number of haplotypes simulated per contig. meth
// is stored but not read: Next never fills Result.Meth.
func New(ref *reference.Index, meth *reference.MethylationIndex, numHaplotypes int, records []variant.Record) *Materializer {
	byContig := make(map[string][]variant.Record)
	for _, r := range records {
		byContig[r.Contig] = append(byContig[r.Contig], r)
	}
	return &Materializer{ref: ref, meth: meth, numHaplotypes: numHaplotypes, byContig: byContig}
}

// Next returns the next materialized (contig, haplotype) pair, or false
// when exhausted. It returns an error when a variant record is
// inconsistent with the reference, which is fatal for the pipeline per
// spec.md §4.4.
func (m *Materializer) Next() (Result, bool, error) {
	if m.refID >= m.ref.NumSeqs() {
		return Result{}, false, nil
	}

	contigName := m.ref.SequenceName(m.refID)
	contigLen := m.ref.SequenceLength(m.refID)
	refSeqStr, err := m.ref.ReadSequence(m.refID)
	if err != nil {
		return Result{}, false, errors.Wrapf(err, "materializer: reading contig %q", contigName)
	}
	refSeq := []byte(refSeqStr)

	hap := m.hapID
	res, err := m.materialize(contigName, refSeq, contigLen, hap)
	if err != nil {
		return Result{}, false, err
	}
	res.RefID, res.HapID = m.refID, hap

	m.hapID++
	if m.hapID >= m.numHaplotypes {
		m.hapID = 0
		m.refID++
	}
	return res, true, nil
}

func (m *Materializer) materialize(contigName string, refSeq []byte, contigLen uint64, hap int) (Result, error) {
	var applicable []variant.Record
	for _, v := range m.byContig[contigName] {
		if v.AppliesTo(hap) {
			applicable = append(applicable, v)
		}
	}
	if len(applicable) == 0 {
		return Result{Sequence: refSeq, PosMap: posmap.IdentityPositionMap(contigLen)}, nil
	}

	b := posmap.NewBuilder()
	var out []byte
	var origPos, matPos uint64

	flushIdentity := func(origEnd uint64) {
		if origEnd <= origPos {
			return
		}
		length := origEnd - origPos
		b.AddNormalSegment(matPos, matPos+length, matPos, matPos+length, 1)
		b.AddSmallVarSegment(matPos, matPos+length, posmap.Normal, origPos, origEnd)
		out = append(out, refSeq[origPos:origEnd]...)
		matPos += length
		origPos = origEnd
	}

	for _, v := range applicable {
		if v.Pos < origPos {
			continue // overlapping variant already covered; keep deterministic single application
		}
		if v.Pos > contigLen || v.End > contigLen {
			return Result{}, errors.Errorf("materializer: variant at %s:%d-%d exceeds contig length %d", contigName, v.Pos, v.End, contigLen)
		}

		switch v.Kind {
		case variant.Substitution:
			flushIdentity(v.Pos)
			if uint64(len(v.Ref)) != v.End-v.Pos {
				return Result{}, errors.Errorf("materializer: substitution ref length mismatch at %s:%d", contigName, v.Pos)
			}
			common := uint64(len(v.Ref))
			if uint64(len(v.Alt)) < common {
				common = uint64(len(v.Alt))
			}
			if common > 0 {
				b.AddNormalSegment(matPos, matPos+common, matPos, matPos+common, 1)
				b.AddSmallVarSegment(matPos, matPos+common, posmap.Normal, v.Pos, v.Pos+common)
			}
			if uint64(len(v.Alt)) > common {
				extra := uint64(len(v.Alt)) - common
				b.AddInsertedSegment(matPos+common, matPos+common+extra)
			}
			out = append(out, v.Alt...)
			matPos += uint64(len(v.Alt))
			origPos = v.End

		case variant.Insertion:
			flushIdentity(v.Pos)
			length := uint64(len(v.Alt))
			b.AddInsertedSegment(matPos, matPos+length)
			out = append(out, v.Alt...)
			matPos += length

		case variant.Deletion:
			flushIdentity(v.Pos)
			origPos = v.End

		case variant.Inversion:
			flushIdentity(v.Pos)
			length := v.End - v.Pos
			inv := make([]byte, length)
			copy(inv, refSeq[v.Pos:v.End])
			reverseComplement(inv)
			b.AddNormalSegment(matPos, matPos+length, v.Pos, v.End, -1)
			b.AddSmallVarSegment(v.Pos, v.End, posmap.Normal, v.Pos, v.End)
			out = append(out, inv...)
			matPos += length
			origPos = v.End

		default:
			return Result{}, errors.Errorf("materializer: unknown variant kind at %s:%d", contigName, v.Pos)
		}
	}
	flushIdentity(contigLen)

	return Result{Sequence: out, PosMap: b.Build()}, nil
}

var complement = map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}

func reverseComplement(seq []byte) {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		ci, cj := complement[seq[i]], complement[seq[j]]
		seq[i], seq[j] = cj, ci
	}
}
