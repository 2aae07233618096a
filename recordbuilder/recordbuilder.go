// Package recordbuilder implements the Single/PairedEndRecordBuilder
// algorithms of spec.md §4.7–§4.9: given a simulator's info and
// sequence/quality buffers, a PositionMap, and the original reference,
// it reconstructs the read's true alignment record against the
// original reference.
//
// Per spec.md §9's redesign note, this package does NOT carry a
// stateful builder object that mutates a read buffer in place and
// "restores" it afterwards (the source's _flipState idiom). Build works
// on the simulator's buffers as read-only input; when a flip is needed
// it operates on a freshly allocated copy, so the worker's owned
// buffers are never mutated between fragments.
package recordbuilder

import (
	"github.com/grailbio/hts/sam"

	"github.com/grailbio/readsim/align"
	"github.com/grailbio/readsim/biosimd"
	"github.com/grailbio/readsim/posmap"
	"github.com/grailbio/readsim/seqsim"
)

// InvalidPos matches the SAM unmapped-record convention (also matching
// the teacher's biopb.InvalidPos constant, re-declared here directly
// since biopb itself is dropped — see DESIGN.md).
const InvalidPos = -1

// Unmapped reasons for the uR tag.
const (
	UnmappedBreakpoint = 'B'
	UnmappedInserted   = 'I'
)

// Input bundles everything Build needs for one read.
type Input struct {
	Info       seqsim.Info
	Seq, Qual  []byte
	PosMap     *posmap.PositionMap
	RefName    string
	// Ref is the original reference's entry in the shared SAM header;
	// assigning it (rather than a freshly allocated *sam.Reference)
	// keeps Record.Ref resolvable to the header's reference ID.
	Ref        *sam.Reference
	RefSeq     []byte
	HapID      int // 1-based, per spec.md's oH tag
	QueryName  string
}

// Build implements the SingleEndRecordBuilder algorithm of spec.md §4.7.
func Build(in Input) *sam.Record {
	rec := &sam.Record{
		Name:    in.QueryName,
		MatePos: InvalidPos,
		TempLen: 0,
	}

	refLen := in.Info.ReferenceLength()
	begin := in.Info.BeginPos
	end := begin + uint64(refLen)

	gi := in.PosMap.GenomicInterval(begin)
	crossesBreakpoint := in.PosMap.OverlapsWithBreakpoint(begin, end)

	if crossesBreakpoint || gi.Kind == posmap.Inserted {
		rec.Flags |= sam.Unmapped
		rec.Ref = nil
		rec.Pos = InvalidPos
		rec.Seq = sam.NewSeq(in.Seq)
		rec.Qual = in.Qual
		reason := byte(UnmappedBreakpoint)
		if gi.Kind == posmap.Inserted {
			reason = UnmappedInserted
		}
		setCommonTags(rec, in, reason)
		return rec
	}

	svA, svB := in.PosMap.ToSmallVarInterval(begin, end)
	orientationReversed := svA > svB
	if orientationReversed {
		svA, svB = svB, svA
	}
	origA, origB := in.PosMap.ToOriginalInterval(svA, svB)

	needsFlip := in.Info.IsForward == orientationReversed

	seq, qual := in.Seq, in.Qual
	if needsFlip {
		seq = append([]byte(nil), in.Seq...)
		qual = append([]byte(nil), in.Qual...)
		biosimd.ReverseComp8Inplace(seq)
		reverseBytes(qual)
		rec.Flags |= sam.Reverse
	}

	refInfix := in.RefSeq[origA:origB]
	aln := align.Global(seq, refInfix)

	rec.Ref = in.Ref
	rec.Pos = int(origA)
	rec.Cigar = toSAMCigar(aln.Cigar)
	rec.Seq = sam.NewSeq(seq)
	rec.Qual = qual

	setAlignedTags(rec, aln)
	setCommonTags(rec, in, 0)
	return rec
}

// BuildPair implements the PairedEndRecordBuilder algorithm of
// spec.md §4.8: it calls Build independently for the left and right
// mates, then completes the mate-pair fields.
func BuildPair(inL, inR Input) (recL, recR *sam.Record) {
	recL = Build(inL)
	recR = Build(inR)

	recL.Flags |= sam.Paired | sam.Read1
	recR.Flags |= sam.Paired | sam.Read2

	lMapped := recL.Flags&sam.Unmapped == 0
	rMapped := recR.Flags&sam.Unmapped == 0

	switch {
	case lMapped && rMapped:
		recL.Flags |= sam.ProperPair
		recR.Flags |= sam.ProperPair
		recL.MateRef, recR.MateRef = recR.Ref, recL.Ref
		recL.MatePos, recR.MatePos = recR.Pos, recL.Pos
		if recL.Ref == recR.Ref {
			lEnd := recL.Pos + align.ReferenceLength(fromSAMCigar(recL.Cigar))
			rEnd := recR.Pos + align.ReferenceLength(fromSAMCigar(recR.Cigar))
			maxEnd := lEnd
			if rEnd > maxEnd {
				maxEnd = rEnd
			}
			minBegin := recL.Pos
			if recR.Pos < minBegin {
				minBegin = recR.Pos
			}
			tLen := maxEnd - minBegin
			if recL.Pos <= recR.Pos {
				recL.TempLen, recR.TempLen = tLen, -tLen
			} else {
				recL.TempLen, recR.TempLen = -tLen, tLen
			}
		}
		propagateRC(recL, recR)

	case lMapped && !rMapped:
		recR.Ref, recR.Pos = recL.Ref, recL.Pos
		recR.Flags |= sam.Unmapped
		recL.Flags |= sam.MateUnmapped
		recL.MateRef, recL.MatePos = recR.Ref, recR.Pos
		recR.MateRef, recR.MatePos = recL.Ref, recL.Pos

	case !lMapped && rMapped:
		recL.Ref, recL.Pos = recR.Ref, recR.Pos
		recL.Flags |= sam.Unmapped
		recR.Flags |= sam.MateUnmapped
		recR.MateRef, recR.MatePos = recL.Ref, recL.Pos
		recL.MateRef, recL.MatePos = recR.Ref, recR.Pos

	default: // both unmapped
		recL.Flags |= sam.MateUnmapped
		recR.Flags |= sam.MateUnmapped
	}

	return recL, recR
}

func propagateRC(recL, recR *sam.Record) {
	if recL.Flags&sam.Reverse != 0 {
		recR.Flags |= sam.MateReverse
	}
	if recR.Flags&sam.Reverse != 0 {
		recL.Flags |= sam.MateReverse
	}
}

func setCommonTags(rec *sam.Record, in Input, unmappedReason byte) {
	addAux(rec, "oR", in.RefName)
	addAux(rec, "oH", in.HapID)
	addAux(rec, "oP", int(in.Info.BeginPos))
	strand := byte('F')
	if !in.Info.IsForward {
		strand = 'R'
	}
	addAux(rec, "oS", strand)
	if unmappedReason != 0 {
		addAux(rec, "uR", unmappedReason)
	}
}

func setAlignedTags(rec *sam.Record, aln align.Result) {
	addAux(rec, "NM", aln.EditDistance)
	addAux(rec, "MD", aln.MD)
}

func addAux(rec *sam.Record, tag string, value interface{}) {
	aux, err := sam.NewAux(sam.NewTag(tag), value)
	if err != nil {
		// A malformed tag value here is a programming error in this
		// package, not a runtime input failure.
		panic(err)
	}
	rec.AuxFields = append(rec.AuxFields, aux)
}

func toSAMCigar(cigar []align.CigarElem) sam.Cigar {
	out := make(sam.Cigar, len(cigar))
	for i, e := range cigar {
		out[i] = sam.NewCigarOp(toSAMCigarOpType(e.Op), e.Len)
	}
	return out
}

func toSAMCigarOpType(op align.Op) sam.CigarOpType {
	switch op {
	case align.OpMatch:
		return sam.CigarMatch
	case align.OpInsert:
		return sam.CigarInsertion
	case align.OpDelete:
		return sam.CigarDeletion
	default:
		panic("recordbuilder: unknown cigar op")
	}
}

func fromSAMCigar(c sam.Cigar) []align.CigarElem {
	out := make([]align.CigarElem, len(c))
	for i, op := range c {
		var o align.Op
		switch op.Type() {
		case sam.CigarMatch:
			o = align.OpMatch
		case sam.CigarInsertion:
			o = align.OpInsert
		case sam.CigarDeletion:
			o = align.OpDelete
		}
		out[i] = align.CigarElem{Op: o, Len: op.Len()}
	}
	return out
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
