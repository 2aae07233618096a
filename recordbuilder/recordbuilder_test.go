package recordbuilder

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/readsim/posmap"
	"github.com/grailbio/readsim/seqsim"
)

func newTestRef(t *testing.T, name string, length int) *sam.Reference {
	r, err := sam.NewReference(name, "", "", length, nil, nil)
	require.NoError(t, err)
	return r
}

func TestBuildForwardMappedRead(t *testing.T) {
	refSeq := []byte("ACGTACGTACGTACGTACGT")
	ref := newTestRef(t, "chr1", len(refSeq))
	pm := posmap.IdentityPositionMap(uint64(len(refSeq)))

	seq := []byte(refSeq[2:10])
	rec := Build(Input{
		Info:      seqsim.Info{BeginPos: 2, IsForward: true, Cigar: []seqsim.CigarElem{{Op: seqsim.OpMatch, Len: len(seq)}}},
		Seq:       seq,
		Qual:      []byte("IIIIIIII"),
		PosMap:    pm,
		RefName:   "chr1",
		Ref:       ref,
		RefSeq:    refSeq,
		HapID:     1,
		QueryName: "read1/1",
	})

	assert.Equal(t, "read1/1", rec.Name)
	assert.Equal(t, 0, int(rec.Flags&sam.Unmapped))
	assert.Equal(t, 0, int(rec.Flags&sam.Reverse))
	assert.Equal(t, 2, rec.Pos)
	assert.Equal(t, ref, rec.Ref)
	require.Len(t, rec.Cigar, 1)
	assert.Equal(t, sam.CigarMatch, rec.Cigar[0].Type())
}

func TestBuildReverseStrandReadGetsFlipped(t *testing.T) {
	refSeq := []byte("ACGTACGTACGTACGTACGT")
	ref := newTestRef(t, "chr1", len(refSeq))
	pm := posmap.IdentityPositionMap(uint64(len(refSeq)))

	// Simulator drew from the reverse strand: seq is already the
	// reverse-complement of refSeq[2:10].
	forward := append([]byte(nil), refSeq[2:10]...)
	seq := append([]byte(nil), forward...)
	reverseComplementForTest(seq)

	rec := Build(Input{
		Info:      seqsim.Info{BeginPos: 2, IsForward: false, Cigar: []seqsim.CigarElem{{Op: seqsim.OpMatch, Len: len(seq)}}},
		Seq:       seq,
		Qual:      []byte("IIIIIIII"),
		PosMap:    pm,
		RefName:   "chr1",
		Ref:       ref,
		RefSeq:    refSeq,
		HapID:     1,
		QueryName: "read1/1",
	})

	assert.NotEqual(t, 0, int(rec.Flags&sam.Reverse))
	assert.Equal(t, 2, rec.Pos)
}

func TestBuildBreakpointCrossingIsUnmapped(t *testing.T) {
	b := posmap.NewBuilder()
	b.AddNormalSegment(0, 10, 0, 10, 1)
	b.AddSmallVarSegment(0, 10, posmap.Normal, 0, 10)
	b.AddNormalSegment(10, 20, 10, 20, 1)
	b.AddSmallVarSegment(10, 20, posmap.Normal, 10, 20)
	pm := b.Build()

	refSeq := make([]byte, 20)
	ref := newTestRef(t, "chr1", len(refSeq))

	seq := make([]byte, 6)
	rec := Build(Input{
		Info:      seqsim.Info{BeginPos: 7, IsForward: true, Cigar: []seqsim.CigarElem{{Op: seqsim.OpMatch, Len: 6}}},
		Seq:       seq,
		Qual:      seq,
		PosMap:    pm,
		RefName:   "chr1",
		Ref:       ref,
		RefSeq:    refSeq,
		HapID:     1,
		QueryName: "read2/1",
	})

	assert.NotEqual(t, 0, int(rec.Flags&sam.Unmapped))
	assert.Nil(t, rec.Ref)
}

func TestBuildPairProperPair(t *testing.T) {
	refSeq := make([]byte, 200)
	for i := range refSeq {
		refSeq[i] = "ACGT"[i%4]
	}
	ref := newTestRef(t, "chr1", len(refSeq))
	pm := posmap.IdentityPositionMap(uint64(len(refSeq)))

	seqL := append([]byte(nil), refSeq[10:20]...)
	seqR := append([]byte(nil), refSeq[90:100]...)
	reverseComplementForTest(seqR)

	recL, recR := BuildPair(
		Input{
			Info:      seqsim.Info{BeginPos: 10, IsForward: true, Cigar: []seqsim.CigarElem{{Op: seqsim.OpMatch, Len: 10}}},
			Seq:       seqL, Qual: make([]byte, 10), PosMap: pm, RefName: "chr1", Ref: ref, RefSeq: refSeq, HapID: 1, QueryName: "p1/1",
		},
		Input{
			Info:      seqsim.Info{BeginPos: 90, IsForward: false, Cigar: []seqsim.CigarElem{{Op: seqsim.OpMatch, Len: 10}}},
			Seq:       seqR, Qual: make([]byte, 10), PosMap: pm, RefName: "chr1", Ref: ref, RefSeq: refSeq, HapID: 1, QueryName: "p1/1",
		},
	)

	assert.NotEqual(t, 0, int(recL.Flags&sam.Paired))
	assert.NotEqual(t, 0, int(recL.Flags&sam.Read1))
	assert.NotEqual(t, 0, int(recR.Flags&sam.Read2))
	assert.NotEqual(t, 0, int(recL.Flags&sam.ProperPair))
	assert.Equal(t, recR.Ref, recL.MateRef)
	assert.Equal(t, recR.Pos, recL.MatePos)
	assert.Equal(t, recL.TempLen, -recR.TempLen)
}

var complementForTest = map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}

func reverseComplementForTest(seq []byte) {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		ci, cj := complementForTest[seq[i]], complementForTest[seq[j]]
		seq[i], seq[j] = cj, ci
	}
}
