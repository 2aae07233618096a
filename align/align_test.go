package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalExactMatch(t *testing.T) {
	res := Global([]byte("ACGTACGT"), []byte("ACGTACGT"))
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, res.EditDistance)
	require.Len(t, res.Cigar, 1)
	assert.Equal(t, CigarElem{Op: OpMatch, Len: 8}, res.Cigar[0])
	assert.Equal(t, "8", res.MD)
}

func TestGlobalSingleMismatch(t *testing.T) {
	res := Global([]byte("ACGTACGT"), []byte("ACGAACGT"))
	assert.Equal(t, mismatchScore, res.Score)
	assert.Equal(t, 1, res.EditDistance)
	assert.Equal(t, "3A4", res.MD)
}

func TestGlobalConsecutiveMismatches(t *testing.T) {
	res := Global([]byte("AACGT"), []byte("ATCGT"))
	assert.Equal(t, "1T3", res.MD)

	res2 := Global([]byte("AATGT"), []byte("ACCGT"))
	assert.Equal(t, "1CC2", res2.MD)
}

func TestGlobalDeletion(t *testing.T) {
	// query is missing two bases present in ref.
	res := Global([]byte("ACGT"), []byte("ACXXGT"))
	require.NotEmpty(t, res.Cigar)
	assert.GreaterOrEqual(t, len(res.Cigar), 2)
	assert.Contains(t, res.MD, "^")
}

func TestGlobalInsertion(t *testing.T) {
	// query has two extra bases not present in ref.
	res := Global([]byte("ACXXGT"), []byte("ACGT"))
	refLen := ReferenceLength(res.Cigar)
	queryLen := QueryLength(res.Cigar)
	assert.Equal(t, 4, refLen)
	assert.Equal(t, 6, queryLen)
}

func TestReferenceAndQueryLength(t *testing.T) {
	cigar := []CigarElem{{Op: OpMatch, Len: 5}, {Op: OpInsert, Len: 2}, {Op: OpMatch, Len: 3}, {Op: OpDelete, Len: 1}}
	assert.Equal(t, 5+3+1, ReferenceLength(cigar))
	assert.Equal(t, 5+2+3, QueryLength(cigar))
}
