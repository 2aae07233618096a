package variant

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogue = `##contig=chr1
# comment line
chr1	10	11	A	G	SUB	*
chr1	20	25	AAAAA		DEL	0,1
chr1	30	30		TTT	INS	0
chr1	40	50			INV	*
`

func TestReaderParsesAllKinds(t *testing.T) {
	r := NewReader(strings.NewReader(testCatalogue))

	var recs []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"chr1"}, r.HeaderNames)

	assert.Equal(t, Substitution, recs[0].Kind)
	assert.True(t, recs[0].AppliesTo(0))
	assert.True(t, recs[0].AppliesTo(5))

	assert.Equal(t, Deletion, recs[1].Kind)
	assert.True(t, recs[1].AppliesTo(0))
	assert.True(t, recs[1].AppliesTo(1))
	assert.False(t, recs[1].AppliesTo(2))

	assert.Equal(t, Insertion, recs[2].Kind)
	assert.Equal(t, "TTT", recs[2].Alt)

	assert.Equal(t, Inversion, recs[3].Kind)
	assert.Equal(t, uint64(40), recs[3].Pos)
	assert.Equal(t, uint64(50), recs[3].End)
}

func TestReaderRejectsMalformedLine(t *testing.T) {
	r := NewReader(strings.NewReader("chr1\t1\t2\tA\tG\tSUB\n"))
	_, err := r.Next()
	assert.Error(t, err)
}

func TestReaderRejectsUnknownKind(t *testing.T) {
	r := NewReader(strings.NewReader("chr1\t1\t2\tA\tG\tXYZ\t*\n"))
	_, err := r.Next()
	assert.Error(t, err)
}
