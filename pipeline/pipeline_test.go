package pipeline

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/readsim/encoding/fastq"
	"github.com/grailbio/readsim/worker"
)

func TestSplitRoundRobin(t *testing.T) {
	ids := []int32{0, 1, 2, 3, 4, 5, 6}
	out := splitRoundRobin(ids, 3)
	require.Len(t, out, 3)
	assert.Equal(t, []int32{0, 3, 6}, out[0])
	assert.Equal(t, []int32{1, 4}, out[1])
	assert.Equal(t, []int32{2, 5}, out[2])
}

func TestBucketSpillWriteAndJoin(t *testing.T) {
	s, err := newBucketSpill(2, "pipeline-test-spill")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteString(0, "first\n"))
	require.NoError(t, s.WriteString(1, "second\n"))
	require.NoError(t, s.WriteString(0, "third\n"))

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, s.Join(w))
	require.NoError(t, w.Flush())

	assert.Equal(t, "first\nthird\nsecond\n", buf.String())
}

func TestBuildSAMHeaderText(t *testing.T) {
	text := buildSAMHeaderText([]string{"chr1", "chr2"}, []uint64{100, 200})
	assert.Equal(t, "@HD\tVN:1.4\n@SQ\tSN:chr1\tLN:100\n@SQ\tSN:chr2\tLN:200\n", text)
}

func TestToFastqRead(t *testing.T) {
	rec := worker.Record{ID: "r1", Seq: []byte("ACGT"), Qual: []byte("IIII")}

	var buf bytes.Buffer
	require.NoError(t, fastq.NewWriter(&buf).Write(toFastqRead(rec)))

	assert.Equal(t, "@r1\nACGT\n+\nIIII\n", buf.String())
}
