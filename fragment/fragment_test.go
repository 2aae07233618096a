package fragment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/readsim/seqsim"
)

func TestGenerateManyRespectsBounds(t *testing.T) {
	opts := Options{Distribution: Normal, MinLength: 50, MaxLength: 200, Mean: 100, StdDev: 30}
	s := New(opts)
	rng := rand.New(rand.NewSource(7))

	var buf []seqsim.Fragment
	buf = s.GenerateMany(rng, buf, 1000, 500)
	assert.Len(t, buf, 500)
	for _, f := range buf {
		l := f.Len()
		assert.True(t, l >= opts.MinLength && l <= opts.MaxLength)
		assert.True(t, f.End <= 1000)
	}
}

func TestGenerateManyDegenerateContig(t *testing.T) {
	opts := DefaultOptions
	s := New(opts)
	rng := rand.New(rand.NewSource(8))

	buf := s.GenerateMany(rng, nil, opts.MinLength-1, 10)
	assert.Empty(t, buf)
}

func TestGenerateManyUniformDistribution(t *testing.T) {
	opts := Options{Distribution: Uniform, MinLength: 100, MaxLength: 100}
	s := New(opts)
	rng := rand.New(rand.NewSource(9))

	buf := s.GenerateMany(rng, nil, 1000, 20)
	assert.Len(t, buf, 20)
	for _, f := range buf {
		assert.Equal(t, uint64(100), f.Len())
	}
}

func TestGenerateManyReusesBuffer(t *testing.T) {
	s := New(DefaultOptions)
	rng := rand.New(rand.NewSource(10))
	buf := make([]seqsim.Fragment, 0, 100)
	out := s.GenerateMany(rng, buf, 10000, 30)
	assert.Len(t, out, 30)
}
