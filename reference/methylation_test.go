package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethylationLevelsBothStrands(t *testing.T) {
	top, err := Open(strings.NewReader(testFasta), strings.NewReader(testFai))
	require.NoError(t, err)
	bottom, err := Open(strings.NewReader(testFasta), strings.NewReader(testFai))
	require.NoError(t, err)

	m := OpenMethylation(top, bottom)
	top2, bottom2, err := m.Levels(0, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(top2))
	assert.Equal(t, "ACGT", string(bottom2))
}

func TestMethylationLevelsTopOnly(t *testing.T) {
	top, err := Open(strings.NewReader(testFasta), strings.NewReader(testFai))
	require.NoError(t, err)

	m := OpenMethylation(top, nil)
	top2, bottom2, err := m.Levels(0, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(top2))
	assert.Nil(t, bottom2)
}
