package reference

// MethylationIndex provides random access to a per-contig,
// per-strand methylation-level track using the same ".fai"-style index
// layout as the reference FASTA. It is read-only. materializer.New
// accepts one, but neither the materializer nor the Illumina simulator
// reads levels from it.
type MethylationIndex struct {
	top    *Index
	bottom *Index
}

// OpenMethylation builds a MethylationIndex from two indexed byte tracks,
// one for the top strand and one for the bottom strand.
func OpenMethylation(top, bottom *Index) *MethylationIndex {
	return &MethylationIndex{top: top, bottom: bottom}
}

// Levels returns the top- and bottom-strand methylation-level bytes for
// the 0-based half-open interval [begin, end) of contig i.
func (m *MethylationIndex) Levels(i int, begin, end uint64) (top, bottom []byte, err error) {
	topStr, err := m.top.ReadInterval(i, begin, end)
	if err != nil {
		return nil, nil, err
	}
	if m.bottom == nil {
		return []byte(topStr), nil, nil
	}
	bottomStr, err := m.bottom.ReadInterval(i, begin, end)
	if err != nil {
		return nil, nil, err
	}
	return []byte(topStr), []byte(bottomStr), nil
}
