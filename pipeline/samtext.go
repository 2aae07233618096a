package pipeline

import (
	"fmt"
	"strings"

	"github.com/grailbio/hts/sam"
)

// buildSAMHeaderText builds the SAM header spec.md §6 requires: "@HD VN:1.4" plus
// one "@SQ" line per reference contig with SN:/LN:, matching both
// spec.md and mason_simulator.cpp's _initAlignmentSplitter.
func buildSAMHeaderText(refNames []string, refLengths []uint64) string {
	var sb strings.Builder
	sb.WriteString("@HD\tVN:1.4\n")
	for i, name := range refNames {
		fmt.Fprintf(&sb, "@SQ\tSN:%s\tLN:%d\n", name, refLengths[i])
	}
	return sb.String()
}

// samLine renders rec as a tab-separated SAM record line.
func samLine(rec *sam.Record) string {
	refName := "*"
	refID := -1
	if rec.Ref != nil {
		refName = rec.Ref.Name()
		refID = rec.Ref.ID()
	}
	_ = refID

	mateRefName := "*"
	if rec.MateRef != nil {
		if rec.MateRef == rec.Ref {
			mateRefName = "="
		} else {
			mateRefName = rec.MateRef.Name()
		}
	}

	pos := rec.Pos + 1 // SAM POS is 1-based
	matePos := rec.MatePos + 1
	if rec.Pos < 0 {
		pos = 0
	}
	if rec.MatePos < 0 {
		matePos = 0
	}

	var aux strings.Builder
	for _, a := range rec.AuxFields {
		aux.WriteByte('\t')
		aux.WriteString(a.String())
	}

	cigar := "*"
	if len(rec.Cigar) > 0 {
		cigar = rec.Cigar.String()
	}

	return fmt.Sprintf("%s\t%d\t%s\t%d\t%d\t%s\t%s\t%d\t%d\t%s\t%s%s",
		rec.Name, uint16(rec.Flags), refName, pos, rec.MapQ, cigar,
		mateRefName, matePos, rec.TempLen, rec.Seq.Expand(), string(rec.Qual), aux.String())
}
