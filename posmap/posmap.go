// Package posmap implements the three-way coordinate translator between
// an original reference, a small-variant-adjusted reference, and a
// structural-variant-adjusted (materialized) haplotype. All lookups are
// read-only and safe for concurrent use by multiple workers, matching
// the fact that the materialized contig, its PositionMap, and the
// reference are shared immutably during a contig's parallel simulation
// phase.
package posmap

import "sort"

// Kind classifies a materialized-haplotype interval.
type Kind int

const (
	// Normal intervals correspond to real reference content, possibly
	// rearranged or inverted by a structural variant.
	Normal Kind = iota
	// Inserted intervals hold sequence with no corresponding position in
	// the original reference (e.g. a large insertion).
	Inserted
)

// GenomicInterval describes one contiguous region of the materialized
// haplotype and, for Normal regions, the corresponding region on the
// original reference.
type GenomicInterval struct {
	Begin, End                 uint64
	Kind                       Kind
	OriginalBegin, OriginalEnd uint64
	// Strand is +1 if the interval maps forward onto the original
	// reference, -1 if it is inverted (a structural-variant inversion).
	Strand int8
}

// svSegment is one entry in the materialized-haplotype -> small-variant
// coordinate map.
type svSegment struct {
	begin, end     uint64 // materialized-haplotype coordinates, half-open
	kind           Kind
	svBegin, svEnd uint64 // small-variant coordinates this segment maps onto (Normal only)
	strand         int8
}

// smallVarSegment is one entry in the small-variant -> original
// coordinate map.
type smallVarSegment struct {
	begin, end         uint64 // small-variant coordinates, half-open
	kind               Kind
	origBegin, origEnd uint64
}

// PositionMap is the coordinate translator for one materialized
// haplotype. Built by the materializer as it applies structural and
// small variants; queried read-only afterwards.
type PositionMap struct {
	sv       []svSegment       // sorted, non-overlapping, covers [0, length)
	smallVar []smallVarSegment // sorted, non-overlapping, covers [0, smallVarLength)
}

// Builder accumulates segments in materialization order (increasing
// coordinates) and finalizes into a read-only PositionMap.
type Builder struct {
	pm PositionMap
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// AddNormalSegment records that materialized-haplotype interval
// [begin, end) maps, with the given strand, onto small-variant interval
// [svBegin, svEnd).
func (b *Builder) AddNormalSegment(begin, end, svBegin, svEnd uint64, strand int8) {
	b.pm.sv = append(b.pm.sv, svSegment{begin: begin, end: end, kind: Normal, svBegin: svBegin, svEnd: svEnd, strand: strand})
}

// AddInsertedSegment records that materialized-haplotype interval
// [begin, end) has no corresponding original-reference content.
func (b *Builder) AddInsertedSegment(begin, end uint64) {
	b.pm.sv = append(b.pm.sv, svSegment{begin: begin, end: end, kind: Inserted})
}

// AddSmallVarSegment records that small-variant interval [begin, end)
// maps onto original-reference interval [origBegin, origEnd); kind
// Inserted means the small-variant content (e.g. a small insertion) has
// no original-reference counterpart.
func (b *Builder) AddSmallVarSegment(begin, end uint64, kind Kind, origBegin, origEnd uint64) {
	b.pm.smallVar = append(b.pm.smallVar, smallVarSegment{begin: begin, end: end, kind: kind, origBegin: origBegin, origEnd: origEnd})
}

// Build finalizes the PositionMap. The caller must have added segments
// in increasing coordinate order with full coverage, per spec.md §3's
// PositionMap-entry invariant.
func (b *Builder) Build() *PositionMap { return &b.pm }

// IdentityPositionMap returns a PositionMap in which every coordinate
// space is identical to the original reference over [0, length) —
// the materializer produces this for haplotypes unaffected by any
// variant record.
func IdentityPositionMap(length uint64) *PositionMap {
	b := NewBuilder()
	b.AddNormalSegment(0, length, 0, length, 1)
	b.AddSmallVarSegment(0, length, Normal, 0, length)
	return b.Build()
}

func findSV(sv []svSegment, pos uint64) int {
	return sort.Search(len(sv), func(i int) bool { return sv[i].end > pos })
}

func findSmallVar(sv []smallVarSegment, pos uint64) int {
	return sort.Search(len(sv), func(i int) bool { return sv[i].end > pos })
}

// GenomicInterval returns the materialized-haplotype interval covering
// pos, translated to original-reference coordinates when the covering
// interval is Normal.
func (pm *PositionMap) GenomicInterval(pos uint64) GenomicInterval {
	i := findSV(pm.sv, pos)
	seg := pm.sv[i]
	gi := GenomicInterval{Begin: seg.begin, End: seg.end, Kind: seg.kind}
	if seg.kind != Normal {
		return gi
	}
	a, b := pm.svToSmallVar(seg, seg.begin, seg.end)
	if a > b {
		a, b = b, a
	}
	origA, origB := pm.smallVarToOriginal(a, b)
	gi.OriginalBegin, gi.OriginalEnd = origA, origB
	gi.Strand = seg.strand
	return gi
}

// OverlapsWithBreakpoint reports whether [begin, end) spans more than
// one svSegment, i.e. crosses a structural-variant junction.
func (pm *PositionMap) OverlapsWithBreakpoint(begin, end uint64) bool {
	i := findSV(pm.sv, begin)
	return i >= len(pm.sv) || pm.sv[i].end < end
}

// ToSmallVarInterval translates materialized-haplotype interval
// [begin, end) to the small-variant coordinate space. It returns a > b
// when the covering segment is inverted; callers normalize by swapping
// and remembering the flag, per spec.md §4.1.
//
// The caller must have already confirmed [begin, end) does not cross a
// breakpoint.
func (pm *PositionMap) ToSmallVarInterval(begin, end uint64) (a, b uint64) {
	i := findSV(pm.sv, begin)
	return pm.svToSmallVar(pm.sv[i], begin, end)
}

func (pm *PositionMap) svToSmallVar(seg svSegment, begin, end uint64) (a, b uint64) {
	if seg.strand >= 0 {
		a = seg.svBegin + (begin - seg.begin)
		b = seg.svBegin + (end - seg.begin)
		return a, b
	}
	a = seg.svEnd - (begin - seg.begin)
	b = seg.svEnd - (end - seg.begin)
	return a, b
}

// ToOriginalInterval translates small-variant interval [a, b) (already
// normalized so a <= b) to the original-reference coordinate space.
func (pm *PositionMap) ToOriginalInterval(a, b uint64) (p, q uint64) {
	return pm.smallVarToOriginal(a, b)
}

func (pm *PositionMap) smallVarToOriginal(a, b uint64) (p, q uint64) {
	i := findSmallVar(pm.smallVar, a)
	seg := pm.smallVar[i]
	p = seg.origBegin + (a - seg.begin)
	q = seg.origBegin + (b - seg.begin)
	return p, q
}
