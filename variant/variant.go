// Package variant reads a minimal VCF-like catalogue of per-contig
// variant records used by the materializer to build haplotype-specific
// sequences. It is intentionally small: only the record shapes the
// materializer needs (substitution, insertion, deletion, inversion) are
// modeled, not the full VCF format.
package variant

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies the type of structural edit a Record applies.
type Kind int

const (
	// Substitution replaces Ref bases with Alt bases of possibly
	// different length (a small variant, e.g. a SNV or small indel).
	Substitution Kind = iota
	// Insertion inserts Alt bases at Pos without consuming reference bases.
	Insertion
	// Deletion removes End-Pos reference bases starting at Pos.
	Deletion
	// Inversion reverse-complements the reference interval [Pos, End).
	Inversion
)

// Record is one variant call on one contig, applicable to a subset of
// haplotypes.
type Record struct {
	Contig      string
	Pos         uint64 // 0-based
	End         uint64 // 0-based, exclusive; meaningful for Substitution/Deletion/Inversion
	Ref         string
	Alt         string
	Kind        Kind
	Haplotypes  []int // which haplotype indices (0-based) this record applies to; nil means all
}

// Reader reads variant Records from a line-oriented, tab-separated
// stream: "contig\tpos\tend\tref\talt\tkind\thaps", where kind is one of
// SUB/INS/DEL/INV and haps is a comma-separated list of haplotype
// indices or "*" for all haplotypes. Lines starting with '#' are header
// lines; "##contig=<name>" lines are collected into HeaderNames and all
// other header lines are ignored. The pipeline does not read
// HeaderNames: SAM header contig names come from the reference index.
type Reader struct {
	s            *bufio.Scanner
	HeaderNames  []string
	err          error
}

// NewReader constructs a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{s: bufio.NewScanner(r)}
}

// Next reads the next Record. It returns io.EOF when the stream is
// exhausted.
func (r *Reader) Next() (Record, error) {
	for r.s.Scan() {
		line := strings.TrimSpace(r.s.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "##contig=") {
			name := strings.TrimPrefix(line, "##contig=")
			r.HeaderNames = append(r.HeaderNames, name)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		return parseLine(line)
	}
	if err := r.s.Err(); err != nil {
		return Record{}, errors.Wrap(err, "variant: reading")
	}
	return Record{}, io.EOF
}

func parseLine(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 7 {
		return Record{}, errors.Errorf("variant: malformed record (want 7 fields, got %d): %q", len(fields), line)
	}
	rec := Record{Contig: fields[0], Ref: fields[3], Alt: fields[4]}
	var err error
	if rec.Pos, err = strconv.ParseUint(fields[1], 10, 64); err != nil {
		return Record{}, errors.Wrapf(err, "variant: parsing pos in %q", line)
	}
	if rec.End, err = strconv.ParseUint(fields[2], 10, 64); err != nil {
		return Record{}, errors.Wrapf(err, "variant: parsing end in %q", line)
	}
	switch fields[5] {
	case "SUB":
		rec.Kind = Substitution
	case "INS":
		rec.Kind = Insertion
	case "DEL":
		rec.Kind = Deletion
	case "INV":
		rec.Kind = Inversion
	default:
		return Record{}, errors.Errorf("variant: unknown kind %q in %q", fields[5], line)
	}
	if fields[6] != "*" {
		for _, tok := range strings.Split(fields[6], ",") {
			h, err := strconv.Atoi(tok)
			if err != nil {
				return Record{}, errors.Wrapf(err, "variant: parsing haplotype list in %q", line)
			}
			rec.Haplotypes = append(rec.Haplotypes, h)
		}
	}
	return rec, nil
}

// AppliesTo reports whether the record applies to haplotype hap.
func (r Record) AppliesTo(hap int) bool {
	if r.Haplotypes == nil {
		return true
	}
	for _, h := range r.Haplotypes {
		if h == hap {
			return true
		}
	}
	return false
}
