// Package worker implements the ReadSimulatorWorker of spec.md §4.10: a
// single worker's per-chunk state (RNG, scratch buffers, owned sampler
// and simulator) and its run() operation.
package worker

import (
	"math/rand"
	"strconv"

	"github.com/grailbio/hts/sam"

	"github.com/grailbio/readsim/fragment"
	"github.com/grailbio/readsim/posmap"
	"github.com/grailbio/readsim/recordbuilder"
	"github.com/grailbio/readsim/seqsim"
)

// Options configures read-id formatting and whether alignment records
// and paired-end reads are produced.
type Options struct {
	Prefix       string
	Embed        bool
	PairedEnd    bool
	EmitAlignment bool
}

// Record is one simulated FASTQ read plus, if requested, its alignment.
type Record struct {
	ID   string
	Seq  []byte
	Qual []byte
	Aln  *sam.Record // nil unless EmitAlignment
}

// Worker is the ReadSimulatorWorker of spec.md §4.10. Each Worker owns
// its RNG, sampler, and simulator exclusively — per spec.md §5 these are
// never shared across workers.
type Worker struct {
	Index int
	rng   *rand.Rand

	sampler   *fragment.Sampler
	simulator seqsim.Simulator
	opts      Options

	fragments []seqsim.Fragment
}

// New constructs a Worker seeded deterministically from
// baseSeed + index*seedSpacing, per spec.md §4.10/§5.
func New(index int, baseSeed, seedSpacing int64, sampler *fragment.Sampler, simulator seqsim.Simulator, opts Options) *Worker {
	return &Worker{
		Index:     index,
		rng:       rand.New(rand.NewSource(baseSeed + int64(index)*seedSpacing)),
		sampler:   sampler,
		simulator: simulator,
		opts:      opts,
	}
}

// RunInput bundles the per-chunk, per-(contig,haplotype) context a
// Worker needs to simulate one batch of fragment ordinals.
type RunInput struct {
	FragmentIDs  []int32
	HaplotypeSeq []byte
	PosMap       *posmap.PositionMap
	RefName      string
	Ref          *sam.Reference
	RefSeq       []byte
	RefID        int
	HapID        int // 1-based, per spec.md's oH tag
	Meth         *seqsim.MethylationLevels
}

// Run implements spec.md §4.10's run(): it samples len(in.FragmentIDs)
// fragments from the haplotype sequence, simulates a read (or read
// pair) for each, and — if alignments were requested — invokes the
// RecordBuilder and sets each record's query name.
func (w *Worker) Run(in RunInput) []Record {
	n := len(in.FragmentIDs)
	w.fragments = w.sampler.GenerateMany(w.rng, w.fragments, uint64(len(in.HaplotypeSeq)), n)

	out := make([]Record, 0, 2*len(w.fragments))
	for i, f := range w.fragments {
		fragID := in.FragmentIDs[i]
		if w.opts.PairedEnd {
			out = append(out, w.simulatePair(in, f, fragID)...)
		} else {
			out = append(out, w.simulateSingle(in, f, fragID))
		}
	}
	return out
}

func (w *Worker) simulateSingle(in RunInput, f seqsim.Fragment, fragID int32) Record {
	seq, qual, info := w.simulator.SimulateSingleEnd(w.rng, in.HaplotypeSeq, f, in.Meth)
	info.RefID, info.HapID = in.RefID, in.HapID

	rec := Record{
		ID:   formatReadID(w.opts.Prefix, int64(fragID), 0, w.opts.Embed, info),
		Seq:  seq,
		Qual: qual,
	}
	if w.opts.EmitAlignment {
		queryName := alignmentQueryName(w.opts.Prefix, int64(fragID))
		rec.Aln = recordbuilder.Build(recordbuilder.Input{
			Info:      info,
			Seq:       seq,
			Qual:      qual,
			PosMap:    in.PosMap,
			RefName:   in.RefName,
			Ref:       in.Ref,
			RefSeq:    in.RefSeq,
			HapID:     in.HapID,
			QueryName: queryName,
		})
	}
	return rec
}

func (w *Worker) simulatePair(in RunInput, f seqsim.Fragment, fragID int32) []Record {
	seqL, qualL, infoL, seqR, qualR, infoR := w.simulator.SimulatePairedEnd(w.rng, in.HaplotypeSeq, f, in.Meth)
	infoL.RefID, infoL.HapID = in.RefID, in.HapID
	infoR.RefID, infoR.HapID = in.RefID, in.HapID

	recL := Record{ID: formatReadID(w.opts.Prefix, int64(fragID), 1, w.opts.Embed, infoL), Seq: seqL, Qual: qualL}
	recR := Record{ID: formatReadID(w.opts.Prefix, int64(fragID), 2, w.opts.Embed, infoR), Seq: seqR, Qual: qualR}

	if w.opts.EmitAlignment {
		qnL := alignmentQueryName(w.opts.Prefix, int64(fragID))
		qnR := alignmentQueryName(w.opts.Prefix, int64(fragID))
		alnL, alnR := recordbuilder.BuildPair(
			recordbuilder.Input{Info: infoL, Seq: seqL, Qual: qualL, PosMap: in.PosMap, RefName: in.RefName, Ref: in.Ref, RefSeq: in.RefSeq, HapID: in.HapID, QueryName: qnL},
			recordbuilder.Input{Info: infoR, Seq: seqR, Qual: qualR, PosMap: in.PosMap, RefName: in.RefName, Ref: in.Ref, RefSeq: in.RefSeq, HapID: in.HapID, QueryName: qnR},
		)
		recL.Aln, recR.Aln = alnL, alnR
	}
	return []Record{recL, recR}
}

// formatReadID implements spec.md §4.11's read-id format rules for FASTQ
// record ids: num=0 for single-end, 1/2 for paired-end, honoring the
// embed flag. Alignment query names never go through this function —
// see alignmentQueryName.
func formatReadID(prefix string, fragID int64, num int, embed bool, info seqsim.Info) string {
	id := prefix + strconv.FormatInt(fragID+1, 10)
	switch num {
	case 1:
		id += "/1"
	case 2:
		id += "/2"
	}
	if embed {
		id += " " + serializeInfo(info)
	}
	return id
}

// alignmentQueryName implements mason_simulator.cpp's _setId under
// forceNoEmbed=true: the SAM QNAME is always the bare prefix+(fragId+1),
// with no "/1"/"/2" mate suffix and no embedded origin info, regardless
// of the FASTQ read-id format used for the same fragment.
func alignmentQueryName(prefix string, fragID int64) string {
	return prefix + strconv.FormatInt(fragID+1, 10)
}

func serializeInfo(info seqsim.Info) string {
	strand := "+"
	if !info.IsForward {
		strand = "-"
	}
	return "ref_id=" + strconv.Itoa(info.RefID) +
		",haplotype=" + strconv.Itoa(info.HapID) +
		",begin_pos=" + strconv.FormatUint(info.BeginPos, 10) +
		",strand=" + strand
}
