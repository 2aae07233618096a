// Package pipeline implements the SimulatorPipeline of spec.md §4.12: it
// wires ContigPicker, IdSplitter, the Materializer, and a fixed pool of
// Workers together into the three-phase distribute/simulate/join run
// spec.md describes, following the worker-pool fan-out idiom of
// markduplicates.MarkDuplicates.generatePAM/generateBAM (sync.WaitGroup,
// errors.Once to collect the first error across workers). Each chunk
// starts one goroutine per worker with that worker's ordinals; results
// are collected in a per-worker slice rather than through channels.
package pipeline

import (
	"bufio"
	"math/rand"
	"os"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	pkgerrors "github.com/pkg/errors"

	"github.com/grailbio/readsim/contigpicker"
	"github.com/grailbio/readsim/encoding/fastq"
	"github.com/grailbio/readsim/fragment"
	"github.com/grailbio/readsim/idsplitter"
	"github.com/grailbio/readsim/materializer"
	"github.com/grailbio/readsim/reference"
	"github.com/grailbio/readsim/seqsim"
	"github.com/grailbio/readsim/simconfig"
	"github.com/grailbio/readsim/variant"
	"github.com/grailbio/readsim/worker"
)

// Pipeline runs one end-to-end simulation, per spec.md §4.12 and §7.
type Pipeline struct {
	opts simconfig.Options
	ref  *reference.Index
	meth *reference.MethylationIndex
	vars []variant.Record

	header *sam.Header
}

// New constructs a Pipeline over an already-opened reference, an
// optional methylation index (nil if unused), and the full set of
// variant records to materialize.
func New(opts simconfig.Options, ref *reference.Index, meth *reference.MethylationIndex, vars []variant.Record) (*Pipeline, error) {
	header, err := buildHeader(ref)
	if err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts, ref: ref, meth: meth, vars: vars, header: header}, nil
}

func buildHeader(ref *reference.Index) (*sam.Header, error) {
	refs := make([]*sam.Reference, ref.NumSeqs())
	for i := range refs {
		r, err := sam.NewReference(ref.SequenceName(i), "", "", int(ref.SequenceLength(i)), nil, nil)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "pipeline: creating reference %s", ref.SequenceName(i))
		}
		refs[i] = r
	}
	header, err := sam.NewHeader(nil, refs)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pipeline: creating SAM header")
	}
	return header, nil
}

// Run executes the distribute, simulate, and join phases, writing FASTQ
// (and, if configured, SAM) output to the configured paths. It returns
// the total number of fragments simulated.
func (p *Pipeline) Run() (int64, error) {
	lengths := make([]uint64, p.ref.NumSeqs())
	for i := range lengths {
		lengths[i] = p.ref.SequenceLength(i)
	}
	picker := contigpicker.New(lengths, p.opts.NumHaplotypes)
	numBuckets := picker.NumBuckets()

	splitter, err := idsplitter.New(numBuckets, "readsim-ids")
	if err != nil {
		return 0, err
	}
	defer splitter.Close()

	if err := p.distribute(picker, splitter); err != nil {
		return 0, err
	}
	if err := splitter.Reset(); err != nil {
		return 0, err
	}

	pairedEnd := p.opts.OutputRight != "" && !p.opts.ForceSingleEnd
	emitAlignment := p.opts.OutputSAM != ""

	fastqL, err := newBucketSpill(numBuckets, "readsim-fastq-l")
	if err != nil {
		return 0, err
	}
	defer fastqL.Close()

	var fastqR *bucketSpill
	if pairedEnd {
		if fastqR, err = newBucketSpill(numBuckets, "readsim-fastq-r"); err != nil {
			return 0, err
		}
		defer fastqR.Close()
	}

	var samSpill *bucketSpill
	if emitAlignment {
		if samSpill, err = newBucketSpill(numBuckets, "readsim-sam"); err != nil {
			return 0, err
		}
		defer samSpill.Close()
	}

	workers := make([]*worker.Worker, p.opts.NumThreads)
	for i := range workers {
		sampler := fragment.New(p.opts.Fragment)
		simulator := seqsim.NewIllumina(p.opts.Illumina)
		workers[i] = worker.New(i, p.opts.Seed, p.opts.SeedSpacing, sampler, simulator, worker.Options{
			Prefix:        p.opts.ReadNamePrefix,
			Embed:         p.opts.EmbedReadInfo,
			PairedEnd:     pairedEnd,
			EmitAlignment: emitAlignment,
		})
	}

	total, err := p.simulate(picker, splitter, workers, fastqL, fastqR, samSpill)
	if err != nil {
		return 0, err
	}

	if err := p.join(fastqL, fastqR, samSpill); err != nil {
		return 0, err
	}
	return total, nil
}

// distribute implements spec.md §4.12's distribute phase: draw a
// (contig, haplotype) pair for every fragment ordinal from a single
// orchestrator-owned RNG, and append the ordinal to that bucket's
// IdSplitter file.
func (p *Pipeline) distribute(picker *contigpicker.ContigPicker, splitter *idsplitter.IdSplitter) error {
	rng := rand.New(rand.NewSource(p.opts.Seed))
	for ord := int64(0); ord < p.opts.NumFragments; ord++ {
		contig, hap := picker.PickHaplotype(rng)
		bucket := picker.ToID(contig, hap)
		if err := splitter.Write(bucket, int32(ord)); err != nil {
			return err
		}
	}
	return nil
}

// simulate implements spec.md §4.12's simulate phase: for each
// (ref_id, hap_id) bucket, in lexicographic order, materialize the
// haplotype sequence once and then repeatedly fan the bucket's
// fragment ordinals out across the worker pool in ChunkSize-sized
// slices, round-robining workers within a chunk, until the bucket is
// exhausted.
func (p *Pipeline) simulate(
	picker *contigpicker.ContigPicker,
	splitter *idsplitter.IdSplitter,
	workers []*worker.Worker,
	fastqL, fastqR, samSpill *bucketSpill,
) (int64, error) {
	mat := materializer.New(p.ref, p.meth, p.opts.NumHaplotypes, p.vars)

	var total int64
	for {
		res, ok, err := mat.Next()
		if err != nil {
			return total, err
		}
		if !ok {
			break
		}
		bucket := picker.ToID(res.RefID, res.HapID)
		refName := p.ref.SequenceName(res.RefID)
		refSeqStr, err := p.ref.ReadSequence(res.RefID)
		if err != nil {
			return total, err
		}
		ref := p.header.Refs()[res.RefID]

		n, err := p.simulateBucket(bucket, res, refName, ref, []byte(refSeqStr), workers, fastqL, fastqR, samSpill, splitter)
		if err != nil {
			return total, err
		}
		total += n
		log.Debug.Printf("pipeline: bucket %s/hap%d: %d fragments", refName, res.HapID, n)
	}
	return total, nil
}

func (p *Pipeline) simulateBucket(
	bucket int,
	res materializer.Result,
	refName string,
	ref *sam.Reference,
	refSeq []byte,
	workers []*worker.Worker,
	fastqL, fastqR, samSpill *bucketSpill,
	splitter *idsplitter.IdSplitter,
) (int64, error) {
	var total int64
	chunk := make([]int32, p.opts.ChunkSize*len(workers))

	for {
		n, err := splitter.ReadChunk(bucket, chunk)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}

		perWorker := splitRoundRobin(chunk[:n], len(workers))

		e := errors.Once{}
		var wg sync.WaitGroup
		results := make([][]worker.Record, len(workers))
		for wi, ids := range perWorker {
			if len(ids) == 0 {
				continue
			}
			wg.Add(1)
			go func(wi int, ids []int32) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						e.Set(pkgerrors.Errorf("pipeline: worker %d panicked: %v", wi, r))
					}
				}()
				results[wi] = workers[wi].Run(worker.RunInput{
					FragmentIDs:  ids,
					HaplotypeSeq: res.Sequence,
					PosMap:       res.PosMap,
					RefName:      refName,
					Ref:          ref,
					RefSeq:       refSeq,
					RefID:        res.RefID,
					HapID:        res.HapID + 1,
					Meth:         res.Meth,
				})
			}(wi, ids)
		}
		wg.Wait()
		if err := e.Err(); err != nil {
			return total, err
		}

		for _, recs := range results {
			if err := writeRecords(recs, bucket, fastqL, fastqR, samSpill); err != nil {
				return total, err
			}
			numFragments := int64(len(recs))
			if fastqR != nil {
				numFragments /= 2 // two records (left, right) per fragment
			}
			total += numFragments
		}

		if n < len(chunk) {
			return total, nil
		}
	}
}

// splitRoundRobin distributes ids across numWorkers slices, worker i
// getting ids[i], ids[i+numWorkers], ids[i+2*numWorkers], ..., so that
// FASTQ/SAM output order within a chunk is deterministic given a fixed
// worker count, per spec.md §5's determinism invariant.
func splitRoundRobin(ids []int32, numWorkers int) [][]int32 {
	out := make([][]int32, numWorkers)
	for i, id := range ids {
		w := i % numWorkers
		out[w] = append(out[w], id)
	}
	return out
}

func writeRecords(recs []worker.Record, bucket int, fastqL, fastqR, samSpill *bucketSpill) error {
	paired := fastqR != nil
	for i, rec := range recs {
		spill := fastqL
		if paired && i%2 == 1 {
			spill = fastqR
		}
		w := fastq.NewWriter(spill.Writer(bucket))
		if err := w.Write(toFastqRead(rec)); err != nil {
			return pkgerrors.Wrapf(err, "pipeline: writing bucket %d", bucket)
		}
		if samSpill != nil && rec.Aln != nil {
			if err := samSpill.WriteString(bucket, samLine(rec.Aln)+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func toFastqRead(rec worker.Record) *fastq.Read {
	return &fastq.Read{ID: "@" + rec.ID, Seq: string(rec.Seq), Unk: "+", Qual: string(rec.Qual)}
}

// join implements spec.md §4.12's join phase: concatenate every
// bucket's spill file, in bucket-enumeration order, into the final
// output files.
func (p *Pipeline) join(fastqL, fastqR, samSpill *bucketSpill) error {
	if err := joinTo(fastqL, p.opts.OutputLeft); err != nil {
		return err
	}
	if fastqR != nil {
		if err := joinTo(fastqR, p.opts.OutputRight); err != nil {
			return err
		}
	}
	if samSpill != nil {
		f, err := os.Create(p.opts.OutputSAM)
		if err != nil {
			return pkgerrors.Wrap(err, "pipeline: creating SAM output")
		}
		defer f.Close()
		w := bufio.NewWriter(f)
		refNames := make([]string, p.ref.NumSeqs())
		refLengths := make([]uint64, p.ref.NumSeqs())
		for i := range refNames {
			refNames[i] = p.ref.SequenceName(i)
			refLengths[i] = p.ref.SequenceLength(i)
		}
		if _, err := w.WriteString(buildSAMHeaderText(refNames, refLengths)); err != nil {
			return pkgerrors.Wrap(err, "pipeline: writing SAM header")
		}
		if err := samSpill.Join(w); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return pkgerrors.Wrap(err, "pipeline: flushing SAM output")
		}
	}
	return nil
}

func joinTo(spill *bucketSpill, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "pipeline: creating %s", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := spill.Join(w); err != nil {
		return err
	}
	return pkgerrors.Wrap(w.Flush(), "pipeline: flushing "+path)
}
