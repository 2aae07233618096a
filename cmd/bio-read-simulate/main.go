// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
bio-read-simulate generates simulated sequencing reads (single- or
paired-end FASTQ, with an optional SAM file of the true alignment) from
a reference FASTA, an optional catalogue of small and structural
variants, and an optional methylation track.
*/

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/readsim/encoding/fastq"
	"github.com/grailbio/readsim/fragment"
	"github.com/grailbio/readsim/pipeline"
	"github.com/grailbio/readsim/reference"
	"github.com/grailbio/readsim/seqsim"
	"github.com/grailbio/readsim/simconfig"
	"github.com/grailbio/readsim/variant"
)

var (
	referenceIndex = flag.String("reference-index", "", "Path to the reference FASTA's .fai index; defaults to <reference>.fai")
	variantsPath   = flag.String("variants", "", "Path to a variant catalogue; omit to simulate from the unmodified reference")
	methTopPath    = flag.String("methylation-top", "", "Path to a top-strand methylation-level FASTA-like track")
	methBottomPath = flag.String("methylation-bottom", "", "Path to a bottom-strand methylation-level FASTA-like track")

	numFragments = flag.Int64("num-fragments", simconfig.DefaultOptions.NumFragments, "Number of fragments to simulate")
	numThreads   = flag.Int("num-threads", simconfig.DefaultOptions.NumThreads, "Number of simulator worker threads")
	chunkSize    = flag.Int("chunk-size", simconfig.DefaultOptions.ChunkSize, "Fragments per worker dispatch within a bucket")
	seed         = flag.Int64("seed", simconfig.DefaultOptions.Seed, "Base RNG seed")
	seedSpacing  = flag.Int64("seed-spacing", simconfig.DefaultOptions.SeedSpacing, "Per-worker seed spacing (worker i seeds with seed + i*seed-spacing)")
	numHaps      = flag.Int("num-haplotypes", simconfig.DefaultOptions.NumHaplotypes, "Number of haplotypes simulated per contig")

	readNamePrefix = flag.String("read-name-prefix", simconfig.DefaultOptions.ReadNamePrefix, "Prefix for generated read names")
	embedReadInfo  = flag.Bool("embed-read-info", false, "Embed true origin (ref/haplotype/position/strand) in the FASTQ read name")
	forceSingleEnd = flag.Bool("force-single-end", false, "Force single-end output even if -out-right is set")

	outLeft  = flag.String("out-left", "", "Output FASTQ path (read 1, for paired-end)")
	outRight = flag.String("out-right", "", "Output FASTQ path for read 2; omit for single-end output")
	outSAM   = flag.String("out-sam", "", "Output SAM path for the true alignment; omit to skip")

	fragMean   = flag.Float64("fragment-mean", simconfig.DefaultOptions.Fragment.Mean, "Mean fragment length")
	fragStdDev = flag.Float64("fragment-stddev", simconfig.DefaultOptions.Fragment.StdDev, "Fragment length standard deviation")
	fragMin    = flag.Uint64("fragment-min", simconfig.DefaultOptions.Fragment.MinLength, "Minimum fragment length")
	fragMax    = flag.Uint64("fragment-max", simconfig.DefaultOptions.Fragment.MaxLength, "Maximum fragment length")

	mismatchRate = flag.Float64("mismatch-rate", simconfig.DefaultOptions.Illumina.MismatchRate, "Per-base substitution error rate")
	qualityMean  = flag.Float64("quality-mean", simconfig.DefaultOptions.Illumina.QualityMean, "Mean simulated base quality (Phred)")
	qualityStd   = flag.Float64("quality-stddev", simconfig.DefaultOptions.Illumina.QualityStdDev, "Simulated base quality standard deviation")

	downsampleRate = flag.Float64("downsample-rate", 0, "If >0, randomly keep this fraction of simulated read pairs in a post-processing pass (requires paired-end output)")
)

func usage() {
	fmt.Printf("Usage: %s [OPTIONS] reference.fasta\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("exactly one positional argument (reference.fasta) required, got %d", flag.NArg())
	}
	refPath := flag.Arg(0)
	faiPath := *referenceIndex
	if faiPath == "" {
		faiPath = refPath + ".fai"
	}
	if *outLeft == "" {
		log.Fatalf("-out-left is required")
	}
	if *downsampleRate > 0 && *outRight == "" {
		log.Fatalf("-downsample-rate requires -out-right (paired-end output)")
	}

	opts := simconfig.Options{
		ReferencePath:   refPath,
		ReferenceIndex:  faiPath,
		VariantsPath:    *variantsPath,
		MethylationPath: *methTopPath,
		NumFragments:    *numFragments,
		NumThreads:      *numThreads,
		ChunkSize:       *chunkSize,
		Seed:            *seed,
		SeedSpacing:     *seedSpacing,
		ReadNamePrefix:  *readNamePrefix,
		EmbedReadInfo:   *embedReadInfo,
		OutputLeft:      *outLeft,
		OutputRight:     *outRight,
		OutputSAM:       *outSAM,
		ForceSingleEnd:  *forceSingleEnd,
		NumHaplotypes:   *numHaps,
		Fragment: fragment.Options{
			Distribution: simconfig.DefaultOptions.Fragment.Distribution,
			MinLength:    *fragMin,
			MaxLength:    *fragMax,
			Mean:         *fragMean,
			StdDev:       *fragStdDev,
		},
		Illumina: seqsim.IlluminaOptions{
			MismatchRate:  *mismatchRate,
			QualityMean:   *qualityMean,
			QualityStdDev: *qualityStd,
		},
	}

	refFile, err := os.Open(opts.ReferencePath)
	if err != nil {
		log.Fatalf("opening reference: %v", err)
	}
	defer refFile.Close()
	faiFile, err := os.Open(opts.ReferenceIndex)
	if err != nil {
		log.Fatalf("opening reference index: %v", err)
	}
	defer faiFile.Close()
	ref, err := reference.Open(refFile, faiFile)
	if err != nil {
		log.Fatalf("reading reference: %v", err)
	}

	var meth *reference.MethylationIndex
	if opts.MethylationPath != "" {
		topFile, err := os.Open(opts.MethylationPath)
		if err != nil {
			log.Fatalf("opening methylation track: %v", err)
		}
		defer topFile.Close()
		topFai, err := os.Open(opts.MethylationPath + ".fai")
		if err != nil {
			log.Fatalf("opening methylation track index: %v", err)
		}
		defer topFai.Close()
		top, err := reference.Open(topFile, topFai)
		if err != nil {
			log.Fatalf("reading methylation track: %v", err)
		}

		var bottom *reference.Index
		if *methBottomPath != "" {
			botFile, err := os.Open(*methBottomPath)
			if err != nil {
				log.Fatalf("opening bottom methylation track: %v", err)
			}
			defer botFile.Close()
			botFai, err := os.Open(*methBottomPath + ".fai")
			if err != nil {
				log.Fatalf("opening bottom methylation track index: %v", err)
			}
			defer botFai.Close()
			if bottom, err = reference.Open(botFile, botFai); err != nil {
				log.Fatalf("reading bottom methylation track: %v", err)
			}
		}
		meth = reference.OpenMethylation(top, bottom)
	}

	var vars []variant.Record
	if opts.VariantsPath != "" {
		vf, err := os.Open(opts.VariantsPath)
		if err != nil {
			log.Fatalf("opening variants: %v", err)
		}
		defer vf.Close()
		r := variant.NewReader(vf)
		for {
			rec, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Fatalf("reading variants: %v", err)
			}
			vars = append(vars, rec)
		}
	}

	p, err := pipeline.New(opts, ref, meth, vars)
	if err != nil {
		log.Panicf("%v", err)
	}
	n, err := p.Run()
	if err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("simulated %d fragments", n)

	if *downsampleRate > 0 {
		if err := downsampleInPlace(*downsampleRate, opts.OutputLeft, opts.OutputRight); err != nil {
			log.Fatalf("downsampling output: %v", err)
		}
	}
}

// downsampleInPlace keeps a fraction of the read pairs in the freshly
// written r1Path/r2Path FASTQ files, replacing them with the sampled
// subset.
func downsampleInPlace(rate float64, r1Path, r2Path string) error {
	r1In, err := os.Open(r1Path)
	if err != nil {
		return err
	}
	defer r1In.Close()
	r2In, err := os.Open(r2Path)
	if err != nil {
		return err
	}
	defer r2In.Close()

	r1Out, err := os.Create(r1Path + ".downsampled")
	if err != nil {
		return err
	}
	defer r1Out.Close()
	r2Out, err := os.Create(r2Path + ".downsampled")
	if err != nil {
		return err
	}
	defer r2Out.Close()

	if err := fastq.Downsample(rate, r1In, r2In, r1Out, r2Out); err != nil {
		return err
	}
	if err := os.Rename(r1Path+".downsampled", r1Path); err != nil {
		return err
	}
	return os.Rename(r2Path+".downsampled", r2Path)
}
