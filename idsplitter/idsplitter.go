// Package idsplitter implements a fan-out of append-only binary spill
// files, one per (contig, haplotype) bucket, used to bucket fragment
// ordinals during the distribute phase and reassemble them in bucket
// order during the simulate phase. Files live in a temp directory and
// are removed when the IdSplitter is closed, matching spec.md §4.3's
// "files are deleted when the IdSplitter is dropped".
package idsplitter

import (
	"encoding/binary"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// IdSplitter owns one append-only, then read-back, spill file per
// bucket.
type IdSplitter struct {
	dir     string
	files   []*os.File
	readBuf [4]byte
}

// New creates numBuckets spill files under a fresh temp directory.
func New(numBuckets int, tmpDirPrefix string) (*IdSplitter, error) {
	dir, err := ioutil.TempDir("", tmpDirPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "idsplitter: creating temp dir")
	}
	s := &IdSplitter{dir: dir, files: make([]*os.File, numBuckets)}
	for i := 0; i < numBuckets; i++ {
		f, err := os.Create(filepath.Join(dir, bucketFileName(i)))
		if err != nil {
			s.Close()
			return nil, errors.Wrapf(err, "idsplitter: creating bucket file %d", i)
		}
		s.files[i] = f
	}
	return s, nil
}

func bucketFileName(bucket int) string {
	return "bucket-" + strconv.Itoa(bucket) + ".bin"
}

// Write appends ordinal to the bucket's file.
func (s *IdSplitter) Write(bucket int, ordinal int32) error {
	binary.LittleEndian.PutUint32(s.readBuf[:], uint32(ordinal))
	if _, err := s.files[bucket].Write(s.readBuf[:]); err != nil {
		return errors.Wrapf(err, "idsplitter: writing to bucket %d", bucket)
	}
	return nil
}

// Reset rewinds every bucket file to the beginning for readback, per
// spec.md §4.3.
func (s *IdSplitter) Reset() error {
	for i, f := range s.files {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return errors.Wrapf(err, "idsplitter: rewinding bucket %d", i)
		}
	}
	return nil
}

// ReadChunk reads up to len(dst) ordinals sequentially from the given
// bucket's file, returning the number actually read (fewer than
// len(dst), possibly zero, at end of file).
func (s *IdSplitter) ReadChunk(bucket int, dst []int32) (n int, err error) {
	f := s.files[bucket]
	for n < len(dst) {
		if _, err := io.ReadFull(f, s.readBuf[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return n, nil
			}
			return n, errors.Wrapf(err, "idsplitter: reading bucket %d", bucket)
		}
		dst[n] = int32(binary.LittleEndian.Uint32(s.readBuf[:]))
		n++
	}
	return n, nil
}

// Close removes every spill file and the temp directory. Safe to call
// multiple times.
func (s *IdSplitter) Close() error {
	for _, f := range s.files {
		if f != nil {
			f.Close()
		}
	}
	if s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	s.dir = ""
	if err != nil {
		return errors.Wrap(err, "idsplitter: removing temp dir")
	}
	return nil
}
