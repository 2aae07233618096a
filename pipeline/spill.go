package pipeline

import (
	"bufio"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// bucketSpill is a per-bucket append-only text spill file, used to hold
// a bucket's serialized FASTQ/SAM output during the simulate phase so
// the join phase can stream it out in bucket-enumeration order without
// holding the whole run's output in memory, per spec.md §4.12/§5.
type bucketSpill struct {
	dir   string
	files []*os.File
}

func newBucketSpill(numBuckets int, prefix string) (*bucketSpill, error) {
	dir, err := ioutil.TempDir("", prefix)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: creating spill dir")
	}
	s := &bucketSpill{dir: dir, files: make([]*os.File, numBuckets)}
	for i := 0; i < numBuckets; i++ {
		f, err := os.Create(filepath.Join(dir, "spill-"+strconv.Itoa(i)+".txt"))
		if err != nil {
			s.Close()
			return nil, errors.Wrapf(err, "pipeline: creating spill file %d", i)
		}
		s.files[i] = f
	}
	return s, nil
}

func (s *bucketSpill) WriteString(bucket int, text string) error {
	if _, err := s.files[bucket].WriteString(text); err != nil {
		return errors.Wrapf(err, "pipeline: writing spill bucket %d", bucket)
	}
	return nil
}

// Writer returns the underlying file for bucket, for callers (such as
// fastq.Writer) that want to write directly instead of through
// WriteString.
func (s *bucketSpill) Writer(bucket int) io.Writer {
	return s.files[bucket]
}

// Join streams every bucket's spill contents, in bucket order, to w.
func (s *bucketSpill) Join(w *bufio.Writer) error {
	for i, f := range s.files {
		if _, err := f.Seek(0, 0); err != nil {
			return errors.Wrapf(err, "pipeline: rewinding spill bucket %d", i)
		}
		if _, err := io.Copy(w, f); err != nil {
			return errors.Wrapf(err, "pipeline: joining spill bucket %d", i)
		}
	}
	return nil
}

func (s *bucketSpill) Close() error {
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
		return errors.Wrap(err, "pipeline: removing spill dir")
	}
	return nil
}
