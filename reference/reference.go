// Package reference provides random-access reading of an indexed FASTA
// reference, in the style of samtools faidx
// (http://www.htslib.org/doc/faidx.html). A reference is addressed by
// numeric index, in the order contigs appear in the index file, rather
// than by name, since the simulator enumerates contigs positionally.
package reference

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// indexLineRE matches one line of a ".fai"-style index:
// "<name>\t<length>\t<offset>\t<bases per line>\t<bytes per line>".
var indexLineRE = regexp.MustCompile(`(\S+)\t(\d+)\t(\d+)\t(\d+)\t(\d+)`)

type entry struct {
	name      string
	length    uint64
	offset    uint64
	lineBase  uint64
	lineWidth uint64
}

// Index provides random-access, 0-based half-open interval reads over an
// indexed FASTA file, addressed positionally by contig index.
type Index struct {
	entries []entry
	reader  io.ReadSeeker

	mu        sync.Mutex
	bufOff    int64
	buf       []byte
	resultBuf []byte
}

// Open builds an Index from a seekable FASTA file and its accompanying
// index stream. fastaReader may be nil if only length/name metadata is
// needed (e.g. for building a SAM header).
func Open(fastaReader io.ReadSeeker, index io.Reader) (*Index, error) {
	idx := &Index{reader: fastaReader}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		m := indexLineRE.FindStringSubmatch(scanner.Text())
		if len(m) != 6 {
			return nil, errors.Errorf("reference: malformed index line: %q", scanner.Text())
		}
		e := entry{name: m[1]}
		var err error
		if e.length, err = strconv.ParseUint(m[2], 10, 64); err != nil {
			return nil, errors.Wrap(err, "reference: parsing length")
		}
		if e.offset, err = strconv.ParseUint(m[3], 10, 64); err != nil {
			return nil, errors.Wrap(err, "reference: parsing offset")
		}
		if e.lineBase, err = strconv.ParseUint(m[4], 10, 64); err != nil {
			return nil, errors.Wrap(err, "reference: parsing line base")
		}
		if e.lineWidth, err = strconv.ParseUint(m[5], 10, 64); err != nil {
			return nil, errors.Wrap(err, "reference: parsing line width")
		}
		idx.entries = append(idx.entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reference: reading index")
	}
	if len(idx.entries) == 0 {
		return nil, errors.Errorf("reference: empty index")
	}
	return idx, nil
}

// NumSeqs returns the number of contigs in the reference.
func (idx *Index) NumSeqs() int { return len(idx.entries) }

// SequenceName returns the name of the i-th contig.
func (idx *Index) SequenceName(i int) string { return idx.entries[i].name }

// SequenceLength returns the length, in bases, of the i-th contig.
func (idx *Index) SequenceLength(i int) uint64 { return idx.entries[i].length }

// ReadSequence returns the full sequence of the i-th contig.
func (idx *Index) ReadSequence(i int) (string, error) {
	return idx.ReadInterval(i, 0, idx.entries[i].length)
}

// ReadInterval returns the 0-based half-open interval [begin, end) of the
// i-th contig's sequence.
func (idx *Index) ReadInterval(i int, begin, end uint64) (string, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if i < 0 || i >= len(idx.entries) {
		return "", errors.Errorf("reference: contig index %d out of range", i)
	}
	e := idx.entries[i]
	if end < begin {
		return "", errors.Errorf("reference: invalid interval [%d, %d)", begin, end)
	}
	if end > e.length {
		return "", errors.Errorf("reference: interval [%d, %d) exceeds contig %q length %d", begin, end, e.name, e.length)
	}
	if begin == end {
		return "", nil
	}
	if idx.reader == nil {
		return "", errors.Errorf("reference: no backing FASTA reader configured")
	}

	charsPerNewline := e.lineWidth - e.lineBase
	fileOffset := e.offset + begin + charsPerNewline*(begin/e.lineBase)

	firstLineBases := e.lineBase - (begin % e.lineBase)
	var newlines uint64
	if end-begin > firstLineBases {
		newlines = 1 + (end-begin-firstLineBases)/e.lineBase
	}
	toRead := end - begin + newlines*charsPerNewline

	raw, err := idx.readAt(int64(fileOffset), int(toRead))
	if err != nil {
		return "", err
	}

	idx.resizeResult(int(end - begin))
	linePos := (fileOffset - e.offset) % e.lineWidth
	pos := 0
	for _, b := range raw {
		if linePos < e.lineBase {
			idx.resultBuf[pos] = b
			pos++
		}
		linePos++
		if linePos == e.lineWidth {
			linePos = 0
		}
	}
	return string(idx.resultBuf[:pos]), nil
}

func (idx *Index) readAt(off int64, n int) ([]byte, error) {
	limit := off + int64(n)
	if off < idx.bufOff || limit > idx.bufOff+int64(len(idx.buf)) {
		if newOff, err := idx.reader.Seek(off, io.SeekStart); err != nil || newOff != off {
			return nil, errors.Errorf("reference: seek to %d failed: %v", off, err)
		}
		bufSize := 8192
		if bufSize < n {
			bufSize = n
		}
		idx.resizeBuf(bufSize)
		nRead, err := io.ReadFull(idx.reader, idx.buf)
		if err != nil && err != io.ErrUnexpectedEOF {
			return nil, errors.Wrap(err, "reference: read")
		}
		if nRead < n {
			return nil, errors.Errorf("reference: unexpected end of file at offset %d (bad index?)", off)
		}
		idx.bufOff = off
		idx.buf = idx.buf[:nRead]
	}
	return idx.buf[off-idx.bufOff : limit-idx.bufOff], nil
}

func (idx *Index) resizeBuf(n int) {
	if cap(idx.buf) < n {
		idx.buf = make([]byte, n)
	} else {
		idx.buf = idx.buf[:n]
	}
}

func (idx *Index) resizeResult(n int) {
	if cap(idx.resultBuf) < n {
		idx.resultBuf = make([]byte, n)
	} else {
		idx.resultBuf = idx.resultBuf[:n]
	}
}
