// Package fasta is for reading, indexing and writing GISAID FASTA exports
package fasta

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
)

// Record is a single FASTA record
type Record struct {
	// ID is the first whitespace delimited word of the header
	ID string

	// Description is the full header line, without the leading '>'
	Description string

	// Seq is the sequence with line breaks removed
	Seq []byte
}

// Reader streams Records from a FASTA source one at a time.
type Reader struct {
	r      *fastx.Reader
	closer io.Closer
}

// Open a FASTA file for streaming. "-" is stdin. Compressed
// files (gz, xz, zst, bz2) are decompressed transparently.
func Open(path string) (*Reader, error) {
	if path != "-" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open FASTA file %s: %w", path, err)
		}

		// an empty file has no records
		if info.Size() == 0 {
			return &Reader{}, nil
		}
	}

	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FASTA file %s: %w", path, err)
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read FASTA file %s: %w", path, err)
	}
	r.closer = f

	return r, nil
}

// NewReader returns a Reader over FASTA formatted data in r.
func NewReader(r io.Reader) (*Reader, error) {
	fr, err := fastx.NewReaderFromIO(seq.Unlimit, r, "")
	if err != nil {
		return nil, err
	}
	return &Reader{r: fr}, nil
}

// Read the next Record. Returns io.EOF after the last one.
func (r *Reader) Read() (*Record, error) {
	if r.r == nil {
		return nil, io.EOF
	}

	rec, err := r.r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to parse FASTA record: %w", err)
	}

	// fastx reuses its record buffers between reads, and keeps
	// spaces within sequence lines
	s := make([]byte, 0, len(rec.Seq.Seq))
	for _, b := range rec.Seq.Seq {
		if b != ' ' && b != '\t' && b != '\r' {
			s = append(s, b)
		}
	}

	return &Record{
		ID:          string(rec.ID),
		Description: strings.TrimRight(string(rec.Name), " \t\r"),
		Seq:         s,
	}, nil
}

// Close the underlying file, if the Reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
