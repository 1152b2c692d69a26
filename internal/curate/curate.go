// Package curate is for filtering and reformatting GISAID FASTA exports
// against their metadata tables
package curate

import (
	"github.com/analytic-garden/BA-2-86/internal/fasta"
)

// RecordReader is a source of FASTA records, io.EOF after the last.
type RecordReader interface {
	Read() (*fasta.Record, error)
}

// RecordWriter is a sink of FASTA records.
type RecordWriter interface {
	Write(*fasta.Record) error
}
