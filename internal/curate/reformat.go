package curate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/analytic-garden/BA-2-86/config"
	"github.com/analytic-garden/BA-2-86/internal/fasta"
	"github.com/analytic-garden/BA-2-86/internal/metadata"
	"github.com/charmbracelet/log"
)

// Outcome is what happened to a single reformatted record
type Outcome int

const (
	// Annotated records had metadata appended to their header
	Annotated Outcome = iota

	// Missing records had no metadata and got placeholder fields
	Missing

	// Screened records had too many Ns and were dropped
	Screened

	// Malformed records had no accession and were dropped
	Malformed
)

// ReformatStats counts the outcomes of a Reformatter run
type ReformatStats struct {
	Read      int
	Written   int
	Annotated int
	Missing   int
	Screened  int
	Malformed int
}

// Reformatter screens GISAID records and rewrites their headers with
// lineage and location fields from a metadata table.
type Reformatter struct {
	table  *metadata.Table
	meta   config.MetadataConfig
	conf   config.ReformatConfig
	logger *log.Logger

	// nRun is the run of Ns that drops a record, nil if screening is off
	nRun []byte

	// placeholders are appended to headers without metadata
	placeholders []string
}

// NewReformatter returns a Reformatter over a metadata table.
func NewReformatter(table *metadata.Table, c *config.Config, logger *log.Logger) *Reformatter {
	rf := &Reformatter{
		table:  table,
		meta:   c.Metadata,
		conf:   c.Reformat,
		logger: logger,
	}

	if c.Reformat.MaxNs > 0 {
		rf.nRun = bytes.Repeat([]byte{'N'}, c.Reformat.MaxNs)
	}

	rf.placeholders = make([]string, c.Reformat.PlaceholderCount)
	for i := range rf.placeholders {
		rf.placeholders[i] = c.Reformat.Placeholder
	}

	return rf
}

// Reformat a single record. Returns a nil record for Screened and Malformed outcomes.
//
// A malformed header is an error unless the Reformatter skips malformed records.
func (rf *Reformatter) Reformat(rec *fasta.Record) (*fasta.Record, Outcome, error) {
	if rf.nRun != nil && bytes.Contains(rec.Seq, rf.nRun) {
		rf.logger.Warn("Too many N's", "record", rec.Description)
		return nil, Screened, nil
	}

	accession, err := fasta.Accession(rec.Description)
	if err != nil {
		if rf.conf.SkipMalformed {
			rf.logger.Warn("Malformed header", "record", rec.Description)
			return nil, Malformed, nil
		}
		return nil, Malformed, err
	}

	fields := []string{rec.Description}
	outcome := Annotated
	if row, ok := rf.table.Lookup(accession); ok {
		fields = append(fields, row.Get(rf.meta.LineageColumn))
		fields = append(fields, strings.Split(row.Get(rf.meta.LocationColumn), rf.meta.LocationSeparator)...)
	} else {
		rf.logger.Warn("Missing ID in metafile", "record", rec.Description)
		fields = append(fields, rf.placeholders...)
		outcome = Missing
	}

	s := rec.Seq
	if rf.conf.Replace {
		s = ReplaceU(s)
	}

	id := accession
	if rf.conf.StrainID {
		id = fasta.StrainName(rec.Description)
	}

	return &fasta.Record{
		ID:          id,
		Description: strings.Join(fields, "|"),
		Seq:         s,
	}, outcome, nil
}

// Run reformats every record from r and writes each to w before reading the next.
func (rf *Reformatter) Run(r RecordReader, w RecordWriter) (ReformatStats, error) {
	var stats ReformatStats
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Read++

		out, outcome, err := rf.Reformat(rec)
		if err != nil {
			return stats, err
		}

		switch outcome {
		case Screened:
			stats.Screened++
			continue
		case Malformed:
			stats.Malformed++
			continue
		case Missing:
			stats.Missing++
		default:
			stats.Annotated++
		}

		if err := w.Write(out); err != nil {
			return stats, fmt.Errorf("failed to write %s: %w", out.ID, err)
		}
		stats.Written++
	}

	return stats, nil
}

// ReplaceU returns a copy of s with every U replaced by T. Lowercase u is kept.
func ReplaceU(s []byte) []byte {
	return bytes.ReplaceAll(s, []byte{'U'}, []byte{'T'})
}
