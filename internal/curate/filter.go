package curate

import (
	"fmt"

	"github.com/analytic-garden/BA-2-86/internal/fasta"
	"github.com/analytic-garden/BA-2-86/internal/metadata"
)

// FilterStats counts what a Filter did
type FilterStats struct {
	// unique accessions in the FASTA file
	Read int

	// records written
	Written int
}

// Filter keeps the records whose accession is in a metadata table.
type Filter struct {
	Table *metadata.Table

	// OnRecord, if set, is called after each record is checked
	OnRecord func()
}

// Select returns the records with an accession in the table, in file order.
func (f *Filter) Select(recs *fasta.Records) []*fasta.Record {
	var kept []*fasta.Record
	for _, accession := range recs.Keys() {
		if f.Table.Contains(accession) {
			rec, _ := recs.Get(accession)
			kept = append(kept, rec)
		}
		if f.OnRecord != nil {
			f.OnRecord()
		}
	}
	return kept
}

// Run selects records and writes them, unchanged, to w.
func (f *Filter) Run(recs *fasta.Records, w RecordWriter) (FilterStats, error) {
	stats := FilterStats{Read: recs.Len()}

	for _, rec := range f.Select(recs) {
		if err := w.Write(rec); err != nil {
			return stats, fmt.Errorf("failed to write %s: %w", rec.ID, err)
		}
		stats.Written++
	}

	return stats, nil
}
