package fasta

import (
	"errors"
	"fmt"
	"io"
)

// ErrDuplicateID is returned by a strict Load when two records share an accession.
var ErrDuplicateID = errors.New("duplicate accession")

// Records is an accession keyed set of FASTA records that remembers
// the order in which the accessions were first seen.
type Records struct {
	keys []string
	recs map[string]*Record

	// Duplicates is the number of records that replaced an earlier
	// record with the same accession
	Duplicates int
}

// Len is the number of unique accessions.
func (rs *Records) Len() int {
	return len(rs.keys)
}

// Keys returns the accessions in file order.
func (rs *Records) Keys() []string {
	return rs.keys
}

// Get the record stored under an accession.
func (rs *Records) Get(accession string) (*Record, bool) {
	rec, ok := rs.recs[accession]
	return rec, ok
}

// put stores rec under its accession. A repeated accession keeps its
// original position and the newer record replaces the older one.
func (rs *Records) put(accession string, rec *Record) {
	if _, seen := rs.recs[accession]; seen {
		rs.Duplicates++
	} else {
		rs.keys = append(rs.keys, accession)
	}
	rs.recs[accession] = rec
}

// Load reads every record of a FASTA file into memory, keyed by the
// accession in the second '|' delimited field of each record's ID.
//
// With strict set, a repeated accession fails with ErrDuplicateID.
// Otherwise the last record with an accession wins.
func Load(path string, strict bool) (*Records, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rs := &Records{recs: make(map[string]*Record)}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}

		accession, err := Accession(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}

		if _, seen := rs.recs[accession]; seen && strict {
			return nil, fmt.Errorf("failed to load %s: %w: %s", path, ErrDuplicateID, accession)
		}
		rs.put(accession, rec)
	}

	return rs, nil
}
