package curate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/analytic-garden/BA-2-86/config"
	"github.com/analytic-garden/BA-2-86/internal/fasta"
	"github.com/analytic-garden/BA-2-86/internal/metadata"
	"github.com/charmbracelet/log"
)

var testInput = filepath.Join("..", "..", "test", "input")

// recordSink collects written records
type recordSink struct {
	recs []*fasta.Record
}

func (s *recordSink) Write(rec *fasta.Record) error {
	s.recs = append(s.recs, rec)
	return nil
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func testTable(t *testing.T) *metadata.Table {
	t.Helper()
	data := "Accession.ID\tPango.lineage\tLocation\n" +
		"EPI_ISL_1\tBA.2.86\tAsia / China / Beijing\n" +
		"EPI_ISL_2\tBA.2.86.1\tEurope / Denmark\n"
	table, err := metadata.Read(strings.NewReader(data), '\t', "Accession.ID", "Pango.lineage", "Location")
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func Test_Filter(t *testing.T) {
	recs, err := fasta.Load(filepath.Join(testInput, "gisaid.fasta"), false)
	if err != nil {
		t.Fatal(err)
	}
	table, err := metadata.Load(filepath.Join(testInput, "ba_2_86.csv"), ',', "Accession.ID")
	if err != nil {
		t.Fatal(err)
	}

	checked := 0
	f := &Filter{Table: table, OnRecord: func() { checked++ }}
	sink := &recordSink{}
	stats, err := f.Run(recs, sink)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"EPI_ISL_1", "EPI_ISL_18097315", "EPI_ISL_18114953"}
	if stats.Read != 5 || stats.Written != len(want) || checked != 5 {
		t.Fatalf("unexpected stats %+v, checked %d", stats, checked)
	}

	for i, rec := range sink.recs {
		accession, _ := fasta.Accession(rec.ID)
		if accession != want[i] {
			t.Errorf("record %d = %s, want %s", i, accession, want[i])
		}
		if !table.Contains(accession) {
			t.Errorf("%s is not in the metadata", accession)
		}

		// written unchanged
		orig, _ := recs.Get(accession)
		if rec != orig {
			t.Errorf("%s was modified", accession)
		}
	}
}

// the output is exactly the intersection of FASTA and metadata accessions
func Test_Filter_intersection(t *testing.T) {
	table := testTable(t)

	var in strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&in, ">hCoV-19/X/%d|EPI_ISL_%d|2023\nACGT\n", i, i)
	}
	path := filepath.Join(t.TempDir(), "in.fasta")
	writeFile(t, path, in.String())

	recs, err := fasta.Load(path, false)
	if err != nil {
		t.Fatal(err)
	}

	kept := (&Filter{Table: table}).Select(recs)
	if len(kept) != 2 {
		t.Fatalf("expected 2 records, got %d", len(kept))
	}
	for i, want := range []string{"EPI_ISL_1", "EPI_ISL_2"} {
		if got, _ := fasta.Accession(kept[i].ID); got != want {
			t.Errorf("record %d = %s, want %s", i, got, want)
		}
	}
}

func Test_Reformat(t *testing.T) {
	header := "hCoV-19/X/2023|EPI_ISL_1|2023-08-01"

	type args struct {
		rec      *fasta.Record
		maxNs    int
		replace  bool
		strainID bool
	}
	tests := []struct {
		name     string
		args     args
		want     *fasta.Record
		wantOut  Outcome
		wantLogs string
	}{
		{
			"metadata match",
			args{&fasta.Record{ID: header, Description: header, Seq: []byte("ACGT")}, 20, false, false},
			&fasta.Record{ID: "EPI_ISL_1", Description: header + "|BA.2.86|Asia|China|Beijing", Seq: []byte("ACGT")},
			Annotated,
			"",
		},
		{
			"metadata miss",
			args{&fasta.Record{ID: "hCoV-19/X/2023|EPI_ISL_9|2023-08-01", Description: "hCoV-19/X/2023|EPI_ISL_9|2023-08-01", Seq: []byte("ACGT")}, 20, false, false},
			&fasta.Record{ID: "EPI_ISL_9", Description: "hCoV-19/X/2023|EPI_ISL_9|2023-08-01|Unknown|Unknown|Unknown|Unknown", Seq: []byte("ACGT")},
			Missing,
			"Missing ID in metafile",
		},
		{
			"N run screened",
			args{&fasta.Record{ID: header, Description: header, Seq: []byte("ACGTNNNNNACGT")}, 5, false, false},
			nil,
			Screened,
			"Too many N's",
		},
		{
			"interrupted N run kept",
			args{&fasta.Record{ID: header, Description: header, Seq: []byte("ACGTNNNNACGTN")}, 5, false, false},
			&fasta.Record{ID: "EPI_ISL_1", Description: header + "|BA.2.86|Asia|China|Beijing", Seq: []byte("ACGTNNNNACGTN")},
			Annotated,
			"",
		},
		{
			"screening disabled",
			args{&fasta.Record{ID: header, Description: header, Seq: []byte("NNNNNNNNNNNNNNNNNNNNNNNN")}, 0, false, false},
			&fasta.Record{ID: "EPI_ISL_1", Description: header + "|BA.2.86|Asia|China|Beijing", Seq: []byte("NNNNNNNNNNNNNNNNNNNNNNNN")},
			Annotated,
			"",
		},
		{
			"replace U",
			args{&fasta.Record{ID: header, Description: header, Seq: []byte("ACGUuU")}, 20, true, false},
			&fasta.Record{ID: "EPI_ISL_1", Description: header + "|BA.2.86|Asia|China|Beijing", Seq: []byte("ACGTuT")},
			Annotated,
			"",
		},
		{
			"strain id",
			args{&fasta.Record{ID: header, Description: header, Seq: []byte("ACGT")}, 20, false, true},
			&fasta.Record{ID: "X/2023", Description: header + "|BA.2.86|Asia|China|Beijing", Seq: []byte("ACGT")},
			Annotated,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			c.Reformat.MaxNs = tt.args.maxNs
			c.Reformat.Replace = tt.args.replace
			c.Reformat.StrainID = tt.args.strainID

			var logs bytes.Buffer
			rf := NewReformatter(testTable(t), c, log.New(&logs))

			got, outcome, err := rf.Reformat(tt.args.rec)
			if err != nil {
				t.Fatal(err)
			}
			if outcome != tt.wantOut {
				t.Errorf("outcome = %v, want %v", outcome, tt.wantOut)
			}

			if tt.want == nil {
				if got != nil {
					t.Errorf("expected no record, got %+v", got)
				}
			} else if got == nil || got.ID != tt.want.ID || got.Description != tt.want.Description || !bytes.Equal(got.Seq, tt.want.Seq) {
				t.Errorf("Reformat() = %+v, want %+v", got, tt.want)
			}

			if tt.wantLogs == "" && logs.Len() > 0 {
				t.Errorf("unexpected logs: %s", logs.String())
			}
			if tt.wantLogs != "" && !strings.Contains(logs.String(), tt.wantLogs) {
				t.Errorf("logs %q missing %q", logs.String(), tt.wantLogs)
			}
		})
	}
}

func Test_Reformat_malformed(t *testing.T) {
	rec := &fasta.Record{ID: "hCoV-19/X/2023", Description: "hCoV-19/X/2023", Seq: []byte("ACGT")}

	c := config.Default()
	rf := NewReformatter(testTable(t), c, log.New(io.Discard))
	if _, _, err := rf.Reformat(rec); !errors.Is(err, fasta.ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader, got %v", err)
	}

	c.Reformat.SkipMalformed = true
	rf = NewReformatter(testTable(t), c, log.New(io.Discard))
	got, outcome, err := rf.Reformat(rec)
	if err != nil || got != nil || outcome != Malformed {
		t.Errorf("expected a skipped record, got %+v %v %v", got, outcome, err)
	}
}

func Test_ReformatterRun(t *testing.T) {
	r, err := fasta.Open(filepath.Join(testInput, "gisaid.fasta"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	table, err := metadata.Load(filepath.Join(testInput, "ba_2_86.tsv"), '\t', "Accession.ID", "Pango.lineage", "Location")
	if err != nil {
		t.Fatal(err)
	}

	c := config.Default()
	c.Reformat.Replace = true

	sink := &recordSink{}
	stats, err := NewReformatter(table, c, log.New(io.Discard)).Run(r, sink)
	if err != nil {
		t.Fatal(err)
	}

	want := ReformatStats{Read: 5, Written: 4, Annotated: 3, Missing: 1, Screened: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	wantIDs := []string{"EPI_ISL_1", "EPI_ISL_18097315", "EPI_ISL_18111770", "EPI_ISL_18114953"}
	for i, rec := range sink.recs {
		if rec.ID != wantIDs[i] {
			t.Errorf("record %d = %s, want %s", i, rec.ID, wantIDs[i])
		}
	}

	dk := sink.recs[1].Description
	if dk != "hCoV-19/Denmark/DCGC-647646/2023|EPI_ISL_18097315|2023-07-31|BA.2.86|Europe|Denmark|Hovedstaden|Copenhagen" {
		t.Errorf("unexpected description %s", dk)
	}
	if s := string(sink.recs[3].Seq); s != "ACGTACGTNNNNACGT" {
		t.Errorf("expected U replaced, got %s", s)
	}
}

func Test_ReformatterRun_spacedNs(t *testing.T) {
	r, err := fasta.NewReader(strings.NewReader(
		">hCoV-19/X/2023|EPI_ISL_1|2023 \nACGT NNNNN NNNNN ACGT\n" +
			">hCoV-19/Y/2023|EPI_ISL_2|2023\nACGT NNNNN ACGT\n",
	))
	if err != nil {
		t.Fatal(err)
	}

	c := config.Default()
	c.Reformat.MaxNs = 10

	sink := &recordSink{}
	stats, err := NewReformatter(testTable(t), c, log.New(io.Discard)).Run(r, sink)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Screened != 1 || len(sink.recs) != 1 {
		t.Fatalf("expected the 10 N run to be screened, got %+v", stats)
	}
	if got := sink.recs[0].Description; got != "hCoV-19/Y/2023|EPI_ISL_2|2023|BA.2.86.1|Europe|Denmark" {
		t.Errorf("unexpected description %q", got)
	}
	if got := string(sink.recs[0].Seq); got != "ACGTNNNNNACGT" {
		t.Errorf("expected spaces removed, got %q", got)
	}
}

// generator is an endless-looking FASTA source that builds each record on demand
type generator struct {
	n, total int
	buf      bytes.Buffer
}

func (g *generator) Read(p []byte) (int, error) {
	for g.buf.Len() < len(p) && g.n < g.total {
		fmt.Fprintf(&g.buf, ">hCoV-19/X/%d|EPI_ISL_%d|2023\n%s\n", g.n, g.n%3, strings.Repeat("ACGU", 250))
		g.n++
	}
	if g.buf.Len() == 0 {
		return 0, io.EOF
	}
	return g.buf.Read(p)
}

// countingWriter only counts records so memory doesn't grow with the input
type countingWriter struct {
	n int
}

func (w *countingWriter) Write(*fasta.Record) error {
	w.n++
	return nil
}

func Test_ReformatterRun_streaming(t *testing.T) {
	const total = 20000

	r, err := fasta.NewReader(&generator{total: total})
	if err != nil {
		t.Fatal(err)
	}

	w := &countingWriter{}
	stats, err := NewReformatter(testTable(t), config.Default(), log.New(io.Discard)).Run(r, w)
	if err != nil {
		t.Fatal(err)
	}

	if w.n != total || stats.Read != total {
		t.Errorf("expected %d records through, got %d written of %d read", total, w.n, stats.Read)
	}
	// EPI_ISL_0 is not in the table
	if stats.Missing != total/3+1 {
		t.Errorf("expected %d missing, got %d", total/3+1, stats.Missing)
	}
}

func Test_ReplaceU(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ACGT", "ACGT"},
		{"ACGU", "ACGT"},
		{"UUUU", "TTTT"},
		{"acgu", "acgu"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			once := ReplaceU([]byte(tt.in))
			if string(once) != tt.want {
				t.Errorf("ReplaceU() = %s, want %s", once, tt.want)
			}
			if twice := ReplaceU(once); !bytes.Equal(twice, once) {
				t.Errorf("ReplaceU() not idempotent: %s != %s", twice, once)
			}
		})
	}
}
