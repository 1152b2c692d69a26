package cmd

import (
	"github.com/analytic-garden/BA-2-86/internal/curate"
	"github.com/analytic-garden/BA-2-86/internal/fasta"
	"github.com/analytic-garden/BA-2-86/internal/metadata"
	"github.com/spf13/cobra"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// newFilterCmd is for keeping the sequences of a FASTA file that are in a metadata table
func newFilterCmd() *cobra.Command {
	filterCmd := &cobra.Command{
		Use:                        "filter",
		Short:                      "Keep the sequences whose accession is in a metadata table",
		RunE:                       runFilter,
		SuggestionsMinimumDistance: 2,
		Long: `
Filter a GISAID FASTA export to the records in a metadata table, ex: a table
of every BA.2.86 accession. Records are matched on the accession (EPI id) in
the second '|' delimited field of their header and are written unchanged and
in file order. Records without metadata are dropped.`,
		Example: "  ba286 filter -i gisaid_hcov-19.fasta -m ba_2_86.csv -o ba_2_86.fasta",
		Aliases: []string{"check"},
	}

	addIOFlags(filterCmd, "metadata file (required) with an Accession.ID column")
	filterCmd.MarkFlagRequired("output_file")
	filterCmd.Flags().StringP("delimiter", "d", ",", "metadata field delimiter")
	filterCmd.Flags().Bool("strict", false, "fail if an accession is in the FASTA file more than once")
	filterCmd.Flags().BoolP("progress", "p", false, "show a progress bar")

	return filterCmd
}

// runFilter loads the FASTA file and metadata and writes the records in both
func runFilter(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd, map[string]string{
		"delimiter": "filter.delimiter",
		"strict":    "filter.strict",
		"progress":  "filter.progress",
	})
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), c.Verbose)

	recs, err := fasta.Load(c.Input, c.Filter.Strict)
	if err != nil {
		return &runError{err}
	}
	if recs.Duplicates > 0 {
		logger.Warn("Repeated accessions, keeping the last of each", "file", c.Input, "count", recs.Duplicates)
	}

	table, err := metadata.Load(c.Meta, c.FilterDelimiter(), c.Metadata.IDColumn)
	if err != nil {
		return &runError{err}
	}

	out, closeOut, err := createOutput(c.Output, cmd.OutOrStdout())
	if err != nil {
		return &runError{err}
	}

	f := &curate.Filter{Table: table}
	if c.Filter.Progress {
		bar := pb.New(recs.Len())
		bar.Output = cmd.ErrOrStderr()
		bar.Start()
		defer bar.Finish()
		f.OnRecord = func() { bar.Increment() }
	}

	stats, err := f.Run(recs, fasta.NewWriter(out, c.FASTA.LineWidth))
	if err != nil {
		closeOut()
		return &runError{err}
	}
	if err := closeOut(); err != nil {
		return &runError{err}
	}

	logger.Info("Filtered", "read", stats.Read, "written", stats.Written, "metadata rows", table.Len())
	return nil
}
