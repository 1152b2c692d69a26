package cmd

import (
	"github.com/analytic-garden/BA-2-86/internal/curate"
	"github.com/analytic-garden/BA-2-86/internal/fasta"
	"github.com/analytic-garden/BA-2-86/internal/metadata"
	"github.com/spf13/cobra"
)

// newReformatCmd is for screening sequences and adding lineage and location to their headers
func newReformatCmd() *cobra.Command {
	reformatCmd := &cobra.Command{
		Use:                        "reformat",
		Short:                      "Remove sequences with too many N's and add lineage and location to headers",
		RunE:                       runReformat,
		SuggestionsMinimumDistance: 2,
		Long: `
Remove sequences with too many N's in a row. Reformat FASTA headers to make
the GISAID accession (EPI id) the record ID and to include the Pango lineage
and location of each sequence.

Headers are extended with '|' delimited fields:
	<header>|<lineage>|<region>|<country>|...
Records without metadata get four "Unknown" fields. Records are written one at
a time as they are read, so files of any size can be reformatted.`,
		Example: "  ba286 reformat -i msa.fasta -m metadata.tsv -o msa_reformatted.fasta -r -n 20",
	}

	addIOFlags(reformatCmd, "GISAID meta file (required) corresponding to the FASTA file, tab separated")
	reformatCmd.Flags().BoolP("replace", "r", false, "replace U's with T's in sequences")
	reformatCmd.Flags().IntP("max_Ns", "n", 20, "maximum allowed number of N's in a row (0 to ignore)")
	reformatCmd.Flags().StringP("delimiter", "d", "\t", "metadata field delimiter")
	reformatCmd.Flags().Bool("strain-id", false, "use the cleaned strain name, not the accession, as the record ID")
	reformatCmd.Flags().Bool("skip-malformed", false, "skip, rather than fail on, headers without an accession")

	return reformatCmd
}

// runReformat streams the input FASTA through a Reformatter to the output
func runReformat(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd, map[string]string{
		"replace":        "reformat.replace",
		"max_Ns":         "reformat.max-ns",
		"delimiter":      "reformat.delimiter",
		"strain-id":      "reformat.strain-id",
		"skip-malformed": "reformat.skip-malformed",
	})
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), c.Verbose)

	table, err := metadata.Load(
		c.Meta,
		c.ReformatDelimiter(),
		c.Metadata.IDColumn,
		c.Metadata.LineageColumn,
		c.Metadata.LocationColumn,
	)
	if err != nil {
		return &runError{err}
	}

	in, err := fasta.Open(c.Input)
	if err != nil {
		return &runError{err}
	}
	defer in.Close()

	out, closeOut, err := createOutput(c.Output, cmd.OutOrStdout())
	if err != nil {
		return &runError{err}
	}

	stats, err := curate.NewReformatter(table, c, logger).Run(in, fasta.NewWriter(out, c.FASTA.LineWidth))
	if err != nil {
		closeOut()
		return &runError{err}
	}
	if err := closeOut(); err != nil {
		return &runError{err}
	}

	logger.Info("Reformatted",
		"read", stats.Read,
		"written", stats.Written,
		"annotated", stats.Annotated,
		"missing", stats.Missing,
		"screened", stats.Screened,
		"malformed", stats.Malformed,
	)
	return nil
}
