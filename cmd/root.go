// Package cmd is for command line interactions with the ba286 application
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/analytic-garden/BA-2-86/config"
	"github.com/charmbracelet/log"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

// version can be overridden at build time with -ldflags "-X ...cmd.version=..."
var version = "0.1.0"

// runError is an error from running a command, as opposed to from parsing its arguments
type runError struct {
	err error
}

func (e *runError) Error() string { return e.err.Error() }

func (e *runError) Unwrap() error { return e.err }

// newRootCmd represents the base command when called without any subcommands.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "ba286",
		Short: `Curate GISAID SARS-CoV-2 FASTA exports against their metadata.
Filter sequences to those in a metadata table or reformat their headers`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// settings is an optional settings file that overrides the defaults
	rootCmd.PersistentFlags().StringP("settings", "s", "", "settings file (yaml, json or toml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log a summary of each run")

	rootCmd.AddCommand(newFilterCmd())
	rootCmd.AddCommand(newReformatCmd())
	rootCmd.AddCommand(newDocsCmd())

	return rootCmd
}

// Execute runs the command line and exits with its status.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run the command line. Returns 0 on success, 2 on a bad argument and 1 on anything else.
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	var re *runError
	if errors.As(err, &re) {
		newLogger(stderr, false).Error(re.err)
		return 1
	}

	fmt.Fprintf(stderr, "error: %v\n", err)
	fmt.Fprint(stderr, cmd.UsageString())
	return 2
}

// loadConfig builds the settings for cmd from its flags. bindings maps flag names to settings keys
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	settings, err := cmd.Flags().GetString("settings")
	if err != nil {
		return nil, err
	}

	bindings["verbose"] = "verbose"
	bindings["input_file"] = "input_file"
	bindings["meta_file"] = "meta_file"
	bindings["output_file"] = "output_file"

	return config.New(cmd.Flags(), bindings, settings)
}

// newLogger returns a logger for diagnostics, without timestamps. Info
// level summaries are only logged when verbose
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Level: log.WarnLevel})
	if verbose {
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// createOutput opens the output file, or stdout if path is empty or "-". An output
// ending in .gz, .xz or .zst is compressed. The returned func flushes and closes the
// output and must be called once writing is done; stdout is flushed, never closed
func createOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		bw := bufio.NewWriter(stdout)
		return bw, bw.Flush, nil
	}

	w, err := xopen.Wopen(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	return w, w.Close, nil
}

// addIOFlags adds the input, metadata and output flags shared by filter and reformat
func addIOFlags(cmd *cobra.Command, metaHelp string) {
	cmd.Flags().StringP("input_file", "i", "", "input FASTA file from GISAID (required, '-' for stdin)")
	cmd.Flags().StringP("meta_file", "m", "", metaHelp)
	cmd.Flags().StringP("output_file", "o", "", "output FASTA file (default: write to screen)")

	cmd.MarkFlagRequired("input_file")
	cmd.MarkFlagRequired("meta_file")
}
