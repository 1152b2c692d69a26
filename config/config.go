// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read as settings,
// ex: BA286_REFORMAT_MAX_NS=10
const EnvPrefix = "BA286"

// MetadataConfig names the metadata columns used by the commands
type MetadataConfig struct {
	// the accession column, matched against the FASTA header accession
	IDColumn string `mapstructure:"id-column"`

	// the lineage column appended to reformatted headers
	LineageColumn string `mapstructure:"lineage-column"`

	// the location column, split into one header field per component
	LocationColumn string `mapstructure:"location-column"`

	// the separator between location components, ex: "Asia / China / Beijing"
	LocationSeparator string `mapstructure:"location-separator"`
}

// FilterConfig is settings for the filter command
type FilterConfig struct {
	// the metadata field delimiter
	Delimiter string `mapstructure:"delimiter"`

	// fail on repeated accessions in the FASTA file
	Strict bool `mapstructure:"strict"`

	// show a progress bar while filtering
	Progress bool `mapstructure:"progress"`
}

// ReformatConfig is settings for the reformat command
type ReformatConfig struct {
	// the metadata field delimiter
	Delimiter string `mapstructure:"delimiter"`

	// replace U with T in sequences
	Replace bool `mapstructure:"replace"`

	// drop sequences with a run of this many Ns (0 to keep all)
	MaxNs int `mapstructure:"max-ns"`

	// the header field appended when a record has no metadata
	Placeholder string `mapstructure:"placeholder"`

	// how many placeholder fields are appended
	PlaceholderCount int `mapstructure:"placeholder-count"`

	// use the normalized strain name, rather than the accession, as the record ID
	StrainID bool `mapstructure:"strain-id"`

	// skip (rather than fail on) headers without an accession
	SkipMalformed bool `mapstructure:"skip-malformed"`
}

// FASTAConfig is for FASTA output
type FASTAConfig struct {
	// sequence line width, 0 for no wrapping
	LineWidth int `mapstructure:"line-width"`
}

// Config is the root-level settings struct and is a mix
// of settings available in a settings file, the environment
// and those available from the command line
type Config struct {
	// path to the input FASTA
	Input string `mapstructure:"input_file"`

	// path to the metadata table
	Meta string `mapstructure:"meta_file"`

	// path to the output FASTA, stdout if empty
	Output string `mapstructure:"output_file"`

	// log run summaries
	Verbose bool `mapstructure:"verbose"`

	Metadata MetadataConfig `mapstructure:"metadata"`

	Filter FilterConfig `mapstructure:"filter"`

	Reformat ReformatConfig `mapstructure:"reformat"`

	FASTA FASTAConfig `mapstructure:"fasta"`
}

// setDefaults for every setting
func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)

	v.SetDefault("metadata.id-column", "Accession.ID")
	v.SetDefault("metadata.lineage-column", "Pango.lineage")
	v.SetDefault("metadata.location-column", "Location")
	v.SetDefault("metadata.location-separator", " / ")

	v.SetDefault("filter.delimiter", ",")
	v.SetDefault("filter.strict", false)
	v.SetDefault("filter.progress", false)

	v.SetDefault("reformat.delimiter", "\t")
	v.SetDefault("reformat.replace", false)
	v.SetDefault("reformat.max-ns", 20)
	v.SetDefault("reformat.placeholder", "Unknown")
	v.SetDefault("reformat.placeholder-count", 4)
	v.SetDefault("reformat.strain-id", false)
	v.SetDefault("reformat.skip-malformed", false)

	v.SetDefault("fasta.line-width", 60)
}

// Default returns a Config with only the default settings
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		panic(err) // defaults always decode
	}
	return &c
}

// New returns a new Config populated by, in order of precedence, the flags
// in bindings (flag name -> settings key), BA286_ environment variables,
// the settings file (if not empty) and the defaults
func New(flags *pflag.FlagSet, bindings map[string]string, settings string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for name, key := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("no flag %q to bind to %s", name, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, err
		}
	}

	if settings != "" {
		v.SetConfigFile(settings)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", settings, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}

	return &c, c.Validate()
}

// Validate checks settings that flags and settings files can't type check
func (c *Config) Validate() error {
	if c.Reformat.MaxNs < 0 {
		return fmt.Errorf("max_Ns must be >= 0, got %d", c.Reformat.MaxNs)
	}
	if c.Reformat.PlaceholderCount < 0 {
		return fmt.Errorf("placeholder-count must be >= 0, got %d", c.Reformat.PlaceholderCount)
	}
	if c.FASTA.LineWidth < 0 {
		return fmt.Errorf("line-width must be >= 0, got %d", c.FASTA.LineWidth)
	}
	if _, err := delimiter(c.Filter.Delimiter); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if _, err := delimiter(c.Reformat.Delimiter); err != nil {
		return fmt.Errorf("reformat: %w", err)
	}
	return nil
}

// FilterDelimiter is the filter metadata delimiter as a rune
func (c *Config) FilterDelimiter() rune {
	r, _ := delimiter(c.Filter.Delimiter)
	return r
}

// ReformatDelimiter is the reformat metadata delimiter as a rune
func (c *Config) ReformatDelimiter() rune {
	r, _ := delimiter(c.Reformat.Delimiter)
	return r
}

// delimiter parses a single character delimiter. "\t" and "tab" are
// accepted for a tab since they're awkward to pass on a command line
func delimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	}

	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '\n' || r == '\r' || r == '"' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}
