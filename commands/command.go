// Package commands implements the sheets-to-mysql CLI commands. Each command
// lives in its own file and implements the Command interface.
package commands

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sheetsync/sheets-to-mysql/config"
	"github.com/sheetsync/sheets-to-mysql/etl"
	"github.com/sheetsync/sheets-to-mysql/log"
	"github.com/sheetsync/sheets-to-mysql/mysql"
	"github.com/sheetsync/sheets-to-mysql/normalize"
	"github.com/sheetsync/sheets-to-mysql/refresh"
	"github.com/sheetsync/sheets-to-mysql/secrets"
	"github.com/sheetsync/sheets-to-mysql/sheets"
	"github.com/sheetsync/sheets-to-mysql/workbook"
)

const APP = "sheets-to-mysql"

// Options are the global command line options.
type Options struct {
	Debug bool
}

type Command interface {
	Name() string
	Description() string
	Usage() string
	Help()
	FlagSet() *flag.FlagSet
	Execute(ctx context.Context, options *Options) error
}

// command holds the options shared by the commands that read a job file.
type command struct {
	config   string
	workdir  string
	workbook string
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.config, "config", c.config, "Job file (TOML)")
	flagset.StringVar(&c.workdir, "workdir", c.workdir, "Directory for working files (OAuth2 tokens)")
	flagset.StringVar(&c.workbook, "workbook", c.workbook, "Reads the source range from an .xlsx workbook instead of the spreadsheet")

	return flagset
}

func (c *command) load() (*config.Config, error) {
	if strings.TrimSpace(c.config) == "" {
		return nil, fmt.Errorf("--config is a required option")
	}

	cfg, err := config.Load(c.config)
	if err != nil {
		return nil, err
	}

	if c.workbook != "" {
		cfg.Source.Workbook = c.workbook
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job file %s (%w)", c.config, err)
	}

	return cfg, nil
}

func (c *command) secrets(ctx context.Context, cfg *config.Config) (secrets.Store, error) {
	return secrets.NewStore(ctx, secrets.Options{
		Provider: cfg.Secrets.Provider,
		Region:   cfg.Secrets.Region,
		Dir:      cfg.Secrets.Dir,
		EnvFiles: []string{filepath.Join(filepath.Dir(c.config), ".env")},
	})
}

// tokens returns the OAuth2 token file for installed-app credentials.
func (c *command) tokens(cfg *config.Config) string {
	if cfg.Source.Tokens != "" {
		return cfg.Source.Tokens
	}

	return filepath.Join(c.workdir, ".google", cfg.Source.Credentials+".tokens")
}

// source returns the workbook (or TSV file) reader if a workbook is
// configured, otherwise the spreadsheet reader.
func (c *command) source(ctx context.Context, cfg *config.Config, store secrets.Store) (refresh.Source, error) {
	if file := cfg.Source.Workbook; file != "" {
		if strings.EqualFold(filepath.Ext(file), ".tsv") {
			return tsvFile{file: file}, nil
		}

		return workbook.NewReader(file, worksheet(cfg)), nil
	}

	spreadsheet, err := sheets.SpreadsheetID(cfg.Source.Spreadsheet)
	if err != nil {
		return nil, err
	}

	credentials, err := store.Get(ctx, cfg.Source.Credentials)
	if err != nil {
		return nil, err
	}

	options, err := sheets.Credentials(ctx, credentials, c.tokens(cfg))
	if err != nil {
		return nil, err
	}

	log.Debugf("spreadsheet:%s  range:%s", spreadsheet, cfg.Source.Range)

	reader, err := sheets.NewReader(ctx, spreadsheet, cfg.Source.Range, options...)
	if err != nil {
		return nil, err
	}

	return reader, nil
}

// worksheet is the workbook sheet to read: the configured worksheet, or the
// worksheet of the source range so that an export of the spreadsheet reads
// the same sheet as the live run.
func worksheet(cfg *config.Config) string {
	if v := strings.TrimSpace(cfg.Source.Worksheet); v != "" {
		return v
	}

	return sheets.Worksheet(cfg.Source.Range)
}

// sink opens the destination database. The returned function closes it.
func (c *command) sink(ctx context.Context, cfg *config.Config, store secrets.Store) (*mysql.Writer, func(), error) {
	secret, err := store.Get(ctx, cfg.Destination.Credentials)
	if err != nil {
		return nil, nil, err
	}

	dsn, err := mysql.DSN(secret, cfg.Destination.Server, cfg.Destination.Database)
	if err != nil {
		return nil, nil, err
	}

	db, err := mysql.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	return mysql.NewWriter(db, cfg.Destination.BatchSize), func() { db.Close() }, nil
}

func (c *command) normalizer(cfg *config.Config) (*normalize.Normalizer, error) {
	return normalize.NewNormalizer(cfg.Schema())
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	return etl.KindOf(err).ExitCode()
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		count++
	})

	if count > 0 {
		fmt.Println("  Options:")
		fmt.Println()

		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})

		flagset.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}
