package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/sheetsync/sheets-to-mysql/config"
	"github.com/sheetsync/sheets-to-mysql/etl"
	"github.com/sheetsync/sheets-to-mysql/log"
	"github.com/sheetsync/sheets-to-mysql/refresh"
)

var RunCmd = Run{
	command: command{
		config:  DEFAULT_CONFIG,
		workdir: DEFAULT_WORKDIR,
	},
}

// Run replaces the destination table with the current contents of the
// spreadsheet range. The exit status identifies the kind of failure.
type Run struct {
	command
	dryRun bool
}

func (cmd *Run) Name() string {
	return "run"
}

func (cmd *Run) Description() string {
	return "Replaces the destination table with the rows in the spreadsheet"
}

func (cmd *Run) Usage() string {
	return "--config <file> [--workbook <file>] [--dry-run]"
}

func (cmd *Run) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] run [options] --config <file>\n", APP)
	fmt.Println()
	fmt.Println("  Reads the configured spreadsheet range, normalizes the rows and replaces the contents")
	fmt.Println("  of the destination table in a single transaction. If anything fails the table is left")
	fmt.Println("  unchanged.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Exit status:")
	fmt.Println()
	fmt.Println("    0   success")
	fmt.Printf("    %-3d spreadsheet unavailable\n", etl.SourceUnavailable.ExitCode())
	fmt.Printf("    %-3d spreadsheet range is empty\n", etl.SourceEmpty.ExitCode())
	fmt.Printf("    %-3d invalid value in spreadsheet\n", etl.Validation.ExitCode())
	fmt.Printf("    %-3d database write failed\n", etl.WriteFailed.ExitCode())
	fmt.Printf("    %-3d missing or invalid credentials\n", etl.Credential.ExitCode())
	fmt.Println("    1   any other error")
	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug run --config sales.toml\n", APP)
	fmt.Printf("    %s run --config sales.toml --workbook \"Ventas 2025-01-10.xlsx\" --dry-run\n", APP)
	fmt.Println()
}

func (cmd *Run) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("run")

	flagset.BoolVar(&cmd.dryRun, "dry-run", cmd.dryRun, "Reads and normalizes the rows without writing to the database")

	return flagset
}

func (cmd *Run) Execute(ctx context.Context, options *Options) error {
	log.SetDebug(options.Debug)

	cfg, err := cmd.load()
	if err != nil {
		return err
	}

	_, err = cmd.run(ctx, cfg)

	return err
}

func (cmd *Run) run(ctx context.Context, cfg *config.Config) (*refresh.Report, error) {
	store, err := cmd.secrets(ctx, cfg)
	if err != nil {
		return nil, etl.Wrap(etl.Credential, err, "unable to initialise secrets store")
	}

	source, err := cmd.source(ctx, cfg, store)
	if err != nil {
		return nil, err
	}

	normalizer, err := cmd.normalizer(cfg)
	if err != nil {
		return nil, err
	}

	var sink refresh.Sink = discard{}
	if !cmd.dryRun {
		writer, closer, err := cmd.sink(ctx, cfg, store)
		if err != nil {
			return nil, err
		}

		defer closer()

		sink = writer
	}

	options := []refresh.Option{}
	if cfg.Timeout > 0 {
		options = append(options, refresh.WithTimeout(time.Duration(cfg.Timeout)))
	}

	if cfg.Source.Revision {
		options = append(options, refresh.WithRevision())
	}

	return refresh.NewRunner(source, normalizer, sink, options...).Run(ctx)
}

// discard is the dry run sink.
type discard struct{}

func (discard) Replace(ctx context.Context, snapshot *etl.Snapshot) (*etl.WriteResult, error) {
	log.Infof("dry run  %v rows for %v not written", len(snapshot.Rows), snapshot.Table)

	return &etl.WriteResult{}, nil
}
