package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sheetsync/sheets-to-mysql/log"
)

var GetCmd = Get{
	command: command{
		config:  DEFAULT_CONFIG,
		workdir: DEFAULT_WORKDIR,
	},

	area: "",
	file: time.Now().Format("2006-01-02T150405.tsv"),
}

// Get downloads the source range to a TSV file, e.g. to keep a copy of the
// rows behind a failed run.
type Get struct {
	command
	area string
	file string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves the configured spreadsheet range and stores it to a local TSV file"
}

func (cmd *Get) Usage() string {
	return "--config <file> [--range <range>] --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --config <file> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the job's spreadsheet range to a TSV file")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug get --config sales.toml \\\n", APP)
	fmt.Println(`                           --range "Ventas!A1:F" \`)
	fmt.Println(`                           --file "ventas.tsv"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.area, "range", cmd.area, "Spreadsheet range e.g. 'Ventas!A1:F'. Defaults to the job file range")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to '<yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(ctx context.Context, options *Options) error {
	log.SetDebug(options.Debug)

	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	cfg, err := cmd.load()
	if err != nil {
		return err
	}

	if area := strings.TrimSpace(cmd.area); area != "" {
		cfg.Source.Range = area
	}

	store, err := cmd.secrets(ctx, cfg)
	if err != nil {
		return err
	}

	source, err := cmd.source(ctx, cfg, store)
	if err != nil {
		return err
	}

	table, err := source.Read(ctx)
	if err != nil {
		return err
	}

	dir := filepath.Dir(cmd.file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sheets-to-mysql-*.tsv")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := tableToTSV(tmp, table); err != nil {
		return fmt.Errorf("error creating TSV file (%v)", err)
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), cmd.file); err != nil {
		return err
	}

	log.Infof("retrieved %v rows to file %s", len(table.Records), cmd.file)

	return nil
}
