// Package config loads the TOML job file that describes a refresh: the source
// range, the destination table and its column schema, where the credentials
// are kept and when the job runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sheetsync/sheets-to-mysql/normalize"
)

type Config struct {
	Timeout     Duration    `toml:"timeout"`
	Source      Source      `toml:"source"`
	Destination Destination `toml:"destination"`
	Secrets     Secrets     `toml:"secrets"`
	Schedule    Schedule    `toml:"schedule"`
	Columns     []Column    `toml:"columns"`
}

type Source struct {
	Spreadsheet string `toml:"spreadsheet"`
	Range       string `toml:"range"`
	Credentials string `toml:"credentials"`
	Tokens      string `toml:"tokens"`
	Workbook    string `toml:"workbook"`
	Worksheet   string `toml:"worksheet"`
	Revision    bool   `toml:"revision"`
}

type Destination struct {
	Credentials string   `toml:"credentials"`
	Server      string   `toml:"server"`
	Database    string   `toml:"database"`
	Table       string   `toml:"table"`
	BatchSize   int      `toml:"batch-size"`
	Key         []string `toml:"key"`
	Dedupe      bool     `toml:"dedupe"`
}

type Secrets struct {
	Provider string `toml:"provider"`
	Region   string `toml:"region"`
	Dir      string `toml:"dir"`
}

type Schedule struct {
	At string `toml:"at"`
}

type Column struct {
	Name     string `toml:"name"`
	Header   string `toml:"header"`
	Type     string `toml:"type"`
	Required bool   `toml:"required"`
	Format   string `toml:"format"`
	Scale    *int   `toml:"scale"`
}

// Duration is a time.Duration written as a Go duration string, e.g. "1h".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}

	*d = Duration(v)

	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

const (
	ENV_URL      = "SHEETS_TO_MYSQL_URL"
	ENV_RANGE    = "SHEETS_TO_MYSQL_RANGE"
	ENV_TABLE    = "SHEETS_TO_MYSQL_TABLE"
	ENV_DATABASE = "SHEETS_TO_MYSQL_DATABASE"
)

var hhmm = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Load decodes the job file and applies the environment overrides. Keys that
// are not part of the job file format are an error.
func Load(file string) (*Config, error) {
	config := Config{}

	md, err := toml.DecodeFile(file, &config)
	if err != nil {
		return nil, fmt.Errorf("error reading job file %s (%w)", file, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := []string{}
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}

		return nil, fmt.Errorf("unknown keys in job file %s (%s)", file, strings.Join(keys, ", "))
	}

	config.override()

	return &config, nil
}

func (c *Config) override() {
	overrides := []struct {
		variable string
		field    *string
	}{
		{ENV_URL, &c.Source.Spreadsheet},
		{ENV_RANGE, &c.Source.Range},
		{ENV_TABLE, &c.Destination.Table},
		{ENV_DATABASE, &c.Destination.Database},
	}

	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.variable); ok && strings.TrimSpace(v) != "" {
			*o.field = strings.TrimSpace(v)
		}
	}
}

// Validate returns all the problems with the configuration as a single error.
func (c *Config) Validate() error {
	var errs []error

	if c.Source.Workbook == "" {
		if strings.TrimSpace(c.Source.Spreadsheet) == "" {
			errs = append(errs, fmt.Errorf("missing source spreadsheet"))
		}

		if strings.TrimSpace(c.Source.Credentials) == "" {
			errs = append(errs, fmt.Errorf("missing source credentials secret"))
		}
	}

	if strings.TrimSpace(c.Destination.Credentials) == "" {
		errs = append(errs, fmt.Errorf("missing destination credentials secret"))
	}

	if strings.TrimSpace(c.Destination.Table) == "" {
		errs = append(errs, fmt.Errorf("missing destination table"))
	}

	if c.Destination.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("invalid batch-size %d", c.Destination.BatchSize))
	}

	switch strings.ToLower(c.Secrets.Provider) {
	case "", "env", "aws":
	case "file":
		if strings.TrimSpace(c.Secrets.Dir) == "" {
			errs = append(errs, fmt.Errorf("missing secrets dir for 'file' provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown secrets provider '%s'", c.Secrets.Provider))
	}

	if c.Schedule.At != "" && !hhmm.MatchString(c.Schedule.At) {
		errs = append(errs, fmt.Errorf("invalid schedule time '%s' (expected HH:MM)", c.Schedule.At))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("invalid timeout %v", time.Duration(c.Timeout)))
	}

	if len(c.Columns) == 0 {
		errs = append(errs, fmt.Errorf("no columns"))
	}

	for i, column := range c.Columns {
		if _, err := normalize.ParseType(column.Type); err != nil {
			errs = append(errs, fmt.Errorf("column %d (%s): %w", i+1, column.Name, err))
		}
	}

	if len(errs) == 0 && c.Destination.Table != "" {
		if _, err := normalize.NewNormalizer(c.Schema()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Schema returns the destination table schema described by the columns.
func (c *Config) Schema() normalize.Schema {
	schema := normalize.Schema{
		Table:   strings.TrimSpace(c.Destination.Table),
		Columns: make([]normalize.Column, len(c.Columns)),
		Key:     c.Destination.Key,
		Dedupe:  c.Destination.Dedupe,
	}

	for i, column := range c.Columns {
		t, _ := normalize.ParseType(column.Type)
		scale := normalize.DefaultScale
		if column.Scale != nil {
			scale = *column.Scale
		}

		schema.Columns[i] = normalize.Column{
			Name:     strings.TrimSpace(column.Name),
			Header:   column.Header,
			Type:     t,
			Required: column.Required,
			Format:   column.Format,
			Scale:    scale,
		}
	}

	return schema
}
