package normalize

import (
	"fmt"
	"strings"
)

type Type int

const (
	String Type = iota
	Integer
	Decimal
	Date
	Boolean
)

const (
	DefaultDateFormat = "2006-01-02"
	DefaultScale      = 2
)

var types = map[Type]string{
	String:  "string",
	Integer: "integer",
	Decimal: "decimal",
	Date:    "date",
	Boolean: "boolean",
}

func (t Type) String() string {
	if s, ok := types[t]; ok {
		return s
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType accepts the column type names used in the job file. An empty name
// is a string column.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string", "text":
		return String, nil
	case "integer", "int":
		return Integer, nil
	case "decimal", "numeric", "float":
		return Decimal, nil
	case "date", "datetime":
		return Date, nil
	case "boolean", "bool":
		return Boolean, nil
	default:
		return String, fmt.Errorf("unknown column type '%s'", s)
	}
}

// Column describes a destination column and the sheet column it is loaded
// from.
type Column struct {
	Name     string
	Header   string
	Type     Type
	Required bool
	Format   string
	Scale    int
}

// Schema is the destination table shape.
type Schema struct {
	Table   string
	Columns []Column
	Key     []string
	Dedupe  bool
}

func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}

	return names
}

func (s Schema) validate() error {
	if strings.TrimSpace(s.Table) == "" {
		return fmt.Errorf("missing destination table")
	}

	if len(s.Columns) == 0 {
		return fmt.Errorf("no destination columns")
	}

	names := map[string]bool{}
	headers := map[string]string{}
	for _, c := range s.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("column with no name")
		}

		k := strings.ToLower(c.Name)
		if names[k] {
			return fmt.Errorf("duplicate column '%s'", c.Name)
		}

		names[k] = true

		h := normalise(header(c))
		if other, ok := headers[h]; ok {
			return fmt.Errorf("columns '%s' and '%s' are loaded from the same sheet column", other, c.Name)
		}

		headers[h] = c.Name

		if c.Type == Decimal && c.Scale < 0 {
			return fmt.Errorf("column '%s': invalid scale %d", c.Name, c.Scale)
		}
	}

	for _, k := range s.Key {
		if !names[strings.ToLower(k)] {
			return fmt.Errorf("key column '%s' is not a destination column", k)
		}
	}

	return nil
}

func header(c Column) string {
	if strings.TrimSpace(c.Header) != "" {
		return c.Header
	}

	return c.Name
}
