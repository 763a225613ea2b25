package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numeric = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
var integer = regexp.MustCompile(`^[+-]?\d+$`)

// coerce converts a trimmed, non-empty cell to the column type.
func coerce(c Column, v string) (any, error) {
	switch c.Type {
	case Integer:
		return toInteger(v)

	case Decimal:
		return toDecimal(v, c.Scale)

	case Date:
		return toDate(v, c.Format)

	case Boolean:
		return toBoolean(v)

	default:
		return v, nil
	}
}

func toInteger(v string) (int64, error) {
	s := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(v)
	if !integer.MatchString(s) {
		return 0, fmt.Errorf("not an integer")
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("integer out of range")
	}

	return i, nil
}

// toDecimal strips currency symbols and thousands separators, treats
// accounting style "(12.50)" as negative and rounds to scale places.
func toDecimal(v string, scale int) (float64, error) {
	s := v
	negative := false

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer("\u20ac", "", "$", "", "\u00a3", "", ",", "", " ", "", "\u00a0", "").Replace(s)
	if negative {
		s = "-" + s
	}

	if !numeric.MatchString(s) {
		return 0, fmt.Errorf("not a number")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("number out of range")
	}

	p := math.Pow10(scale)

	return math.Round(f*p) / p, nil
}

func toDate(v string, layout string) (time.Time, error) {
	if layout == "" {
		layout = DefaultDateFormat
	}

	t, err := time.ParseInLocation(layout, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a date in the format '%s'", layout)
	}

	return t, nil
}

func toBoolean(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "t", "yes", "y", "1":
		return true, nil

	case "false", "f", "no", "n", "0":
		return false, nil

	default:
		return false, fmt.Errorf("not a boolean")
	}
}

func clean(v string) string {
	return strings.TrimSpace(v)
}

func normalise(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), ""))
}
