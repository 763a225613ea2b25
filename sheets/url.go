package sheets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var spreadsheetURL = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)
var spreadsheetID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
var cell = regexp.MustCompile(`^\$?[a-zA-Z]{0,3}\$?([0-9]+)`)

// SpreadsheetID accepts either a spreadsheet URL or a bare spreadsheet ID.
func SpreadsheetID(v string) (string, error) {
	s := strings.TrimSpace(v)

	if match := spreadsheetURL.FindStringSubmatch(s); len(match) > 1 && match[1] != "" {
		return match[1], nil
	}

	if spreadsheetID.MatchString(s) {
		return s, nil
	}

	return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
}

// Worksheet returns the worksheet name of an A1 range, unquoted. A range
// without a '!' is a worksheet name.
func Worksheet(area string) string {
	name := area
	if ix := strings.LastIndex(area, "!"); ix >= 0 {
		name = area[:ix]
	}

	name = strings.TrimSpace(name)
	if len(name) > 1 && strings.HasPrefix(name, "'") && strings.HasSuffix(name, "'") {
		name = strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}

	return name
}

// firstRow returns the worksheet row number of the first row of an A1 range,
// e.g. 2 for 'ACL!A2:E'. Ranges without a row number start at row 1.
func firstRow(area string) int {
	ix := strings.LastIndex(area, "!")
	if ix < 0 {
		return 1
	}

	if match := cell.FindStringSubmatch(area[ix+1:]); len(match) > 1 {
		if row, err := strconv.Atoi(match[1]); err == nil && row > 0 {
			return row
		}
	}

	return 1
}

// quote returns a worksheet name as an A1 range covering the whole sheet.
func quote(worksheet string) string {
	return fmt.Sprintf("'%s'", strings.ReplaceAll(worksheet, "'", "''"))
}
