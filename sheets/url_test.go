package sheets

import (
	"testing"
)

func TestSpreadsheetID(t *testing.T) {
	tests := map[string]string{
		"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms":            "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
		"https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=0": "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
		"  1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms ":                                                "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
	}

	for url, expected := range tests {
		if id, err := SpreadsheetID(url); err != nil {
			t.Errorf("Unexpected error for '%s' (%v)", url, err)
		} else if id != expected {
			t.Errorf("Incorrect spreadsheet ID for '%s' - expected %s, got %s", url, expected, id)
		}
	}

	for _, url := range []string{"", "https://example.com/spreadsheets/d/x", "not an id"} {
		if _, err := SpreadsheetID(url); err == nil {
			t.Errorf("Expected error for '%s'", url)
		}
	}
}

func TestFirstRow(t *testing.T) {
	tests := map[string]int{
		"ACL!A2:E":             2,
		"Sales 2025!A1:Z":      1,
		"'Sales!2025'!B14:C20": 14,
		"Sales!$A$3:$F":        3,
		"Sales!A:F":            1,
		"Sales2025":            1,
		"":                     1,
	}

	for area, expected := range tests {
		if row := firstRow(area); row != expected {
			t.Errorf("Incorrect first row for '%s' - expected %v, got %v", area, expected, row)
		}
	}
}

func TestWorksheet(t *testing.T) {
	tests := map[string]string{
		"ACL!A2:E":          "ACL",
		"'Sales 2025'!A1:Z": "Sales 2025",
		"'O''Brien'!A1":     "O'Brien",
		"Log":               "Log",
	}

	for area, expected := range tests {
		if name := Worksheet(area); name != expected {
			t.Errorf("Incorrect worksheet for '%s' - expected %s, got %s", area, expected, name)
		}
	}

	if q := quote("O'Brien"); q != "'O''Brien'" {
		t.Errorf("Incorrect quoted worksheet - expected 'O''Brien', got %s", q)
	}
}
