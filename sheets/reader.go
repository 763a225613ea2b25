// Package sheets reads the source range from a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sheetsync/sheets-to-mysql/etl"
	"github.com/sheetsync/sheets-to-mysql/log"
)

type Reader struct {
	google      *sheets.Service
	drive       *drive.Service
	spreadsheet string
	area        string
}

// Version identifies the latest Drive revision of the spreadsheet.
type Version struct {
	Revision string
	Modified time.Time
}

func NewReader(ctx context.Context, spreadsheet string, area string, options ...option.ClientOption) (*Reader, error) {
	google, err := sheets.NewService(ctx, options...)
	if err != nil {
		return nil, etl.Wrap(etl.Credential, err, "unable to create new Sheets client")
	}

	gdrive, err := drive.NewService(ctx, options...)
	if err != nil {
		return nil, etl.Wrap(etl.Credential, err, "unable to create new Drive client")
	}

	return New(google, gdrive, spreadsheet, area), nil
}

// New creates a reader from existing API clients. The Drive client is
// optional and only used to look up the spreadsheet revision.
func New(google *sheets.Service, gdrive *drive.Service, spreadsheet string, area string) *Reader {
	return &Reader{
		google:      google,
		drive:       gdrive,
		spreadsheet: spreadsheet,
		area:        strings.TrimSpace(area),
	}
}

func (r *Reader) String() string {
	return fmt.Sprintf("spreadsheet:%s  range:%s", r.spreadsheet, r.area)
}

// Read fetches the range. The first row of the range is the header.
func (r *Reader) Read(ctx context.Context) (*etl.Table, error) {
	area, err := r.resolve(ctx)
	if err != nil {
		return nil, err
	}

	response, err := r.google.Spreadsheets.Values.Get(r.spreadsheet, area).
		MajorDimension("ROWS").
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, etl.Wrap(etl.SourceUnavailable, err, "unable to retrieve data from sheet")
	}

	if len(response.Values) == 0 {
		return nil, etl.Errorf(etl.SourceEmpty, "no data in spreadsheet/range '%s'", area)
	}

	rows := make([][]string, len(response.Values))
	for i, row := range response.Values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = fmt.Sprintf("%v", v)
		}
	}

	first := firstRow(area)
	if response.Range != "" {
		first = firstRow(response.Range)
	}

	// skip leading blank rows so that the header is found and Line matches
	// the worksheet row number
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
		first++
	}

	table := etl.NewTable(rows, first)
	if table.Empty() {
		return nil, etl.Errorf(etl.SourceEmpty, "no data rows in spreadsheet/range '%s'", area)
	}

	log.Debugf("sheet %s  range:%s  rows:%v", r.spreadsheet, response.Range, len(table.Records))

	return table, nil
}

// Revision returns the most recent Drive revision of the spreadsheet.
func (r *Reader) Revision(ctx context.Context) (*Version, error) {
	if r.drive == nil {
		return nil, fmt.Errorf("no Drive client")
	}

	page := ""
	latest := Version{}

	for {
		call := r.drive.Revisions.List(r.spreadsheet).
			Fields("nextPageToken", "revisions(id,modifiedTime)").
			Context(ctx)

		if page != "" {
			call.PageToken(page)
		}

		revisions, err := call.Do()
		if err != nil {
			return nil, err
		}

		for _, revision := range revisions.Revisions {
			modified, err := time.Parse(time.RFC3339, revision.ModifiedTime)
			if err != nil {
				return nil, err
			}

			if latest.Modified.Before(modified) {
				latest.Revision = revision.Id
				latest.Modified = modified
			}
		}

		if page = revisions.NextPageToken; page == "" {
			break
		}
	}

	if latest.Modified.IsZero() {
		return nil, fmt.Errorf("unable to identify latest revision for file ID %s", r.spreadsheet)
	}

	return &latest, nil
}

// resolve replaces an empty range with the first worksheet, which is what
// the range means when none is configured.
func (r *Reader) resolve(ctx context.Context) (string, error) {
	if r.area != "" {
		return r.area, nil
	}

	spreadsheet, err := r.google.Spreadsheets.Get(r.spreadsheet).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return "", etl.Wrap(etl.SourceUnavailable, err, "failed to fetch spreadsheet")
	}

	if len(spreadsheet.Sheets) == 0 || spreadsheet.Sheets[0].Properties == nil {
		return "", etl.Errorf(etl.SourceEmpty, "spreadsheet %s has no worksheets", r.spreadsheet)
	}

	return quote(spreadsheet.Sheets[0].Properties.Title), nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}

	return true
}
