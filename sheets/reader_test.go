package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sheetsync/sheets-to-mysql/etl"
)

const ID = "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"

type fake struct {
	values    string
	status    int
	requested []string
}

func (f *fake) ServeHTTP(w http.ResponseWriter, rq *http.Request) {
	f.requested = append(f.requested, rq.URL.Path)

	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"quota exceeded"}}`, f.status)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasPrefix(rq.URL.Path, "/v4/spreadsheets/"+ID+"/values/"):
		fmt.Fprint(w, f.values)

	case rq.URL.Path == "/v4/spreadsheets/"+ID:
		fmt.Fprint(w, `{"sheets":[{"properties":{"sheetId":0,"title":"Sales 2025"}},{"properties":{"sheetId":1,"title":"Log"}}]}`)

	case rq.URL.Path == "/drive/v3/files/"+ID+"/revisions":
		if rq.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"nextPageToken":"2","revisions":[{"id":"101","modifiedTime":"2025-01-09T10:00:00.000Z"},{"id":"103","modifiedTime":"2025-01-11T08:30:00.000Z"}]}`)
		} else {
			fmt.Fprint(w, `{"revisions":[{"id":"102","modifiedTime":"2025-01-10T12:00:00.000Z"}]}`)
		}

	default:
		http.NotFound(w, rq)
	}
}

func setup(t *testing.T, f *fake, area string) *Reader {
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	ctx := context.Background()

	google, err := sheets.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	gdrive, err := drive.NewService(ctx, option.WithEndpoint(srv.URL+"/drive/v3/"), option.WithoutAuthentication())
	require.NoError(t, err)

	return New(google, gdrive, ID, area)
}

func TestRead(t *testing.T) {
	f := fake{
		values: `{"range":"Sales 2025!A2:D5","majorDimension":"ROWS","values":[
		           ["id","fecha","importe_EUR","estado"],
		           ["1","09/01/2025","€1,234.50","pagado"],
		           ["2","10/01/2025"],
		           [],
		           ["3","11/01/2025","12","  "]]}`,
	}

	r := setup(t, &f, "Sales 2025!A2:D")

	table, err := r.Read(context.Background())
	require.NoError(t, err)

	expected := etl.Table{
		Header: []string{"id", "fecha", "importe_EUR", "estado"},
		Records: []etl.Record{
			{Line: 3, Values: []string{"1", "09/01/2025", "€1,234.50", "pagado"}},
			{Line: 4, Values: []string{"2", "10/01/2025", "", ""}},
			{Line: 6, Values: []string{"3", "11/01/2025", "12", "  "}},
		},
	}

	assert.Equal(t, expected, *table)
	assert.Equal(t, []string{"/v4/spreadsheets/" + ID + "/values/Sales 2025!A2:D"}, f.requested)
}

func TestReadFirstWorksheet(t *testing.T) {
	f := fake{
		values: `{"range":"'Sales 2025'!A1:B2","values":[["id","estado"],["1","pagado"]]}`,
	}

	r := setup(t, &f, "")

	table, err := r.Read(context.Background())
	require.NoError(t, err)

	assert.Len(t, table.Records, 1)
	assert.Equal(t, 2, table.Records[0].Line)
	require.Len(t, f.requested, 2)
	assert.Equal(t, "/v4/spreadsheets/"+ID+"/values/'Sales 2025'", f.requested[1])
}

func TestReadWithLeadingBlankRows(t *testing.T) {
	f := fake{
		values: `{"range":"Ventas!A1:B4","values":[[],["",""],["id","Nombre Cliente"],["1","Ana"]]}`,
	}

	table, err := setup(t, &f, "Ventas!A1:B").Read(context.Background())
	require.NoError(t, err)

	expected := etl.Table{
		Header: []string{"id", "Nombre Cliente"},
		Records: []etl.Record{
			{Line: 4, Values: []string{"1", "Ana"}},
		},
	}

	assert.Equal(t, expected, *table)
}

func TestReadWithEmptyRange(t *testing.T) {
	for _, values := range []string{
		`{"range":"Sales!A1:Z1000"}`,
		`{"range":"Sales!A1:Z1000","values":[]}`,
		`{"range":"Sales!A1:Z1000","values":[["id","fecha"]]}`,
		`{"range":"Sales!A1:Z1000","values":[["id","fecha"],[""," "]]}`,
		`{"range":"Sales!A1:Z1000","values":[[],[" "]]}`,
	} {
		r := setup(t, &fake{values: values}, "Sales!A1:Z")

		_, err := r.Read(context.Background())

		assert.ErrorIs(t, err, etl.ErrSourceEmpty, values)
		assert.Equal(t, etl.SourceEmpty, etl.KindOf(err), values)
	}
}

func TestReadWithAPIError(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests, http.StatusBadRequest} {
		r := setup(t, &fake{status: status}, "Sales!A1:Z")

		_, err := r.Read(context.Background())

		assert.True(t, errors.Is(err, etl.ErrSourceUnavailable), "HTTP %v: %v", status, err)
	}
}

func TestRevision(t *testing.T) {
	r := setup(t, &fake{}, "Sales!A1:Z")

	version, err := r.Revision(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "103", version.Revision)
	assert.Equal(t, time.Date(2025, time.January, 11, 8, 30, 0, 0, time.UTC), version.Modified.UTC())
}

func TestRevisionWithoutDrive(t *testing.T) {
	r := New(nil, nil, ID, "Sales!A1:Z")

	_, err := r.Revision(context.Background())
	assert.Error(t, err)
}
