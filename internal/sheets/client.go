package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/2beens/pfctracker/internal/telemetry/tracing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// table (worksheet) names in the backing spreadsheet
const (
	TableMeals        = "Meals"
	TableWeights      = "Weights"
	TableWorkouts     = "Workouts"
	TableFoodDatabase = "FoodDatabase"
)

// ErrMissingColumn means a required column is absent (or misnamed) in a
// table; the current view is not computable, no partial result is attempted
var ErrMissingColumn = errors.New("required column missing")

// Row is one spreadsheet row, keyed by its normalized column name
type Row map[string]string

// Float reads the named cell as a float; unparsable or empty cells count as 0
func (r Row) Float(column string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(r[column]), 64)
	if err != nil {
		return 0
	}
	return f
}

// Store is what the tracker repos see: an ordered, append-only table store
type Store interface {
	ReadTable(ctx context.Context, name string) ([]Row, error)
	AppendRow(ctx context.Context, table string, values []interface{}) error
}

// Client reads and appends rows of a single Google Spreadsheet.
// All writes are appends; rows are never updated or deleted.
type Client struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewClient(ctx context.Context, spreadsheetID, credentialsPath string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id empty")
	}

	credentialsJSON, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read google credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Transport = otelhttp.NewTransport(httpClient.Transport)

	service, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("new sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// ReadTable returns all data rows of the given table. The first sheet row is
// taken as the header row; column names get normalized to lower_snake_case.
// A table with no rows (or header only) yields an empty slice.
func (c *Client) ReadTable(ctx context.Context, name string) (_ []Row, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sheets.readTable")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", name))

	resp, err := c.service.Spreadsheets.Values.
		Get(c.spreadsheetID, name).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}

	if len(resp.Values) <= 1 {
		return nil, nil
	}

	headers := make([]string, 0, len(resp.Values[0]))
	for _, h := range resp.Values[0] {
		headers = append(headers, NormalizeColumnName(fmt.Sprintf("%v", h)))
	}

	rows := make([]Row, 0, len(resp.Values)-1)
	for _, rawRow := range resp.Values[1:] {
		row := make(Row, len(headers))
		for i, header := range headers {
			if i < len(rawRow) {
				row[header] = strings.TrimSpace(fmt.Sprintf("%v", rawRow[i]))
			} else {
				// short row, pad the missing trailing cells
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// AppendRow appends the given values as one new row at the bottom of the table
func (c *Client) AppendRow(ctx context.Context, table string, values []interface{}) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sheets.appendRow")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", table))

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{values},
	}

	_, err = c.service.Spreadsheets.Values.
		Append(c.spreadsheetID, table, valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", table, err)
	}

	return nil
}

// NormalizeColumnName turns a sheet header cell into its canonical
// lower_snake_case form, e.g. " Food Name " -> "food_name"
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, " ", "_")
}
