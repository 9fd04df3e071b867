/*
Package sheets provides the Google Sheets-backed implementation of the
storage interfaces.

PURPOSE:
  One spreadsheet holds everything: the sales range that the ledger
  appends to and the roster range that administrators maintain. This
  package wraps the Sheets API for both, converting between raw cell
  values and ledger rows.

INTERFACES IMPLEMENTED:
  ledger.Store:  Append + ReadAll over the sales range
  roster.Source: ReadAll over the roster range (via Range)

APPEND-ONLY ENFORCEMENT:
  Only values.append is ever issued against the sales range. No update,
  no clear, no delete. Managers edit the sheet by hand; this client
  only ever sees the result on the next read.

ATOMICITY:
  One Append call is one values.append request. The API inserts the
  whole batch as consecutive rows or fails the request; rows from
  concurrent appenders interleave at batch granularity, never within a
  batch.

FAILURE MAPPING:
  Every transport or API failure is wrapped as a ledger store error so
  callers can branch on ledger.ErrStoreUnavailable without knowing the
  backend.

USAGE:
  client, err := sheets.New(ctx, sheets.Config{
      SpreadsheetID:   cfg.SheetID,
      CredentialsJSON: cfg.ServiceJSON,
  })
  ...
  lgr := ledger.New(client)
  cache := roster.NewCache(roster.CacheConfig{Source: client.Range(cfg.RosterRange)})

SEE ALSO:
  - ledger/store.go:        Interface definition
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/bisonhq/salesbison/ledger"
)

const (
	// DefaultSalesRange covers the modern seven-column schema.
	DefaultSalesRange = "Sales!A:G"
	// DefaultRosterRange covers RepId | RepName | Manager | Active.
	DefaultRosterRange = "Roster!A:D"
)

// Config identifies the spreadsheet and how to authenticate against it.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON []byte // service account key, as stored in config
	SalesRange      string // defaults to DefaultSalesRange
	RosterRange     string // defaults to DefaultRosterRange
}

// Client talks to one spreadsheet. Implements ledger.Store against the
// sales range; Range exposes other ranges for the roster. Safe for
// concurrent use; the underlying HTTP client handles its own pooling.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	salesRange    string
	rosterRange   string
}

// New builds a client from a service-account key. Credential problems
// surface here, at startup, not on the first append.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet ID is required")
	}
	if len(cfg.CredentialsJSON) == 0 {
		return nil, fmt.Errorf("sheets: service account credentials are required")
	}
	if cfg.SalesRange == "" {
		cfg.SalesRange = DefaultSalesRange
	}
	if cfg.RosterRange == "" {
		cfg.RosterRange = DefaultRosterRange
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(cfg.CredentialsJSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets: building service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		salesRange:    cfg.SalesRange,
		rosterRange:   cfg.RosterRange,
	}, nil
}

// =============================================================================
// LEDGER STORE - Sales range
// =============================================================================

// Append writes records as consecutive rows at the end of the sales
// range, in one request.
func (c *Client) Append(ctx context.Context, records []ledger.SaleRecord) error {
	if len(records) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		row := rec.ToRow()
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.salesRange, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return &ledger.StoreError{Op: "append", Err: err}
	}
	return nil
}

// ReadAll returns every raw row of the sales range in sheet order.
func (c *Client) ReadAll(ctx context.Context) ([]ledger.Row, error) {
	return c.readRange(ctx, c.salesRange)
}

// =============================================================================
// NAMED RANGES - Roster and friends
// =============================================================================

// RangeReader reads one named range of the spreadsheet. It satisfies the
// roster source interface without tying this package to the roster.
type RangeReader struct {
	client *Client
	rng    string
}

// Range returns a reader over an arbitrary A1 range of the spreadsheet.
func (c *Client) Range(rng string) *RangeReader {
	return &RangeReader{client: c, rng: rng}
}

// RosterRange returns a reader over the configured roster range.
func (c *Client) RosterRange() *RangeReader {
	return c.Range(c.rosterRange)
}

func (r *RangeReader) ReadAll(ctx context.Context) ([]ledger.Row, error) {
	return r.client.readRange(ctx, r.rng)
}

func (c *Client) readRange(ctx context.Context, rng string) ([]ledger.Row, error) {
	// Formatted values: cells come back as the sheet displays them, so
	// 18-digit rep IDs stay exact strings instead of lossy floats.
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &ledger.StoreError{Op: "read", Err: err}
	}

	rows := make([]ledger.Row, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make(ledger.Row, len(raw))
		for i, cell := range raw {
			row[i] = cellString(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cellString renders one API cell value. Formatted reads return strings,
// but numeric cells can come back as float64 when the sheet formats them
// as numbers; rep IDs must not turn into "1.23457e+17".
func cellString(v interface{}) string {
	switch cell := v.(type) {
	case string:
		return cell
	case float64:
		return fmt.Sprintf("%.0f", cell)
	case bool:
		if cell {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(cell)
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// Ping verifies the spreadsheet is reachable with the configured
// credentials. Called once at startup so a bad key fails the process
// before it starts serving.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.
		Get(c.spreadsheetID).
		Fields("spreadsheetId").
		Context(ctx).
		Do()
	if err != nil {
		return &ledger.StoreError{Op: "ping", Err: err}
	}
	return nil
}
