// ABOUTME: Google Sheets exporter for finished report tables
// ABOUTME: Clears the target range then writes header, rows, and totals
package sheets

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/cbaraj14/hubspot-reporting/report"
)

// Exporter writes report tables into a spreadsheet. One exporter is
// bound to one spreadsheet ID.
type Exporter struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

func NewExporter(ctx context.Context, client *http.Client, spreadsheetID string) (*Exporter, error) {
	svc, err := sheetsapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// Export replaces the named sheet's contents with the table. The value
// grid is built up front so a conversion problem never leaves the sheet
// half written; a failed update after the clear is reported to the
// caller for a retry.
func (e *Exporter) Export(ctx context.Context, sheetName string, table *report.Table) error {
	values := valueRows(table)

	clearRange := fmt.Sprintf("%s!A1:ZZ", sheetName)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing sheet %s: %w", sheetName, err)
	}

	body := &sheetsapi.ValueRange{Values: values}
	_, err := e.svc.Spreadsheets.Values.
		Update(e.spreadsheetID, fmt.Sprintf("%s!A1", sheetName), body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("writing sheet %s: %w", sheetName, err)
	}
	return nil
}

// valueRows flattens a table into the sheets API value grid: header,
// one row per entity, then the totals row.
func valueRows(table *report.Table) [][]interface{} {
	out := make([][]interface{}, 0, len(table.Rows)+2)

	header := make([]interface{}, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	out = append(out, header)

	for _, row := range table.Rows {
		cells := make([]interface{}, len(row))
		copy(cells, row)
		out = append(out, cells)
	}

	if len(table.Totals) > 0 {
		totals := make([]interface{}, len(table.Totals))
		copy(totals, table.Totals)
		out = append(out, totals)
	}

	return out
}
