package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/ideamans/go-sheetsync"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const sheetFields = "spreadsheetId,sheets.properties(sheetId,title)"

// Store implements sheetsync.Store over the Google Sheets API v4
type Store struct {
	service *sheets.Service
	config  Config
}

// NewStore creates a new Google Sheets store with provided options
func NewStore(ctx context.Context, config Config, opts ...option.ClientOption) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Store{
		service: service,
		config:  config,
	}, nil
}

// Open fetches the spreadsheet's tab list
func (s *Store) Open(ctx context.Context, spreadsheetID string) (sheetsync.Document, error) {
	resp, err := s.service.Spreadsheets.Get(spreadsheetID).Fields(sheetFields).Context(ctx).Do()
	if err != nil {
		return nil, classify("failed to open spreadsheet", err)
	}

	doc := &Document{
		store: s,
		id:    spreadsheetID,
		tabs:  make(map[string]int64),
	}
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			doc.tabs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}

	return doc, nil
}

// Document is an opened Google spreadsheet. Writes go straight to the API.
type Document struct {
	store *Store
	id    string

	mu   sync.Mutex
	tabs map[string]int64 // title -> sheetId
}

func (d *Document) ID() string {
	return d.id
}

func (d *Document) GetOrCreateTab(ctx context.Context, name string) (sheetsync.Tab, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.tabs[name]; ok {
		return sheetsync.Tab{ID: id, Name: name}, nil
	}

	resp, err := d.batch(ctx, "failed to add sheet", &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{Title: name},
		},
	})
	if err != nil {
		return sheetsync.Tab{}, err
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return sheetsync.Tab{}, fmt.Errorf("failed to add sheet: empty reply for %q", name)
	}

	id := resp.Replies[0].AddSheet.Properties.SheetId
	d.tabs[name] = id
	return sheetsync.Tab{ID: id, Name: name}, nil
}

// Clear removes values and formats of every cell and unfreezes rows
func (d *Document) Clear(ctx context.Context, tab sheetsync.Tab) error {
	_, err := d.batch(ctx, "failed to clear sheet",
		&sheets.Request{
			UpdateCells: &sheets.UpdateCellsRequest{
				Range:  wholeSheet(tab.ID),
				Fields: "*",
			},
		},
		freezeRows(tab.ID, 0),
	)
	return err
}

// WriteRange writes all rows in a single values.update call
func (d *Document) WriteRange(ctx context.Context, tab sheetsync.Tab, rows [][]interface{}) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}

	writeRange := a1Range(tab.Name, len(rows), len(rows[0]))
	vr := &sheets.ValueRange{
		Range:          writeRange,
		MajorDimension: "ROWS",
		Values:         rows,
	}

	_, err := d.store.service.Spreadsheets.Values.Update(d.id, writeRange, vr).
		ValueInputOption(d.store.config.ValueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return classify("failed to update sheet", err)
	}

	return nil
}

// FormatHeader styles row 1, auto-sizes the columns and freezes the header in one batch
func (d *Document) FormatHeader(ctx context.Context, tab sheetsync.Tab, columns int, style sheetsync.HeaderStyle) error {
	if columns <= 0 {
		return nil
	}

	bg, err := color(style.Background)
	if err != nil {
		return err
	}
	fg, err := color(style.Foreground)
	if err != nil {
		return err
	}

	header := &sheets.GridRange{
		SheetId:          tab.ID,
		StartRowIndex:    0,
		EndRowIndex:      1,
		StartColumnIndex: 0,
		EndColumnIndex:   int64(columns),
		ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: header,
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: bg,
						TextFormat: &sheets.TextFormat{
							Bold:            style.Bold,
							ForegroundColor: fg,
							ForceSendFields: []string{"Bold"},
						},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		},
	}

	if style.AutoResize {
		requests = append(requests, &sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:         tab.ID,
					Dimension:       "COLUMNS",
					StartIndex:      0,
					EndIndex:        int64(columns),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		})
	}

	requests = append(requests, freezeRows(tab.ID, style.FrozenRows))

	_, err = d.batch(ctx, "failed to format header", requests...)
	return err
}

// ReadRange returns the populated cells of the tab as typed values
func (d *Document) ReadRange(ctx context.Context, tab sheetsync.Tab) ([][]interface{}, error) {
	resp, err := d.store.service.Spreadsheets.Values.Get(d.id, quoteSheet(tab.Name)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("failed to get sheet data", err)
	}

	rows := make([][]interface{}, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]interface{}, len(row))
		for j, v := range row {
			rows[i][j] = convertCellValue(v)
		}
	}
	return rows, nil
}

// Flush is a no-op: every call above is already applied by the API
func (d *Document) Flush(ctx context.Context) error {
	return nil
}

func (d *Document) batch(ctx context.Context, op string, requests ...*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	rq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}

	resp, err := d.store.service.Spreadsheets.BatchUpdate(d.id, rq).Context(ctx).Do()
	if err != nil {
		return nil, classify(op, err)
	}
	return resp, nil
}

// classify maps API status codes onto the sheetsync sentinel errors
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", op, sheetsync.ErrDocumentNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", op, sheetsync.ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func wholeSheet(sheetID int64) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:         sheetID,
		ForceSendFields: []string{"SheetId"},
	}
}

func freezeRows(sheetID int64, rows int) *sheets.Request {
	return &sheets.Request{
		UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId: sheetID,
				GridProperties: &sheets.GridProperties{
					FrozenRowCount:  int64(rows),
					ForceSendFields: []string{"FrozenRowCount"},
				},
				ForceSendFields: []string{"SheetId"},
			},
			Fields: "gridProperties.frozenRowCount",
		},
	}
}

func color(hex string) (*sheets.Color, error) {
	r, g, b, err := sheetsync.ParseHexColor(hex)
	if err != nil {
		return nil, err
	}
	return &sheets.Color{
		Red:   float64(r) / 255,
		Green: float64(g) / 255,
		Blue:  float64(b) / 255,
	}, nil
}

// quoteSheet quotes a tab name for A1 notation
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// a1Range returns the A1 range of a rows x cols block anchored at A1
func a1Range(sheet string, rows, cols int) string {
	return fmt.Sprintf("%s!A1:%s%d", quoteSheet(sheet), columnName(cols), rows)
}

// columnName converts a column number to its A1 name (1 -> A, 26 -> Z, 27 -> AA)
func columnName(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// convertCellValue converts an unformatted API value to the types sheetsync writes
func convertCellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string, bool:
		return val
	case float64:
		// Check if it's actually an integer
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
