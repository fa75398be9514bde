package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ideamans/go-sheetsync"
	"github.com/xuri/excelize/v2"
)

const (
	defaultColWidth = 9.140625
	maxColWidth     = 255
	defaultSheet    = "Sheet1"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store implements sheetsync.Store with one Excel workbook per spreadsheet id
type Store struct {
	config Config
}

// New creates a new Excel store with the given configuration
func New(config *Config) (*Store, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Store{config: *config}, nil
}

// Path returns the workbook path of a spreadsheet id
func (s *Store) Path(spreadsheetID string) (string, error) {
	if !validID.MatchString(spreadsheetID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSpreadsheetID, spreadsheetID)
	}
	return filepath.Join(s.config.Dir, spreadsheetID+".xlsx"), nil
}

// Open loads the workbook into memory. Changes are staged until Flush.
func (s *Store) Open(ctx context.Context, spreadsheetID string) (sheetsync.Document, error) {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path, err := s.Path(spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sheetsync.ErrDocumentNotFound, err)
	}

	doc := &Document{id: spreadsheetID, path: path}

	f, err := excelize.OpenFile(path)
	switch {
	case err == nil:
		doc.file = f
	case os.IsNotExist(err):
		if !s.config.CreateMissing {
			return nil, fmt.Errorf("%w: %s", sheetsync.ErrDocumentNotFound, spreadsheetID)
		}
		doc.file = excelize.NewFile()
		doc.fresh = true
	case os.IsPermission(err):
		return nil, fmt.Errorf("%w: %w", sheetsync.ErrAccessDenied, err)
	default:
		return nil, fmt.Errorf("%w: %w", ErrInvalidFileFormat, err)
	}

	return doc, nil
}

// Document is a workbook held in memory
type Document struct {
	id    string
	path  string
	file  *excelize.File
	fresh bool // created by Open; the placeholder Sheet1 is dropped on first tab
}

func (d *Document) ID() string {
	return d.id
}

func (d *Document) GetOrCreateTab(ctx context.Context, name string) (sheetsync.Tab, error) {
	if id, ok := d.sheetID(name); ok {
		if name == defaultSheet {
			// The placeholder is now a caller's tab and must survive
			d.fresh = false
		}
		return sheetsync.Tab{ID: id, Name: name}, nil
	}

	index, err := d.file.NewSheet(name)
	if err != nil {
		return sheetsync.Tab{}, fmt.Errorf("failed to create sheet: %w", err)
	}

	if d.fresh {
		d.fresh = false
		if name != defaultSheet {
			d.file.SetActiveSheet(index)
			_ = d.file.DeleteSheet(defaultSheet) // Ignore error - not critical
		}
	}

	id, ok := d.sheetID(name)
	if !ok {
		return sheetsync.Tab{}, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	return sheetsync.Tab{ID: id, Name: name}, nil
}

// Clear removes every row and resets column widths and panes
func (d *Document) Clear(ctx context.Context, tab sheetsync.Tab) error {
	if err := d.check(tab); err != nil {
		return err
	}

	rows, err := d.file.GetRows(tab.Name)
	if err != nil {
		return fmt.Errorf("failed to get rows: %w", err)
	}

	maxCol := 0
	for _, row := range rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}

	// Remove from the bottom so row numbers do not shift under us
	for i := len(rows); i >= 1; i-- {
		if err := d.file.RemoveRow(tab.Name, i); err != nil {
			return fmt.Errorf("failed to remove row %d: %w", i, err)
		}
	}

	if maxCol > 0 {
		last, err := excelize.ColumnNumberToName(maxCol)
		if err != nil {
			return err
		}
		if err := d.file.SetColWidth(tab.Name, "A", last, defaultColWidth); err != nil {
			return fmt.Errorf("failed to reset column widths: %w", err)
		}
	}

	if err := d.file.SetPanes(tab.Name, &excelize.Panes{}); err != nil {
		return fmt.Errorf("failed to unfreeze panes: %w", err)
	}

	return nil
}

func (d *Document) WriteRange(ctx context.Context, tab sheetsync.Tab, rows [][]interface{}) error {
	if err := d.check(tab); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		values := row
		if err := d.file.SetSheetRow(tab.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	return nil
}

func (d *Document) FormatHeader(ctx context.Context, tab sheetsync.Tab, columns int, style sheetsync.HeaderStyle) error {
	if columns <= 0 {
		return nil
	}
	if err := d.check(tab); err != nil {
		return err
	}

	styleID, err := d.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  style.Bold,
			Color: strings.TrimPrefix(style.Foreground, "#"),
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{strings.TrimPrefix(style.Background, "#")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	end, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	if err := d.file.SetCellStyle(tab.Name, "A1", end, styleID); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	if style.AutoResize {
		if err := d.autoResize(tab.Name, columns); err != nil {
			return err
		}
	}

	if style.FrozenRows > 0 {
		topLeft, err := excelize.CoordinatesToCellName(1, style.FrozenRows+1)
		if err != nil {
			return err
		}
		err = d.file.SetPanes(tab.Name, &excelize.Panes{
			Freeze:      true,
			YSplit:      style.FrozenRows,
			TopLeftCell: topLeft,
			ActivePane:  "bottomLeft",
			Selection: []excelize.Selection{
				{SQRef: topLeft, ActiveCell: topLeft, Pane: "bottomLeft"},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}

	return nil
}

// autoResize sets each column to the width of its longest value
func (d *Document) autoResize(sheet string, columns int) error {
	rows, err := d.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to get rows: %w", err)
	}

	for col := 0; col < columns; col++ {
		width := 0
		for _, row := range rows {
			if col < len(row) {
				if n := utf8.RuneCountInString(row[col]); n > width {
					width = n
				}
			}
		}

		w := float64(width) + 2
		if w < defaultColWidth {
			w = defaultColWidth
		}
		if w > maxColWidth {
			w = maxColWidth
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := d.file.SetColWidth(sheet, name, name, w); err != nil {
			return fmt.Errorf("failed to resize column %s: %w", name, err)
		}
	}

	return nil
}

func (d *Document) ReadRange(ctx context.Context, tab sheetsync.Tab) ([][]interface{}, error) {
	if err := d.check(tab); err != nil {
		return nil, err
	}

	rows, err := d.file.GetRows(tab.Name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	out := make([][]interface{}, 0, len(rows))
	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, raw := range row {
			v, err := d.cellValue(tab.Name, j+1, i+1, raw)
			if err != nil {
				return nil, err
			}
			values[j] = v
		}
		out = append(out, values)
	}
	return out, nil
}

// cellValue types raw by the cell's stored type. Only number and boolean
// cells are converted; text that looks like a number stays text.
func (d *Document) cellValue(sheet string, col, row int, raw string) (interface{}, error) {
	if raw == "" {
		return "", nil
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := d.file.GetCellType(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to get type of %s: %w", cell, err)
	}

	switch typ {
	case excelize.CellTypeBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b, nil
		}
		return raw, nil
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f, nil
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// Flush writes the workbook to a temporary file and renames it over the
// target, so readers never observe a half-written document.
func (d *Document) Flush(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+d.id+"-*.xlsx")
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %w", sheetsync.ErrAccessDenied, err)
		}
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := d.file.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}

	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	return nil
}

func (d *Document) sheetID(name string) (int64, bool) {
	for id, sheet := range d.file.GetSheetMap() {
		if sheet == name {
			return int64(id), true
		}
	}
	return 0, false
}

func (d *Document) check(tab sheetsync.Tab) error {
	if id, ok := d.sheetID(tab.Name); !ok || id != tab.ID {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, tab.Name)
	}
	return nil
}
