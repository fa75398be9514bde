package excel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/internal/storetest"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  &Config{Dir: "data"},
			wantErr: false,
		},
		{
			name:    "missing dir",
			config:  &Config{CreateMissing: true},
			wantErr: true,
		},
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Harness {
		dir := t.TempDir()
		createWorkbook(t, filepath.Join(dir, "doc-1.xlsx"))

		store, err := New(&Config{Dir: dir})
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		return storetest.Harness{Store: store, DocumentID: "doc-1", MissingID: "missing"}
	})
}

func TestStore_Path(t *testing.T) {
	store, err := New(&Config{Dir: "/srv/sheets"})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	tests := []struct {
		id      string
		want    string
		wantErr bool
	}{
		{id: "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", want: "/srv/sheets/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms.xlsx"},
		{id: "report_2026-10", want: "/srv/sheets/report_2026-10.xlsx"},
		{id: "../etc/passwd", wantErr: true},
		{id: "a/b", wantErr: true},
		{id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := store.Path(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Path() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSpreadsheetID) {
				t.Errorf("Path() error = %v, want ErrInvalidSpreadsheetID", err)
			}
			if got != tt.want {
				t.Errorf("Path() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_OpenInvalidFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("not a workbook"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	store, _ := New(&Config{Dir: dir})
	_, err := store.Open(context.Background(), "broken")
	if !errors.Is(err, ErrInvalidFileFormat) {
		t.Errorf("Open() error = %v, want ErrInvalidFileFormat", err)
	}
}

func TestStore_CreateMissing(t *testing.T) {
	dir := t.TempDir()
	store, _ := New(&Config{Dir: dir, CreateMissing: true})
	ctx := context.Background()

	doc, err := store.Open(ctx, "fresh")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := doc.GetOrCreateTab(ctx, "Data"); err != nil {
		t.Fatalf("GetOrCreateTab() error = %v", err)
	}

	// Nothing is written until Flush
	if _, err := os.Stat(filepath.Join(dir, "fresh.xlsx")); !os.IsNotExist(err) {
		t.Fatalf("workbook exists before Flush: %v", err)
	}

	if err := doc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "fresh.xlsx"))
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Data" {
		t.Errorf("sheets = %v, want [Data]", got)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestSync_CreateMissingIntoSheet1(t *testing.T) {
	dir := t.TempDir()
	store, err := New(&Config{Dir: dir, CreateMissing: true})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	syncer, err := sheetsync.New(store)
	if err != nil {
		t.Fatalf("Failed to create syncer: %v", err)
	}

	result := syncer.Sync(context.Background(), sheetsync.SyncRequest{
		SpreadsheetID: "fresh",
		SheetName:     "Sheet1",
		Rows:          [][]interface{}{{"h"}, {"v"}},
	})
	if !result.Success || result.RowsWritten != 1 {
		t.Fatalf("Sync() = %+v, want success with 1 row", result)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "fresh.xlsx"))
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	got := f.GetSheetList()
	if len(got) != 2 || got[0] != "Sheet1" || got[1] != sheetsync.DefaultMetadataSheet {
		t.Fatalf("sheets = %v, want [Sheet1 %s]", got, sheetsync.DefaultMetadataSheet)
	}
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "h" || rows[1][0] != "v" {
		t.Errorf("Sheet1 rows = %v, want [[h] [v]]", rows)
	}
}

func TestDocument_ReadRangeKeepsCellTypes(t *testing.T) {
	dir := t.TempDir()
	createWorkbook(t, filepath.Join(dir, "doc.xlsx"))
	store, _ := New(&Config{Dir: dir})
	ctx := context.Background()

	doc, _ := store.Open(ctx, "doc")
	tab, err := doc.GetOrCreateTab(ctx, "Data")
	if err != nil {
		t.Fatalf("GetOrCreateTab() error = %v", err)
	}

	rows := [][]interface{}{
		{"zip", "flag", "exp", "count", "ratio", "ok"},
		{"02134", "true", "1e3", int64(7), 0.25, false},
	}
	if err := doc.WriteRange(ctx, tab, rows); err != nil {
		t.Fatalf("WriteRange() error = %v", err)
	}
	if err := doc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	reopened, _ := store.Open(ctx, "doc")
	got, err := reopened.ReadRange(ctx, tab)
	if err != nil {
		t.Fatalf("ReadRange() error = %v", err)
	}
	if len(got) != 2 || len(got[1]) != 6 {
		t.Fatalf("ReadRange() = %v, want 2 rows of 6", got)
	}
	for j, want := range rows[1] {
		if got[1][j] != want {
			t.Errorf("cell %d = %v (%T), want %v (%T)", j, got[1][j], got[1][j], want, want)
		}
	}
}

func TestDocument_FormatHeader(t *testing.T) {
	dir := t.TempDir()
	createWorkbook(t, filepath.Join(dir, "doc.xlsx"))
	store, _ := New(&Config{Dir: dir})
	ctx := context.Background()

	doc, err := store.Open(ctx, "doc")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	tab, err := doc.GetOrCreateTab(ctx, "Data")
	if err != nil {
		t.Fatalf("GetOrCreateTab() error = %v", err)
	}

	rows := [][]interface{}{
		{"id", "a very long column heading"},
		{int64(1), "x"},
	}
	if err := doc.WriteRange(ctx, tab, rows); err != nil {
		t.Fatalf("WriteRange() error = %v", err)
	}
	if err := doc.FormatHeader(ctx, tab, 2, sheetsync.DefaultConfig().Header); err != nil {
		t.Fatalf("FormatHeader() error = %v", err)
	}
	if err := doc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "doc.xlsx"))
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	for _, cell := range []string{"A1", "B1"} {
		idx, err := f.GetCellStyle("Data", cell)
		if err != nil {
			t.Fatalf("GetCellStyle(%s) error = %v", cell, err)
		}
		style, err := f.GetStyle(idx)
		if err != nil {
			t.Fatalf("GetStyle(%s) error = %v", cell, err)
		}
		if style.Font == nil || !style.Font.Bold {
			t.Errorf("%s is not bold", cell)
		}
		if style.Font == nil || !sameColor(style.Font.Color, "ffffff") {
			t.Errorf("%s font color = %+v, want ffffff", cell, style.Font)
		}
		if len(style.Fill.Color) == 0 || !sameColor(style.Fill.Color[0], "4285f4") {
			t.Errorf("%s fill = %+v, want 4285f4", cell, style.Fill.Color)
		}
	}

	// Data rows are not styled
	if idx, _ := f.GetCellStyle("Data", "A2"); idx != 0 {
		t.Errorf("A2 style = %d, want 0", idx)
	}

	panes, err := f.GetPanes("Data")
	if err != nil {
		t.Fatalf("GetPanes() error = %v", err)
	}
	if !panes.Freeze || panes.YSplit != 1 {
		t.Errorf("panes = %+v, want frozen at row 1", panes)
	}

	width, err := f.GetColWidth("Data", "B")
	if err != nil {
		t.Fatalf("GetColWidth() error = %v", err)
	}
	if width <= defaultColWidth {
		t.Errorf("column B width = %v, want wider than %v", width, defaultColWidth)
	}
}

func TestDocument_ClearUnfreezes(t *testing.T) {
	dir := t.TempDir()
	createWorkbook(t, filepath.Join(dir, "doc.xlsx"))
	store, _ := New(&Config{Dir: dir})
	ctx := context.Background()

	doc, _ := store.Open(ctx, "doc")
	tab, _ := doc.GetOrCreateTab(ctx, "Sheet1")
	if err := doc.WriteRange(ctx, tab, [][]interface{}{{"h"}, {"v"}}); err != nil {
		t.Fatalf("WriteRange() error = %v", err)
	}
	if err := doc.FormatHeader(ctx, tab, 1, sheetsync.DefaultConfig().Header); err != nil {
		t.Fatalf("FormatHeader() error = %v", err)
	}
	if err := doc.Clear(ctx, tab); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := doc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "doc.xlsx"))
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("Sheet1")
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
	panes, _ := f.GetPanes("Sheet1")
	if panes.Freeze {
		t.Errorf("panes still frozen: %+v", panes)
	}
}

func TestDocument_StaleTab(t *testing.T) {
	dir := t.TempDir()
	createWorkbook(t, filepath.Join(dir, "doc.xlsx"))
	store, _ := New(&Config{Dir: dir})

	doc, _ := store.Open(context.Background(), "doc")
	err := doc.Clear(context.Background(), sheetsync.Tab{ID: 99, Name: "Nope"})
	if !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("Clear() error = %v, want ErrSheetNotFound", err)
	}
}

func createWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to create workbook: %v", err)
	}
}

// sameColor compares rgb hex colors, ignoring case and an alpha prefix
func sameColor(got, want string) bool {
	got = strings.ToLower(strings.TrimPrefix(got, "#"))
	return strings.HasSuffix(got, want) && len(got) <= len(want)+2
}
