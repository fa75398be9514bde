package sheetsync

import "context"

// Tab is a handle to a named grid page within a spreadsheet document
type Tab struct {
	ID   int64
	Name string
}

// Store opens spreadsheet documents by id. Implementations live under adapters/.
type Store interface {
	// Open resolves the document. Implementations return an error wrapping
	// ErrDocumentNotFound or ErrAccessDenied when the document cannot be used.
	Open(ctx context.Context, spreadsheetID string) (Document, error)
}

// Document is an opened spreadsheet. A Document is used by one sync at a time.
type Document interface {
	// ID returns the spreadsheet id the document was opened with
	ID() string

	// GetOrCreateTab returns the named tab, creating it when it does not exist
	GetOrCreateTab(ctx context.Context, name string) (Tab, error)

	// Clear removes all cell content and formatting from the tab and unfreezes rows
	Clear(ctx context.Context, tab Tab) error

	// WriteRange writes rows starting at A1 in a single bulk operation.
	// The block is len(rows) x len(rows[0]).
	WriteRange(ctx context.Context, tab Tab, rows [][]interface{}) error

	// FormatHeader applies style to row 1 across the first columns columns
	FormatHeader(ctx context.Context, tab Tab, columns int, style HeaderStyle) error

	// ReadRange returns every populated row of the tab
	ReadRange(ctx context.Context, tab Tab) ([][]interface{}, error)

	// Flush publishes staged changes. Stores that write through return nil.
	Flush(ctx context.Context) error
}
