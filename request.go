package sheetsync

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// SyncRequest is the webhook payload
type SyncRequest struct {
	SpreadsheetID string          `json:"spreadsheetId"`
	SheetName     string          `json:"sheetName,omitempty"`
	Rows          [][]interface{} `json:"data,omitempty"` // Rows[0] is the header row
}

// SyncResult is returned for every request, successful or not
type SyncResult struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	Error       string    `json:"error,omitempty"`
	Kind        ErrorKind `json:"kind,omitempty"`
	RowsWritten int       `json:"rowsWritten"`
}

// ParseSyncRequest decodes a JSON request body. Numbers are kept exact.
func ParseSyncRequest(r io.Reader) (SyncRequest, error) {
	var req SyncRequest

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return SyncRequest{}, &Error{Kind: KindInvalidRequest, Op: "decode request", Err: err}
	}

	return req, nil
}

// Width returns the number of columns of the write block, taken from the header row
func (r SyncRequest) Width() int {
	if len(r.Rows) == 0 {
		return 0
	}
	return len(r.Rows[0])
}

// DataRows returns the number of rows excluding the header, never below zero
func (r SyncRequest) DataRows() int {
	if len(r.Rows) <= 1 {
		return 0
	}
	return len(r.Rows) - 1
}

// Validate performs the presence and shape checks that run before any mutation
func (r SyncRequest) Validate() error {
	if strings.TrimSpace(r.SpreadsheetID) == "" {
		return &Error{Kind: KindInvalidRequest, Op: "validate", Err: ErrMissingSpreadsheet}
	}

	width := r.Width()
	for i, row := range r.Rows {
		if len(row) != width {
			err := fmt.Errorf("%w: row %d has %d cells, header has %d", ErrRaggedRows, i+1, len(row), width)
			return &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
		}
	}

	return nil
}
