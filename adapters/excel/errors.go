package excel

import "errors"

var (
	// ErrMissingDir is returned when the document directory is not specified
	ErrMissingDir = errors.New("document directory is required")

	// ErrInvalidSpreadsheetID is returned when an id cannot be used as a file name
	ErrInvalidSpreadsheetID = errors.New("invalid spreadsheet id")

	// ErrSheetNotFound is returned when a tab handle no longer matches a sheet
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrInvalidFileFormat is returned when the file is not a valid Excel file
	ErrInvalidFileFormat = errors.New("invalid Excel file format")
)
