package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/googlesheets"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Initialize the Google Sheets store with a JSON key file.
	// The spreadsheet must be shared with the service account email.
	store, err := googlesheets.NewWithJSONKeyFile(ctx, googlesheets.Config{}, "./service-account.json")
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	syncer, err := sheetsync.New(store, sheetsync.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	// The first row is the header; it is styled and frozen
	result := syncer.Sync(ctx, sheetsync.SyncRequest{
		SpreadsheetID: "your-spreadsheet-id",
		SheetName:     "Users",
		Rows: [][]interface{}{
			{"name", "email", "age", "created_at"},
			{"John Doe", "john@example.com", 30, time.Now()},
			{"Jane Smith", "jane@example.com", 28, time.Now()},
		},
	})
	if !result.Success {
		return fmt.Errorf("sync failed (%s): %s", result.Kind, result.Error)
	}
	fmt.Printf("%s: %d rows written\n", result.Message, result.RowsWritten)

	// Read back the _Metadata tab
	record, err := syncer.LastSync(ctx, "your-spreadsheet-id")
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	fmt.Printf("Last updated %s, %d rows\n", record.LastUpdated.Format(time.RFC3339), record.TotalRows)

	return nil
}
