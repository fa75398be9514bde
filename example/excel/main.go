package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/excel"
)

func main() {
	// One <spreadsheetId>.xlsx per document under Dir
	store, err := excel.New(&excel.Config{
		Dir:           "./workbooks",
		CreateMissing: true,
	})
	if err != nil {
		log.Fatalf("Failed to create Excel store: %v", err)
	}

	config := sheetsync.DefaultConfig()
	config.Header.Background = "#34a853"

	syncer, err := sheetsync.New(store, sheetsync.WithConfig(config))
	if err != nil {
		log.Fatalf("Failed to create syncer: %v", err)
	}

	ctx := context.Background()

	reports := map[string][][]interface{}{
		"sales": {
			{"region", "quarter", "revenue"},
			{"North", "Q1", 120000.5},
			{"South", "Q1", 98000},
		},
		"empty": nil,
	}

	for id, rows := range reports {
		result := syncer.Sync(ctx, sheetsync.SyncRequest{SpreadsheetID: id, Rows: rows})
		if !result.Success {
			log.Printf("Sync of %s failed (%s): %s", id, result.Kind, result.Error)
			continue
		}
		fmt.Printf("%s: %d rows written to ./workbooks/%s.xlsx\n", id, result.RowsWritten, id)
	}

	// Invalid ids are rejected before any file is touched
	result := syncer.Sync(ctx, sheetsync.SyncRequest{SpreadsheetID: "../escape", Rows: [][]interface{}{{"h"}}})
	fmt.Printf("../escape: success=%v kind=%s\n", result.Success, result.Kind)
}
