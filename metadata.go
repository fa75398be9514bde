package sheetsync

import "time"

const (
	lastUpdatedLabel = "Last Updated:"
	totalRowsLabel   = "Total Rows:"
)

// MetadataRecord is the sync state kept in the metadata tab
type MetadataRecord struct {
	LastUpdated time.Time
	TotalRows   int
}

// Rows renders the record as the A1:B2 block of the metadata tab
func (m MetadataRecord) Rows(layout string) [][]interface{} {
	return [][]interface{}{
		{lastUpdatedLabel, m.LastUpdated.Format(layout)},
		{totalRowsLabel, int64(m.TotalRows)},
	}
}

// ParseMetadata reads a record back from the metadata tab block
func ParseMetadata(rows [][]interface{}, layout string) (MetadataRecord, bool) {
	if len(rows) < 2 || len(rows[0]) < 2 || len(rows[1]) < 2 {
		return MetadataRecord{}, false
	}

	var m MetadataRecord
	ts, err := time.Parse(layout, CellString(rows[0][1]))
	if err != nil {
		return MetadataRecord{}, false
	}
	m.LastUpdated = ts

	switch n := ParseCell(CellString(rows[1][1])).(type) {
	case int64:
		m.TotalRows = int(n)
	default:
		return MetadataRecord{}, false
	}

	return m, true
}
