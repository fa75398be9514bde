package sheetsync

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// NormalizeCell converts a decoded JSON value into a value every store can write.
// Integers stay int64, other numbers become float64, nil becomes an empty cell
// and nested arrays or objects are written as their JSON text.
func NormalizeCell(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool, int64, float64:
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case []interface{}, map[string]interface{}:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// NormalizeRows returns a copy of rows with every cell normalized
func NormalizeRows(rows [][]interface{}) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = make([]interface{}, len(row))
		for j, v := range row {
			out[i][j] = NormalizeCell(v)
		}
	}
	return out
}

// CellString returns the displayed text of a normalized cell value
func CellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ParseCell converts cell text read back from a store into a typed value
func ParseCell(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	switch s {
	case "TRUE", "true":
		return true
	case "FALSE", "false":
		return false
	}
	return s
}
