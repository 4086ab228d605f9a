package repository

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/trailpeak/api/internal/model"
)

// Fields stripped from every record leaving the repository layer,
// at any nesting depth (resolved references included).
var sensitiveFields = map[string]bool{
	"password":          true,
	"passwordChangedAt": true,
	"resetTokenHash":    true,
	"resetTokenExpires": true,
}

// extractQueryResults extracts the row set of the first statement from a
// raw query response. Each statement result arrives wrapped as
// {status, result}; multi-row reads must go through this rather than
// the single-row unwrap in QueryOne.
func extractQueryResults(results []interface{}) ([]interface{}, bool) {
	if len(results) == 0 {
		return nil, false
	}
	if wrapper, ok := results[0].(map[string]interface{}); ok {
		if _, wrapped := wrapper["status"]; wrapped {
			rows, ok := wrapper["result"].([]interface{})
			return rows, ok
		}
	}
	// Direct array format
	return results, true
}

// isUniqueConstraintError checks if an error is a unique constraint violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unique") ||
		strings.Contains(errStr, "duplicate") ||
		strings.Contains(errStr, "already exists")
}

// extractRecordID extracts a record id from a SurrealDB result value
func extractRecordID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return v.String()
	case *models.RecordID:
		if v != nil {
			return v.String()
		}
	case map[string]interface{}:
		if tb, ok := v["tb"].(string); ok {
			if inner, ok := v["id"].(string); ok {
				return tb + ":" + inner
			}
		}
	}

	// JSON round-trip as fallback
	if data, err := json.Marshal(id); err == nil {
		var recordID models.RecordID
		if err := json.Unmarshal(data, &recordID); err == nil {
			return recordID.String()
		}
	}

	return ""
}

// normalizeRecord converts a raw SurrealDB result into a plain Record:
// record ids become strings, datetimes become time.Time, nested maps and
// slices are normalized recursively, and sensitive fields are dropped.
func normalizeRecord(raw interface{}) model.Record {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	rec := make(model.Record, len(m))
	for key, value := range m {
		if sensitiveFields[key] {
			continue
		}
		rec[key] = normalizeValue(key == "id", value)
	}
	return rec
}

func normalizeValue(isID bool, value interface{}) interface{} {
	switch v := value.(type) {
	case models.RecordID:
		return v.String()
	case *models.RecordID:
		if v == nil {
			return nil
		}
		return v.String()
	case models.CustomDateTime:
		return v.Time
	case *models.CustomDateTime:
		if v == nil {
			return nil
		}
		return v.Time
	case map[string]interface{}:
		if isID {
			return extractRecordID(v)
		}
		return normalizeRecord(v)
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			out = append(out, normalizeValue(false, item))
		}
		return out
	}
	return value
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getFloat extracts a float value from a map
func getFloat(m map[string]interface{}, key string) float64 {
	return floatValue(m[key])
}

func floatValue(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	}
	return 0
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	return int(getFloat(m, key))
}

// getBool extracts a bool value from a map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	return parseTimeValue(m[key])
}

// parseTimeValue parses a time from the formats the driver produces
func parseTimeValue(value interface{}) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	}
	return nil
}

// getStringSlice extracts a string slice from a map
func getStringSlice(m map[string]interface{}, key string) []string {
	v, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			result = append(result, s)
			continue
		}
		if id := extractRecordID(item); id != "" {
			result = append(result, id)
		}
	}
	return result
}
