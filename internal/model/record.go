package model

// Record is an opaque persisted document: an id plus a mapping of field
// name to value. List and detail reads flow through the API as Records so
// that field projection returns exactly the projected keys; typed models
// exist for the services that need structured access.
type Record = map[string]interface{}

// RecordID returns the id of a record, or "" when absent
func RecordID(rec Record) string {
	if rec == nil {
		return ""
	}
	if id, ok := rec["id"].(string); ok {
		return id
	}
	return ""
}
