package logging

// Standardized attribute keys shared across components. Keeping these in one
// place makes log filtering predictable when runs interleave provider workers.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
	FieldProvider  = "provider"
	FieldRowID     = "row_id"
	FieldRunID     = "run_id"
	FieldQuery     = "query"
	FieldScore     = "score"
)
