package logger

// Standard field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldQuery      = "query"
	FieldMethod     = "method"
	FieldSource     = "source"
	FieldShape      = "shape"
	FieldLevel      = "level"
	FieldCount      = "count"
	FieldPhase      = "phase"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
	FieldPath       = "path"
	FieldURL        = "url"
)
