package log

// Field names used across packages.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldOwner     = "owner"
	FieldOperation = "op"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldCount     = "count"
	FieldError     = "error"
)

// Component names.
const (
	ComponentApp    = "app"
	ComponentAPI    = "api"
	ComponentLedger = "ledger"
	ComponentCache  = "cache"
	ComponentDaemon = "daemon"
	ComponentAMQP   = "amqp"
	ComponentTUI    = "tui"
)
