package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldWallet      = "wallet"
	FieldEntryID     = "entry_id"
	FieldTemplateID  = "template_id"
	FieldOriginID    = "origin_id"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldFrequency   = "frequency"
	FieldOccurrence  = "occurrence"
	FieldCreated     = "created"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentWallet    = "wallet"
	ComponentScheduler = "scheduler"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpAppend   = "append"
	OpProcess  = "process"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
