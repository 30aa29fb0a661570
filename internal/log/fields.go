package log

// Field names for structured logging.
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
	FieldBudgetID   = "budget_id"
	FieldBudgetName = "budget_name"
	FieldAccount    = "account"
	FieldEntryID    = "entry_id"
	FieldMonth      = "month"
	FieldCount      = "count"
)

// Component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentServices = "services"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentCache    = "cache"
	ComponentSettings = "settings"
	ComponentExport   = "export"
	ComponentCLI      = "cli"
)

// Operation names.
const (
	OpCreate   = "create"
	OpCopy     = "copy"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExport   = "export"
	OpProject  = "project"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields builds slog attributes fluently.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithBudget(id, name string) LogFields {
	f[FieldBudgetID] = id
	if name != "" {
		f[FieldBudgetName] = name
	}
	return f
}

func (f LogFields) WithAccount(account string) LogFields {
	f[FieldAccount] = account
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, clientIP string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	f[FieldClientIP] = clientIP
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key-value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
