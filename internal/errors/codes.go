package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrUnknownSetting  ErrorCode = "unknown_setting"
	ErrImportFailed    ErrorCode = "import_failed"
	ErrInvalidMethod   ErrorCode = "invalid_method"
	ErrUnknownType     ErrorCode = "unknown_type"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Sampling errors
	ErrSourceUnreadable ErrorCode = "source_unreadable"
	ErrMalformedField   ErrorCode = "malformed_field"
	ErrDivisionByZero   ErrorCode = "division_by_zero"
	ErrLogWriteFailure  ErrorCode = "log_write_failed"

	// Application errors
	ErrInitApp     ErrorCode = "init_app_failed"
	ErrMainLoop    ErrorCode = "main_loop_failed"
	ErrNotRunnable ErrorCode = "not_runnable"
	ErrTerminal    ErrorCode = "terminal_failed"

	// Fault store errors
	ErrInitFaultStore  ErrorCode = "init_fault_store_failed"
	ErrRecordFault     ErrorCode = "record_fault_failed"
	ErrCloseFaultStore ErrorCode = "close_fault_store_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:         "Internal error occurred",
	ErrInvalidArgument:  "Invalid argument provided",
	ErrInvalidConfig:    "Invalid configuration",
	ErrBindFlags:        "Failed to bind flags",
	ErrReadConfig:       "Failed to read config file",
	ErrUnknownSetting:   "Unknown setting",
	ErrImportFailed:     "Failed to import settings",
	ErrInvalidMethod:    "Invalid derivation method",
	ErrUnknownType:      "Unknown metric type",
	ErrInvalidLogLevel:  "Invalid log level",
	ErrSourceUnreadable: "Unable to read source",
	ErrMalformedField:   "Malformed numeric field",
	ErrDivisionByZero:   "Division by zero",
	ErrLogWriteFailure:  "Failed to write to log",
	ErrInitApp:          "Failed to initialize application",
	ErrMainLoop:         "Error in main loop",
	ErrNotRunnable:      "Source is not readable, sampling disabled",
	ErrTerminal:         "Terminal setup failed",
	ErrInitFaultStore:   "Failed to initialize fault store",
	ErrRecordFault:      "Failed to record fault",
	ErrCloseFaultStore:  "Failed to close fault store",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
