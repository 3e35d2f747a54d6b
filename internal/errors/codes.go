package errors

// Common error codes
const (
	// ErrInternal is reported for errors that carry no code.
	ErrInternal ErrorCode = "internal_error"

	// Configuration errors
	ErrInvalidConfig  ErrorCode = "invalid_configuration"
	ErrBindFlags      ErrorCode = "bind_flags_failed"
	ErrReadConfig     ErrorCode = "read_config_failed"
	ErrInvalidTimeout ErrorCode = "invalid_timeout"
	ErrInvalidFormat  ErrorCode = "invalid_output_format"
	ErrInvalidLayout  ErrorCode = "invalid_output_layout"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"
	ErrOpenLogFile     ErrorCode = "open_log_file_failed"
	ErrShutdownFailed  ErrorCode = "shutdown_failed"

	// Collection errors
	ErrCollectorFailed     ErrorCode = "collector_failed"
	ErrSensorUnavailable   ErrorCode = "sensor_unavailable"
	ErrUnknownDomain       ErrorCode = "unknown_domain"
	ErrAllCollectorsFailed ErrorCode = "all_collectors_failed"
	ErrMergeConflict       ErrorCode = "merge_conflict"

	// Output errors
	ErrOutputPermission  ErrorCode = "output_permission_denied"
	ErrOutputInterrupted ErrorCode = "output_interrupted"
	ErrOutputFailed      ErrorCode = "output_failed"

	// Operation errors
	ErrTimeout     ErrorCode = "operation_timeout"
	ErrInterrupted ErrorCode = "interrupted"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:            "Internal error occurred",
	ErrInvalidConfig:       "Invalid configuration",
	ErrBindFlags:           "Failed to bind flags",
	ErrReadConfig:          "Failed to read config file",
	ErrInvalidTimeout:      "Invalid collector timeout",
	ErrInvalidFormat:       "Invalid output format",
	ErrInvalidLayout:       "Invalid output layout",
	ErrInvalidLogLevel:     "Invalid log level",
	ErrOpenLogFile:         "Failed to open log file",
	ErrShutdownFailed:      "Shutdown failed",
	ErrCollectorFailed:     "Failed to collect metrics",
	ErrSensorUnavailable:   "Sensor unavailable",
	ErrUnknownDomain:       "Unknown report domain",
	ErrAllCollectorsFailed: "Every selected collector failed",
	ErrMergeConflict:       "Duplicate key while merging documents",
	ErrOutputPermission:    "Permission denied to access the export file",
	ErrOutputInterrupted:   "Process interrupted while writing the export file",
	ErrOutputFailed:        "Error writing report",
	ErrTimeout:             "Operation timed out",
	ErrInterrupted:         "Process interrupted by the user",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
