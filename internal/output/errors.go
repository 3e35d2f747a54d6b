package output

import "codeberg.org/mutker/sysreport/internal/errors"

const (
	ErrSchemaInitFailed       = errors.ErrorCode("output_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("output_schema_validation_failed")
	ErrRecordFailed           = errors.ErrorCode("output_record_failed")
	ErrEncodeFailed           = errors.ErrorCode("output_encode_failed")
	ErrInvalidPath            = errors.ErrorCode("output_invalid_path")
)
