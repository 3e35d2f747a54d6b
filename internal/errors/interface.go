package errors

// ErrorCode identifies a failure kind. Codes shared across the tree live in
// codes.go; packages declare their own as ErrorCode("<package>_<what>").
type ErrorCode string

// Coded is anything that carries an ErrorCode. HasCode and CodeOf walk an
// error chain looking for it.
type Coded interface {
	Code() ErrorCode
}

// Error is a coded error. An Error is immutable: WithMessage and WithData
// return a copy.
type Error interface {
	error
	Coded

	// Data is the value attached by WithData, or nil.
	Data() any
	WithData(data any) Error
	WithMessage(msg string) Error
	Unwrap() error
}

// Factory builds Errors. Every package obtains one from New.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithData(code ErrorCode, data any) Error
	WithMessage(code ErrorCode, msg string) Error
}
