package errors

// ErrorCode identifies a failure class; see codes.go.
type ErrorCode string

// Error is a coded error. Data attached with WithData is appended to the
// message.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	Unwrap() error
}

// Factory builds coded errors.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
