package mcpserver

import "fmt"

// toolError carries one of spec §6's structured error codes through an
// MCP tool handler's returned error.
type toolError struct {
	Code    string
	Message string
}

func (e *toolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errInvalidParams(format string, args ...any) error {
	return &toolError{Code: "INVALID_PARAMS", Message: fmt.Sprintf(format, args...)}
}

func errInternal(format string, args ...any) error {
	return &toolError{Code: "INTERNAL_ERROR", Message: fmt.Sprintf(format, args...)}
}

func errParse(format string, args ...any) error {
	return &toolError{Code: "PARSE_ERROR", Message: fmt.Sprintf(format, args...)}
}

func errFileNotFound(format string, args ...any) error {
	return &toolError{Code: "FILE_NOT_FOUND", Message: fmt.Sprintf(format, args...)}
}
