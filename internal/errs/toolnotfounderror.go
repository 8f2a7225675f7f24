package errs

import "fmt"

type ToolNotFoundError struct {
	message string
}

func (v *ToolNotFoundError) Error() string {
	return v.message
}

func ToolNotFoundErrorf(format string, args ...interface{}) *ToolNotFoundError {
	return &ToolNotFoundError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &ToolNotFoundError{}
