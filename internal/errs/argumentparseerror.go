package errs

import "fmt"

type ArgumentParseError struct {
	message string
}

func (v *ArgumentParseError) Error() string {
	return v.message
}

func ArgumentParseErrorf(format string, args ...interface{}) *ArgumentParseError {
	return &ArgumentParseError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &ArgumentParseError{}
