package errs

import "fmt"

type TranscriptionError struct {
	message string
}

func (v *TranscriptionError) Error() string {
	return v.message
}

func TranscriptionErrorf(format string, args ...interface{}) *TranscriptionError {
	return &TranscriptionError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &TranscriptionError{}
