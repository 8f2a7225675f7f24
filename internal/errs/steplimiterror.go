package errs

import "fmt"

type StepLimitError struct {
	message string
}

func (v *StepLimitError) Error() string {
	return v.message
}

func StepLimitErrorf(format string, args ...interface{}) *StepLimitError {
	return &StepLimitError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &StepLimitError{}
