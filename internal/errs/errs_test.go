package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"tool not found", ToolNotFoundErrorf("function %q is not registered", "x"), `function "x" is not registered`},
		{"argument parse", ArgumentParseErrorf("bad arguments for %s", "create_task"), "bad arguments for create_task"},
		{"transcription", TranscriptionErrorf("no speech recognized"), "no speech recognized"},
		{"step limit", StepLimitErrorf("exceeded %d steps", 3), "exceeded 3 steps"},
		{"validation", ValidationErrorf("name is required"), "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", StepLimitErrorf("exceeded %d steps", 10))

	var stepErr *StepLimitError
	assert.True(t, errors.As(wrapped, &stepErr))

	var toolErr *ToolNotFoundError
	assert.False(t, errors.As(wrapped, &toolErr))
}
