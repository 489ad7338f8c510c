package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := New(GenerationFailure, "generate", cause)

	assert.Equal(t, GenerationFailure, KindOf(err))
	assert.True(t, Is(err, GenerationFailure))
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("pipeline: %w", err)
	assert.Equal(t, GenerationFailure, KindOf(wrapped))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, NotFound))
}

func TestError_Message(t *testing.T) {
	err := Newf(NotFound, "store.get", "record %s", "abc")
	assert.Equal(t, "store.get: not_found: record abc", err.Error())

	bare := New(NoFileProvided, "intake", nil)
	assert.Equal(t, "intake: no_file_provided", bare.Error())
}
