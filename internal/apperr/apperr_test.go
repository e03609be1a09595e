package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_UnwrapsThroughFmtErrorf(t *testing.T) {
	base := NotFound("trace %s not found", "t1")
	wrapped := fmt.Errorf("loading chain: %w", base)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestKindOf_DefaultsToInternalForPlainErrors(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestError_MessageIncludesCauseWhenWrapped(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindDegraded, cause, "writing learn file")
	assert.Equal(t, "writing learn file: disk full", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestError_MessageOmitsCauseWhenAbsent(t *testing.T) {
	err := Validation("query must not be empty")
	assert.Equal(t, "query must not be empty", err.Error())
}

func TestAs_FalseForNonAppError(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}
