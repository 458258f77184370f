package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinesocial/internal/apperr"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := apperr.Capacity("event is full")
	wrapped := fmt.Errorf("join event 7: %w", base)

	assert.True(t, apperr.IsCapacity(wrapped))
	assert.False(t, apperr.IsConflict(wrapped))
	assert.Equal(t, "event is full", apperr.MessageOf(wrapped))

	kind, ok := apperr.KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, apperr.KindCapacity, kind)
}

func TestPlainErrorsHaveNoKind(t *testing.T) {
	err := errors.New("connection reset")

	_, ok := apperr.KindOf(err)
	assert.False(t, ok)
	assert.Empty(t, apperr.MessageOf(err))
	assert.False(t, apperr.IsNotFound(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate entry")
	err := apperr.Wrap(apperr.KindConflict, "already reviewed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "CONFLICT: already reviewed: duplicate entry", err.Error())
}
