package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("save: %w", Clone(ErrPersistence, "disk full"))
	appErr := FromError(wrapped)
	assert.Equal(t, ErrPersistence.Code, appErr.Code)
	assert.Equal(t, "disk full", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.EqualError(t, appErr, "internal error: boom")
}

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(errors.New("redis down"), ErrPersistence.Code, "failed to save")
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestIsInternal(t *testing.T) {
	assert.False(t, IsInternal(nil))
	assert.False(t, IsInternal(Clone(ErrValidation, "name required")))
	assert.False(t, IsInternal(ErrForbidden))
	assert.True(t, IsInternal(ErrCodeSpaceExhausted))
	assert.True(t, IsInternal(Wrap(errors.New("io"), ErrPersistence.Code, "write")))
	assert.True(t, IsInternal(errors.New("unexpected")))
}
