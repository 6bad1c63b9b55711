package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFieldError(t *testing.T) {
	err := NewFieldError("email", "is required")

	de := ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, CodeValidation, de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, "email", de.Details["field"])
	assert.Equal(t, "is required", de.Details["reason"])
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Nil(t, ToDomainError(nil))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	cause := errors.New("timeout")
	err := fmt.Errorf("intake: %w", NewDependencyError("ai responder", cause, map[string]any{"ticket_id": "t-1"}))

	assert.True(t, IsDependency(err))
	assert.ErrorIs(t, err, cause)
	de := ToDomainError(err)
	assert.Equal(t, http.StatusBadGateway, de.HTTPStatus)
	assert.Equal(t, "t-1", de.Details["ticket_id"])
	assert.True(t, IsNotFound(NewNotFound("ticket", nil)))
}
