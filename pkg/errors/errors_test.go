package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	err := NewBadRequestError(CodeNameTooShort, "Sound name must not be empty")

	assert.True(t, Is(err, CodeNameTooShort))
	assert.False(t, Is(err, CodeNameTooLong))
	assert.False(t, Is(errors.New("plain"), CodeNameTooShort))
	assert.False(t, Is(nil, CodeNameTooShort))
}

func TestFromErrorHidesInternalDetails(t *testing.T) {
	appErr := FromError(errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, CodeInternal, appErr.Code)
	assert.NotContains(t, appErr.Message, "connection refused")
}

func TestFromErrorPassesThroughAppError(t *testing.T) {
	original := NewBadRequestError(CodeQuotaExceeded, "You have reached the maximum of 25 sounds")

	assert.Same(t, original, FromError(original))
	assert.Nil(t, FromError(nil))
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetStatusCode(NewNotFoundError(CodeNotFound, "Sound not found")))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("plain")))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeRateLimited, GetErrorCode(NewError(429, CodeRateLimited, "slow down")))
	assert.Equal(t, CodeInternal, GetErrorCode(errors.New("plain")))
}
