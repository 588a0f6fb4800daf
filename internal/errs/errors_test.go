package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceError_ErrorIncludesWrapped(t *testing.T) {
	wrapped := errors.New("boom")
	se := InvalidJSON(wrapped)
	assert.Contains(t, se.Error(), "INVALID_JSON")
	assert.Contains(t, se.Error(), "boom")
}

func TestServiceError_WithDetails(t *testing.T) {
	se := UnknownEngine("calcx", []string{"symbolic", "calc"})
	require.NotNil(t, se.Details)
	assert.Equal(t, []string{"symbolic", "calc"}, se.Details["available"])
}

func TestAs_ExtractsThroughWrap(t *testing.T) {
	se := NotFound("job missing")
	wrapped := errors.Join(errors.New("context"), se)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code)
}

func TestAs_NilForPlainError(t *testing.T) {
	assert.Nil(t, As(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(NoEngines()))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}
