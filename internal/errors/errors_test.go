package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NotFound("Document not found", inner)

	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, "Document not found: boom", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestAPIError_WithoutInternal(t *testing.T) {
	err := BadRequest("Only PDF files are supported", nil)

	assert.Equal(t, "Only PDF files are supported", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestNewValidationError_FormatsFieldErrors(t *testing.T) {
	type form struct {
		Limit int `validate:"min=1,max=100"`
	}

	verr := validator.New().Struct(form{Limit: 9999})
	require.Error(t, verr)

	apiErr := NewValidationError(verr)

	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "Limit failed on max")
}

func TestNewValidationError_PlainError(t *testing.T) {
	apiErr := NewValidationError(errors.New("unexpected EOF"))

	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid request", apiErr.Message)
}
