package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientStockDetails(t *testing.T) {
	err := NewInsufficientStock("p1", "w1", 1000, 70)

	assert.Equal(t, CodeInsufficientStock, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "p1", err.Details["product_id"])
	assert.Equal(t, "w1", err.Details["warehouse_id"])
	assert.Equal(t, int64(1000), err.Details["requested"])
	assert.Equal(t, int64(70), err.Details["available"])
}

func TestHelpersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("validate document: %w", NewAlreadyApplied("receipt", "d1"))

	assert.True(t, IsAlreadyApplied(wrapped))
	assert.False(t, IsInvalidState(wrapped))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(wrapped))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "d1", appErr.Details["id"])
}

func TestGetHTTPStatusPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestInvalidStateMessage(t *testing.T) {
	err := NewInvalidState("delivery", "d2", "done", "delete")

	assert.Equal(t, `cannot delete delivery in status "done"`, err.Message)
	assert.Equal(t, "delete", err.Details["operation"])
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("pg down")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "pg down")
}
