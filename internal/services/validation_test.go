package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid object", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"name": "ok"}`))
		w := httptest.NewRecorder()

		var dst payload
		assert.NoError(t, decodeJSONBody(w, req, &dst))
		assert.Equal(t, "ok", dst.Name)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"name": "ok", "extra": 1}`))
		w := httptest.NewRecorder()

		var dst payload
		assert.Error(t, decodeJSONBody(w, req, &dst))
	})

	t.Run("trailing content rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"name": "ok"}{"name": "two"}`))
		w := httptest.NewRecorder()

		var dst payload
		assert.Error(t, decodeJSONBody(w, req, &dst))
	})

	t.Run("not json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", bytes.NewBufferString("plain text"))
		w := httptest.NewRecorder()

		var dst payload
		assert.Error(t, decodeJSONBody(w, req, &dst))
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendErrorResponse(w, "Not found", http.StatusNotFound, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Not found", resp.Error)
		assert.Empty(t, resp.Details)
	})

	t.Run("validation details included", func(t *testing.T) {
		type form struct {
			Email string `validate:"required,email"`
			Kind  string `validate:"oneof=expense income"`
		}
		err := NewValidationHelper().ValidateStruct(&form{Email: "nope", Kind: "transfer"})
		assert.Error(t, err)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)

		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Details, "Email")
		assert.Contains(t, resp.Details, "Kind")
	})
}
