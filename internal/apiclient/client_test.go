package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ledgerly/backend/internal/models"
)

func TestClient_FetchSuggestion(t *testing.T) {
	txID := uuid.New()
	name := "Groceries"
	confidence := 0.9

	t.Run("no suggestion yet maps to nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/transactions/"+txID.String(), r.URL.Path)
			assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(models.TransactionView{})
		}))
		defer srv.Close()

		client := New(srv.URL)
		client.SetToken("token123")

		s, err := client.FetchSuggestion(context.Background(), txID)
		assert.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("embedded suggestion is surfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(models.TransactionView{
				SuggestedCategoryName: &name,
				SuggestionConfidence:  &confidence,
			})
		}))
		defer srv.Close()

		client := New(srv.URL)
		s, err := client.FetchSuggestion(context.Background(), txID)
		assert.NoError(t, err)
		assert.NotNil(t, s)
		assert.Equal(t, "Groceries", s.CategoryName)
		assert.Equal(t, 0.9, s.Confidence)
	})

	t.Run("api error body is decoded", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Transaction not found"})
		}))
		defer srv.Close()

		client := New(srv.URL)
		_, err := client.FetchSuggestion(context.Background(), txID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Transaction not found")
		assert.Contains(t, err.Error(), "404")
	})
}

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "jane@example.com", req["email"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "issued-token",
			"user":  models.User{Email: "jane@example.com"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	user, err := client.Login(context.Background(), "jane@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "issued-token", client.token)
}
