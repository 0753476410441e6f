package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func suggestionColumns() []string {
	return []string{"id", "transaction_id", "category_id", "confidence", "approval", "created_at", "updated_at"}
}

func TestSuggestionService_ApproveSuggestion(t *testing.T) {
	userID := uuid.New()
	txID := uuid.New()
	suggestionID := uuid.New()
	categoryID := uuid.New()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewSuggestionService(db, zerolog.Nop())
	router := newAuthedRouter(userID)
	router.Post("/transactions/{txId}/suggestion/approve", service.ApproveSuggestion)

	t.Run("approval copies the category onto the transaction", func(t *testing.T) {
		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT s.id, s.transaction_id, s.category_id").
			WithArgs(txID, userID).
			WillReturnRows(sqlmock.NewRows(suggestionColumns()).
				AddRow(suggestionID.String(), txID.String(), categoryID.String(), 0.9, "pending", now, now))
		mock.ExpectExec("UPDATE transactions SET category_id = \\$1").
			WithArgs(categoryID, txID, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("UPDATE ai_suggestions SET approval = \\$1").
			WithArgs("approved", suggestionID).
			WillReturnRows(sqlmock.NewRows([]string{"approval", "updated_at"}).AddRow("approved", now))
		mock.ExpectCommit()

		req := httptest.NewRequest("POST", "/transactions/"+txID.String()+"/suggestion/approve", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var suggestion map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &suggestion))
		assert.Equal(t, "approved", suggestion["approval"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already resolved is a conflict", func(t *testing.T) {
		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT s.id, s.transaction_id, s.category_id").
			WithArgs(txID, userID).
			WillReturnRows(sqlmock.NewRows(suggestionColumns()).
				AddRow(suggestionID.String(), txID.String(), categoryID.String(), 0.9, "rejected", now, now))
		mock.ExpectRollback()

		req := httptest.NewRequest("POST", "/transactions/"+txID.String()+"/suggestion/approve", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no suggestion row", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT s.id, s.transaction_id, s.category_id").
			WithArgs(txID, userID).
			WillReturnRows(sqlmock.NewRows(suggestionColumns()))
		mock.ExpectRollback()

		req := httptest.NewRequest("POST", "/transactions/"+txID.String()+"/suggestion/approve", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSuggestionService_RejectSuggestion(t *testing.T) {
	userID := uuid.New()
	txID := uuid.New()
	suggestionID := uuid.New()
	categoryID := uuid.New()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewSuggestionService(db, zerolog.Nop())
	router := newAuthedRouter(userID)
	router.Post("/transactions/{txId}/suggestion/reject", service.RejectSuggestion)

	t.Run("rejection leaves the transaction untouched", func(t *testing.T) {
		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT s.id, s.transaction_id, s.category_id").
			WithArgs(txID, userID).
			WillReturnRows(sqlmock.NewRows(suggestionColumns()).
				AddRow(suggestionID.String(), txID.String(), categoryID.String(), 0.4, "pending", now, now))
		// No UPDATE transactions here: rejecting never changes the category.
		mock.ExpectQuery("UPDATE ai_suggestions SET approval = \\$1").
			WithArgs("rejected", suggestionID).
			WillReturnRows(sqlmock.NewRows([]string{"approval", "updated_at"}).AddRow("rejected", now))
		mock.ExpectCommit()

		req := httptest.NewRequest("POST", "/transactions/"+txID.String()+"/suggestion/reject", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var suggestion map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &suggestion))
		assert.Equal(t, "rejected", suggestion["approval"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid transaction id", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/transactions/nope/suggestion/reject", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
