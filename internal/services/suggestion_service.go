package services

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgerly/backend/internal/middleware"
	"github.com/ledgerly/backend/internal/models"
)

type SuggestionService struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewSuggestionService(db *sql.DB, log zerolog.Logger) *SuggestionService {
	return &SuggestionService{db: db, log: log}
}

// ApproveSuggestion accepts the AI suggestion for a transaction
// @Summary Approve suggestion
// @Description Copy the suggested category onto the transaction and mark the suggestion approved
// @Tags suggestions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.Suggestion
// @Failure 404 {object} ErrorResponse "No suggestion for this transaction"
// @Failure 409 {object} ErrorResponse "Suggestion already resolved"
// @Router /transactions/{txId}/suggestion/approve [post]
func (s *SuggestionService) ApproveSuggestion(w http.ResponseWriter, r *http.Request) {
	s.resolveSuggestion(w, r, models.ApprovalApproved)
}

// RejectSuggestion declines the AI suggestion for a transaction
// @Summary Reject suggestion
// @Description Mark the suggestion rejected; the transaction's category is unchanged
// @Tags suggestions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.Suggestion
// @Failure 404 {object} ErrorResponse "No suggestion for this transaction"
// @Failure 409 {object} ErrorResponse "Suggestion already resolved"
// @Router /transactions/{txId}/suggestion/reject [post]
func (s *SuggestionService) RejectSuggestion(w http.ResponseWriter, r *http.Request) {
	s.resolveSuggestion(w, r, models.ApprovalRejected)
}

// resolveSuggestion moves a pending suggestion to its terminal approval
// state. Approval also copies the suggested category onto the transaction;
// both writes happen in one database transaction. The suggestion has no user
// id of its own, so ownership is checked through the transaction row.
func (s *SuggestionService) resolveSuggestion(w http.ResponseWriter, r *http.Request, approval string) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	txID, err := uuid.Parse(chi.URLParam(r, "txId"))
	if err != nil {
		SendErrorResponse(w, "Invalid transaction id", http.StatusBadRequest, nil)
		return
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		s.log.Error().Err(err).Msg("begin transaction failed")
		SendErrorResponse(w, "Failed to update suggestion", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	var suggestion models.Suggestion
	err = dbTx.QueryRow(`
        SELECT s.id, s.transaction_id, s.category_id, s.confidence, s.approval, s.created_at, s.updated_at
        FROM ai_suggestions s
        JOIN transactions t ON t.id = s.transaction_id
        WHERE s.transaction_id = $1 AND t.user_id = $2
        FOR UPDATE OF s
    `, txID, userID).Scan(
		&suggestion.ID, &suggestion.TransactionID, &suggestion.CategoryID,
		&suggestion.Confidence, &suggestion.Approval, &suggestion.CreatedAt, &suggestion.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			SendErrorResponse(w, "Suggestion not found", http.StatusNotFound, nil)
			return
		}
		s.log.Error().Err(err).Stringer("transaction_id", txID).Msg("fetch suggestion failed")
		SendErrorResponse(w, "Failed to update suggestion", http.StatusInternalServerError, nil)
		return
	}

	if suggestion.Approval != models.ApprovalPending {
		SendErrorResponse(w, "Suggestion already resolved", http.StatusConflict, nil)
		return
	}

	if approval == models.ApprovalApproved {
		if _, err := dbTx.Exec(`
            UPDATE transactions SET category_id = $1, updated_at = NOW()
            WHERE id = $2 AND user_id = $3
        `, suggestion.CategoryID, txID, userID); err != nil {
			s.log.Error().Err(err).Msg("apply suggested category failed")
			SendErrorResponse(w, "Failed to update suggestion", http.StatusInternalServerError, nil)
			return
		}
	}

	err = dbTx.QueryRow(`
        UPDATE ai_suggestions SET approval = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING approval, updated_at
    `, approval, suggestion.ID).Scan(&suggestion.Approval, &suggestion.UpdatedAt)
	if err != nil {
		s.log.Error().Err(err).Msg("update suggestion failed")
		SendErrorResponse(w, "Failed to update suggestion", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		s.log.Error().Err(err).Msg("commit suggestion update failed")
		SendErrorResponse(w, "Failed to update suggestion", http.StatusInternalServerError, nil)
		return
	}

	s.log.Info().
		Stringer("transaction_id", txID).
		Str("approval", approval).
		Msg("suggestion resolved")
	writeJSON(w, http.StatusOK, suggestion)
}
