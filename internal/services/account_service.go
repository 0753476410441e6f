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

type AccountService struct {
	db        *sql.DB
	validator *ValidationHelper
	log       zerolog.Logger
}

// AccountRequest is the create/update payload for an account
// @Description Account create/update request
type AccountRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100" example:"Everyday Checking"`
	Kind string `json:"kind" validate:"required,oneof=checking savings credit cash investment" example:"checking"`
}

func NewAccountService(db *sql.DB, log zerolog.Logger) *AccountService {
	return &AccountService{
		db:        db,
		validator: NewValidationHelper(),
		log:       log,
	}
}

// ListAccounts returns the user's active accounts
// @Summary List accounts
// @Description List the authenticated user's accounts, excluding soft-deleted ones
// @Tags accounts
// @Produce json
// @Success 200 {object} object{accounts=[]models.Account,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /accounts [get]
func (s *AccountService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
        SELECT id, user_id, name, kind, deleted_at, created_at, updated_at
        FROM accounts
        WHERE user_id = $1 AND deleted_at IS NULL
        ORDER BY created_at
    `, userID)
	if err != nil {
		s.log.Error().Err(err).Msg("list accounts failed")
		SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Kind, &a.DeletedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
			return
		}
		accounts = append(accounts, a)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// CreateAccount creates a new account
// @Summary Create account
// @Description Create a bank account for the authenticated user
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body AccountRequest true "Account data"
// @Success 201 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Router /accounts [post]
func (s *AccountService) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req AccountRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	account := models.Account{
		ID:     uuid.New(),
		UserID: userID,
		Name:   req.Name,
		Kind:   req.Kind,
	}
	err := s.db.QueryRow(`
        INSERT INTO accounts (id, user_id, name, kind, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING created_at, updated_at
    `, account.ID, account.UserID, account.Name, account.Kind).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		s.log.Error().Err(err).Msg("create account failed")
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// UpdateAccount updates an account's name and kind
// @Summary Update account
// @Description Update a bank account owned by the authenticated user
// @Tags accounts
// @Accept json
// @Produce json
// @Param accountId path string true "Account ID"
// @Param request body AccountRequest true "Account data"
// @Success 200 {object} models.Account
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountId} [put]
func (s *AccountService) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "accountId"))
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	var req AccountRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var account models.Account
	err = s.db.QueryRow(`
        UPDATE accounts
        SET name = $1, kind = $2, updated_at = NOW()
        WHERE id = $3 AND user_id = $4 AND deleted_at IS NULL
        RETURNING id, user_id, name, kind, deleted_at, created_at, updated_at
    `, req.Name, req.Kind, accountID, userID).Scan(
		&account.ID, &account.UserID, &account.Name, &account.Kind,
		&account.DeletedAt, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
			return
		}
		s.log.Error().Err(err).Msg("update account failed")
		SendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// DeleteAccount soft-deletes an account
// @Summary Delete account
// @Description Soft-delete a bank account; its transactions remain valid
// @Tags accounts
// @Produce json
// @Param accountId path string true "Account ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountId} [delete]
func (s *AccountService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "accountId"))
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	// Accounts are never hard-deleted: transactions keep referencing them.
	res, err := s.db.Exec(`
        UPDATE accounts
        SET deleted_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
    `, accountID, userID)
	if err != nil {
		s.log.Error().Err(err).Msg("delete account failed")
		SendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
