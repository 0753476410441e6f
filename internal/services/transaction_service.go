package services

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgerly/backend/internal/middleware"
	"github.com/ledgerly/backend/internal/models"
	"github.com/ledgerly/backend/internal/suggest"
)

// SuggestionGenerator produces an AI category suggestion for a transaction.
type SuggestionGenerator interface {
	Generate(ctx context.Context, tx suggest.TransactionInput, ownerID uuid.UUID) suggest.Outcome
}

// JobScheduler runs a unit of work without blocking the caller.
type JobScheduler interface {
	Schedule(name string, fn func(ctx context.Context)) bool
}

type TransactionService struct {
	db        *sql.DB
	validator *ValidationHelper
	log       zerolog.Logger
	generator SuggestionGenerator
	runner    JobScheduler
	// syncSuggest enables the synchronous debug mode: the create handler
	// awaits the generator and embeds its diagnostic outcome in the
	// response. Never the default.
	syncSuggest bool
}

// TransactionRequest is the create/update payload for a transaction
// @Description Transaction create/update request
type TransactionRequest struct {
	Amount      int64      `json:"amount" validate:"gte=0,lte=100000000" example:"1250"`
	Kind        string     `json:"kind" validate:"required,oneof=expense income" example:"expense"`
	Description string     `json:"description" validate:"required,min=1,max=500" example:"Starbucks coffee"`
	Date        time.Time  `json:"date" validate:"required" example:"2025-06-01T00:00:00Z"`
	AccountID   uuid.UUID  `json:"accountId" validate:"required" example:"6a1b..."`
	CategoryID  *uuid.UUID `json:"categoryId,omitempty"`
}

func NewTransactionService(db *sql.DB, log zerolog.Logger, generator SuggestionGenerator, runner JobScheduler, syncSuggest bool) *TransactionService {
	return &TransactionService{
		db:          db,
		validator:   NewValidationHelper(),
		log:         log,
		generator:   generator,
		runner:      runner,
		syncSuggest: syncSuggest,
	}
}

// CreateTransaction creates a transaction and schedules suggestion generation
// @Summary Create a new transaction
// @Description Create a transaction; an AI category suggestion is generated in the background
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body TransactionRequest true "Transaction data"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Account or category not found"
// @Router /transactions [post]
func (s *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req TransactionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	// Ownership checks: the account and category (if any) must belong to
	// the same user as the transaction.
	var exists bool
	err := s.db.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
        )
    `, req.AccountID, userID).Scan(&exists)
	if err != nil || !exists {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}
	if req.CategoryID != nil {
		err = s.db.QueryRow(`
            SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)
        `, *req.CategoryID, userID).Scan(&exists)
		if err != nil || !exists {
			SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
			return
		}
	}

	tx := models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Kind:        req.Kind,
		Description: req.Description,
		OccurredAt:  req.Date,
	}
	err = s.db.QueryRow(`
        INSERT INTO transactions (id, user_id, account_id, category_id, amount, kind, description, occurred_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING created_at, updated_at
    `, tx.ID, tx.UserID, tx.AccountID, tx.CategoryID, tx.Amount, tx.Kind, tx.Description, tx.OccurredAt).
		Scan(&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		s.log.Error().Err(err).Msg("create transaction failed")
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	input := suggest.TransactionInput{
		ID:               tx.ID,
		Description:      tx.Description,
		AmountMinorUnits: tx.Amount,
		Kind:             tx.Kind,
	}

	if s.syncSuggest {
		// Debug mode: block on the generator and return its raw outcome.
		outcome := s.generator.Generate(r.Context(), input, userID)
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"transaction": tx,
			"suggestion":  outcome,
		})
		return
	}

	// The response must not wait for the model call; generation failures
	// never affect the already-created transaction.
	s.runner.Schedule("suggest:"+tx.ID.String(), func(ctx context.Context) {
		s.generator.Generate(ctx, input, userID)
	})

	writeJSON(w, http.StatusCreated, tx)
}

// GetTransaction retrieves a single transaction with its suggestion state
// @Summary Get transaction by ID
// @Description Retrieve a transaction including the suggested category name when one exists
// @Tags transactions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.TransactionView
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [get]
func (s *TransactionService) GetTransaction(w http.ResponseWriter, r *http.Request) {
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

	view, err := s.fetchTransactionView(txID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
			return
		}
		s.log.Error().Err(err).Stringer("transaction_id", txID).Msg("fetch transaction failed")
		SendErrorResponse(w, "Failed to fetch transaction", http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ListTransactions retrieves the user's transactions with pagination
// @Summary List transactions
// @Description List transactions with pagination and optional account/kind filters
// @Tags transactions
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param perPage query int false "Page size (default 20, max 100)"
// @Param accountId query string false "Filter by account ID"
// @Param kind query string false "Filter by kind (expense/income)"
// @Success 200 {object} object{transactions=[]models.TransactionView,page=int,perPage=int,total=int}
// @Failure 500 {object} ErrorResponse
// @Router /transactions [get]
func (s *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	page := 1
	perPage := 20
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("perPage"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			perPage = n
		}
	}

	conditions := "t.user_id = $1"
	args := []interface{}{userID}
	if v := r.URL.Query().Get("accountId"); v != "" {
		accountID, err := uuid.Parse(v)
		if err != nil {
			SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
			return
		}
		args = append(args, accountID)
		conditions += " AND t.account_id = $" + strconv.Itoa(len(args))
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		if v != models.TransactionKindExpense && v != models.TransactionKindIncome {
			SendErrorResponse(w, "Invalid kind", http.StatusBadRequest, nil)
			return
		}
		args = append(args, v)
		conditions += " AND t.kind = $" + strconv.Itoa(len(args))
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM transactions t WHERE `+conditions, args...).Scan(&total); err != nil {
		s.log.Error().Err(err).Msg("count transactions failed")
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	args = append(args, perPage, (page-1)*perPage)
	query := `
        SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount, t.kind,
               t.description, t.occurred_at, t.created_at, t.updated_at,
               c.name AS category_name,
               sc.name AS suggested_category_name, s.confidence, s.approval
        FROM transactions t
        LEFT JOIN categories c ON t.category_id = c.id
        LEFT JOIN ai_suggestions s ON s.transaction_id = t.id
        LEFT JOIN categories sc ON s.category_id = sc.id
        WHERE ` + conditions + `
        ORDER BY t.occurred_at DESC, t.created_at DESC
        LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		s.log.Error().Err(err).Msg("list transactions failed")
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.TransactionView{}
	for rows.Next() {
		var v models.TransactionView
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.AccountID, &v.CategoryID, &v.Amount, &v.Kind,
			&v.Description, &v.OccurredAt, &v.CreatedAt, &v.UpdatedAt,
			&v.CategoryName, &v.SuggestedCategoryName, &v.SuggestionConfidence, &v.SuggestionApproval,
		); err != nil {
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		transactions = append(transactions, v)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"page":         page,
		"perPage":      perPage,
		"total":        total,
	})
}

// UpdateTransaction updates a transaction
// @Summary Update transaction
// @Description Update a transaction's fields, including direct category edits
// @Tags transactions
// @Accept json
// @Produce json
// @Param txId path string true "Transaction ID"
// @Param request body TransactionRequest true "Transaction data"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [put]
func (s *TransactionService) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
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

	var req TransactionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var exists bool
	err = s.db.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
        )
    `, req.AccountID, userID).Scan(&exists)
	if err != nil || !exists {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}
	if req.CategoryID != nil {
		err = s.db.QueryRow(`
            SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)
        `, *req.CategoryID, userID).Scan(&exists)
		if err != nil || !exists {
			SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
			return
		}
	}

	var tx models.Transaction
	err = s.db.QueryRow(`
        UPDATE transactions
        SET account_id = $1, category_id = $2, amount = $3, kind = $4,
            description = $5, occurred_at = $6, updated_at = NOW()
        WHERE id = $7 AND user_id = $8
        RETURNING id, user_id, account_id, category_id, amount, kind, description,
                  occurred_at, created_at, updated_at
    `, req.AccountID, req.CategoryID, req.Amount, req.Kind, req.Description, req.Date, txID, userID).Scan(
		&tx.ID, &tx.UserID, &tx.AccountID, &tx.CategoryID, &tx.Amount, &tx.Kind,
		&tx.Description, &tx.OccurredAt, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
			return
		}
		s.log.Error().Err(err).Msg("update transaction failed")
		SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// DeleteTransaction deletes a transaction
// @Summary Delete transaction
// @Description Hard-delete a transaction; its suggestion row is removed with it
// @Tags transactions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [delete]
func (s *TransactionService) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
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

	res, err := s.db.Exec(`
        DELETE FROM transactions WHERE id = $1 AND user_id = $2
    `, txID, userID)
	if err != nil {
		s.log.Error().Err(err).Msg("delete transaction failed")
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *TransactionService) fetchTransactionView(txID, userID uuid.UUID) (*models.TransactionView, error) {
	var v models.TransactionView
	err := s.db.QueryRow(`
        SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount, t.kind,
               t.description, t.occurred_at, t.created_at, t.updated_at,
               c.name AS category_name,
               sc.name AS suggested_category_name, s.confidence, s.approval
        FROM transactions t
        LEFT JOIN categories c ON t.category_id = c.id
        LEFT JOIN ai_suggestions s ON s.transaction_id = t.id
        LEFT JOIN categories sc ON s.category_id = sc.id
        WHERE t.id = $1 AND t.user_id = $2
    `, txID, userID).Scan(
		&v.ID, &v.UserID, &v.AccountID, &v.CategoryID, &v.Amount, &v.Kind,
		&v.Description, &v.OccurredAt, &v.CreatedAt, &v.UpdatedAt,
		&v.CategoryName, &v.SuggestedCategoryName, &v.SuggestionConfidence, &v.SuggestionApproval,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
