package services

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/ledgerly/backend/internal/middleware"
	"github.com/ledgerly/backend/internal/models"
)

type CategoryService struct {
	db        *sql.DB
	validator *ValidationHelper
	log       zerolog.Logger
}

// CategoryRequest is the create/update payload for a category
// @Description Category create/update request
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100" example:"Groceries"`
}

func NewCategoryService(db *sql.DB, log zerolog.Logger) *CategoryService {
	return &CategoryService{
		db:        db,
		validator: NewValidationHelper(),
		log:       log,
	}
}

// ListCategories returns the user's categories
// @Summary List categories
// @Description List the authenticated user's categories
// @Tags categories
// @Produce json
// @Success 200 {object} object{categories=[]models.Category,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /categories [get]
func (s *CategoryService) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
        SELECT id, user_id, name, created_at, updated_at
        FROM categories
        WHERE user_id = $1
        ORDER BY name
    `, userID)
	if err != nil {
		s.log.Error().Err(err).Msg("list categories failed")
		SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
			return
		}
		categories = append(categories, c)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// CreateCategory creates a new category
// @Summary Create category
// @Description Create a category; names are unique per user case-insensitively
// @Tags categories
// @Accept json
// @Produce json
// @Param request body CategoryRequest true "Category data"
// @Success 201 {object} models.Category
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Name already in use"
// @Router /categories [post]
func (s *CategoryService) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req CategoryRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	category := models.Category{
		ID:     uuid.New(),
		UserID: userID,
		Name:   req.Name,
	}
	err := s.db.QueryRow(`
        INSERT INTO categories (id, user_id, name, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING created_at, updated_at
    `, category.ID, category.UserID, category.Name).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			SendErrorResponse(w, "Category already exists", http.StatusConflict, nil)
			return
		}
		s.log.Error().Err(err).Msg("create category failed")
		SendErrorResponse(w, "Failed to create category", http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

// UpdateCategory renames a category
// @Summary Update category
// @Description Rename a category owned by the authenticated user
// @Tags categories
// @Accept json
// @Produce json
// @Param categoryId path string true "Category ID"
// @Param request body CategoryRequest true "Category data"
// @Success 200 {object} models.Category
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Name already in use"
// @Router /categories/{categoryId} [put]
func (s *CategoryService) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryId"))
	if err != nil {
		SendErrorResponse(w, "Invalid category id", http.StatusBadRequest, nil)
		return
	}

	var req CategoryRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var category models.Category
	err = s.db.QueryRow(`
        UPDATE categories
        SET name = $1, updated_at = NOW()
        WHERE id = $2 AND user_id = $3
        RETURNING id, user_id, name, created_at, updated_at
    `, req.Name, categoryID, userID).Scan(
		&category.ID, &category.UserID, &category.Name, &category.CreatedAt, &category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
			return
		}
		if isUniqueViolation(err) {
			SendErrorResponse(w, "Category already exists", http.StatusConflict, nil)
			return
		}
		s.log.Error().Err(err).Msg("update category failed")
		SendErrorResponse(w, "Failed to update category", http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory deletes a category
// @Summary Delete category
// @Description Delete a category; transactions referencing it become uncategorized
// @Tags categories
// @Produce json
// @Param categoryId path string true "Category ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /categories/{categoryId} [delete]
func (s *CategoryService) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryId"))
	if err != nil {
		SendErrorResponse(w, "Invalid category id", http.StatusBadRequest, nil)
		return
	}

	res, err := s.db.Exec(`
        DELETE FROM categories WHERE id = $1 AND user_id = $2
    `, categoryID, userID)
	if err != nil {
		s.log.Error().Err(err).Msg("delete category failed")
		SendErrorResponse(w, "Failed to delete category", http.StatusInternalServerError, nil)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
