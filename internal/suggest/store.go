package suggest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store is the persistence surface the generator needs. The generator runs
// outside any user request context, so every query filters by the owning
// user id it was handed.
type Store interface {
	// ListCategoryNames returns the names of the user's categories.
	ListCategoryNames(ctx context.Context, userID uuid.UUID) ([]string, error)

	// ResolveCategory returns the id of the user's category matching name
	// case-insensitively, creating the category when no match exists.
	ResolveCategory(ctx context.Context, userID uuid.UUID, name string) (uuid.UUID, error)

	// InsertSuggestion persists a suggestion row for the transaction.
	// It reports false without error when a suggestion already exists.
	InsertSuggestion(ctx context.Context, transactionID, categoryID uuid.UUID, confidence float64) (bool, error)
}

// PostgresStore implements Store over the shared connection pool.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListCategoryNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name FROM categories WHERE user_id = $1 ORDER BY name
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *PostgresStore) ResolveCategory(ctx context.Context, userID uuid.UUID, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
        SELECT id FROM categories WHERE user_id = $1 AND LOWER(name) = LOWER($2)
    `, userID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("lookup category: %w", err)
	}

	id = uuid.New()
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO categories (id, user_id, name, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
    `, id, userID, name)
	if err == nil {
		return id, nil
	}

	// A concurrent insert of the same name loses on the unique index.
	// Re-select the winner's row instead of failing.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		err = s.db.QueryRowContext(ctx, `
            SELECT id FROM categories WHERE user_id = $1 AND LOWER(name) = LOWER($2)
        `, userID, name).Scan(&id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("re-select category after conflict: %w", err)
		}
		return id, nil
	}

	return uuid.Nil, fmt.Errorf("create category: %w", err)
}

func (s *PostgresStore) InsertSuggestion(ctx context.Context, transactionID, categoryID uuid.UUID, confidence float64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO ai_suggestions (id, transaction_id, category_id, confidence, approval, created_at, updated_at)
        VALUES ($1, $2, $3, $4, 'pending', NOW(), NOW())
        ON CONFLICT (transaction_id) DO NOTHING
    `, uuid.New(), transactionID, categoryID, confidence)
	if err != nil {
		return false, fmt.Errorf("insert suggestion: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
