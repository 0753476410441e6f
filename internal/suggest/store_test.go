package suggest

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPostgresStore_ListCategoryNames(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	userID := uuid.New()

	mock.ExpectQuery("SELECT name FROM categories WHERE user_id = \\$1 ORDER BY name").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("Dining Out").
			AddRow("Groceries"))

	names, err := store.ListCategoryNames(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Dining Out", "Groceries"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResolveCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	userID := uuid.New()

	t.Run("case-insensitive match reuses the existing row", func(t *testing.T) {
		existing := uuid.New()
		mock.ExpectQuery("SELECT id FROM categories WHERE user_id = \\$1 AND LOWER\\(name\\) = LOWER\\(\\$2\\)").
			WithArgs(userID, "groceries").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))

		id, err := store.ResolveCategory(context.Background(), userID, "groceries")
		assert.NoError(t, err)
		assert.Equal(t, existing, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no match creates the category", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM categories WHERE user_id = \\$1 AND LOWER\\(name\\) = LOWER\\(\\$2\\)").
			WithArgs(userID, "Travel").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		mock.ExpectExec("INSERT INTO categories").
			WithArgs(sqlmock.AnyArg(), userID, "Travel").
			WillReturnResult(sqlmock.NewResult(1, 1))

		id, err := store.ResolveCategory(context.Background(), userID, "Travel")
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("losing the insert race re-selects the winner", func(t *testing.T) {
		winner := uuid.New()
		mock.ExpectQuery("SELECT id FROM categories WHERE user_id = \\$1 AND LOWER\\(name\\) = LOWER\\(\\$2\\)").
			WithArgs(userID, "Travel").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		mock.ExpectExec("INSERT INTO categories").
			WithArgs(sqlmock.AnyArg(), userID, "Travel").
			WillReturnError(&pq.Error{Code: "23505"})

		mock.ExpectQuery("SELECT id FROM categories WHERE user_id = \\$1 AND LOWER\\(name\\) = LOWER\\(\\$2\\)").
			WithArgs(userID, "Travel").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(winner.String()))

		id, err := store.ResolveCategory(context.Background(), userID, "Travel")
		assert.NoError(t, err)
		assert.Equal(t, winner, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_InsertSuggestion(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	txID := uuid.New()
	catID := uuid.New()

	t.Run("first insert wins", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO ai_suggestions").
			WithArgs(sqlmock.AnyArg(), txID, catID, 0.85).
			WillReturnResult(sqlmock.NewResult(1, 1))

		inserted, err := store.InsertSuggestion(context.Background(), txID, catID, 0.85)
		assert.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("conflict on transaction id is silent", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO ai_suggestions").
			WithArgs(sqlmock.AnyArg(), txID, catID, 0.85).
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := store.InsertSuggestion(context.Background(), txID, catID, 0.85)
		assert.NoError(t, err)
		assert.False(t, inserted)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
