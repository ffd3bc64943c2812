package review

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewRowColumns = []string{"id", "product_id", "user_id", "username", "rating", "title", "comment",
	"is_purchased", "is_approved", "likes", "created_at", "updated_at"}

func TestPostgresListApproved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reviews")).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).WithArgs(3, 5, 5).
		WillReturnRows(sqlmock.NewRows(reviewRowColumns).
			AddRow(11, 3, 42, "marie", 4, "Bien", "Bon produit", true, true, 2, now, now))

	list, total, err := repo.ListApproved(context.Background(), 3, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, list, 1)
	assert.Equal(t, "marie", list[0].Username)
	assert.Equal(t, 2, list[0].LikesCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_DuplicateMapsToSentinel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs(3, 42, 5, "Top", "Très bien", true, false).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "reviews_user_id_product_id_key"})

	_, err = repo.Create(context.Background(), Review{ProductID: 3, UserID: 42, Rating: 5, Title: "Top", Comment: "Très bien", IsPurchased: true})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresToggleLike(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	// first call: nothing to remove, so a like is inserted
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM review_likes").WithArgs(11, 43).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (review_id, user_id) DO NOTHING")).WithArgs(11, 43).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM review_likes")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	liked, count, err := repo.ToggleLike(context.Background(), 11, 43)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM review_likes").WithArgs(11, 43).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM review_likes")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	liked, count, err = repo.ToggleLike(context.Background(), 11, 43)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresToggleLike_ConcurrentLikeIsNotAnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	// another request inserted the same like first: the insert is a no-op
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM review_likes").WithArgs(11, 43).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (review_id, user_id) DO NOTHING")).WithArgs(11, 43).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM review_likes")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	liked, count, err := repo.ToggleLike(context.Background(), 11, 43)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRatingCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("GROUP BY rating").WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "count"}).AddRow(5, 2).AddRow(1, 1))

	counts, err := repo.RatingCounts(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{5: 2, 1: 1}, counts)
}
