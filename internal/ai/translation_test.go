package ai

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresTranslationRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresTranslationRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO translation_history").
		WithArgs(42, "fr", "en", "Bonjour", "[Traduction en] Bonjour").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, now))

	created, err := repo.Create(context.Background(), Translation{
		UserID: 42, SourceLanguage: "fr", TargetLanguage: "en", OriginalText: "Bonjour", TranslatedText: "[Traduction en] Bonjour",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, created.ID)

	mock.ExpectQuery("FROM translation_history").WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "source_language", "target_language", "original_text", "translated_text", "created_at"}).
			AddRow(3, 42, "fr", "en", "Bonjour", "[Traduction en] Bonjour", now))

	list, err := repo.ListByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "en", list[0].TargetLanguage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInMemoryTranslations_NewestFirst(t *testing.T) {
	repo := NewInMemoryTranslationRepository()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_, _ = repo.Create(context.Background(), Translation{UserID: 1, OriginalText: "a", CreatedAt: base})
	_, _ = repo.Create(context.Background(), Translation{UserID: 1, OriginalText: "b", CreatedAt: base.Add(time.Hour)})
	_, _ = repo.Create(context.Background(), Translation{UserID: 2, OriginalText: "c", CreatedAt: base})

	list, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].OriginalText)
}
