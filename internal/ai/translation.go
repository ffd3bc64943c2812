package ai

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

// Translation records one translation made by a signed-in user.
type Translation struct {
	ID             int       `json:"translationId"`
	UserID         int       `json:"userId"`
	SourceLanguage string    `json:"sourceLanguage"`
	TargetLanguage string    `json:"targetLanguage"`
	OriginalText   string    `json:"originalText"`
	TranslatedText string    `json:"translatedText"`
	CreatedAt      time.Time `json:"createdAt"`
}

type TranslationRepository interface {
	Create(ctx context.Context, t Translation) (Translation, error)
	// ListByUser returns the user's translations, newest first.
	ListByUser(ctx context.Context, userID int) ([]Translation, error)
}

type InMemoryTranslationRepository struct {
	mu     sync.RWMutex
	items  []Translation
	nextID int
}

func NewInMemoryTranslationRepository() *InMemoryTranslationRepository {
	return &InMemoryTranslationRepository{nextID: 1}
}

func (r *InMemoryTranslationRepository) Create(_ context.Context, t Translation) (Translation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = r.nextID
	r.nextID++
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	r.items = append(r.items, t)
	return t, nil
}

func (r *InMemoryTranslationRepository) ListByUser(_ context.Context, userID int) ([]Translation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Translation, 0)
	for _, t := range r.items {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type PostgresTranslationRepository struct {
	db *sql.DB
}

const (
	insertTranslationQuery = `
		INSERT INTO translation_history (user_id, source_language, target_language, original_text, translated_text)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	listTranslationsQuery = `
		SELECT id, user_id, source_language, target_language, original_text, translated_text, created_at
		FROM translation_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
)

func NewPostgresTranslationRepository(db *sql.DB) *PostgresTranslationRepository {
	return &PostgresTranslationRepository{db: db}
}

func (r *PostgresTranslationRepository) Create(ctx context.Context, t Translation) (Translation, error) {
	err := r.db.QueryRowContext(ctx, insertTranslationQuery,
		t.UserID, t.SourceLanguage, t.TargetLanguage, t.OriginalText, t.TranslatedText,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return Translation{}, err
	}
	return t, nil
}

func (r *PostgresTranslationRepository) ListByUser(ctx context.Context, userID int) ([]Translation, error) {
	rows, err := r.db.QueryContext(ctx, listTranslationsQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Translation, 0)
	for rows.Next() {
		var t Translation
		if err := rows.Scan(&t.ID, &t.UserID, &t.SourceLanguage, &t.TargetLanguage, &t.OriginalText, &t.TranslatedText, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
