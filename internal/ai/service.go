package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/uniapp-ecommerce/internal/product"
	"github.com/wichananm65/uniapp-ecommerce/internal/review"
)

const smartSearchLimit = 10

type ProductFinder interface {
	Find(ctx context.Context, f product.ListFilter) ([]product.Product, error)
}

type ReviewStats interface {
	Stats(ctx context.Context, productID int) (review.Stats, error)
}

// SearchHit is the compact product shape returned by the smart search.
type SearchHit struct {
	ID    int             `json:"id"`
	Name  string          `json:"nom"`
	Slug  string          `json:"slug"`
	Price decimal.Decimal `json:"prix"`
}

type TranslateRequest struct {
	Text   string
	Target string
	Source string
}

type TranslateResult struct {
	Status         string `json:"status"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// Service hosts the assistant helpers. None of them run real inference.
type Service struct {
	translations TranslationRepository
	products     ProductFinder
	reviews      ReviewStats
	pick         func(n int) int
}

func NewService(translations TranslationRepository, products ProductFinder, reviews ReviewStats) *Service {
	return &Service{translations: translations, products: products, reviews: reviews, pick: rand.Intn}
}

func (s *Service) Ask(question string) string {
	return answer(question, s.pick)
}

// Translate returns the mock translation and records it when userID is set.
func (s *Service) Translate(ctx context.Context, userID int, req TranslateRequest) (TranslateResult, error) {
	if req.Target == "" {
		req.Target = "en"
	}
	if req.Source == "" {
		req.Source = "auto"
	}
	out := TranslateResult{
		Status:         "success",
		OriginalText:   req.Text,
		TranslatedText: translate(req.Text, req.Target),
		SourceLanguage: req.Source,
		TargetLanguage: req.Target,
	}
	if userID > 0 {
		if _, err := s.translations.Create(ctx, Translation{
			UserID:         userID,
			SourceLanguage: req.Source,
			TargetLanguage: req.Target,
			OriginalText:   req.Text,
			TranslatedText: out.TranslatedText,
		}); err != nil {
			return TranslateResult{}, err
		}
		log.Debug().Int("user_id", userID).Str("target", req.Target).Msg("translation recorded")
	}
	return out, nil
}

func (s *Service) Translations(ctx context.Context, userID int) ([]Translation, error) {
	return s.translations.ListByUser(ctx, userID)
}

func (s *Service) Sentiment(text string) Sentiment {
	return analyzeSentiment(text)
}

func (s *Service) Describe(name string) string {
	return generateDescription(name)
}

func (s *Service) ImageSearch() []ProductRef {
	return searchByImage()
}

func (s *Service) Filter() []ProductRef {
	return filterProducts(filterCandidates)
}

// SmartSearch delegates to the catalog text search.
func (s *Service) SmartSearch(ctx context.Context, query string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchHit{}, nil
	}
	found, err := s.products.Find(ctx, product.ListFilter{Query: query, Limit: smartSearchLimit})
	if err != nil {
		return nil, err
	}
	out := make([]SearchHit, 0, len(found))
	for _, p := range found {
		out = append(out, SearchHit{ID: p.ID, Name: p.Name, Slug: p.Slug, Price: p.Price})
	}
	return out, nil
}

// ReviewSummary writes one French sentence from the approved review stats.
func (s *Service) ReviewSummary(ctx context.Context, productID int) (string, error) {
	stats, err := s.reviews.Stats(ctx, productID)
	if err != nil {
		return "", err
	}
	if stats.Total == 0 {
		return "Aucun avis n'a encore été publié pour ce produit.", nil
	}
	var tone string
	switch {
	case stats.Average >= 4:
		tone = "La grande majorité des acheteurs en sont très satisfaits."
	case stats.Average >= 3:
		tone = "Les avis sont globalement positifs."
	default:
		tone = "Les avis sont mitigés, plusieurs clients signalent des points à améliorer."
	}
	return fmt.Sprintf("Note moyenne de %.1f/5 sur %d avis. %s", stats.Average, stats.Total, tone), nil
}
