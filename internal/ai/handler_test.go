package ai

import (
	"context"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/uniapp-ecommerce/internal/product"
	"github.com/wichananm65/uniapp-ecommerce/internal/review"
)

type fixedStats map[int]review.Stats

func (f fixedStats) Stats(_ context.Context, productID int) (review.Stats, error) {
	return f[productID], nil
}

func newTestApp(t *testing.T) (*fiber.App, *InMemoryTranslationRepository) {
	t.Helper()
	catalog := product.NewService(product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Lampe de bureau", Slug: "lampe-de-bureau", Price: decimal.RequireFromString("24.90"), Quantity: 3, InStock: true, IsActive: true},
		{ID: 2, Name: "Lampe torche", Slug: "lampe-torche", Price: decimal.RequireFromString("9.50"), Quantity: 8, InStock: true, IsActive: true},
		{ID: 3, Name: "Chaise", Slug: "chaise", Price: decimal.RequireFromString("45"), Quantity: 1, InStock: true, IsActive: true},
	}), nil, product.Options{SiteName: "UNIAPP", PageSize: 12})
	translations := NewInMemoryTranslationRepository()
	stats := fixedStats{
		5: {Average: 4.5, Total: 2},
		6: {Average: 2.0, Total: 3},
	}
	svc := NewService(translations, catalog, stats)
	svc.pick = func(int) int { return 0 }
	h := NewHandler(svc)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id}})
			}
		}
		return c.Next()
	})
	h.RegisterPublicRoutes(app)
	h.RegisterProtectedRoutes(app)
	return app, translations
}

func call(t *testing.T, app *fiber.App, method, path, contentType, body string, headers ...string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestChatbotHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := call(t, app, "GET", "/api/v1/ai/chatbot", "", "")
	assert.Equal(t, fiber.StatusMethodNotAllowed, status)
	assert.Contains(t, body, "Méthode non autorisée")

	status, body = call(t, app, "POST", "/api/v1/ai/chatbot", "text/plain", `{"question":"bonjour"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "Content-Type doit être application/json")

	status, body = call(t, app, "POST", "/api/v1/ai/chatbot", "application/json", `{"question":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "Corps de requête JSON invalide")

	status, body = call(t, app, "POST", "/api/v1/ai/chatbot", "application/json", `{"question":"  "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, `Le champ \"question\" est requis`)

	status, body = call(t, app, "POST", "/api/v1/ai/chatbot", "application/json; charset=utf-8", `{"question":"Bonjour"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"answer":"Bonjour ! Comment puis-je vous aider aujourd'hui ?","status":"success"}`, body)
}

func TestTranslateRecordsHistoryForSignedInUsers(t *testing.T) {
	app, repo := newTestApp(t)

	status, body := call(t, app, "GET", "/api/v1/ai/translate?lang=de", "", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "Le texte à traduire est requis")

	status, body = call(t, app, "GET", "/api/v1/ai/translate?text=Bonjour", "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"translatedText":"[Traduction en] Bonjour"`)
	assert.Contains(t, body, `"sourceLanguage":"auto"`)

	status, body = call(t, app, "POST", "/api/v1/ai/translate", "application/json",
		`{"text":"Merci","target_lang":"es","source_lang":"fr"}`, "X-User-ID", "42")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"translatedText":"[Traduction es] Merci"`)

	status, _ = call(t, app, "POST", "/api/v1/ai/translate", "application/json", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = call(t, app, "DELETE", "/api/v1/ai/translate", "", "")
	assert.Equal(t, fiber.StatusMethodNotAllowed, status)

	list, err := repo.ListByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fr", list[0].SourceLanguage)

	status, body = call(t, app, "GET", "/api/v1/ai/translations", "", "", "X-User-ID", "42")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"originalText":"Merci"`)

	status, _ = call(t, app, "GET", "/api/v1/ai/translations", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestSmartSearchAndStubs(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := call(t, app, "GET", "/api/v1/ai/smartsearch?query=lampe", "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"nom":"Lampe de bureau"`)
	assert.Contains(t, body, `"slug":"lampe-torche"`)
	assert.NotContains(t, body, "Chaise")

	_, body = call(t, app, "GET", "/api/v1/ai/smartsearch", "", "")
	assert.JSONEq(t, `{"results":[]}`, body)

	_, body = call(t, app, "GET", "/api/v1/ai/sentiment?text=super+produit", "", "")
	assert.Contains(t, body, `"sentiment":"positif"`)

	_, body = call(t, app, "POST", "/api/v1/ai/image-search", "", "")
	assert.Contains(t, body, "Produit visuel 2")

	_, body = call(t, app, "GET", "/api/v1/ai/filtering", "", "")
	assert.JSONEq(t, `{"filtered":[{"id":1,"nom":"Produit X"},{"id":2,"nom":"Produit Y"}]}`, body)

	_, body = call(t, app, "GET", "/api/v1/ai/descgen", "", "")
	assert.Contains(t, body, "Découvrez Produit")
}

func TestReviewSummary(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := call(t, app, "POST", "/api/v1/ai/review-summary?product_id=5", "", "")
	assert.Equal(t, fiber.StatusMethodNotAllowed, status)

	status, _ = call(t, app, "GET", "/api/v1/ai/review-summary", "", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	_, body := call(t, app, "GET", "/api/v1/ai/review-summary?product_id=5", "", "")
	assert.Contains(t, body, "Note moyenne de 4.5/5 sur 2 avis.")
	assert.Contains(t, body, "très satisfaits")

	_, body = call(t, app, "GET", "/api/v1/ai/review-summary?product_id=6", "", "")
	assert.Contains(t, body, "mitigés")

	_, body = call(t, app, "GET", "/api/v1/ai/review-summary?product_id=9", "", "")
	assert.Contains(t, body, "Aucun avis")
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Use("/api/v1/ai", RateLimit(2, time.Minute))
	app.Get("/api/v1/ai/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	for i := 0; i < 2; i++ {
		status, _ := call(t, app, "GET", "/api/v1/ai/ping", "", "")
		assert.Equal(t, fiber.StatusOK, status)
	}
	status, body := call(t, app, "GET", "/api/v1/ai/ping", "", "")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Contains(t, body, "Trop de requêtes")
}
