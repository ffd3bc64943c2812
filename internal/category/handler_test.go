package category

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func makeApp(seed []Category) *fiber.App {
	h := NewHandler(NewService(NewInMemoryRepository(seed)))
	app := fiber.New()
	h.RegisterPublicRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/v1/admin"))
	return app
}

func TestCategories_ActiveOnlyOrderedByName(t *testing.T) {
	app := makeApp([]Category{
		{ID: 1, Name: "Maison", Slug: "maison", IsActive: true},
		{ID: 2, Name: "Archives", Slug: "archives", IsActive: false},
		{ID: 3, Name: "Électronique", Slug: "electronique", IsActive: true},
		{ID: 4, Name: "Livres", Slug: "livres", IsActive: true},
	})

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/categories", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	body := string(b)
	if strings.Contains(body, "archives") {
		t.Fatalf("inactive category must be hidden: %s", body)
	}
	if strings.Index(body, "Livres") > strings.Index(body, "Maison") {
		t.Fatalf("expected name ordering: %s", body)
	}

	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/categories/archives", nil))
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for inactive slug, got %d", res.StatusCode)
	}
	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/categories/livres", nil))
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for active slug, got %d", res.StatusCode)
	}
}

func TestAdminCreate_GeneratesSlugAndRejectsDuplicates(t *testing.T) {
	app := makeApp(nil)

	req := httptest.NewRequest("POST", "/api/v1/admin/categories", strings.NewReader(`{"name":"Jeux Vidéo","description":"Consoles"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"slug":"jeux-video"`) || !strings.Contains(string(b), `"isActive":true`) {
		t.Fatalf("unexpected body %s", string(b))
	}

	req = httptest.NewRequest("POST", "/api/v1/admin/categories", strings.NewReader(`{"name":"jeux vidéo"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", res.StatusCode)
	}

	req = httptest.NewRequest("POST", "/api/v1/admin/categories", strings.NewReader(`{"description":"sans nom"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without name, got %d", res.StatusCode)
	}
}

func TestAdminUpdateAndDelete(t *testing.T) {
	app := makeApp([]Category{{ID: 1, Name: "Maison", Slug: "maison", IsActive: true}})

	req := httptest.NewRequest("PUT", "/api/v1/admin/categories/1", strings.NewReader(`{"name":"Maison & Jardin","isActive":false}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"slug":"maison"`) || !strings.Contains(string(b), `"isActive":false`) {
		t.Fatalf("rename must keep the slug, got %s", string(b))
	}

	req = httptest.NewRequest("PUT", "/api/v1/admin/categories/1", strings.NewReader(`{"name":"Maison & Jardin","slug":"Maison Jardin"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	b, _ = io.ReadAll(res.Body)
	if res.StatusCode != fiber.StatusOK || !strings.Contains(string(b), `"slug":"maison-jardin"`) {
		t.Fatalf("explicit slug not applied: %d %s", res.StatusCode, string(b))
	}

	req = httptest.NewRequest("PUT", "/api/v1/admin/categories/99", strings.NewReader(`{"name":"Absente"}`))
	req.Header.Set("Content-Type", "application/json")
	res, _ = app.Test(req)
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", res.StatusCode)
	}

	res, _ = app.Test(httptest.NewRequest("DELETE", "/api/v1/admin/categories/1", nil))
	if res.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.StatusCode)
	}
	res, _ = app.Test(httptest.NewRequest("DELETE", "/api/v1/admin/categories/1", nil))
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", res.StatusCode)
	}
}
