package cart

import (
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/uniapp-ecommerce/internal/product"
)

func makeAppWithCartHandler(cHandler *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id}
				c.Locals("user", &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	})
	cHandler.RegisterProtectedRoutes(app)
	return app
}

type countingRecorder struct{ added int }

func (r *countingRecorder) CartItemAdded() { r.added++ }

func catalog() *product.InMemoryRepository {
	return product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Ordinateur", Slug: "ordinateur", Price: decimal.RequireFromString("899"),
			PromoPrice: decimal.NullDecimal{Decimal: decimal.RequireFromString("799"), Valid: true}, Quantity: 5, IsActive: true},
		{ID: 2, Name: "Livre", Slug: "livre", Price: decimal.RequireFromString("9.90"), Quantity: 3, IsActive: true},
		{ID: 3, Name: "Retiré", Slug: "retire", Price: decimal.RequireFromString("10"), Quantity: 3, IsActive: false},
	})
}

func newTestApp() (*fiber.App, *countingRecorder) {
	rec := &countingRecorder{}
	svc := NewService(NewInMemoryRepository(), catalog(), rec)
	return makeAppWithCartHandler(NewHandler(svc)), rec
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "42")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestCart_RequiresAuthentication(t *testing.T) {
	app, _ := newTestApp()
	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/cart", nil))
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
}

func TestAddItem_UsesDisplayPriceAndStock(t *testing.T) {
	app, rec := newTestApp()

	status, body := call(t, app, "POST", "/api/v1/cart/items", `{"productId":1,"quantity":2}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	for _, want := range []string{`"success":true`, "Ordinateur a été ajouté à votre panier.", `"itemCount":2`, `"subtotal":"1598"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
	if rec.added != 1 {
		t.Fatalf("expected metric to be recorded once, got %d", rec.added)
	}

	status, body = call(t, app, "POST", "/api/v1/cart/items", `{"productId":1,"quantity":4}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(body, "Vous avez déjà 2 article(s) dans votre panier et il ne reste que 5 exemplaire(s) en stock.") {
		t.Fatalf("unexpected stock message %s", body)
	}

	status, body = call(t, app, "POST", "/api/v1/cart/items", `{"productId":2,"quantity":4}`)
	if status != fiber.StatusBadRequest || !strings.Contains(body, "Stock insuffisant. Il ne reste que 3 exemplaire(s) de ce produit.") {
		t.Fatalf("unexpected response %d: %s", status, body)
	}

	status, body = call(t, app, "POST", "/api/v1/cart/items", `{"productId":2,"quantity":0}`)
	if status != fiber.StatusBadRequest || !strings.Contains(body, "La quantité doit être supérieure à zéro.") {
		t.Fatalf("unexpected response %d: %s", status, body)
	}

	status, _ = call(t, app, "POST", "/api/v1/cart/items", `{"productId":3,"quantity":1}`)
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for inactive product, got %d", status)
	}
}

func TestCart_TotalsUpdateRemoveAndClear(t *testing.T) {
	app, _ := newTestApp()

	call(t, app, "POST", "/api/v1/cart/items", `{"productId":1,"quantity":1}`)
	call(t, app, "POST", "/api/v1/cart/items", `{"productId":2}`)

	status, body := call(t, app, "GET", "/api/v1/cart", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(body, `"total":"808.9"`) || !strings.Contains(body, `"itemCount":2`) || !strings.Contains(body, `"productName":"Livre"`) {
		t.Fatalf("unexpected cart %s", body)
	}

	// item 2 is the book line
	status, body = call(t, app, "PUT", "/api/v1/cart/items/2", `{"quantity":9}`)
	if status != fiber.StatusBadRequest || !strings.Contains(body, "Il ne reste que 3") {
		t.Fatalf("expected stock re-check, got %d: %s", status, body)
	}
	status, body = call(t, app, "PUT", "/api/v1/cart/items/2", `{"quantity":3}`)
	if status != fiber.StatusOK || !strings.Contains(body, "La quantité a été mise à jour.") {
		t.Fatalf("unexpected update %d: %s", status, body)
	}
	_, body = call(t, app, "GET", "/api/v1/cart/count", "")
	if !strings.Contains(body, `"count":4`) {
		t.Fatalf("unexpected count %s", body)
	}

	status, body = call(t, app, "PUT", "/api/v1/cart/items/2", `{"quantity":0}`)
	if status != fiber.StatusOK || !strings.Contains(body, "L'article a été retiré de votre panier.") {
		t.Fatalf("zero quantity should remove the line: %d %s", status, body)
	}

	status, body = call(t, app, "DELETE", "/api/v1/cart/items/1", "")
	if status != fiber.StatusOK || !strings.Contains(body, "Ordinateur a été retiré de votre panier.") {
		t.Fatalf("unexpected remove %d: %s", status, body)
	}
	status, _ = call(t, app, "DELETE", "/api/v1/cart/items/1", "")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 on second remove, got %d", status)
	}

	call(t, app, "POST", "/api/v1/cart/items", `{"productId":2,"quantity":2}`)
	status, _ = call(t, app, "DELETE", "/api/v1/cart", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	_, body = call(t, app, "GET", "/api/v1/cart/count", "")
	if !strings.Contains(body, `"count":0`) {
		t.Fatalf("cart should be empty: %s", body)
	}
}

func TestRemove_OtherUsersItem(t *testing.T) {
	app, _ := newTestApp()
	call(t, app, "POST", "/api/v1/cart/items", `{"productId":2,"quantity":1}`)

	req := httptest.NewRequest("DELETE", "/api/v1/cart/items/1", nil)
	req.Header.Set("X-User-ID", "7")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for another user's item, got %d", res.StatusCode)
	}
}
