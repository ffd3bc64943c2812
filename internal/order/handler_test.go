package order

import (
	"context"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/uniapp-ecommerce/internal/cart"
	"github.com/wichananm65/uniapp-ecommerce/internal/product"
	"github.com/wichananm65/uniapp-ecommerce/internal/user"
)

type fixture struct {
	app      *fiber.App
	carts    *cart.Service
	products *product.InMemoryRepository
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Ordinateur", Slug: "ordinateur", Price: decimal.RequireFromString("899"), Quantity: 2, InStock: true, IsActive: true},
		{ID: 2, Name: "Livre", Slug: "livre", Price: decimal.RequireFromString("9.90"), Quantity: 10, InStock: true, IsActive: true},
	})
	cartRepo := cart.NewInMemoryRepository()
	carts := cart.NewService(cartRepo, products, nil)
	svc := NewService(NewInMemoryRepository(nil, cartRepo, products), nil, 10)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id, "role": c.Get("X-User-Role")}})
			}
		}
		return c.Next()
	})
	h := NewHandler(svc)
	h.RegisterProtectedRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/v1/admin", user.RequireAdmin))
	return &fixture{app: app, carts: carts, products: products, service: svc}
}

func (f *fixture) do(t *testing.T, method, path, body, userID string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if userID == "1" {
		req.Header.Set("X-User-Role", user.RoleAdmin)
	}
	res, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

const shipping = `{"address":"1 rue de Paris","postalCode":"75001","city":"Paris","country":"France"}`

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.carts.Add(ctx, 42, 1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.carts.Add(ctx, 42, 2, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	status, body := f.do(t, "POST", "/api/v1/orders", shipping, "42")
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	for _, want := range []string{"Votre commande a été passée avec succès !", `"total":"1827.7"`, `"paid":true`, `"status":"en_cours"`, `"cancellable":true`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}

	p, _ := f.products.GetByID(ctx, 1)
	if p.Quantity != 0 || p.InStock {
		t.Fatalf("stock not decremented: %+v", p)
	}
	p, _ = f.products.GetByID(ctx, 2)
	if p.Quantity != 7 || !p.InStock {
		t.Fatalf("unexpected stock for book: %+v", p)
	}
	if n, _ := f.carts.Count(ctx, 42); n != 0 {
		t.Fatalf("cart should be cleared, has %d", n)
	}
	if ok, _ := f.service.HasPurchased(ctx, 42, 2); !ok {
		t.Fatalf("expected purchase to be recorded")
	}
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, "POST", "/api/v1/orders", `{"address":"1 rue de Paris","city":"Paris"}`, "42")
	if status != fiber.StatusBadRequest || !strings.Contains(body, "Veuillez remplir tous les champs obligatoires.") {
		t.Fatalf("unexpected response %d: %s", status, body)
	}

	status, body = f.do(t, "POST", "/api/v1/orders", shipping, "42")
	if status != fiber.StatusBadRequest || !strings.Contains(body, "Votre panier est vide.") {
		t.Fatalf("unexpected response %d: %s", status, body)
	}

	status, _ = f.do(t, "POST", "/api/v1/orders", shipping, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestPlaceOrder_ShortageWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.carts.Add(ctx, 42, 1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.carts.Add(ctx, 42, 2, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	// someone else bought the last computers in the meantime
	if err := f.products.DecrementStock(1, 1); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	status, body := f.do(t, "POST", "/api/v1/orders", shipping, "42")
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", status, body)
	}
	if !strings.Contains(body, `- Ordinateur: 2 demandés, 1 disponibles`) || !strings.Contains(body, `"shortages"`) {
		t.Fatalf("unexpected shortage body %s", body)
	}

	p, _ := f.products.GetByID(ctx, 2)
	if p.Quantity != 10 {
		t.Fatalf("stock must be untouched, got %d", p.Quantity)
	}
	if n, _ := f.carts.Count(ctx, 42); n != 3 {
		t.Fatalf("cart must be kept, has %d", n)
	}
	if h, _ := f.service.History(ctx, 42, 1); h.OrderCount != 0 {
		t.Fatalf("no order expected, got %d", h.OrderCount)
	}
}

func TestOrderHistoryDetailAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := f.carts.Add(ctx, 42, 2, 1); err != nil {
			t.Fatalf("add: %v", err)
		}
		if _, err := f.service.Place(ctx, 42, Shipping{Address: "a", PostalCode: "b", City: "c", Country: "d"}); err != nil {
			t.Fatalf("place: %v", err)
		}
	}

	status, body := f.do(t, "GET", "/api/v1/orders?page=9", "", "42")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(body, `"orderCount":2`) || !strings.Contains(body, `"totalSpent":"19.8"`) || !strings.Contains(body, `"page":1`) {
		t.Fatalf("unexpected history %s", body)
	}

	status, _ = f.do(t, "GET", "/api/v1/orders/1", "", "7")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for another user's order, got %d", status)
	}

	status, body = f.do(t, "POST", "/api/v1/orders/1/cancel", "", "42")
	if status != fiber.StatusOK || !strings.Contains(body, "La commande #1 a été annulée avec succès.") {
		t.Fatalf("unexpected cancel %d: %s", status, body)
	}
	status, body = f.do(t, "POST", "/api/v1/orders/1/cancel", "", "42")
	if status != fiber.StatusBadRequest || !strings.Contains(body, "Cette commande ne peut pas être annulée.") {
		t.Fatalf("unexpected second cancel %d: %s", status, body)
	}
}

func TestAdminBulkTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.carts.Add(ctx, 42, 2, 1)
		if _, err := f.service.Place(ctx, 42, Shipping{Address: "a", PostalCode: "b", City: "c", Country: "d"}); err != nil {
			t.Fatalf("place: %v", err)
		}
	}

	status, _ := f.do(t, "POST", "/api/v1/admin/orders/deliver", `{"ids":[1]}`, "42")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for client, got %d", status)
	}

	_, body := f.do(t, "POST", "/api/v1/admin/orders/deliver", `{"ids":[1,2]}`, "1")
	if !strings.Contains(body, `"updated":2`) {
		t.Fatalf("unexpected deliver result %s", body)
	}
	// delivered orders stay delivered
	_, body = f.do(t, "POST", "/api/v1/admin/orders/cancel", `{"ids":[1,2,3]}`, "1")
	if !strings.Contains(body, `"updated":1`) {
		t.Fatalf("unexpected cancel result %s", body)
	}

	_, body = f.do(t, "GET", "/api/v1/admin/orders?status=livre", "", "1")
	if strings.Count(body, `"status":"livre"`) != 2 || strings.Contains(body, `"status":"annule"`) {
		t.Fatalf("unexpected filtered listing %s", body)
	}
	status, _ = f.do(t, "GET", "/api/v1/admin/orders?status=perdu", "", "1")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", status)
	}
}
