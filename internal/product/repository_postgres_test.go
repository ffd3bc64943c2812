package product

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var productRowColumns = []string{
	"id", "reference", "name", "slug", "description", "summary", "price", "promo_price",
	"in_stock", "quantity", "category_id", "category_name", "category_slug",
	"is_active", "is_new", "is_best_seller", "meta_title", "meta_description",
	"avg_rating", "main_image", "published_at", "created_at", "updated_at",
}

func TestPostgresList_BuildsFilterAndPaging(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p")).
		WithArgs("%prince%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))

	now := time.Now()
	rows := sqlmock.NewRows(productRowColumns).
		AddRow(3, "LIV-001", "Le Petit Prince", "le-petit-prince-liv-001", "", "Édition illustrée", "9.90", nil,
			true, 40, 2, "Livres", "livres", true, false, true, "Le Petit Prince", "", 4.5, "/img/prince.png", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("ILIKE $1")+".*"+regexp.QuoteMeta("ORDER BY p.price DESC, p.id LIMIT $2 OFFSET $3")).
		WithArgs("%prince%", 12, 12).
		WillReturnRows(rows)

	items, total, err := repo.List(context.Background(), ListFilter{Query: "prince", Sort: SortPriceDesc, Limit: 12, Offset: 12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 13 || len(items) != 1 {
		t.Fatalf("expected 13 total and 1 item, got %d/%d", total, len(items))
	}
	p := items[0]
	if p.CategoryID == nil || *p.CategoryID != 2 || p.PromoPrice.Valid || p.Price.String() != "9.9" || p.MainImage != "/img/prince.png" {
		t.Fatalf("unexpected scan result %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresList_SearchTreatsWildcardsLiterally(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p")).
		WithArgs(`%50\%\_off\_a\\b%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ILIKE $1")).
		WithArgs(`%50\%\_off\_a\\b%`).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	items, total, err := repo.List(context.Background(), ListFilter{Query: `50%_off_a\b`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected no match, got %d/%d", total, len(items))
	}

	mem := NewInMemoryRepository([]Product{{ID: 1, Name: "Lampe", Slug: "lampe", IsActive: true}})
	memItems, memTotal, err := mem.List(context.Background(), ListFilter{Query: "%"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memTotal != 0 || len(memItems) != 0 {
		t.Fatalf("in-memory search must treat %% literally, got %d", memTotal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetBySlug_LoadsImagesAndFeatures(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.slug = $1")).WithArgs("tel").
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(7, "TEL", "Téléphone", "tel", "", "", "499.00", "449.00", true, 1, nil, "", "", true, true, false, "", "", 0, "", now, now, now))
	mock.ExpectQuery("FROM product_images").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "url", "alt", "is_main", "position"}).AddRow(1, 7, "/a.png", "", true, 0))
	mock.ExpectQuery("FROM product_features").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "value", "position"}).AddRow(1, 7, "Écran", "6,1 pouces", 0))

	p, err := repo.GetBySlug(context.Background(), "tel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsOnSale() || len(p.Images) != 1 || len(p.Features) != 1 || p.CategoryID != nil {
		t.Fatalf("unexpected product %+v", p)
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.slug = $1")).WithArgs("absent").WillReturnRows(sqlmock.NewRows(productRowColumns))
	if _, err := repo.GetBySlug(context.Background(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresAddImage_FirstImageBecomesMain(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM product_images")).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO product_images").WithArgs(4, "/a.png", "", true, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec("UPDATE product_images SET is_main = FALSE").WithArgs(4, 11).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	img, err := repo.AddImage(context.Background(), 4, Image{URL: "/a.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !img.IsMain || img.ID != 11 {
		t.Fatalf("unexpected image %+v", img)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresAddFeature_UnknownProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO product_features").WillReturnError(&pgconn.PgError{Code: "23503"})
	if _, err := repo.AddFeature(context.Background(), 99, Feature{Name: "RAM", Value: "8 Go"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresListByIDs_Empty(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	items, err := NewPostgresRepository(db).ListByIDs(context.Background(), nil)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty result, got %v %v", items, err)
	}
}
