package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmeshcher/storefront-system/internal/model"
)

func TestGetProduct_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/p1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "p1",
			"name":     "Classic Tee",
			"price":    19.99,
			"category": "men",
			"sizes":    []string{"S", "M", "L"},
			"colors":   []string{"black"},
			"inStock":  true,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	product, err := c.GetProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetProduct error: %v", err)
	}

	if product.ID != "p1" {
		t.Fatalf("product id = %q, want p1", product.ID)
	}
	if product.PriceCents != 1999 {
		t.Fatalf("price = %d cents, want 1999", product.PriceCents)
	}
	if product.Category != model.CategoryMen {
		t.Fatalf("category = %q, want men", product.Category)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	_, err := c.GetProduct(context.Background(), "missing")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestListProducts_CategoryFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "women" {
			t.Fatalf("category query = %q, want women", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "p2", "name": "Summer Dress", "price": 49.50, "category": "women", "inStock": true},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	products, err := c.ListProducts(context.Background(), model.CategoryWomen)
	if err != nil {
		t.Fatalf("ListProducts error: %v", err)
	}

	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}
	if products[0].PriceCents != 4950 {
		t.Fatalf("price = %d cents, want 4950", products[0].PriceCents)
	}
}

func TestGetProduct_NotConfigured(t *testing.T) {
	c := &Client{}

	if _, err := c.GetProduct(context.Background(), "p1"); err == nil {
		t.Fatalf("expected error for unconfigured client")
	}
}
