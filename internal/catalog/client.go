// Package catalog предоставляет клиент внешней системы каталога товаров.
// Каталог доступен ядру заказов только на чтение.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mmeshcher/storefront-system/internal/model"
	"github.com/mmeshcher/storefront-system/internal/money"
)

// ErrProductNotFound возвращается, если товар отсутствует в каталоге.
var ErrProductNotFound = errors.New("product not found")

// Client инкапсулирует HTTP-взаимодействие с системой каталога.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// productPayload описывает товар в ответе системы каталога.
// Цена передаётся в основных единицах валюты и переводится в минорные
// на границе клиента.
type productPayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageUrl"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	InStock     bool     `json:"inStock"`
}

func (p productPayload) toModel() *model.Product {
	return &model.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  money.ToCents(p.Price),
		Category:    model.Category(p.Category),
		ImageURL:    p.ImageURL,
		Sizes:       p.Sizes,
		Colors:      p.Colors,
		InStock:     p.InStock,
	}
}

// NewClient создаёт HTTP-клиент каталога по указанному адресу.
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc.StandardClient(),
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("catalog client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	return resp, nil
}

// GetProduct запрашивает товар каталога по идентификатору.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	resp, err := c.get(ctx, "/api/products/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return payload.toModel(), nil
}

// ListProducts возвращает товары каталога, при необходимости отфильтрованные по категории.
func (c *Client) ListProducts(ctx context.Context, category model.Category) ([]model.Product, error) {
	path := "/api/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(string(category))
	}

	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payloads []productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	products := make([]model.Product, 0, len(payloads))
	for _, p := range payloads {
		products = append(products, *p.toModel())
	}

	return products, nil
}
