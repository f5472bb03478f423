package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

// WooCommerceProduct is a product as returned by the WooCommerce REST API
type WooCommerceProduct struct {
	ID            int64  `json:"id"`
	SKU           string `json:"sku"`
	RegularPrice  string `json:"regular_price"`
	Price         string `json:"price"`
	StockQuantity *int64 `json:"stock_quantity"`
	ManageStock   bool   `json:"manage_stock"`
}

// wooProductUpdate carries the mutable product fields we write
type wooProductUpdate struct {
	RegularPrice  string `json:"regular_price,omitempty"`
	StockQuantity *int64 `json:"stock_quantity,omitempty"`
}

// WooCommerceAdapter implements the platform read and write ports for the
// WooCommerce REST API. Like the Shopify adapter it stays thin and leaves
// batching, retries and pacing to the executor wrapped around it.
type WooCommerceAdapter struct {
	config     *WooCommerceConfig
	httpClient *http.Client
	mappings   reconcile.MappingCatalog
}

// NewWooCommerceAdapter creates a WooCommerce adapter with the given configuration
func NewWooCommerceAdapter(config *WooCommerceConfig, mappings reconcile.MappingCatalog) (*WooCommerceAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &WooCommerceAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		mappings: mappings,
	}, nil
}

// Platform returns the platform code this adapter handles
func (a *WooCommerceAdapter) Platform() reconcile.PlatformCode {
	return reconcile.PlatformCodeWooCommerce
}

// ---------------------------------------------------------------------------
// Read Operations
// ---------------------------------------------------------------------------

// GetQuantity reads the current stock quantity for the resource
func (a *WooCommerceAdapter) GetQuantity(ctx context.Context, key reconcile.ResourceKey) (reconcile.Observation, error) {
	product, err := a.getProduct(ctx, key)
	if err != nil {
		return reconcile.Observation{}, err
	}

	var quantity int64
	if product.StockQuantity != nil {
		quantity = *product.StockQuantity
	}

	return reconcile.Observation{
		ResourceKey: key,
		Platform:    reconcile.PlatformCodeWooCommerce,
		Kind:        reconcile.ValueKindQuantity,
		Value:       decimal.NewFromInt(quantity),
		ObservedAt:  time.Now(),
	}, nil
}

// GetPrice reads the current regular price for the resource
func (a *WooCommerceAdapter) GetPrice(ctx context.Context, key reconcile.ResourceKey) (reconcile.Observation, error) {
	product, err := a.getProduct(ctx, key)
	if err != nil {
		return reconcile.Observation{}, err
	}

	raw := product.RegularPrice
	if raw == "" {
		raw = product.Price
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return reconcile.Observation{}, fmt.Errorf("%w: unparseable price %q", reconcile.ErrPlatformInvalidResponse, raw)
	}

	return reconcile.Observation{
		ResourceKey: key,
		Platform:    reconcile.PlatformCodeWooCommerce,
		Kind:        reconcile.ValueKindPrice,
		Value:       price,
		Currency:    a.config.Currency,
		ObservedAt:  time.Now(),
	}, nil
}

// ---------------------------------------------------------------------------
// Write Operations
// ---------------------------------------------------------------------------

// ApplyQuantity sets the stock quantity for the resource
func (a *WooCommerceAdapter) ApplyQuantity(ctx context.Context, key reconcile.ResourceKey, value decimal.Decimal) error {
	mapping, err := a.mapping(ctx, key)
	if err != nil {
		return err
	}

	quantity := value.IntPart()
	body := wooProductUpdate{StockQuantity: &quantity}
	path := fmt.Sprintf("products/%s", mapping.PlatformProductID)
	return a.doRequest(ctx, http.MethodPut, path, body, nil)
}

// ApplyPrice sets the regular price for the resource
func (a *WooCommerceAdapter) ApplyPrice(ctx context.Context, key reconcile.ResourceKey, value decimal.Decimal) error {
	mapping, err := a.mapping(ctx, key)
	if err != nil {
		return err
	}

	body := wooProductUpdate{RegularPrice: value.String()}
	path := fmt.Sprintf("products/%s", mapping.PlatformProductID)
	return a.doRequest(ctx, http.MethodPut, path, body, nil)
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// mapping resolves the catalog entry for key on this platform
func (a *WooCommerceAdapter) mapping(ctx context.Context, key reconcile.ResourceKey) (*reconcile.ProductMapping, error) {
	mapping, err := a.mappings.Find(ctx, key, reconcile.PlatformCodeWooCommerce)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: resolving mapping for %s: %w", key, err)
	}
	return mapping, nil
}

// getProduct fetches the product the resource key maps to
func (a *WooCommerceAdapter) getProduct(ctx context.Context, key reconcile.ResourceKey) (*WooCommerceProduct, error) {
	mapping, err := a.mapping(ctx, key)
	if err != nil {
		return nil, err
	}

	var product WooCommerceProduct
	path := fmt.Sprintf("products/%s", mapping.PlatformProductID)
	if err := a.doRequest(ctx, http.MethodGet, path, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// doRequest performs one HTTP request against the WooCommerce REST API
func (a *WooCommerceAdapter) doRequest(ctx context.Context, method, path string, body, out any) error {
	url := fmt.Sprintf("%s/wp-json/wc/v3/%s", a.config.BaseURL, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("woocommerce: encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("woocommerce: creating request: %w", err)
	}
	req.SetBasicAuth(a.config.ConsumerKey, a.config.ConsumerSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", reconcile.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("woocommerce: reading response: %w", err)
	}

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("%w: %v", reconcile.ErrPlatformInvalidResponse, err)
		}
	}
	return nil
}

// Ensure WooCommerceAdapter implements the platform ports
var (
	_ reconcile.PlatformReader = (*WooCommerceAdapter)(nil)
	_ reconcile.PlatformWriter = (*WooCommerceAdapter)(nil)
)
