package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopbridge/backend/internal/domain/reconcile"
)

// ShopifyAdapter implements the platform read and write ports for the
// Shopify Admin API. It is intentionally thin: no retries, no batching, no
// rate limiting here — those concerns belong to the batch executor and the
// shared retry helper composed around it.
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client
	mappings   reconcile.MappingCatalog
}

// NewShopifyAdapter creates a Shopify adapter with the given configuration
func NewShopifyAdapter(config *ShopifyConfig, mappings reconcile.MappingCatalog) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		mappings: mappings,
	}, nil
}

// Platform returns the platform code this adapter handles
func (a *ShopifyAdapter) Platform() reconcile.PlatformCode {
	return reconcile.PlatformCodeShopify
}

// ---------------------------------------------------------------------------
// Read Operations
// ---------------------------------------------------------------------------

// GetQuantity reads the current inventory quantity for the resource
func (a *ShopifyAdapter) GetQuantity(ctx context.Context, key reconcile.ResourceKey) (reconcile.Observation, error) {
	variant, err := a.getVariant(ctx, key)
	if err != nil {
		return reconcile.Observation{}, err
	}

	return reconcile.Observation{
		ResourceKey: key,
		Platform:    reconcile.PlatformCodeShopify,
		Kind:        reconcile.ValueKindQuantity,
		Value:       decimal.NewFromInt(variant.InventoryQuantity),
		ObservedAt:  time.Now(),
	}, nil
}

// GetPrice reads the current listing price for the resource
func (a *ShopifyAdapter) GetPrice(ctx context.Context, key reconcile.ResourceKey) (reconcile.Observation, error) {
	variant, err := a.getVariant(ctx, key)
	if err != nil {
		return reconcile.Observation{}, err
	}

	price, err := decimal.NewFromString(variant.Price)
	if err != nil {
		return reconcile.Observation{}, fmt.Errorf("%w: unparseable price %q", reconcile.ErrPlatformInvalidResponse, variant.Price)
	}

	return reconcile.Observation{
		ResourceKey: key,
		Platform:    reconcile.PlatformCodeShopify,
		Kind:        reconcile.ValueKindPrice,
		Value:       price,
		Currency:    a.config.Currency,
		ObservedAt:  time.Now(),
	}, nil
}

// ---------------------------------------------------------------------------
// Write Operations
// ---------------------------------------------------------------------------

// ApplyQuantity sets the available quantity at the configured location
func (a *ShopifyAdapter) ApplyQuantity(ctx context.Context, key reconcile.ResourceKey, value decimal.Decimal) error {
	mapping, err := a.mapping(ctx, key)
	if err != nil {
		return err
	}

	inventoryItemID, err := strconv.ParseInt(mapping.InventoryItemID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid inventory item ID %q for %s", reconcile.ErrPlatformRequestFailed, mapping.InventoryItemID, key)
	}

	body := ShopifyInventoryLevelSetRequest{
		LocationID:      a.config.LocationID,
		InventoryItemID: inventoryItemID,
		Available:       value.IntPart(),
	}
	return a.doRequest(ctx, http.MethodPost, "inventory_levels/set.json", body, nil)
}

// ApplyPrice sets the variant price
func (a *ShopifyAdapter) ApplyPrice(ctx context.Context, key reconcile.ResourceKey, value decimal.Decimal) error {
	mapping, err := a.mapping(ctx, key)
	if err != nil {
		return err
	}

	variantID, err := strconv.ParseInt(mapping.PlatformVariantID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid variant ID %q for %s", reconcile.ErrPlatformRequestFailed, mapping.PlatformVariantID, key)
	}

	body := ShopifyVariantUpdateRequest{
		Variant: ShopifyVariantUpdate{
			ID:    variantID,
			Price: value.StringFixed(2),
		},
	}
	return a.doRequest(ctx, http.MethodPut, fmt.Sprintf("variants/%d.json", variantID), body, nil)
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// mapping resolves the catalog entry for key on this platform
func (a *ShopifyAdapter) mapping(ctx context.Context, key reconcile.ResourceKey) (*reconcile.ProductMapping, error) {
	mapping, err := a.mappings.Find(ctx, key, reconcile.PlatformCodeShopify)
	if err != nil {
		return nil, fmt.Errorf("shopify: resolving mapping for %s: %w", key, err)
	}
	return mapping, nil
}

// getVariant fetches the variant the resource key maps to
func (a *ShopifyAdapter) getVariant(ctx context.Context, key reconcile.ResourceKey) (*ShopifyVariant, error) {
	mapping, err := a.mapping(ctx, key)
	if err != nil {
		return nil, err
	}

	var resp ShopifyVariantResponse
	path := fmt.Sprintf("variants/%s.json", mapping.PlatformVariantID)
	if err := a.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Variant == nil {
		return nil, fmt.Errorf("%w: empty variant payload", reconcile.ErrPlatformInvalidResponse)
	}
	return resp.Variant, nil
}

// doRequest performs one HTTP request against the Admin API
func (a *ShopifyAdapter) doRequest(ctx context.Context, method, path string, body, out any) error {
	url := fmt.Sprintf("%s/admin/api/%s/%s", a.config.BaseURL, a.config.APIVersion, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("shopify: encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("shopify: creating request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)
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
		return fmt.Errorf("shopify: reading response: %w", err)
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

// Ensure ShopifyAdapter implements the platform ports
var (
	_ reconcile.PlatformReader = (*ShopifyAdapter)(nil)
	_ reconcile.PlatformWriter = (*ShopifyAdapter)(nil)
)
