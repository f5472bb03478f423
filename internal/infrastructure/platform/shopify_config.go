package platform

import "errors"

// ErrShopifyInvalidConfig indicates missing or inconsistent Shopify settings
var ErrShopifyInvalidConfig = errors.New("shopify: invalid configuration")

// ShopifyConfig holds Shopify Admin API connection settings
type ShopifyConfig struct {
	// ShopDomain is the *.myshopify.com domain of the shop
	ShopDomain string
	// BaseURL overrides the API endpoint, defaulting to
	// https://<ShopDomain>. Useful for testing.
	BaseURL string
	// AccessToken is the Admin API access token
	AccessToken string
	// APIVersion is the Admin API version, e.g. "2024-01"
	APIVersion string
	// LocationID is the inventory location quantity writes apply to
	LocationID int64
	// Currency is the shop's listing currency
	Currency string
	// TimeoutSeconds bounds every request to the API
	TimeoutSeconds int
}

// Validate validates the configuration
func (c *ShopifyConfig) Validate() error {
	if c.ShopDomain == "" || c.AccessToken == "" {
		return ErrShopifyInvalidConfig
	}
	if c.APIVersion == "" {
		c.APIVersion = "2024-01"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://" + c.ShopDomain
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
