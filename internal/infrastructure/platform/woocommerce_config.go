package platform

import (
	"errors"
	"strings"
)

// ErrWooCommerceInvalidConfig indicates missing or inconsistent WooCommerce settings
var ErrWooCommerceInvalidConfig = errors.New("woocommerce: invalid configuration")

// WooCommerceConfig holds WooCommerce REST API connection settings
type WooCommerceConfig struct {
	// BaseURL is the root of the WordPress site, e.g. "https://shop.example.com"
	BaseURL string
	// ConsumerKey and ConsumerSecret authenticate REST API requests
	ConsumerKey    string
	ConsumerSecret string
	// Currency is the store's listing currency
	Currency string
	// TimeoutSeconds bounds every request to the API
	TimeoutSeconds int
}

// Validate validates the configuration
func (c *WooCommerceConfig) Validate() error {
	if c.BaseURL == "" || c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return ErrWooCommerceInvalidConfig
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Currency == "" {
		c.Currency = "EUR"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
