package platform

// ShopifyVariantResponse is the response envelope of the variant endpoint
type ShopifyVariantResponse struct {
	Variant *ShopifyVariant `json:"variant"`
}

// ShopifyVariant is a product variant as returned by the Admin API
type ShopifyVariant struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryItemID   int64  `json:"inventory_item_id"`
	InventoryQuantity int64  `json:"inventory_quantity"`
}

// ShopifyVariantUpdateRequest is the request envelope for variant updates
type ShopifyVariantUpdateRequest struct {
	Variant ShopifyVariantUpdate `json:"variant"`
}

// ShopifyVariantUpdate carries the mutable variant fields we write
type ShopifyVariantUpdate struct {
	ID    int64  `json:"id"`
	Price string `json:"price,omitempty"`
}

// ShopifyInventoryLevelSetRequest sets the available quantity at a location
type ShopifyInventoryLevelSetRequest struct {
	LocationID      int64 `json:"location_id"`
	InventoryItemID int64 `json:"inventory_item_id"`
	Available       int64 `json:"available"`
}

// ShopifyErrorResponse is the error envelope of the Admin API
type ShopifyErrorResponse struct {
	Errors any `json:"errors"`
}
