package domain

import (
	"errors"
)

var (
	MessageSuccessListStores       = "stores retrieved successfully"
	MessageSuccessListProducts     = "products retrieved successfully"
	MessageSuccessGetProductPrices = "product prices retrieved successfully"
	MessageSuccessUpdateProduct    = "product updated successfully"
	MessageSuccessUpdateStore      = "store updated successfully"

	MessageFailedListStores       = "failed to retrieve stores"
	MessageFailedListProducts     = "failed to retrieve products"
	MessageFailedGetProductPrices = "failed to retrieve product prices"
	MessageFailedUpdateProduct    = "failed to update product"
	MessageFailedUpdateStore      = "failed to update store"

	ErrProductNotFound  = errors.New("product not found")
	ErrStoreNotFound    = errors.New("store not found")
	ErrEmptyProductName = errors.New("product name is empty after normalization")
)

type (
	StoreResponse struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		LegalNames []string `json:"legal_names"`
		Aliases    []string `json:"aliases"`
		City       *string  `json:"city,omitempty"`
		CreatedAt  string   `json:"created_at"`
	}

	ProductResponse struct {
		ID        string  `json:"id"`
		NameRaw   string  `json:"name_raw"`
		NameNorm  string  `json:"name_norm"`
		UnitBase  string  `json:"unit_base"`
		Category  *string `json:"category,omitempty"`
		CreatedAt string  `json:"created_at"`
	}

	ProductPriceResponse struct {
		ID         string  `json:"id"`
		ProductID  string  `json:"product_id"`
		StoreID    string  `json:"store_id"`
		Date       string  `json:"date"`
		Qty        float64 `json:"qty"`
		Unit       string  `json:"unit"`
		TotalPrice int64   `json:"total_price"`
		UnitPrice  float64 `json:"unit_price"`
		ReceiptID  *string `json:"receipt_id,omitempty"`
	}

	UpdateProductRequest struct {
		NameRaw  *string `json:"name_raw" validate:"omitempty,min=1"`
		Category *string `json:"category"`
		UnitBase *string `json:"unit_base" validate:"omitempty,oneof=kg g l ml unit"`
	}

	UpdateStoreAliasesRequest struct {
		Aliases    []string `json:"aliases" validate:"omitempty,dive,min=1"`
		LegalNames []string `json:"legal_names" validate:"omitempty,dive,min=1"`
	}
)
