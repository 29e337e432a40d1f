package domain

import (
	"errors"
	"mime/multipart"
)

var (
	MessageSuccessUploadReceipt  = "receipt uploaded successfully"
	MessageSuccessConfirmReceipt = "receipt confirmed successfully"
	MessageSuccessRejectReceipt  = "receipt rejected successfully"
	MessageSuccessManualReceipt  = "manual receipt created successfully"
	MessageSuccessGetReceipt     = "receipt retrieved successfully"
	MessageSuccessListReceipts   = "receipts retrieved successfully"
	MessageSuccessProcessJob     = "receipt extraction job completed"

	MessageFailedUploadReceipt  = "failed to upload receipt"
	MessageFailedConfirmReceipt = "failed to confirm receipt"
	MessageFailedRejectReceipt  = "failed to reject receipt"
	MessageFailedManualReceipt  = "failed to create manual receipt"
	MessageFailedGetReceipt     = "failed to retrieve receipt"
	MessageFailedListReceipts   = "failed to retrieve receipts"
	MessageFailedProcessJob     = "failed to run receipt extraction job"

	ErrReceiptNotFound       = errors.New("receipt not found")
	ErrInvalidReceiptStatus  = errors.New("receipt status must be 'extracted', 'needs_review', or 'confirmed'")
	ErrNoActiveAccount       = errors.New("no active account found for household")
	ErrInvalidReceiptTotal   = errors.New("receipt total must be a positive amount")
	ErrInvalidOccurredOnDate = errors.New("invalid occurred-on date")
)

type (
	UploadReceiptRequest struct {
		ReceiptImage *multipart.FileHeader `json:"receipt_image" form:"receipt_image" validate:"required"`
	}

	ReceiptUploadResponse struct {
		ReceiptID string              `json:"receipt_id"`
		Status    string              `json:"status"`
		ImageURL  string              `json:"image_url"`
		Merchant  *string             `json:"merchant,omitempty"`
		Total     *int64              `json:"total,omitempty"`
		Date      *string             `json:"date,omitempty"`
		Items     []ReceiptItemDetail `json:"items"`
	}

	ReceiptItemDetail struct {
		ID         string   `json:"id"`
		NameRaw    string   `json:"name_raw"`
		NameClean  *string  `json:"name_clean,omitempty"`
		NameBrand  *string  `json:"name_brand,omitempty"`
		Qty        *float64 `json:"qty,omitempty"`
		Unit       *string  `json:"unit,omitempty"`
		LineTotal  *int64   `json:"line_total,omitempty"`
		UnitPrice  *float64 `json:"unit_price,omitempty"`
		Confidence float64  `json:"confidence"`
		ProductID  *string  `json:"product_id,omitempty"`
	}

	ReceiptItemCorrection struct {
		ID        *string `json:"id" validate:"omitempty,uuid"`
		NameRaw   string  `json:"name_raw" validate:"required"`
		NameClean *string `json:"name_clean"`
		NameBrand *string `json:"name_brand"`
		Qty       float64 `json:"qty" validate:"gte=0"`
		UnitPrice float64 `json:"unit_price" validate:"gte=0"`
		LineTotal int64   `json:"line_total" validate:"gte=0"`
	}

	ReceiptConfirmRequest struct {
		StoreName  string                  `json:"store_name"`
		Date       string                  `json:"date" validate:"required"`
		Total      float64                 `json:"total" validate:"required"`
		CategoryID *string                 `json:"category_id" validate:"omitempty,uuid"`
		Items      []ReceiptItemCorrection `json:"items" validate:"omitempty,dive"`
	}

	ReceiptConfirmResponse struct {
		TransactionID   string `json:"transaction_id"`
		ProductsLinked  int    `json:"products_linked"`
		ProductsCreated int    `json:"products_created"`
		PricesCreated   int    `json:"prices_created"`
	}

	ReceiptDetail struct {
		ID        string              `json:"id"`
		Status    string              `json:"status"`
		ImageURL  string              `json:"image_url"`
		StoreName *string             `json:"store_name,omitempty"`
		StoreID   *string             `json:"store_id,omitempty"`
		Date      string              `json:"date"`
		Total     *int64              `json:"total,omitempty"`
		IsManual  bool                `json:"is_manual"`
		Items     []ReceiptItemDetail `json:"items"`
		CreatedAt string              `json:"created_at"`
		UpdatedAt string              `json:"updated_at"`
	}

	ExtractionJobSummary struct {
		TotalProcessed int `json:"total_processed"`
		Success        int `json:"success"`
		Failed         int `json:"failed"`
	}
)
