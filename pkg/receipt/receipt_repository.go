package receipt

import (
	"Hogar-Backend/entities"
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	ReceiptRepository interface {
		CreateReceipt(ctx context.Context, receipt *entities.Receipt) error
		GetReceiptByID(ctx context.Context, householdID, receiptID uuid.UUID) (*entities.Receipt, error)
		UpdateReceipt(ctx context.Context, receipt *entities.Receipt) error
		ListReceipts(ctx context.Context, householdID uuid.UUID, limit int) ([]*entities.Receipt, error)
		ListUploadedReceipts(ctx context.Context) ([]*entities.Receipt, error)

		CreateReceiptItem(ctx context.Context, item *entities.ReceiptItem) error
		UpdateReceiptItem(ctx context.Context, item *entities.ReceiptItem) error
		GetReceiptItems(ctx context.Context, receiptID uuid.UUID) ([]*entities.ReceiptItem, error)

		FirstActiveAccount(ctx context.Context, householdID uuid.UUID) (*entities.Account, error)
		DefaultExpenseCategory(ctx context.Context, householdID uuid.UUID) (*entities.Category, error)
		CreateTransaction(ctx context.Context, transaction *entities.Transaction) error
		CreateProductPrice(ctx context.Context, price *entities.ProductPrice) error
	}

	receiptRepository struct {
		db *gorm.DB
	}
)

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, householdID, receiptID uuid.UUID) (*entities.Receipt, error) {
	var receipt entities.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("household_id = ? AND id = ?", householdID, receiptID).
		First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) UpdateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Omit("Items").Save(receipt).Error
}

func (r *receiptRepository) ListReceipts(ctx context.Context, householdID uuid.UUID, limit int) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	query := r.db.WithContext(ctx).
		Where("household_id = ? AND status <> ?", householdID, entities.ReceiptStatusRejected).
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *receiptRepository) ListUploadedReceipts(ctx context.Context) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	if err := r.db.WithContext(ctx).
		Where("status = ?", entities.ReceiptStatusUploaded).
		Order("created_at asc").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *receiptRepository) CreateReceiptItem(ctx context.Context, item *entities.ReceiptItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *receiptRepository) UpdateReceiptItem(ctx context.Context, item *entities.ReceiptItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *receiptRepository) GetReceiptItems(ctx context.Context, receiptID uuid.UUID) ([]*entities.ReceiptItem, error) {
	var items []*entities.ReceiptItem
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *receiptRepository) FirstActiveAccount(ctx context.Context, householdID uuid.UUID) (*entities.Account, error) {
	var account entities.Account
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND is_active = ?", householdID, true).
		Order("created_at asc").
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// DefaultExpenseCategory prefers the household's category named
// "Súper", then falls back to the first expense category; nil when the
// household has no expense categories at all.
func (r *receiptRepository) DefaultExpenseCategory(ctx context.Context, householdID uuid.UUID) (*entities.Category, error) {
	var category entities.Category
	err := r.db.WithContext(ctx).
		Where("household_id = ? AND kind = ? AND name = ?", householdID, "expense", "Súper").
		First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("household_id = ? AND kind = ?", householdID, "expense").
		Order("created_at asc").
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *receiptRepository) CreateTransaction(ctx context.Context, transaction *entities.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *receiptRepository) CreateProductPrice(ctx context.Context, price *entities.ProductPrice) error {
	return r.db.WithContext(ctx).Create(price).Error
}
