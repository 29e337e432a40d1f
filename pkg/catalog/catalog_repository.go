package catalog

import (
	"Hogar-Backend/entities"
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	CatalogRepository interface {
		CreateProduct(ctx context.Context, product *entities.Product) error
		GetProductByID(ctx context.Context, householdID, productID uuid.UUID) (*entities.Product, error)
		GetProductByNorm(ctx context.Context, householdID uuid.UUID, nameNorm string) (*entities.Product, error)
		UpdateProduct(ctx context.Context, product *entities.Product) error
		ListProducts(ctx context.Context, householdID uuid.UUID, limit int) ([]*entities.Product, error)

		IndexLookupExact(ctx context.Context, householdID uuid.UUID, nameNorm string) (*entities.ProductIndexEntry, error)
		IndexLookupPrefix(ctx context.Context, householdID uuid.UUID, prefix string, limit int) ([]*entities.ProductIndexEntry, error)
		IndexCount(ctx context.Context, householdID uuid.UUID) (int64, error)
		IndexPut(ctx context.Context, entry *entities.ProductIndexEntry) error
		IndexPutBatch(ctx context.Context, entries []*entities.ProductIndexEntry) error

		CreateStore(ctx context.Context, store *entities.Store) error
		GetStoreByID(ctx context.Context, householdID, storeID uuid.UUID) (*entities.Store, error)
		UpdateStore(ctx context.Context, store *entities.Store) error
		ListStores(ctx context.Context, householdID uuid.UUID) ([]*entities.Store, error)

		ListProductPrices(ctx context.Context, householdID, productID uuid.UUID, limit int) ([]*entities.ProductPrice, error)
	}

	catalogRepository struct {
		db *gorm.DB
	}
)

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *catalogRepository) GetProductByID(ctx context.Context, householdID, productID uuid.UUID) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND id = ?", householdID, productID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *catalogRepository) GetProductByNorm(ctx context.Context, householdID uuid.UUID, nameNorm string) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND name_norm = ?", householdID, nameNorm).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *catalogRepository) UpdateProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *catalogRepository) ListProducts(ctx context.Context, householdID uuid.UUID, limit int) ([]*entities.Product, error) {
	var products []*entities.Product
	query := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("name_norm asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *catalogRepository) IndexLookupExact(ctx context.Context, householdID uuid.UUID, nameNorm string) (*entities.ProductIndexEntry, error) {
	var entry entities.ProductIndexEntry
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND name_norm = ?", householdID, nameNorm).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *catalogRepository) IndexLookupPrefix(ctx context.Context, householdID uuid.UUID, prefix string, limit int) ([]*entities.ProductIndexEntry, error) {
	var entries []*entities.ProductIndexEntry
	query := r.db.WithContext(ctx).
		Where("household_id = ? AND prefix = ?", householdID, prefix)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *catalogRepository) IndexCount(ctx context.Context, householdID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.ProductIndexEntry{}).
		Where("household_id = ?", householdID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *catalogRepository) IndexPut(ctx context.Context, entry *entities.ProductIndexEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *catalogRepository) IndexPutBatch(ctx context.Context, entries []*entities.ProductIndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(entries, 400).Error
}

func (r *catalogRepository) CreateStore(ctx context.Context, store *entities.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *catalogRepository) GetStoreByID(ctx context.Context, householdID, storeID uuid.UUID) (*entities.Store, error) {
	var store entities.Store
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND id = ?", householdID, storeID).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *catalogRepository) UpdateStore(ctx context.Context, store *entities.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

func (r *catalogRepository) ListStores(ctx context.Context, householdID uuid.UUID) ([]*entities.Store, error) {
	var stores []*entities.Store
	if err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("name asc").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *catalogRepository) ListProductPrices(ctx context.Context, householdID, productID uuid.UUID, limit int) ([]*entities.ProductPrice, error) {
	var prices []*entities.ProductPrice
	query := r.db.WithContext(ctx).
		Where("household_id = ? AND product_id = ?", householdID, productID).
		Order("date desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}
