package catalog

import (
	"Hogar-Backend/domain"
	"Hogar-Backend/entities"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	CatalogService interface {
		FindOrCreateProduct(ctx context.Context, householdID uuid.UUID, rawName string) (uuid.UUID, bool, error)
		ResolveStore(ctx context.Context, householdID uuid.UUID, storeName string) (uuid.UUID, error)
		StoreExists(ctx context.Context, householdID uuid.UUID, storeName string) (bool, error)

		ListStores(ctx context.Context, householdID uuid.UUID) ([]domain.StoreResponse, error)
		ListProducts(ctx context.Context, householdID uuid.UUID, limit int) ([]domain.ProductResponse, error)
		GetProductPrices(ctx context.Context, householdID, productID uuid.UUID, limit int) ([]domain.ProductPriceResponse, error)
		UpdateProduct(ctx context.Context, householdID, productID uuid.UUID, req domain.UpdateProductRequest) (domain.ProductResponse, error)
		UpdateStoreAliases(ctx context.Context, householdID, storeID uuid.UUID, req domain.UpdateStoreAliasesRequest) (domain.StoreResponse, error)
	}

	catalogService struct {
		catalogRepository CatalogRepository
	}
)

func NewCatalogService(catalogRepository CatalogRepository) CatalogService {
	return &catalogService{catalogRepository: catalogRepository}
}

func (s *catalogService) ListStores(ctx context.Context, householdID uuid.UUID) ([]domain.StoreResponse, error) {
	stores, err := s.catalogRepository.ListStores(ctx, householdID)
	if err != nil {
		return nil, err
	}
	res := make([]domain.StoreResponse, 0, len(stores))
	for _, store := range stores {
		res = append(res, storeResponse(store))
	}
	return res, nil
}

func (s *catalogService) ListProducts(ctx context.Context, householdID uuid.UUID, limit int) ([]domain.ProductResponse, error) {
	products, err := s.catalogRepository.ListProducts(ctx, householdID, limit)
	if err != nil {
		return nil, err
	}
	res := make([]domain.ProductResponse, 0, len(products))
	for _, product := range products {
		res = append(res, productResponse(product))
	}
	return res, nil
}

func (s *catalogService) GetProductPrices(ctx context.Context, householdID, productID uuid.UUID, limit int) ([]domain.ProductPriceResponse, error) {
	if _, err := s.catalogRepository.GetProductByID(ctx, householdID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	prices, err := s.catalogRepository.ListProductPrices(ctx, householdID, productID, limit)
	if err != nil {
		return nil, err
	}
	res := make([]domain.ProductPriceResponse, 0, len(prices))
	for _, price := range prices {
		item := domain.ProductPriceResponse{
			ID:         price.ID.String(),
			ProductID:  price.ProductID.String(),
			StoreID:    price.StoreID.String(),
			Date:       price.Date.Format("2006-01-02"),
			Qty:        price.Qty,
			Unit:       price.Unit,
			TotalPrice: price.TotalPrice,
			UnitPrice:  price.UnitPrice,
		}
		if price.ReceiptID != nil {
			receiptID := price.ReceiptID.String()
			item.ReceiptID = &receiptID
		}
		res = append(res, item)
	}
	return res, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, householdID, productID uuid.UUID, req domain.UpdateProductRequest) (domain.ProductResponse, error) {
	product, err := s.catalogRepository.GetProductByID(ctx, householdID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProductResponse{}, domain.ErrProductNotFound
		}
		return domain.ProductResponse{}, err
	}

	if req.NameRaw != nil {
		nameNorm := NormalizeName(*req.NameRaw)
		if nameNorm == "" {
			return domain.ProductResponse{}, domain.ErrEmptyProductName
		}
		product.NameRaw = *req.NameRaw
		product.NameNorm = nameNorm
	}
	if req.Category != nil {
		product.Category = req.Category
	}
	if req.UnitBase != nil {
		product.UnitBase = *req.UnitBase
	}

	if err := s.catalogRepository.UpdateProduct(ctx, product); err != nil {
		return domain.ProductResponse{}, err
	}
	// Keep the lookup index in step with the rename.
	if err := s.catalogRepository.IndexPut(ctx, &entities.ProductIndexEntry{
		ProductID:   product.ID,
		HouseholdID: product.HouseholdID,
		NameNorm:    product.NameNorm,
		Prefix:      NamePrefix(product.NameNorm),
	}); err != nil {
		return domain.ProductResponse{}, err
	}

	return productResponse(product), nil
}

// UpdateStoreAliases appends to the store's alias and legal-name lists.
// Existing entries are never removed, so names learned from past
// receipts keep resolving.
func (s *catalogService) UpdateStoreAliases(ctx context.Context, householdID, storeID uuid.UUID, req domain.UpdateStoreAliasesRequest) (domain.StoreResponse, error) {
	store, err := s.catalogRepository.GetStoreByID(ctx, householdID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StoreResponse{}, domain.ErrStoreNotFound
		}
		return domain.StoreResponse{}, err
	}

	store.Aliases = appendMissing(store.Aliases, req.Aliases)
	store.LegalNames = appendMissing(store.LegalNames, req.LegalNames)

	if err := s.catalogRepository.UpdateStore(ctx, store); err != nil {
		return domain.StoreResponse{}, err
	}
	return storeResponse(store), nil
}

func appendMissing(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[normalizeStoreName(v)] = true
	}
	for _, v := range incoming {
		key := normalizeStoreName(v)
		if key == "" || seen[key] {
			continue
		}
		existing = append(existing, v)
		seen[key] = true
	}
	return existing
}

func storeResponse(store *entities.Store) domain.StoreResponse {
	return domain.StoreResponse{
		ID:         store.ID.String(),
		Name:       store.Name,
		LegalNames: store.LegalNames,
		Aliases:    store.Aliases,
		City:       store.City,
		CreatedAt:  store.CreatedAt.Format(time.RFC3339),
	}
}

func productResponse(product *entities.Product) domain.ProductResponse {
	return domain.ProductResponse{
		ID:        product.ID.String(),
		NameRaw:   product.NameRaw,
		NameNorm:  product.NameNorm,
		UnitBase:  product.UnitBase,
		Category:  product.Category,
		CreatedAt: product.CreatedAt.Format(time.RFC3339),
	}
}
