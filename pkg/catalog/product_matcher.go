package catalog

import (
	"Hogar-Backend/domain"
	"Hogar-Backend/entities"
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
)

const (
	// Minimum similarity ratio for a fuzzy match to count as the same
	// product. Below this, a new product is created.
	matchThreshold = 0.85

	// Cap on index entries scanned per prefix bucket.
	fuzzyCandidateLimit = 200
)

// FindOrCreateProduct maps a raw receipt item name to a product ID,
// reusing an existing product when the normalized name matches exactly
// or fuzzily (ratio >= 0.85 within the same prefix bucket). The bool
// result reports whether a new product was created.
func (s *catalogService) FindOrCreateProduct(ctx context.Context, householdID uuid.UUID, rawName string) (uuid.UUID, bool, error) {
	nameNorm := NormalizeName(rawName)
	if nameNorm == "" {
		return uuid.Nil, false, domain.ErrEmptyProductName
	}

	if err := s.ensureIndex(ctx, householdID); err != nil {
		return uuid.Nil, false, err
	}

	entry, err := s.catalogRepository.IndexLookupExact(ctx, householdID, nameNorm)
	if err != nil {
		return uuid.Nil, false, err
	}
	if entry != nil {
		return entry.ProductID, false, nil
	}

	candidates, err := s.catalogRepository.IndexLookupPrefix(ctx, householdID, NamePrefix(nameNorm), fuzzyCandidateLimit)
	if err != nil {
		return uuid.Nil, false, err
	}
	var bestID uuid.UUID
	bestRatio := 0.0
	for _, candidate := range candidates {
		ratio := similarityRatio(nameNorm, candidate.NameNorm)
		if ratio > bestRatio {
			bestRatio = ratio
			bestID = candidate.ProductID
		}
	}
	if bestRatio >= matchThreshold {
		return bestID, false, nil
	}

	product := &entities.Product{
		ID:          uuid.New(),
		HouseholdID: householdID,
		NameRaw:     rawName,
		NameNorm:    nameNorm,
		UnitBase:    "unit",
	}
	if err := s.catalogRepository.CreateProduct(ctx, product); err != nil {
		// A concurrent confirm may have created the same normalized
		// name; the unique index rejects the duplicate, so fall back
		// to the row that won.
		existing, lookupErr := s.catalogRepository.GetProductByNorm(ctx, householdID, nameNorm)
		if lookupErr == nil && existing != nil {
			return existing.ID, false, nil
		}
		return uuid.Nil, false, err
	}
	if err := s.catalogRepository.IndexPut(ctx, &entities.ProductIndexEntry{
		ProductID:   product.ID,
		HouseholdID: householdID,
		NameNorm:    nameNorm,
		Prefix:      NamePrefix(nameNorm),
	}); err != nil {
		return uuid.Nil, false, err
	}
	return product.ID, true, nil
}

// ensureIndex backfills the lookup index from the products table when
// the index is empty but products exist, e.g. after a restore.
func (s *catalogService) ensureIndex(ctx context.Context, householdID uuid.UUID) error {
	count, err := s.catalogRepository.IndexCount(ctx, householdID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products, err := s.catalogRepository.ListProducts(ctx, householdID, 0)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}

	entries := make([]*entities.ProductIndexEntry, 0, len(products))
	for _, product := range products {
		entries = append(entries, &entities.ProductIndexEntry{
			ProductID:   product.ID,
			HouseholdID: product.HouseholdID,
			NameNorm:    product.NameNorm,
			Prefix:      NamePrefix(product.NameNorm),
		})
	}
	return s.catalogRepository.IndexPutBatch(ctx, entries)
}

func similarityRatio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
