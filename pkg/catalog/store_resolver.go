package catalog

import (
	"Hogar-Backend/entities"
	"context"
	"strings"

	"github.com/google/uuid"
)

// ResolveStore maps an extracted or user-entered store name to a store
// ID, creating the store when no existing one matches. Lookup order is
// canonical name, then legal names, then aliases, all case-insensitive.
func (s *catalogService) ResolveStore(ctx context.Context, householdID uuid.UUID, storeName string) (uuid.UUID, error) {
	store, err := s.findStore(ctx, householdID, storeName)
	if err != nil {
		return uuid.Nil, err
	}
	if store != nil {
		return store.ID, nil
	}

	store = &entities.Store{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Name:        strings.TrimSpace(storeName),
		LegalNames:  []string{strings.TrimSpace(storeName)},
		Aliases:     []string{},
	}
	if err := s.catalogRepository.CreateStore(ctx, store); err != nil {
		return uuid.Nil, err
	}
	return store.ID, nil
}

// StoreExists reports whether a store matching the name is already
// known. It never creates; the auto-confirm gate uses it so only
// familiar stores confirm without review.
func (s *catalogService) StoreExists(ctx context.Context, householdID uuid.UUID, storeName string) (bool, error) {
	store, err := s.findStore(ctx, householdID, storeName)
	if err != nil {
		return false, err
	}
	return store != nil, nil
}

func (s *catalogService) findStore(ctx context.Context, householdID uuid.UUID, storeName string) (*entities.Store, error) {
	needle := normalizeStoreName(storeName)
	if needle == "" {
		return nil, nil
	}

	stores, err := s.catalogRepository.ListStores(ctx, householdID)
	if err != nil {
		return nil, err
	}

	for _, store := range stores {
		if normalizeStoreName(store.Name) == needle {
			return store, nil
		}
	}
	for _, store := range stores {
		for _, legal := range store.LegalNames {
			if normalizeStoreName(legal) == needle {
				return store, nil
			}
		}
	}
	for _, store := range stores {
		for _, alias := range store.Aliases {
			if normalizeStoreName(alias) == needle {
				return store, nil
			}
		}
	}
	return nil, nil
}

func normalizeStoreName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
