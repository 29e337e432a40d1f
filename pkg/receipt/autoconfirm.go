package receipt

import (
	"Hogar-Backend/pkg/extraction"
	"context"
	"strings"
)

const (
	autoConfirmMinOverallConfidence  = 0.6
	autoConfirmMinInferredConfidence = 0.7
)

// storeExistenceCheck reports whether a store name is already known to
// the household, without creating anything.
type storeExistenceCheck func(ctx context.Context, storeName string) (bool, error)

// shouldAutoConfirm decides whether an extraction result is
// trustworthy enough to confirm without human review. Rules are
// checked in order; the first failing rule routes the receipt to
// review. A merchant the household has never seen before always
// requires review, regardless of model confidence.
func shouldAutoConfirm(ctx context.Context, result *extraction.Result, storeExists storeExistenceCheck) (bool, error) {
	if result == nil {
		return false, nil
	}
	storeName := ""
	if result.Store.Name != nil {
		storeName = strings.TrimSpace(*result.Store.Name)
	}
	if storeName == "" {
		return false, nil
	}
	if result.Total == nil || *result.Total == 0 {
		return false, nil
	}
	if result.Date == nil || strings.TrimSpace(*result.Date) == "" {
		return false, nil
	}
	if result.ConfidenceOverall < autoConfirmMinOverallConfidence {
		return false, nil
	}
	if result.Store.Method == "inferred" && result.Store.Confidence < autoConfirmMinInferredConfidence {
		return false, nil
	}
	exists, err := storeExists(ctx, storeName)
	if err != nil {
		return false, err
	}
	return exists, nil
}
