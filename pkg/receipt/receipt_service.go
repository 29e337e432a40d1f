package receipt

import (
	"Hogar-Backend/domain"
	"Hogar-Backend/entities"
	"Hogar-Backend/internal/utils/cache"
	"Hogar-Backend/internal/utils/storage"
	"Hogar-Backend/pkg/catalog"
	"Hogar-Backend/pkg/extraction"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Merchant labels the extractor emits when it cannot identify the
// store. Receipts confirmed under these labels get no store link and
// no price history rows.
var unknownStoreLabels = map[string]bool{
	"sin nombre":         true,
	"desconocida":        true,
	"tienda desconocida": true,
}

// Receipts listed per household are cached briefly; the cap bounds the
// cached query so one cache entry serves any smaller page size.
const listCacheCap = 100

type (
	ReceiptService interface {
		UploadReceipt(ctx context.Context, householdID uuid.UUID, userID string, req domain.UploadReceiptRequest) (domain.ReceiptUploadResponse, error)
		ConfirmReceipt(ctx context.Context, householdID, receiptID uuid.UUID, userID string, req domain.ReceiptConfirmRequest) (domain.ReceiptConfirmResponse, error)
		RejectReceipt(ctx context.Context, householdID, receiptID uuid.UUID) error
		CreateManualReceipt(ctx context.Context, householdID uuid.UUID, userID string, req domain.ReceiptConfirmRequest) (domain.ReceiptConfirmResponse, error)
		GetReceipt(ctx context.Context, householdID, receiptID uuid.UUID) (domain.ReceiptDetail, error)
		ListReceipts(ctx context.Context, householdID uuid.UUID, limit int) ([]domain.ReceiptDetail, error)
		ProcessUploaded(ctx context.Context) (domain.ExtractionJobSummary, error)
	}

	// ImageStorage is the slice of the S3 helper this service needs.
	ImageStorage interface {
		UploadFile(fileName string, file *multipart.FileHeader, dir string, allowedTypes ...string) (string, error)
		DownloadFile(objectKey string) ([]byte, error)
		GetPublicLinkKey(objectKey string) string
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		catalogService    catalog.CatalogService
		extractor         extraction.Extractor
		s3                ImageStorage
		listCache         *cache.TTLCache
	}
)

func NewReceiptService(
	receiptRepository ReceiptRepository,
	catalogService catalog.CatalogService,
	extractor extraction.Extractor,
	s3 ImageStorage,
	listCache *cache.TTLCache,
) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		catalogService:    catalogService,
		extractor:         extractor,
		s3:                s3,
		listCache:         listCache,
	}
}

// UploadReceipt stores the image, runs extraction synchronously, and
// either auto-confirms the receipt or routes it to review. The upload
// itself never hard-fails on extraction problems: the receipt row is
// always created and stays reachable for manual entry.
func (s *receiptService) UploadReceipt(ctx context.Context, householdID uuid.UUID, userID string, req domain.UploadReceiptRequest) (domain.ReceiptUploadResponse, error) {
	receiptID := uuid.New()

	objectKey, err := s.s3.UploadFile(receiptID.String(), req.ReceiptImage, "receipts", storage.AllowImage...)
	if err != nil {
		return domain.ReceiptUploadResponse{}, err
	}
	imageURL := s.s3.GetPublicLinkKey(objectKey)

	receipt := &entities.Receipt{
		ID:          receiptID,
		HouseholdID: householdID,
		ImageURL:    &imageURL,
		ImagePath:   &objectKey,
		Status:      entities.ReceiptStatusUploaded,
		CreatedBy:   userID,
	}
	if err := s.receiptRepository.CreateReceipt(ctx, receipt); err != nil {
		return domain.ReceiptUploadResponse{}, err
	}
	s.invalidateListCache(householdID)

	imageBytes, err := readUpload(req.ReceiptImage)
	if err != nil {
		return s.markNeedsReview(ctx, receipt, imageURL, err)
	}

	result, err := s.extractor.Extract(ctx, imageBytes, storage.DetectMimeType(req.ReceiptImage))
	if err != nil {
		log.Printf("receipt %s extraction failed: %v", receiptID, err)
		return s.markNeedsReview(ctx, receipt, imageURL, err)
	}

	responseItems, err := s.createExtractedItems(ctx, receiptID, result)
	if err != nil {
		return domain.ReceiptUploadResponse{}, err
	}
	if err := s.applyExtraction(ctx, receipt, result); err != nil {
		return domain.ReceiptUploadResponse{}, err
	}

	response := domain.ReceiptUploadResponse{
		ReceiptID: receiptID.String(),
		Status:    entities.ReceiptStatusNeedsReview,
		ImageURL:  imageURL,
		Merchant:  result.Store.Name,
		Total:     result.Total,
		Date:      result.Date,
		Items:     responseItems,
	}

	autoConfirm, err := shouldAutoConfirm(ctx, result, func(ctx context.Context, storeName string) (bool, error) {
		return s.catalogService.StoreExists(ctx, householdID, storeName)
	})
	if err != nil {
		log.Printf("receipt %s store lookup failed: %v", receiptID, err)
		autoConfirm = false
	}

	if autoConfirm {
		confirmReq := domain.ReceiptConfirmRequest{
			StoreName: *result.Store.Name,
			Date:      *result.Date,
			Total:     float64(*result.Total),
		}
		if _, err := s.ConfirmReceipt(ctx, householdID, receiptID, userID, confirmReq); err == nil {
			response.Status = entities.ReceiptStatusConfirmed
			// Confirmation linked products; re-read so the response
			// items carry their product IDs.
			if confirmed, err := s.receiptRepository.GetReceiptByID(ctx, householdID, receiptID); err == nil {
				details := make([]domain.ReceiptItemDetail, 0, len(confirmed.Items))
				for _, item := range confirmed.Items {
					details = append(details, itemDetail(item))
				}
				response.Items = details
			}
			return response, nil
		} else {
			log.Printf("receipt %s auto-confirm failed: %v", receiptID, err)
		}
	}

	receipt.Status = entities.ReceiptStatusNeedsReview
	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		return domain.ReceiptUploadResponse{}, err
	}
	s.invalidateListCache(householdID)
	return response, nil
}

// ConfirmReceipt turns an extracted receipt into ledger records: one
// transaction, product links for every item, and price history rows.
// Re-confirming an already confirmed receipt appends a new transaction
// and new price rows; the history is an audit trail, not a mutable
// record.
func (s *receiptService) ConfirmReceipt(ctx context.Context, householdID, receiptID uuid.UUID, userID string, req domain.ReceiptConfirmRequest) (domain.ReceiptConfirmResponse, error) {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, householdID, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ReceiptConfirmResponse{}, domain.ErrReceiptNotFound
		}
		return domain.ReceiptConfirmResponse{}, err
	}

	switch receipt.Status {
	case entities.ReceiptStatusExtracted, entities.ReceiptStatusNeedsReview, entities.ReceiptStatusConfirmed:
	default:
		return domain.ReceiptConfirmResponse{}, domain.ErrInvalidReceiptStatus
	}

	occurredOn, err := parseOccurredOn(req.Date)
	if err != nil {
		return domain.ReceiptConfirmResponse{}, domain.ErrInvalidOccurredOnDate
	}
	total := int64(math.Round(req.Total))
	if total <= 0 {
		return domain.ReceiptConfirmResponse{}, domain.ErrInvalidReceiptTotal
	}

	if len(req.Items) > 0 {
		if err := s.applyItemCorrections(ctx, receipt, req.Items); err != nil {
			return domain.ReceiptConfirmResponse{}, err
		}
	}

	storeName := strings.TrimSpace(req.StoreName)
	var storeID *uuid.UUID
	if storeName != "" && !unknownStoreLabels[strings.ToLower(storeName)] {
		resolved, err := s.catalogService.ResolveStore(ctx, householdID, storeName)
		if err != nil {
			return domain.ReceiptConfirmResponse{}, err
		}
		storeID = &resolved
	}

	categoryID, err := s.resolveCategory(ctx, householdID, req.CategoryID)
	if err != nil {
		return domain.ReceiptConfirmResponse{}, err
	}

	account, err := s.receiptRepository.FirstActiveAccount(ctx, householdID)
	if err != nil {
		return domain.ReceiptConfirmResponse{}, err
	}
	if account == nil {
		return domain.ReceiptConfirmResponse{}, domain.ErrNoActiveAccount
	}

	transaction := &entities.Transaction{
		ID:          uuid.New(),
		HouseholdID: householdID,
		OccurredOn:  occurredOn,
		Amount:      -total,
		Description: fmt.Sprintf("Compra %s - %s", storeName, occurredOn.Format("2006-01-02")),
		CategoryID:  categoryID,
		AccountID:   account.ID,
		Status:      entities.TransactionStatusPosted,
		Source:      entities.TransactionSourceReceipt,
		ReceiptID:   &receiptID,
	}
	if err := s.receiptRepository.CreateTransaction(ctx, transaction); err != nil {
		return domain.ReceiptConfirmResponse{}, err
	}

	linked, created, prices := s.processItems(ctx, householdID, receiptID, storeID, occurredOn)

	receipt.Status = entities.ReceiptStatusConfirmed
	receipt.StoreName = &storeName
	receipt.StoreID = storeID
	receipt.OccurredOn = &occurredOn
	receipt.Total = &total
	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		return domain.ReceiptConfirmResponse{}, err
	}
	s.invalidateListCache(householdID)

	return domain.ReceiptConfirmResponse{
		TransactionID:   transaction.ID.String(),
		ProductsLinked:  linked,
		ProductsCreated: created,
		PricesCreated:   prices,
	}, nil
}

// RejectReceipt tombstones a receipt. It has no ledger side effects
// and rejecting twice is a no-op.
func (s *receiptService) RejectReceipt(ctx context.Context, householdID, receiptID uuid.UUID) error {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, householdID, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrReceiptNotFound
		}
		return err
	}

	receipt.Status = entities.ReceiptStatusRejected
	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		return err
	}
	s.invalidateListCache(householdID)
	return nil
}

// CreateManualReceipt records an expense with no image. The receipt is
// born confirmed and immediately runs the confirmation pipeline so the
// transaction and any item prices are created in the same call.
func (s *receiptService) CreateManualReceipt(ctx context.Context, householdID uuid.UUID, userID string, req domain.ReceiptConfirmRequest) (domain.ReceiptConfirmResponse, error) {
	storeName := strings.TrimSpace(req.StoreName)
	receipt := &entities.Receipt{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Status:      entities.ReceiptStatusConfirmed,
		StoreName:   &storeName,
		IsManual:    true,
		CreatedBy:   userID,
	}
	if err := s.receiptRepository.CreateReceipt(ctx, receipt); err != nil {
		return domain.ReceiptConfirmResponse{}, err
	}
	s.invalidateListCache(householdID)

	return s.ConfirmReceipt(ctx, householdID, receipt.ID, userID, req)
}

func (s *receiptService) GetReceipt(ctx context.Context, householdID, receiptID uuid.UUID) (domain.ReceiptDetail, error) {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, householdID, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ReceiptDetail{}, domain.ErrReceiptNotFound
		}
		return domain.ReceiptDetail{}, err
	}

	detail := s.receiptDetail(receipt)
	detail.Items = make([]domain.ReceiptItemDetail, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		detail.Items = append(detail.Items, itemDetail(item))
	}
	return detail, nil
}

// ListReceipts returns recent non-rejected receipts, newest first.
// Results are cached per household; items are omitted in the list
// view, clients fetch a single receipt for full detail.
func (s *receiptService) ListReceipts(ctx context.Context, householdID uuid.UUID, limit int) ([]domain.ReceiptDetail, error) {
	if limit <= 0 || limit > listCacheCap {
		limit = listCacheCap
	}

	key := listCacheKey(householdID)
	if cached, ok := s.listCache.Get(key); ok {
		details := cached.([]domain.ReceiptDetail)
		if len(details) > limit {
			details = details[:limit]
		}
		return details, nil
	}

	receipts, err := s.receiptRepository.ListReceipts(ctx, householdID, listCacheCap)
	if err != nil {
		return nil, err
	}
	details := make([]domain.ReceiptDetail, 0, len(receipts))
	for _, receipt := range receipts {
		details = append(details, s.receiptDetail(receipt))
	}
	s.listCache.Set(key, details)

	if len(details) > limit {
		details = details[:limit]
	}
	return details, nil
}

// ProcessUploaded re-scans receipts stuck in the uploaded state, one
// extraction attempt each. Failures route the receipt to review; no
// receipt is retried within a single run and nothing auto-confirms
// here.
func (s *receiptService) ProcessUploaded(ctx context.Context) (domain.ExtractionJobSummary, error) {
	receipts, err := s.receiptRepository.ListUploadedReceipts(ctx)
	if err != nil {
		return domain.ExtractionJobSummary{}, err
	}

	summary := domain.ExtractionJobSummary{}
	for _, receipt := range receipts {
		summary.TotalProcessed++
		if err := s.rescanReceipt(ctx, receipt); err != nil {
			log.Printf("receipt %s rescan failed: %v", receipt.ID, err)
			s.persistExtractionFailure(ctx, receipt, err)
			summary.Failed++
		} else {
			summary.Success++
		}
		s.invalidateListCache(receipt.HouseholdID)
	}
	return summary, nil
}

func (s *receiptService) rescanReceipt(ctx context.Context, receipt *entities.Receipt) error {
	if receipt.ImagePath == nil {
		return errors.New("receipt has no stored image")
	}
	imageBytes, err := s.s3.DownloadFile(*receipt.ImagePath)
	if err != nil {
		return err
	}

	result, err := s.extractor.Extract(ctx, imageBytes, storage.MimeTypeFromKey(*receipt.ImagePath))
	if err != nil {
		return err
	}

	if _, err := s.createExtractedItems(ctx, receipt.ID, result); err != nil {
		return err
	}
	return s.applyExtraction(ctx, receipt, result)
}

// applyExtraction persists a successful extraction onto the receipt
// and advances it to the extracted state.
func (s *receiptService) applyExtraction(ctx context.Context, receipt *entities.Receipt, result *extraction.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	receipt.Status = entities.ReceiptStatusExtracted
	receipt.ExtractedJSON = string(payload)
	receipt.StoreName = result.Store.Name
	receipt.Total = result.Total
	if result.Date != nil {
		if occurredOn, err := parseOccurredOn(*result.Date); err == nil {
			receipt.OccurredOn = &occurredOn
		}
	}
	return s.receiptRepository.UpdateReceipt(ctx, receipt)
}

func (s *receiptService) createExtractedItems(ctx context.Context, receiptID uuid.UUID, result *extraction.Result) ([]domain.ReceiptItemDetail, error) {
	details := make([]domain.ReceiptItemDetail, 0, len(result.Items))
	for _, extracted := range result.Items {
		confidence := 0.5
		if extracted.Confidence != nil {
			confidence = *extracted.Confidence
		}
		item := &entities.ReceiptItem{
			ID:         uuid.New(),
			ReceiptID:  receiptID,
			NameRaw:    extracted.Name,
			Qty:        extracted.Qty,
			Unit:       extracted.Unit,
			LineTotal:  extracted.LineTotal,
			UnitPrice:  deriveUnitPrice(extracted.LineTotal, extracted.Qty),
			Confidence: confidence,
		}
		if err := s.receiptRepository.CreateReceiptItem(ctx, item); err != nil {
			return nil, err
		}
		details = append(details, itemDetail(item))
	}
	return details, nil
}

// applyItemCorrections replaces item data with the user's edits:
// upsert by item id when given, insert otherwise. Product links are
// not set here, items are re-matched during confirmation.
func (s *receiptService) applyItemCorrections(ctx context.Context, receipt *entities.Receipt, corrections []domain.ReceiptItemCorrection) error {
	existing := make(map[uuid.UUID]*entities.ReceiptItem, len(receipt.Items))
	for _, item := range receipt.Items {
		existing[item.ID] = item
	}

	for _, correction := range corrections {
		var item *entities.ReceiptItem
		if correction.ID != nil {
			if id, err := uuid.Parse(*correction.ID); err == nil {
				item = existing[id]
			}
		}
		if item == nil {
			item = &entities.ReceiptItem{ID: uuid.New(), ReceiptID: receipt.ID}
		}

		qty := correction.Qty
		unitPrice := correction.UnitPrice
		lineTotal := correction.LineTotal
		item.NameRaw = correction.NameRaw
		item.NameClean = correction.NameClean
		item.NameBrand = correction.NameBrand
		item.Qty = &qty
		item.UnitPrice = &unitPrice
		item.LineTotal = &lineTotal

		var err error
		if _, known := existing[item.ID]; known {
			err = s.receiptRepository.UpdateReceiptItem(ctx, item)
		} else {
			err = s.receiptRepository.CreateReceiptItem(ctx, item)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// processItems links every receipt item to a product and appends one
// price observation per priced item. Per-item failures are logged and
// skipped rather than aborting the loop; price history tolerates a
// missing row better than the whole confirmation failing.
func (s *receiptService) processItems(ctx context.Context, householdID, receiptID uuid.UUID, storeID *uuid.UUID, occurredOn time.Time) (linked, created, prices int) {
	items, err := s.receiptRepository.GetReceiptItems(ctx, receiptID)
	if err != nil {
		log.Printf("receipt %s: listing items failed: %v", receiptID, err)
		return 0, 0, 0
	}

	for _, item := range items {
		matcherName := item.NameRaw
		if item.NameClean != nil && *item.NameClean != "" {
			matcherName = *item.NameClean
		}

		productID, isNew, err := s.catalogService.FindOrCreateProduct(ctx, householdID, matcherName)
		if err != nil {
			log.Printf("receipt %s item %s: product match failed: %v", receiptID, item.ID, err)
			continue
		}
		item.ProductID = &productID
		if err := s.receiptRepository.UpdateReceiptItem(ctx, item); err != nil {
			log.Printf("receipt %s item %s: product link failed: %v", receiptID, item.ID, err)
			continue
		}
		linked++
		if isNew {
			created++
		}

		// Price rows need a store, a positive quantity, and a
		// non-negative line total; anything else (discount lines,
		// voided items) is an observation we cannot trust.
		if storeID == nil || item.Qty == nil || *item.Qty <= 0 || item.LineTotal == nil || *item.LineTotal < 0 {
			continue
		}
		unit := "unit"
		if item.Unit != nil && *item.Unit != "" {
			unit = *item.Unit
		}
		price := &entities.ProductPrice{
			ID:          uuid.New(),
			HouseholdID: householdID,
			ProductID:   productID,
			StoreID:     *storeID,
			Date:        occurredOn,
			Qty:         *item.Qty,
			Unit:        unit,
			TotalPrice:  *item.LineTotal,
			UnitPrice:   float64(*item.LineTotal) / *item.Qty,
			ReceiptID:   &receiptID,
		}
		if err := s.receiptRepository.CreateProductPrice(ctx, price); err != nil {
			log.Printf("receipt %s item %s: price write failed: %v", receiptID, item.ID, err)
			continue
		}
		prices++
	}
	return linked, created, prices
}

func (s *receiptService) resolveCategory(ctx context.Context, householdID uuid.UUID, override *string) (*uuid.UUID, error) {
	if override != nil && *override != "" {
		id, err := uuid.Parse(*override)
		if err != nil {
			return nil, domain.ErrParseUUID
		}
		return &id, nil
	}
	category, err := s.receiptRepository.DefaultExpenseCategory(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, nil
	}
	return &category.ID, nil
}

func (s *receiptService) markNeedsReview(ctx context.Context, receipt *entities.Receipt, imageURL string, cause error) (domain.ReceiptUploadResponse, error) {
	s.persistExtractionFailure(ctx, receipt, cause)
	s.invalidateListCache(receipt.HouseholdID)
	return domain.ReceiptUploadResponse{
		ReceiptID: receipt.ID.String(),
		Status:    entities.ReceiptStatusNeedsReview,
		ImageURL:  imageURL,
		Items:     []domain.ReceiptItemDetail{},
	}, nil
}

func (s *receiptService) persistExtractionFailure(ctx context.Context, receipt *entities.Receipt, cause error) {
	payload, _ := json.Marshal(map[string]string{"error": cause.Error()})
	receipt.Status = entities.ReceiptStatusNeedsReview
	receipt.ExtractedJSON = string(payload)
	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		log.Printf("receipt %s: persisting failure state failed: %v", receipt.ID, err)
	}
}

func (s *receiptService) receiptDetail(receipt *entities.Receipt) domain.ReceiptDetail {
	imageURL := ""
	if receipt.ImagePath != nil {
		imageURL = s.s3.GetPublicLinkKey(*receipt.ImagePath)
	} else if receipt.ImageURL != nil {
		imageURL = *receipt.ImageURL
	}

	date := ""
	if receipt.OccurredOn != nil {
		date = receipt.OccurredOn.Format("2006-01-02")
	}

	detail := domain.ReceiptDetail{
		ID:        receipt.ID.String(),
		Status:    receipt.Status,
		ImageURL:  imageURL,
		StoreName: receipt.StoreName,
		Date:      date,
		Total:     receipt.Total,
		IsManual:  receipt.IsManual,
		Items:     []domain.ReceiptItemDetail{},
		CreatedAt: receipt.CreatedAt.Format(time.RFC3339),
		UpdatedAt: receipt.UpdatedAt.Format(time.RFC3339),
	}
	if receipt.StoreID != nil {
		storeID := receipt.StoreID.String()
		detail.StoreID = &storeID
	}
	return detail
}

func (s *receiptService) invalidateListCache(householdID uuid.UUID) {
	s.listCache.Invalidate(listCacheKey(householdID))
}

func listCacheKey(householdID uuid.UUID) string {
	return "receipts:" + householdID.String()
}

func itemDetail(item *entities.ReceiptItem) domain.ReceiptItemDetail {
	detail := domain.ReceiptItemDetail{
		ID:         item.ID.String(),
		NameRaw:    item.NameRaw,
		NameClean:  item.NameClean,
		NameBrand:  item.NameBrand,
		Qty:        item.Qty,
		Unit:       item.Unit,
		LineTotal:  item.LineTotal,
		UnitPrice:  item.UnitPrice,
		Confidence: item.Confidence,
	}
	if item.ProductID != nil {
		productID := item.ProductID.String()
		detail.ProductID = &productID
	}
	return detail
}

func deriveUnitPrice(lineTotal *int64, qty *float64) *float64 {
	if lineTotal == nil || qty == nil || *qty <= 0 {
		return nil
	}
	unitPrice := float64(*lineTotal) / *qty
	return &unitPrice
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

// parseOccurredOn accepts an ISO date or full RFC 3339 timestamp.
func parseOccurredOn(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
