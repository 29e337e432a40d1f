package receipt

import (
	"Hogar-Backend/domain"
	"Hogar-Backend/entities"
	"Hogar-Backend/internal/utils/cache"
	"Hogar-Backend/pkg/catalog"
	"Hogar-Backend/pkg/extraction"
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeReceiptRepository struct {
	receipts     map[uuid.UUID]*entities.Receipt
	items        map[uuid.UUID]*entities.ReceiptItem
	accounts     []*entities.Account
	categories   []*entities.Category
	transactions []*entities.Transaction
	prices       []*entities.ProductPrice
}

func newFakeReceiptRepository() *fakeReceiptRepository {
	return &fakeReceiptRepository{
		receipts: make(map[uuid.UUID]*entities.Receipt),
		items:    make(map[uuid.UUID]*entities.ReceiptItem),
	}
}

func (f *fakeReceiptRepository) CreateReceipt(_ context.Context, receipt *entities.Receipt) error {
	receipt.CreatedAt = time.Now()
	f.receipts[receipt.ID] = receipt
	return nil
}

func (f *fakeReceiptRepository) GetReceiptByID(_ context.Context, householdID, receiptID uuid.UUID) (*entities.Receipt, error) {
	receipt, ok := f.receipts[receiptID]
	if !ok || receipt.HouseholdID != householdID {
		return nil, gorm.ErrRecordNotFound
	}
	receipt.Items = nil
	for _, item := range f.items {
		if item.ReceiptID == receiptID {
			receipt.Items = append(receipt.Items, item)
		}
	}
	return receipt, nil
}

func (f *fakeReceiptRepository) UpdateReceipt(_ context.Context, receipt *entities.Receipt) error {
	f.receipts[receipt.ID] = receipt
	return nil
}

func (f *fakeReceiptRepository) ListReceipts(_ context.Context, householdID uuid.UUID, limit int) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	for _, receipt := range f.receipts {
		if receipt.HouseholdID != householdID || receipt.Status == entities.ReceiptStatusRejected {
			continue
		}
		receipts = append(receipts, receipt)
		if limit > 0 && len(receipts) == limit {
			break
		}
	}
	return receipts, nil
}

func (f *fakeReceiptRepository) ListUploadedReceipts(_ context.Context) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	for _, receipt := range f.receipts {
		if receipt.Status == entities.ReceiptStatusUploaded {
			receipts = append(receipts, receipt)
		}
	}
	return receipts, nil
}

func (f *fakeReceiptRepository) CreateReceiptItem(_ context.Context, item *entities.ReceiptItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeReceiptRepository) UpdateReceiptItem(_ context.Context, item *entities.ReceiptItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeReceiptRepository) GetReceiptItems(_ context.Context, receiptID uuid.UUID) ([]*entities.ReceiptItem, error) {
	var items []*entities.ReceiptItem
	for _, item := range f.items {
		if item.ReceiptID == receiptID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeReceiptRepository) FirstActiveAccount(_ context.Context, householdID uuid.UUID) (*entities.Account, error) {
	for _, account := range f.accounts {
		if account.HouseholdID == householdID && account.IsActive {
			return account, nil
		}
	}
	return nil, nil
}

func (f *fakeReceiptRepository) DefaultExpenseCategory(_ context.Context, householdID uuid.UUID) (*entities.Category, error) {
	var first *entities.Category
	for _, category := range f.categories {
		if category.HouseholdID != householdID || category.Kind != "expense" {
			continue
		}
		if category.Name == "Súper" {
			return category, nil
		}
		if first == nil {
			first = category
		}
	}
	return first, nil
}

func (f *fakeReceiptRepository) CreateTransaction(_ context.Context, transaction *entities.Transaction) error {
	f.transactions = append(f.transactions, transaction)
	return nil
}

func (f *fakeReceiptRepository) CreateProductPrice(_ context.Context, price *entities.ProductPrice) error {
	f.prices = append(f.prices, price)
	return nil
}

// stubCatalog implements catalog.CatalogService over plain maps.
type stubCatalog struct {
	stores   map[string]uuid.UUID
	products map[string]uuid.UUID
}

func newStubCatalog(storeNames ...string) *stubCatalog {
	c := &stubCatalog{
		stores:   make(map[string]uuid.UUID),
		products: make(map[string]uuid.UUID),
	}
	for _, name := range storeNames {
		c.stores[strings.ToLower(name)] = uuid.New()
	}
	return c
}

func (c *stubCatalog) FindOrCreateProduct(_ context.Context, _ uuid.UUID, rawName string) (uuid.UUID, bool, error) {
	nameNorm := catalog.NormalizeName(rawName)
	if nameNorm == "" {
		return uuid.Nil, false, domain.ErrEmptyProductName
	}
	if id, ok := c.products[nameNorm]; ok {
		return id, false, nil
	}
	id := uuid.New()
	c.products[nameNorm] = id
	return id, true, nil
}

func (c *stubCatalog) ResolveStore(_ context.Context, _ uuid.UUID, storeName string) (uuid.UUID, error) {
	key := strings.ToLower(strings.TrimSpace(storeName))
	if id, ok := c.stores[key]; ok {
		return id, nil
	}
	id := uuid.New()
	c.stores[key] = id
	return id, nil
}

func (c *stubCatalog) StoreExists(_ context.Context, _ uuid.UUID, storeName string) (bool, error) {
	_, ok := c.stores[strings.ToLower(strings.TrimSpace(storeName))]
	return ok, nil
}

func (c *stubCatalog) ListStores(context.Context, uuid.UUID) ([]domain.StoreResponse, error) {
	return nil, nil
}

func (c *stubCatalog) ListProducts(context.Context, uuid.UUID, int) ([]domain.ProductResponse, error) {
	return nil, nil
}

func (c *stubCatalog) GetProductPrices(context.Context, uuid.UUID, uuid.UUID, int) ([]domain.ProductPriceResponse, error) {
	return nil, nil
}

func (c *stubCatalog) UpdateProduct(context.Context, uuid.UUID, uuid.UUID, domain.UpdateProductRequest) (domain.ProductResponse, error) {
	return domain.ProductResponse{}, nil
}

func (c *stubCatalog) UpdateStoreAliases(context.Context, uuid.UUID, uuid.UUID, domain.UpdateStoreAliasesRequest) (domain.StoreResponse, error) {
	return domain.StoreResponse{}, nil
}

type stubExtractor struct {
	result *extraction.Result
	err    error
}

func (e *stubExtractor) Extract(context.Context, []byte, string) (*extraction.Result, error) {
	return e.result, e.err
}

type fakeStorage struct {
	objects map[string][]byte
}

func (f *fakeStorage) UploadFile(fileName string, _ *multipart.FileHeader, dir string, _ ...string) (string, error) {
	key := dir + "/" + fileName + ".jpg"
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = []byte("image")
	return key, nil
}

func (f *fakeStorage) DownloadFile(objectKey string) ([]byte, error) {
	data, ok := f.objects[objectKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (f *fakeStorage) GetPublicLinkKey(objectKey string) string {
	return "https://storage.test/" + objectKey
}

func makeFileHeader(t *testing.T, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("receipt_image", "receipt.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	writer.Close()

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatal(err)
	}
	return form.File["receipt_image"][0]
}

type serviceFixture struct {
	repo    *fakeReceiptRepository
	catalog *stubCatalog
	storage *fakeStorage
	service ReceiptService
}

func newServiceFixture(extractor extraction.Extractor, storeNames ...string) *serviceFixture {
	repo := newFakeReceiptRepository()
	stub := newStubCatalog(storeNames...)
	store := &fakeStorage{}
	return &serviceFixture{
		repo:    repo,
		catalog: stub,
		storage: store,
		service: NewReceiptService(repo, stub, extractor, store, cache.New(time.Minute)),
	}
}

func (f *serviceFixture) seedAccount(householdID uuid.UUID) {
	f.repo.accounts = append(f.repo.accounts, &entities.Account{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Name:        "Cuenta Corriente",
		Type:        "bank",
		IsActive:    true,
	})
}

func (f *serviceFixture) seedExtractedReceipt(householdID uuid.UUID, items ...*entities.ReceiptItem) *entities.Receipt {
	receipt := &entities.Receipt{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Status:      entities.ReceiptStatusExtracted,
		CreatedBy:   "user-1",
	}
	f.repo.receipts[receipt.ID] = receipt
	for _, item := range items {
		item.ReceiptID = receipt.ID
		f.repo.items[item.ID] = item
	}
	return receipt
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt64(v int64) *int64     { return &v }
func ptrString(v string) *string  { return &v }

func highConfidenceResult() *extraction.Result {
	return &extraction.Result{
		Store: extraction.StoreGuess{
			Name:       ptrString("Jumbo"),
			Method:     "exact",
			Confidence: 0.95,
		},
		Date:  ptrString("2024-03-01"),
		Total: ptrInt64(15000),
		Items: []extraction.Item{
			{
				Name:       "Leche",
				Qty:        ptrFloat(2),
				Unit:       ptrString("unit"),
				LineTotal:  ptrInt64(4000),
				Confidence: ptrFloat(0.9),
			},
		},
		ConfidenceOverall: 0.9,
	}
}

func TestUploadAutoConfirmsTrustedExtraction(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{result: highConfidenceResult()}, "Jumbo")
	householdID := uuid.New()
	fixture.seedAccount(householdID)

	res, err := fixture.service.UploadReceipt(context.Background(), householdID, "user-1", domain.UploadReceiptRequest{
		ReceiptImage: makeFileHeader(t, []byte("jpeg bytes")),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != entities.ReceiptStatusConfirmed {
		t.Errorf("expected confirmed, got %s", res.Status)
	}

	if len(fixture.repo.transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(fixture.repo.transactions))
	}
	transaction := fixture.repo.transactions[0]
	if transaction.Amount != -15000 {
		t.Errorf("expected amount -15000, got %d", transaction.Amount)
	}
	if transaction.Source != entities.TransactionSourceReceipt {
		t.Errorf("unexpected source %q", transaction.Source)
	}

	if len(fixture.repo.prices) != 1 {
		t.Fatalf("expected 1 price row, got %d", len(fixture.repo.prices))
	}
	if fixture.repo.prices[0].UnitPrice != 2000 {
		t.Errorf("expected unit price 2000, got %v", fixture.repo.prices[0].UnitPrice)
	}

	receiptID, _ := uuid.Parse(res.ReceiptID)
	if fixture.repo.receipts[receiptID].Status != entities.ReceiptStatusConfirmed {
		t.Errorf("stored status %q", fixture.repo.receipts[receiptID].Status)
	}

	// The response reflects the confirmed state, product links included.
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 response item, got %d", len(res.Items))
	}
	if res.Items[0].ProductID == nil {
		t.Error("auto-confirmed response item missing its product id")
	}
}

func TestUploadLowConfidenceRoutesToReview(t *testing.T) {
	result := highConfidenceResult()
	result.ConfidenceOverall = 0.4
	fixture := newServiceFixture(&stubExtractor{result: result}, "Jumbo")
	householdID := uuid.New()
	fixture.seedAccount(householdID)

	res, err := fixture.service.UploadReceipt(context.Background(), householdID, "user-1", domain.UploadReceiptRequest{
		ReceiptImage: makeFileHeader(t, []byte("jpeg bytes")),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != entities.ReceiptStatusNeedsReview {
		t.Errorf("expected needs_review, got %s", res.Status)
	}
	if len(fixture.repo.transactions) != 0 {
		t.Errorf("expected no transactions, got %d", len(fixture.repo.transactions))
	}

	receiptID, _ := uuid.Parse(res.ReceiptID)
	if fixture.repo.receipts[receiptID].Status != entities.ReceiptStatusNeedsReview {
		t.Errorf("stored status %q", fixture.repo.receipts[receiptID].Status)
	}
}

func TestUploadEmptyExtractionStillCreatesReceipt(t *testing.T) {
	empty := &extraction.Result{
		Store:             extraction.StoreGuess{Method: "unknown"},
		Items:             []extraction.Item{},
		ConfidenceOverall: 0.1,
	}
	fixture := newServiceFixture(&stubExtractor{result: empty})
	householdID := uuid.New()

	res, err := fixture.service.UploadReceipt(context.Background(), householdID, "user-1", domain.UploadReceiptRequest{
		ReceiptImage: makeFileHeader(t, []byte("blurry")),
	})
	if err != nil {
		t.Fatalf("upload must not hard-fail on empty extraction: %v", err)
	}
	if res.Status != entities.ReceiptStatusNeedsReview {
		t.Errorf("expected needs_review, got %s", res.Status)
	}
	if len(res.Items) != 0 {
		t.Errorf("expected no items, got %d", len(res.Items))
	}
	if len(fixture.repo.receipts) != 1 {
		t.Errorf("receipt row was not created")
	}
}

func TestUploadExtractionErrorMarksNeedsReview(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{err: &extraction.TransportError{Cause: "connection refused"}})
	householdID := uuid.New()

	res, err := fixture.service.UploadReceipt(context.Background(), householdID, "user-1", domain.UploadReceiptRequest{
		ReceiptImage: makeFileHeader(t, []byte("jpeg bytes")),
	})
	if err != nil {
		t.Fatalf("upload must not hard-fail on transport error: %v", err)
	}
	if res.Status != entities.ReceiptStatusNeedsReview {
		t.Errorf("expected needs_review, got %s", res.Status)
	}

	receiptID, _ := uuid.Parse(res.ReceiptID)
	stored := fixture.repo.receipts[receiptID]
	if !strings.Contains(stored.ExtractedJSON, "connection refused") {
		t.Errorf("failure reason not persisted: %q", stored.ExtractedJSON)
	}
}

func TestConfirmReceiptCreatesLedgerRecords(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{}, "Jumbo")
	householdID := uuid.New()
	fixture.seedAccount(householdID)
	receipt := fixture.seedExtractedReceipt(householdID,
		&entities.ReceiptItem{ID: uuid.New(), NameRaw: "LECHE ENTERA 1L", Qty: ptrFloat(2), LineTotal: ptrInt64(5000), Confidence: 0.9},
		&entities.ReceiptItem{ID: uuid.New(), NameRaw: "PAN HALLULLA", Qty: ptrFloat(1), LineTotal: ptrInt64(1500), Confidence: 0.8},
	)

	res, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", domain.ReceiptConfirmRequest{
		StoreName: "Jumbo",
		Date:      "2024-03-01",
		Total:     6500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ProductsLinked != 2 || res.ProductsCreated != 2 || res.PricesCreated != 2 {
		t.Errorf("unexpected summary: %+v", res)
	}

	if len(fixture.repo.transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(fixture.repo.transactions))
	}
	transaction := fixture.repo.transactions[0]
	if transaction.Amount != -6500 {
		t.Errorf("expected amount -6500, got %d", transaction.Amount)
	}
	if transaction.ReceiptID == nil || *transaction.ReceiptID != receipt.ID {
		t.Error("transaction does not reference receipt")
	}
	if !strings.Contains(transaction.Description, "Jumbo") {
		t.Errorf("unexpected description %q", transaction.Description)
	}

	for _, price := range fixture.repo.prices {
		if price.UnitPrice != float64(price.TotalPrice)/price.Qty {
			t.Errorf("unit price %v != %d / %v", price.UnitPrice, price.TotalPrice, price.Qty)
		}
	}

	for _, item := range fixture.repo.items {
		if item.ProductID == nil {
			t.Errorf("item %s not linked to a product", item.NameRaw)
		}
	}
	if receipt.Status != entities.ReceiptStatusConfirmed {
		t.Errorf("receipt status %q", receipt.Status)
	}
}

// Confirming twice appends a second transaction for the same receipt.
// Append-only history is the documented behavior; this test locks it
// in so any change to idempotent confirmation is deliberate.
func TestConfirmReceiptTwiceAppendsSecondTransaction(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{}, "Jumbo")
	householdID := uuid.New()
	fixture.seedAccount(householdID)
	receipt := fixture.seedExtractedReceipt(householdID)

	req := domain.ReceiptConfirmRequest{StoreName: "Jumbo", Date: "2024-03-01", Total: 9990}
	if _, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", req); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if _, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", req); err != nil {
		t.Fatalf("second confirm: %v", err)
	}

	if len(fixture.repo.transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(fixture.repo.transactions))
	}
	for _, transaction := range fixture.repo.transactions {
		if transaction.ReceiptID == nil || *transaction.ReceiptID != receipt.ID {
			t.Error("transaction does not reference the receipt")
		}
		if transaction.Amount != -9990 {
			t.Errorf("unexpected amount %d", transaction.Amount)
		}
	}
}

func TestConfirmReceiptUnknownStoreSentinelSkipsPrices(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{})
	householdID := uuid.New()
	fixture.seedAccount(householdID)
	receipt := fixture.seedExtractedReceipt(householdID,
		&entities.ReceiptItem{ID: uuid.New(), NameRaw: "LECHE ENTERA 1L", Qty: ptrFloat(1), LineTotal: ptrInt64(1200), Confidence: 0.9},
	)

	res, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", domain.ReceiptConfirmRequest{
		StoreName: "Tienda Desconocida",
		Date:      "2024-03-01",
		Total:     1200,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.StoreID != nil {
		t.Error("sentinel store name must not link a store")
	}
	if res.PricesCreated != 0 || len(fixture.repo.prices) != 0 {
		t.Error("sentinel store name must not produce price rows")
	}
	// The product link and the transaction still happen.
	if res.ProductsLinked != 1 {
		t.Errorf("expected 1 linked product, got %d", res.ProductsLinked)
	}
	if len(fixture.repo.transactions) != 1 {
		t.Errorf("expected 1 transaction, got %d", len(fixture.repo.transactions))
	}
}

// Discount and void lines come through extraction with negative line
// totals; they may link a product but must never produce a price row,
// since unit prices are non-negative.
func TestConfirmReceiptNegativeLineTotalSkipsPrice(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{}, "Jumbo")
	householdID := uuid.New()
	fixture.seedAccount(householdID)
	receipt := fixture.seedExtractedReceipt(householdID,
		&entities.ReceiptItem{ID: uuid.New(), NameRaw: "LECHE ENTERA 1L", Qty: ptrFloat(2), LineTotal: ptrInt64(5000), Confidence: 0.9},
		&entities.ReceiptItem{ID: uuid.New(), NameRaw: "DESCUENTO CLUB", Qty: ptrFloat(1), LineTotal: ptrInt64(-500), Confidence: 0.9},
	)

	res, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", domain.ReceiptConfirmRequest{
		StoreName: "Jumbo",
		Date:      "2024-03-01",
		Total:     4500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.PricesCreated != 1 || len(fixture.repo.prices) != 1 {
		t.Fatalf("expected 1 price row, got %d (summary %+v)", len(fixture.repo.prices), res)
	}
	for _, price := range fixture.repo.prices {
		if price.UnitPrice < 0 {
			t.Errorf("negative unit price %v persisted", price.UnitPrice)
		}
	}
	if res.ProductsLinked != 2 {
		t.Errorf("expected both items linked, got %d", res.ProductsLinked)
	}
}

func TestConfirmReceiptItemCorrectionsUpsert(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{}, "Jumbo")
	householdID := uuid.New()
	fixture.seedAccount(householdID)
	existing := &entities.ReceiptItem{ID: uuid.New(), NameRaw: "LEHCE", Qty: ptrFloat(1), LineTotal: ptrInt64(1000), Confidence: 0.4}
	receipt := fixture.seedExtractedReceipt(householdID, existing)

	existingID := existing.ID.String()
	res, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", domain.ReceiptConfirmRequest{
		StoreName: "Jumbo",
		Date:      "2024-03-01",
		Total:     3400,
		Items: []domain.ReceiptItemCorrection{
			{ID: &existingID, NameRaw: "LECHE ENTERA 1L", Qty: 2, UnitPrice: 600, LineTotal: 1200},
			{NameRaw: "PAN HALLULLA", Qty: 1, UnitPrice: 2200, LineTotal: 2200},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fixture.repo.items) != 2 {
		t.Fatalf("expected 2 items after upsert, got %d", len(fixture.repo.items))
	}
	corrected := fixture.repo.items[existing.ID]
	if corrected.NameRaw != "LECHE ENTERA 1L" {
		t.Errorf("existing item not updated: %q", corrected.NameRaw)
	}
	if res.ProductsLinked != 2 || res.PricesCreated != 2 {
		t.Errorf("unexpected summary: %+v", res)
	}
}

func TestConfirmReceiptValidation(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{}, "Jumbo")
	householdID := uuid.New()
	fixture.seedAccount(householdID)

	t.Run("not found", func(t *testing.T) {
		_, err := fixture.service.ConfirmReceipt(context.Background(), householdID, uuid.New(), "user-1", domain.ReceiptConfirmRequest{
			StoreName: "Jumbo", Date: "2024-03-01", Total: 1000,
		})
		if !errors.Is(err, domain.ErrReceiptNotFound) {
			t.Errorf("expected ErrReceiptNotFound, got %v", err)
		}
	})

	t.Run("wrong status", func(t *testing.T) {
		receipt := fixture.seedExtractedReceipt(householdID)
		receipt.Status = entities.ReceiptStatusUploaded
		_, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", domain.ReceiptConfirmRequest{
			StoreName: "Jumbo", Date: "2024-03-01", Total: 1000,
		})
		if !errors.Is(err, domain.ErrInvalidReceiptStatus) {
			t.Errorf("expected ErrInvalidReceiptStatus, got %v", err)
		}
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		receipt := fixture.seedExtractedReceipt(householdID)
		receipt.Status = entities.ReceiptStatusRejected
		_, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", domain.ReceiptConfirmRequest{
			StoreName: "Jumbo", Date: "2024-03-01", Total: 1000,
		})
		if !errors.Is(err, domain.ErrInvalidReceiptStatus) {
			t.Errorf("expected ErrInvalidReceiptStatus, got %v", err)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		receipt := fixture.seedExtractedReceipt(householdID)
		_, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", domain.ReceiptConfirmRequest{
			StoreName: "Jumbo", Date: "hace dos días", Total: 1000,
		})
		if !errors.Is(err, domain.ErrInvalidOccurredOnDate) {
			t.Errorf("expected ErrInvalidOccurredOnDate, got %v", err)
		}
	})

	t.Run("non-positive total", func(t *testing.T) {
		receipt := fixture.seedExtractedReceipt(householdID)
		_, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", domain.ReceiptConfirmRequest{
			StoreName: "Jumbo", Date: "2024-03-01", Total: -500,
		})
		if !errors.Is(err, domain.ErrInvalidReceiptTotal) {
			t.Errorf("expected ErrInvalidReceiptTotal, got %v", err)
		}
	})
}

func TestConfirmReceiptNoActiveAccount(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{}, "Jumbo")
	householdID := uuid.New()
	receipt := fixture.seedExtractedReceipt(householdID)

	_, err := fixture.service.ConfirmReceipt(context.Background(), householdID, receipt.ID, "user-1", domain.ReceiptConfirmRequest{
		StoreName: "Jumbo", Date: "2024-03-01", Total: 1000,
	})
	if !errors.Is(err, domain.ErrNoActiveAccount) {
		t.Fatalf("expected ErrNoActiveAccount, got %v", err)
	}
	if len(fixture.repo.transactions) != 0 {
		t.Error("transaction created without an account")
	}
}

func TestRejectReceiptIsIdempotent(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{})
	householdID := uuid.New()
	receipt := fixture.seedExtractedReceipt(householdID)

	for i := 0; i < 2; i++ {
		if err := fixture.service.RejectReceipt(context.Background(), householdID, receipt.ID); err != nil {
			t.Fatalf("reject %d: %v", i+1, err)
		}
	}
	if receipt.Status != entities.ReceiptStatusRejected {
		t.Errorf("status %q", receipt.Status)
	}
	if len(fixture.repo.transactions) != 0 {
		t.Error("reject must have no ledger side effects")
	}
}

func TestCreateManualReceiptBornConfirmed(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{}, "Feria Libre")
	householdID := uuid.New()
	fixture.seedAccount(householdID)

	res, err := fixture.service.CreateManualReceipt(context.Background(), householdID, "user-1", domain.ReceiptConfirmRequest{
		StoreName: "Feria Libre",
		Date:      "2024-03-02",
		Total:     8000,
		Items: []domain.ReceiptItemCorrection{
			{NameRaw: "Tomates", Qty: 2, UnitPrice: 1500, LineTotal: 3000},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TransactionID == "" {
		t.Error("expected a transaction id")
	}
	if res.PricesCreated != 1 {
		t.Errorf("expected 1 price row, got %d", res.PricesCreated)
	}

	if len(fixture.repo.receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(fixture.repo.receipts))
	}
	for _, receipt := range fixture.repo.receipts {
		if !receipt.IsManual {
			t.Error("receipt not flagged manual")
		}
		if receipt.Status != entities.ReceiptStatusConfirmed {
			t.Errorf("status %q", receipt.Status)
		}
	}
}

func TestListReceiptsCacheInvalidatedOnReject(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{})
	householdID := uuid.New()
	receipt := fixture.seedExtractedReceipt(householdID)

	first, err := fixture.service.ListReceipts(context.Background(), householdID, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(first))
	}

	if err := fixture.service.RejectReceipt(context.Background(), householdID, receipt.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := fixture.service.ListReceipts(context.Background(), householdID, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 0 {
		t.Error("rejected receipt still served from cache")
	}
}

func TestProcessUploadedRescansStuckReceipts(t *testing.T) {
	fixture := newServiceFixture(&stubExtractor{result: highConfidenceResult()}, "Jumbo")
	householdID := uuid.New()

	imagePath := "receipts/stuck.jpg"
	fixture.storage.objects = map[string][]byte{imagePath: []byte("image")}
	stuck := &entities.Receipt{
		ID:          uuid.New(),
		HouseholdID: householdID,
		ImagePath:   &imagePath,
		Status:      entities.ReceiptStatusUploaded,
		CreatedBy:   "user-1",
	}
	fixture.repo.receipts[stuck.ID] = stuck

	noImage := &entities.Receipt{
		ID:          uuid.New(),
		HouseholdID: householdID,
		Status:      entities.ReceiptStatusUploaded,
		CreatedBy:   "user-1",
	}
	fixture.repo.receipts[noImage.ID] = noImage

	summary, err := fixture.service.ProcessUploaded(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalProcessed != 2 || summary.Success != 1 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if stuck.Status != entities.ReceiptStatusExtracted {
		t.Errorf("rescanned receipt status %q", stuck.Status)
	}
	if noImage.Status != entities.ReceiptStatusNeedsReview {
		t.Errorf("imageless receipt status %q", noImage.Status)
	}
	// The rescan job never auto-confirms.
	if len(fixture.repo.transactions) != 0 {
		t.Error("rescan must not create transactions")
	}
}
