package handlers

import (
	"Hogar-Backend/domain"
	"Hogar-Backend/internal/api/presenters"
	"Hogar-Backend/pkg/catalog"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type (
	CatalogHandler interface {
		ListStores(c *fiber.Ctx) error
		ListProducts(c *fiber.Ctx) error
		GetProductPrices(c *fiber.Ctx) error
		UpdateProduct(c *fiber.Ctx) error
		UpdateStoreAliases(c *fiber.Ctx) error
	}

	catalogHandler struct {
		catalogService catalog.CatalogService
		validator      *validator.Validate
	}
)

func NewCatalogHandler(catalogService catalog.CatalogService, validator *validator.Validate) CatalogHandler {
	return &catalogHandler{
		catalogService: catalogService,
		validator:      validator,
	}
}

func (h *catalogHandler) ListStores(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)

	res, err := h.catalogService.ListStores(c.Context(), householdID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedListStores, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessListStores)
}

func (h *catalogHandler) ListProducts(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)

	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit < 1 {
		limit = 100
	}

	res, err := h.catalogService.ListProducts(c.Context(), householdID, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedListProducts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessListProducts)
}

func (h *catalogHandler) GetProductPrices(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetProductPrices, domain.ErrParseUUID)
	}

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}

	res, err := h.catalogService.GetProductPrices(c.Context(), householdID, productID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetProductPrices, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetProductPrices, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProductPrices)
}

func (h *catalogHandler) UpdateProduct(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateProduct, domain.ErrParseUUID)
	}

	req := new(domain.UpdateProductRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateProduct, err)
	}

	res, err := h.catalogService.UpdateProduct(c.Context(), householdID, productID, *req)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedUpdateProduct, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateProduct)
}

func (h *catalogHandler) UpdateStoreAliases(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)

	storeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateStore, domain.ErrParseUUID)
	}

	req := new(domain.UpdateStoreAliasesRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateStore, err)
	}

	res, err := h.catalogService.UpdateStoreAliases(c.Context(), householdID, storeID, *req)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedUpdateStore, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateStore, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateStore)
}
