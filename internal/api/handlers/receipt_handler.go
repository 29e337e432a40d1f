package handlers

import (
	"Hogar-Backend/domain"
	"Hogar-Backend/internal/api/presenters"
	"Hogar-Backend/pkg/receipt"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type (
	ReceiptHandler interface {
		UploadReceipt(c *fiber.Ctx) error
		ConfirmReceipt(c *fiber.Ctx) error
		RejectReceipt(c *fiber.Ctx) error
		CreateManualReceipt(c *fiber.Ctx) error
		GetReceipt(c *fiber.Ctx) error
		ListReceipts(c *fiber.Ctx) error
		ProcessUploadedReceipts(c *fiber.Ctx) error
	}

	receiptHandler struct {
		receiptService receipt.ReceiptService
		validator      *validator.Validate
	}
)

func NewReceiptHandler(receiptService receipt.ReceiptService, validator *validator.Validate) ReceiptHandler {
	return &receiptHandler{
		receiptService: receiptService,
		validator:      validator,
	}
}

// householdFromLocals relies on the household middleware having
// already validated the header.
func householdFromLocals(c *fiber.Ctx) uuid.UUID {
	id, _ := uuid.Parse(c.Locals("household_id").(string))
	return id
}

func (h *receiptHandler) UploadReceipt(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)
	userID := c.Locals("user_id").(string)
	req := new(domain.UploadReceiptRequest)

	file, err := c.FormFile("receipt_image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	req.ReceiptImage = file

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadReceipt, err)
	}

	res, err := h.receiptService.UploadReceipt(c.Context(), householdID, userID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedUploadReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessUploadReceipt)
}

func (h *receiptHandler) ConfirmReceipt(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)
	userID := c.Locals("user_id").(string)

	receiptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedConfirmReceipt, domain.ErrParseUUID)
	}

	req := new(domain.ReceiptConfirmRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedConfirmReceipt, err)
	}

	res, err := h.receiptService.ConfirmReceipt(c.Context(), householdID, receiptID, userID, *req)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedConfirmReceipt, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedConfirmReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessConfirmReceipt)
}

func (h *receiptHandler) RejectReceipt(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)

	receiptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRejectReceipt, domain.ErrParseUUID)
	}

	if err := h.receiptService.RejectReceipt(c.Context(), householdID, receiptID); err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedRejectReceipt, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRejectReceipt, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessRejectReceipt)
}

func (h *receiptHandler) CreateManualReceipt(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)
	userID := c.Locals("user_id").(string)

	req := new(domain.ReceiptConfirmRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedManualReceipt, err)
	}

	res, err := h.receiptService.CreateManualReceipt(c.Context(), householdID, userID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedManualReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessManualReceipt)
}

func (h *receiptHandler) GetReceipt(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)

	receiptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetReceipt, domain.ErrParseUUID)
	}

	res, err := h.receiptService.GetReceipt(c.Context(), householdID, receiptID)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetReceipt, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetReceipt)
}

func (h *receiptHandler) ListReceipts(c *fiber.Ctx) error {
	householdID := householdFromLocals(c)

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	res, err := h.receiptService.ListReceipts(c.Context(), householdID, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedListReceipts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessListReceipts)
}

// ProcessUploadedReceipts is the rescan job for receipts stuck in the
// uploaded state, typically hit by a scheduler rather than a user.
func (h *receiptHandler) ProcessUploadedReceipts(c *fiber.Ctx) error {
	res, err := h.receiptService.ProcessUploaded(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedProcessJob, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessProcessJob)
}
