package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealvoucher-platform/internal/api_gateway/service"
	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

// TransactionHandler handles HTTP requests for settlement intent queries
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// GetByID retrieves an intent by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	in, err := h.transactionService.GetByID(c.Request.Context(), id)
	if err != nil {
		var notFound intent.ErrIntentNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, notFound.Error())
			return
		}
		h.logger.Error("Failed to get transaction", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapIntentToResponse(in))
}

// List returns intents filtered by status, newest first
func (h *TransactionHandler) List(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		RespondBadRequest(c, "status query parameter is required")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	intents, err := h.transactionService.ListByStatus(
		c.Request.Context(),
		shared.IntentStatus(status),
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to list transactions", "status", status, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(intents))
	for _, in := range intents {
		responses = append(responses, mapIntentToResponse(in))
	}
	RespondPaginated(c, responses, pagination.Page, pagination.PerPage)
}

// Requeue resets a terminal-error intent to PENDING so the settlement worker
// retries it. PENDING and SUCCESS intents are refused with 409.
func (h *TransactionHandler) Requeue(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	in, err := h.transactionService.Requeue(c.Request.Context(), id)
	if err != nil {
		var notFound intent.ErrIntentNotFound
		var notRequeueable intent.ErrNotRequeueable
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, notFound.Error())
		case errors.As(err, &notRequeueable):
			RespondConflict(c, notRequeueable.Error())
		default:
			h.logger.Error("Failed to requeue transaction", "id", idParam, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, mapIntentToResponse(in))
}

// mapIntentToResponse maps an intent to its response DTO
func mapIntentToResponse(in *intent.Intent) TransactionResponse {
	response := TransactionResponse{
		ID:          in.ID.String(),
		Kind:        string(in.Kind),
		Status:      string(in.Status),
		From:        in.From,
		To:          in.To,
		ReferenceID: in.ReferenceID.String(),
		CreatedAt:   in.CreatedAt.Format(time.RFC3339),
	}
	if in.Hash != nil {
		response.Hash = *in.Hash
	}
	return response
}
