package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealvoucher-platform/internal/api_gateway/service"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/voucher"
)

// VoucherHandler handles HTTP requests for donations and redemptions
type VoucherHandler struct {
	voucherService service.VoucherService
	logger         *slog.Logger
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(logger *slog.Logger, voucherService service.VoucherService) *VoucherHandler {
	return &VoucherHandler{
		voucherService: voucherService,
		logger:         logger,
	}
}

// Donate creates vouchers for the requested recipients and queues their
// on-chain generation
func (h *VoucherHandler) Donate(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		RespondBadRequest(c, "Invalid contract ID")
		return
	}

	recipients := make([]service.DonationRecipient, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		recipients = append(recipients, service.DonationRecipient{Owner: r.Owner, Count: r.Count})
	}

	vouchers, err := h.voucherService.Donate(c.Request.Context(), contractID, req.Donor, recipients)
	if err != nil {
		var notFound contract.ErrContractNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, notFound.Error())
		case errors.Is(err, voucher.ErrEmptyOwner), errors.Is(err, voucher.ErrInvalidValue):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create donation", "error", err)
			RespondInternalError(c)
		}
		return
	}

	responses := make([]VoucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		responses = append(responses, mapVoucherToResponse(v))
	}
	RespondAccepted(c, responses)
}

// GetByID retrieves a voucher by its ID
func (h *VoucherHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid voucher ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid voucher ID")
		return
	}

	found, err := h.voucherService.GetVoucherByID(c.Request.Context(), id)
	if err != nil {
		var notFound voucher.ErrVoucherNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, notFound.Error())
			return
		}
		h.logger.Error("Failed to get voucher", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapVoucherToResponse(found))
}

// ListByOwner returns the vouchers held by a wallet address
func (h *VoucherHandler) ListByOwner(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		RespondBadRequest(c, "owner query parameter is required")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	vouchers, err := h.voucherService.ListVouchersByOwner(c.Request.Context(), owner, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list vouchers", "owner", owner, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]VoucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		responses = append(responses, mapVoucherToResponse(v))
	}
	RespondPaginated(c, responses, pagination.Page, pagination.PerPage)
}

// Redeem queues a redemption of the voucher at a merchant. A voucher with a
// pending or settled redemption is refused.
func (h *VoucherHandler) Redeem(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid voucher ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid voucher ID")
		return
	}

	var req RedeemVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	in, err := h.voucherService.Redeem(c.Request.Context(), id, req.Merchant)
	if err != nil {
		var notFound voucher.ErrVoucherNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, notFound.Error())
		case errors.Is(err, voucher.ErrNotRedeemable), errors.Is(err, service.ErrRedeemInFlight):
			RespondConflict(c, err.Error())
		default:
			h.logger.Error("Failed to queue redemption", "id", idParam, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, mapIntentToResponse(in))
}

// mapVoucherToResponse maps a voucher to its response DTO
func mapVoucherToResponse(v *voucher.Voucher) VoucherResponse {
	return VoucherResponse{
		ID:         v.ID.String(),
		Status:     string(v.Status),
		Owner:      v.Owner,
		Value:      v.Value,
		VoucherID:  v.OnChainID,
		ContractID: v.ContractID.String(),
		CreatedAt:  v.CreatedAt.Format(time.RFC3339),
	}
}
