package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealvoucher-platform/internal/api_gateway/service"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/transfer"
)

// ContractHandler handles HTTP requests for contract administration
type ContractHandler struct {
	contractService service.ContractService
	logger          *slog.Logger
}

// NewContractHandler creates a new contract handler
func NewContractHandler(logger *slog.Logger, contractService service.ContractService) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		logger:          logger,
	}
}

// Create registers a new per-country contract and queues its deployment
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.contractService.CreateContract(c.Request.Context(), req.CountryCode, req.VoucherPrice, req.Fees)
	if err != nil {
		var dup contract.ErrDuplicateCountry
		switch {
		case errors.As(err, &dup):
			RespondConflict(c, dup.Error())
		case errors.Is(err, contract.ErrEmptyCountryCode),
			errors.Is(err, contract.ErrInvalidFees),
			errors.Is(err, contract.ErrPriceTooSmall):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create contract", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapContractToResponse(created))
}

// GetByID retrieves a contract by its ID
func (h *ContractHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	found, err := h.contractService.GetContractByID(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	RespondOK(c, mapContractToResponse(found))
}

// List returns all contracts
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.contractService.ListContracts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list contracts", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]ContractResponse, 0, len(contracts))
	for _, item := range contracts {
		responses = append(responses, mapContractToResponse(item))
	}
	RespondOK(c, responses)
}

// UpdateFees changes the contract's management fee percentage and queues the
// on-chain update
func (h *ContractHandler) UpdateFees(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.contractService.UpdateFees(c.Request.Context(), id, req.Fees)
	if err != nil {
		h.respondUpdateError(c, err)
		return
	}

	RespondAccepted(c, mapContractToResponse(updated))
}

// UpdatePrice changes the contract's voucher price and queues the on-chain
// update
func (h *ContractHandler) UpdatePrice(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.contractService.UpdatePrice(c.Request.Context(), id, req.Price)
	if err != nil {
		h.respondUpdateError(c, err)
		return
	}

	RespondAccepted(c, mapContractToResponse(updated))
}

// OnChain reads the contract's live on-chain state
func (h *ContractHandler) OnChain(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	state, err := h.contractService.OnChainState(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrContractNotDeployed) {
			RespondConflict(c, err.Error())
			return
		}
		h.respondLookupError(c, err)
		return
	}

	RespondOK(c, state)
}

// Transfers returns the observed fund movements for a contract
func (h *ContractHandler) Transfers(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	transfers, err := h.contractService.ListTransfers(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	responses := make([]TransferResponse, 0, len(transfers))
	for _, item := range transfers {
		responses = append(responses, mapTransferToResponse(item))
	}
	RespondPaginated(c, responses, pagination.Page, pagination.PerPage)
}

func (h *ContractHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid contract ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid contract ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ContractHandler) respondLookupError(c *gin.Context, err error) {
	var notFound contract.ErrContractNotFound
	if errors.As(err, &notFound) {
		RespondNotFound(c, notFound.Error())
		return
	}
	h.logger.Error("Contract lookup failed", "error", err)
	RespondInternalError(c)
}

func (h *ContractHandler) respondUpdateError(c *gin.Context, err error) {
	var notFound contract.ErrContractNotFound
	switch {
	case errors.As(err, &notFound):
		RespondNotFound(c, notFound.Error())
	case errors.Is(err, contract.ErrInvalidFees), errors.Is(err, contract.ErrPriceTooSmall):
		RespondBadRequest(c, err.Error())
	default:
		h.logger.Error("Failed to update contract", "error", err)
		RespondInternalError(c)
	}
}

// mapContractToResponse maps a contract to its response DTO
func mapContractToResponse(c *contract.Contract) ContractResponse {
	response := ContractResponse{
		ID:           c.ID.String(),
		CountryCode:  c.CountryCode,
		VoucherPrice: c.VoucherPrice,
		Fees:         c.Fees,
		Deployed:     c.Deployed(),
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
	if c.Address != nil {
		response.Address = *c.Address
	}
	return response
}

// mapTransferToResponse maps a transfer to its response DTO
func mapTransferToResponse(t *transfer.Transfer) TransferResponse {
	return TransferResponse{
		ID:         t.ID.String(),
		ContractID: t.ContractID.String(),
		From:       t.From,
		To:         t.To,
		Value:      t.Value,
		Type:       string(t.Type),
		TxHash:     t.TxHash,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
}
