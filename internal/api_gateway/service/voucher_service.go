package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mealvoucher-platform/internal/domain/intent"
	"github.com/mealvoucher-platform/internal/domain/shared"
	"github.com/mealvoucher-platform/internal/domain/voucher"
	"github.com/mealvoucher-platform/internal/platform/messaging/producers"
)

// ErrRedeemInFlight indicates a non-failed redemption intent already targets
// the voucher. Only a failed redemption may be retried.
var ErrRedeemInFlight = errors.New("a redemption is already pending or settled for this voucher")

// VoucherServiceImpl implements the VoucherService interface
type VoucherServiceImpl struct {
	db           TxRunner
	voucherRepo  voucher.Repository
	intentRepo   intent.Repository
	contractSvc  ContractService
	producer     producers.MessagePublisher
	logger       *slog.Logger
}

// NewVoucherService creates a new voucher service
func NewVoucherService(
	logger *slog.Logger,
	db TxRunner,
	voucherRepo voucher.Repository,
	intentRepo intent.Repository,
	contractSvc ContractService,
	producer producers.MessagePublisher,
) VoucherService {
	return &VoucherServiceImpl{
		db:          db,
		voucherRepo: voucherRepo,
		intentRepo:  intentRepo,
		contractSvc: contractSvc,
		producer:    producer,
		logger:      logger,
	}
}

// Donate creates the voucher rows and one generation intent per voucher in a
// single transaction. Vouchers are born VALID in the database; the
// settlement cycle mints them on chain afterwards.
func (s *VoucherServiceImpl) Donate(ctx context.Context, contractID uuid.UUID, donor string, recipients []DonationRecipient) ([]*voucher.Voucher, error) {
	c, err := s.contractSvc.GetContractByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	var vouchers []*voucher.Voucher
	var lastIntent *intent.Intent

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		voucherRepo := s.voucherRepo.WithTx(tx)
		intentRepo := s.intentRepo.WithTx(tx)

		for _, r := range recipients {
			for i := 0; i < r.Count; i++ {
				v, err := voucher.NewVoucher(c.ID, r.Owner, c.VoucherPrice)
				if err != nil {
					return err
				}
				if err := voucherRepo.Create(ctx, v); err != nil {
					return err
				}

				in := intent.NewIntent(shared.IntentKindGenerateVoucher, donor, r.Owner, v.ID)
				if err := intentRepo.Create(ctx, in); err != nil {
					return err
				}

				vouchers = append(vouchers, v)
				lastIntent = in
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create donation",
			"contract_id", contractID,
			"donor", donor,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Donation accepted",
		"contract_id", contractID,
		"donor", donor,
		"vouchers", len(vouchers),
	)
	if lastIntent != nil {
		publishNudge(ctx, s.logger, s.producer, lastIntent)
	}
	return vouchers, nil
}

// GetVoucherByID retrieves a voucher by its ID
func (s *VoucherServiceImpl) GetVoucherByID(ctx context.Context, id uuid.UUID) (*voucher.Voucher, error) {
	return s.voucherRepo.GetByID(ctx, id)
}

// ListVouchersByOwner returns vouchers held by a wallet, newest first
func (s *VoucherServiceImpl) ListVouchersByOwner(ctx context.Context, owner string, page, perPage int) ([]*voucher.Voucher, error) {
	offset := (page - 1) * perPage
	return s.voucherRepo.ListByOwner(ctx, owner, perPage, offset)
}

// Redeem queues a redemption intent for the voucher. A voucher can carry at
// most one non-failed redemption: a second request is refused until the
// first one fails.
func (s *VoucherServiceImpl) Redeem(ctx context.Context, voucherID uuid.UUID, merchant string) (*intent.Intent, error) {
	v, err := s.voucherRepo.GetByID(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if !v.Redeemable() {
		return nil, voucher.ErrNotRedeemable
	}

	active, err := s.intentRepo.HasActiveRedeem(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrRedeemInFlight
	}

	in := intent.NewIntent(shared.IntentKindRedeemVoucher, v.Owner, merchant, v.ID)
	if err := s.intentRepo.Create(ctx, in); err != nil {
		s.logger.Error("Failed to queue redemption",
			"voucher_id", voucherID,
			"merchant", merchant,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Redemption queued",
		"voucher_id", voucherID,
		"owner", v.Owner,
		"merchant", merchant,
		"intent_id", in.ID,
	)
	publishNudge(ctx, s.logger, s.producer, in)
	return in, nil
}
