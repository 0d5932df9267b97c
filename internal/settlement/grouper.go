package settlement

import (
	"github.com/google/uuid"

	"github.com/mealvoucher-platform/internal/chain"
	"github.com/mealvoucher-platform/internal/domain/contract"
	"github.com/mealvoucher-platform/internal/domain/intent"
)

// GenerateBatch is the work settled by one generateVoucher call: every
// pending generation targeting the same contract, grouped per recipient.
// IntentIDs maps the batch back to the rows that share its outcome.
type GenerateBatch struct {
	ContractID uuid.UUID
	Address    string
	Call       chain.GenerateCall
	IntentIDs  []uuid.UUID
}

// RedeemBatch is the work settled by one redeemVoucher call
type RedeemBatch struct {
	ContractID uuid.UUID
	Address    string
	Call       chain.RedeemCall
	IntentIDs  []uuid.UUID
}

// GroupGenerate partitions pending generation work into one batch per
// deployed contract, preserving the input order within each batch. Work
// targeting an undeployed or unknown contract is left out and stays
// PENDING until a later cycle.
func GroupGenerate(work []*intent.VoucherWork, contracts map[uuid.UUID]*contract.Contract) ([]GenerateBatch, int) {
	batches := make([]GenerateBatch, 0)
	index := make(map[uuid.UUID]int)
	recipients := make(map[uuid.UUID]map[string]int)
	skipped := 0

	for _, w := range work {
		target, ok := contracts[w.ContractID]
		if !ok || !target.Deployed() {
			skipped++
			continue
		}

		i, ok := index[w.ContractID]
		if !ok {
			i = len(batches)
			index[w.ContractID] = i
			recipients[w.ContractID] = make(map[string]int)
			batches = append(batches, GenerateBatch{
				ContractID: w.ContractID,
				Address:    *target.Address,
			})
		}

		batch := &batches[i]
		batch.IntentIDs = append(batch.IntentIDs, w.Intent.ID)
		batch.Call.TotalCount++

		byOwner := recipients[w.ContractID]
		r, ok := byOwner[w.OwnerAddress]
		if !ok {
			r = len(batch.Call.Recipients)
			byOwner[w.OwnerAddress] = r
			batch.Call.Recipients = append(batch.Call.Recipients, chain.GenerateRecipient{Owner: w.OwnerAddress})
		}
		batch.Call.Recipients[r].VoucherIDs = append(batch.Call.Recipients[r].VoucherIDs, w.OnChainID)
	}

	return batches, skipped
}

// GroupRedeem partitions pending redemption work into one batch per deployed
// contract. The merchant address travels on the intent's To field.
func GroupRedeem(work []*intent.VoucherWork, contracts map[uuid.UUID]*contract.Contract) ([]RedeemBatch, int) {
	batches := make([]RedeemBatch, 0)
	index := make(map[uuid.UUID]int)
	skipped := 0

	for _, w := range work {
		target, ok := contracts[w.ContractID]
		if !ok || !target.Deployed() {
			skipped++
			continue
		}

		i, ok := index[w.ContractID]
		if !ok {
			i = len(batches)
			index[w.ContractID] = i
			batches = append(batches, RedeemBatch{
				ContractID: w.ContractID,
				Address:    *target.Address,
			})
		}

		batch := &batches[i]
		batch.IntentIDs = append(batch.IntentIDs, w.Intent.ID)
		batch.Call.Entries = append(batch.Call.Entries, chain.RedeemEntry{
			Owner:     w.OwnerAddress,
			VoucherID: w.OnChainID,
			Merchant:  w.Intent.To,
		})
		batch.Call.Count++
	}

	return batches, skipped
}
