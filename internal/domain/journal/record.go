package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mealvoucher-platform/internal/domain/shared"
)

// StageResult summarizes one stage of a settlement cycle
type StageResult struct {
	Kind         shared.IntentKind `json:"kind" bson:"kind"`
	IntentCount  int               `json:"intent_count" bson:"intent_count"`
	SuccessCount int               `json:"success_count" bson:"success_count"`
	FailureCount int               `json:"failure_count" bson:"failure_count"`
	Error        string            `json:"error,omitempty" bson:"error,omitempty"`
}

// CycleRecord is the audit trail of one settlement cycle. Postgres holds the
// authoritative intent outcomes; the journal keeps the per-cycle history for
// reconciliation and debugging.
type CycleRecord struct {
	CycleID     uuid.UUID     `json:"cycle_id" bson:"cycle_id"`
	TriggeredBy string        `json:"triggered_by" bson:"triggered_by"`
	Stages      []StageResult `json:"stages" bson:"stages"`
	StartedAt   time.Time     `json:"started_at" bson:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}

// NewCycleRecord starts the audit trail for a settlement cycle
func NewCycleRecord(triggeredBy string) *CycleRecord {
	return &CycleRecord{
		CycleID:     uuid.New(),
		TriggeredBy: triggeredBy,
		StartedAt:   time.Now(),
	}
}

// AddStage appends a stage summary to the record
func (r *CycleRecord) AddStage(result StageResult) {
	r.Stages = append(r.Stages, result)
}

// Finish stamps the record's completion time
func (r *CycleRecord) Finish() {
	now := time.Now()
	r.FinishedAt = &now
}

// Repository defines persistence operations for the settlement journal
type Repository interface {
	// Create stores a completed cycle record
	Create(ctx context.Context, record *CycleRecord) error

	// GetByCycleID retrieves a cycle record by its id
	GetByCycleID(ctx context.Context, cycleID uuid.UUID) (*CycleRecord, error)

	// GetByTimeRange retrieves paginated cycle records within a time window,
	// newest first
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*CycleRecord, error)
}

// ErrRecordNotFound indicates no journal record exists for the cycle
type ErrRecordNotFound struct {
	CycleID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return fmt.Sprintf("journal record not found for cycle: %s", e.CycleID)
}
