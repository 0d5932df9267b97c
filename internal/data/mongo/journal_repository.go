package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mealvoucher-platform/internal/domain/journal"
)

const (
	// JournalCollectionName is the name of the settlement journal collection in MongoDB
	JournalCollectionName = "settlement_cycles"
)

// JournalRepository implements the journal.Repository interface for MongoDB
type JournalRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewJournalRepository creates a new MongoDB settlement journal repository
func NewJournalRepository(logger *slog.Logger, db *mongo.Database) journal.Repository {
	return &JournalRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a completed cycle record. Cycle ids are generated per run,
// so duplicates can only come from a retried insert and are rejected.
func (r *JournalRepository) Create(ctx context.Context, record *journal.CycleRecord) error {
	collection := r.db.Collection(JournalCollectionName)

	existing, err := r.GetByCycleID(ctx, record.CycleID)
	if err != nil && !errors.Is(err, journal.ErrRecordNotFound{CycleID: record.CycleID}) {
		r.logger.Error("Failed to check for existing cycle record",
			"cycle_id", record.CycleID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing cycle record: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("cycle record already exists: %s", record.CycleID)
	}

	_, err = collection.InsertOne(ctx, record)
	if err != nil {
		r.logger.Error("Failed to create cycle record",
			"cycle_id", record.CycleID.String(),
			"error", err)
		return fmt.Errorf("failed to create cycle record: %w", err)
	}

	return nil
}

// GetByCycleID retrieves a cycle record by its id.
// Returns ErrRecordNotFound if no record exists for the cycle.
func (r *JournalRepository) GetByCycleID(ctx context.Context, cycleID uuid.UUID) (*journal.CycleRecord, error) {
	collection := r.db.Collection(JournalCollectionName)

	filter := bson.M{"cycle_id": cycleID}
	var record journal.CycleRecord
	err := collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journal.ErrRecordNotFound{CycleID: cycleID}
		}
		r.logger.Error("Failed to get cycle record",
			"cycle_id", cycleID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get cycle record: %w", err)
	}

	return &record, nil
}

// GetByTimeRange retrieves paginated cycle records within the specified time window.
// Results are sorted by start time in descending order for recent-first access.
func (r *JournalRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*journal.CycleRecord, error) {
	collection := r.db.Collection(JournalCollectionName)

	filter := bson.M{
		"started_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"started_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get cycle records by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get cycle records by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*journal.CycleRecord
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode cycle records",
			"error", err)
		return nil, fmt.Errorf("failed to decode cycle records: %w", err)
	}

	return records, nil
}
