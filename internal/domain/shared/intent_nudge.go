package shared

import (
	"time"

	"github.com/google/uuid"
)

// IntentNudge defines the Kafka message the API publishes after inserting a
// pending intent. It wakes the settlement worker early; the worker re-reads
// pending work from the database, so a lost or duplicated nudge costs
// nothing but latency.
type IntentNudge struct {
	IntentID      uuid.UUID  `json:"intent_id"`
	Kind          IntentKind `json:"kind"`
	CorrelationID string     `json:"correlation_id"`
	Timestamp     time.Time  `json:"timestamp"`
}
