package audit

import (
	"context"
	"time"

	id "trustledger/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// Consumers use it for retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers actions an external auditor must be able to
	// reconstruct: detections, resolutions and manual flags.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine batch activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// Subject is the entity the event is about (anomaly, department, run).
	Subject string
	// ActorID is the user who performed the action, the system actor for batch runs.
	ActorID   id.UserID
	RequestID string
	// Attributes carries event-specific detail (severity, scores, counts).
	Attributes map[string]string
}

type AuditEvent string

const (
	EventAnomalyDetected       AuditEvent = "anomaly_detected"
	EventAnomalyResolved       AuditEvent = "anomaly_resolved"
	EventAnomalyFlagged        AuditEvent = "anomaly_flagged"
	EventTrustScoreCalculated  AuditEvent = "trust_score_calculated"
	EventIntegrityRunCompleted AuditEvent = "integrity_run_completed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAnomalyDetected:       CategoryCompliance,
	EventAnomalyResolved:       CategoryCompliance,
	EventAnomalyFlagged:        CategoryCompliance,
	EventTrustScoreCalculated:  CategoryOperations,
	EventIntegrityRunCompleted: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Postgres writes to the outbox; memory keeps them for tests.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is what domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
