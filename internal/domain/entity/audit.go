package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditSubjectSession      = "offer_session"
	AuditSubjectOrder        = "order"
	AuditSubjectOrganization = "organization"

	AuditActionSessionOpened  = "offer.created"
	AuditActionCounteroffered = "offer.counteroffered"
	AuditActionMerged         = "offer.merged"
	AuditActionOrderCreated   = "order.created"
	AuditActionOrderStatus    = "order.status_changed"
	AuditActionOrderCancelled = "order.cancelled"
	AuditActionSellerArchived = "organization.archived"
)

type AuditEntry struct {
	ID          uuid.UUID
	Action      string
	ActorID     uuid.UUID
	SubjectType string
	SubjectID   uuid.UUID
	Metadata    map[string]interface{}
	CreatedAt   time.Time
}

func NewAuditEntry(action string, actorID uuid.UUID, subjectType string, subjectID uuid.UUID, metadata map[string]interface{}) *AuditEntry {
	return &AuditEntry{
		ID:          uuid.New(),
		Action:      action,
		ActorID:     actorID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	}
}

// MergeRecord фиксирует состав объединения сессий.
type MergeRecord struct {
	ID               uuid.UUID
	MergedSessionID  uuid.UUID
	MergedOfferID    uuid.UUID
	SourceSessionIDs []uuid.UUID
	CombinedCost     int64
	RequesterID      uuid.UUID
	CreatedAt        time.Time
}
