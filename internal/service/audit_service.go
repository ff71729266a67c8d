package service

import (
	"context"
	"encoding/json"
	"log"

	"credito/internal/model"
	"credito/internal/repository"

	"github.com/google/uuid"
)

// AuditEntry is one event to append to the trail. Details is marshaled to the
// jsonb column as-is.
type AuditEntry struct {
	ActorID           *uuid.UUID
	Action            string
	EntityType        string
	EntityID          string
	RootApplicationID *uuid.UUID
	Details           map[string]interface{}
}

// AuditRecorder is the port lifecycle services use to append events. Callers
// treat failures as best-effort: a failed audit write never masks the error of
// the operation being audited.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

type AuditLogResponse struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	Action            string `json:"action"`
	EntityType        string `json:"entity_type"`
	EntityID          string `json:"entity_id"`
	RootApplicationID string `json:"root_application_id,omitempty"`
	Details           string `json:"details"`
	CreatedAt         string `json:"created_at"`
}

// AuditService exposes the recorder plus the read side for the audit screens.
type AuditService interface {
	AuditRecorder
	GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
	GetApplicationHistory(ctx context.Context, rootID uuid.UUID) ([]AuditLogResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		log.Printf("audit: failed to serialize details for action %s: %v", entry.Action, err)
		details = nil
	}
	return s.repo.Log(ctx, &model.AuditLog{
		UserID:            entry.ActorID,
		Action:            entry.Action,
		EntityType:        entry.EntityType,
		EntityID:          entry.EntityID,
		RootApplicationID: entry.RootApplicationID,
		Details:           string(details),
	})
}

func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditResponse(l))
	}
	return res, total, nil
}

// GetApplicationHistory returns every event of one credit request in order,
// from the preliminary bureau check through contract generation.
func (s *auditService) GetApplicationHistory(ctx context.Context, rootID uuid.UUID) ([]AuditLogResponse, error) {
	logs, err := s.repo.ListByRootApplication(ctx, rootID)
	if err != nil {
		return nil, err
	}
	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditResponse(l))
	}
	return res, nil
}

func toAuditResponse(l model.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         l.ID.String(),
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if l.UserID != nil {
		resp.UserID = l.UserID.String()
	}
	if l.User != nil {
		resp.Username = l.User.Username
	} else {
		resp.Username = "Sistema"
	}
	if l.RootApplicationID != nil {
		resp.RootApplicationID = l.RootApplicationID.String()
	}
	return resp
}
