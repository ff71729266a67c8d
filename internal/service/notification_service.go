package service

import (
	"context"
	"encoding/json"
	"log"

	"credito/internal/model"
	"credito/internal/repository"

	"github.com/google/uuid"
)

// NotificationEmitter is the port lifecycle services use to queue messages.
// Queueing writes an outbox row in the caller's transaction context; actual
// delivery happens asynchronously in the dispatcher worker, so a delivery
// failure can never unwind the transition that queued the message.
type NotificationEmitter interface {
	QueueForUser(ctx context.Context, userID uuid.UUID, notifType, message string, metadata map[string]interface{}) error
	QueueForRole(ctx context.Context, role, notifType, message string, metadata map[string]interface{}) error
}

// NotificationService adds the read side used by the notification endpoints.
type NotificationService interface {
	NotificationEmitter
	ListForUser(ctx context.Context, userID uuid.UUID, role string, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) QueueForUser(ctx context.Context, userID uuid.UUID, notifType, message string, metadata map[string]interface{}) error {
	n := &model.Notification{
		TargetUserID: &userID,
		Type:         notifType,
		Message:      message,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			log.Printf("notification: failed to serialize metadata for user %s: %v", userID, err)
		} else {
			n.Metadata = string(raw)
		}
	}
	return s.repo.Create(ctx, n)
}

func (s *notificationService) QueueForRole(ctx context.Context, role, notifType, message string, metadata map[string]interface{}) error {
	n := &model.Notification{
		TargetRole: role,
		Type:       notifType,
		Message:    message,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			log.Printf("notification: failed to serialize metadata for role %s: %v", role, err)
		} else {
			n.Metadata = string(raw)
		}
	}
	return s.repo.Create(ctx, n)
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, role string, page, limit int) ([]model.Notification, int64, error) {
	return s.repo.ListForUser(ctx, userID, role, page, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}
