package notification

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

type Service struct {
	repo Repository
	hub  *Hub
}

// NewService creates the notification service. hub may be nil when no live
// feed is wanted (tests, cleanup binary).
func NewService(repo Repository, hub *Hub) *Service {
	return &Service{repo: repo, hub: hub}
}

// CreateTx inserts a notification row using the caller's transaction handle.
// The deposit workflow engine calls this so the row commits or rolls back
// together with the state change.
func (s *Service) CreateTx(tx *gorm.DB, n *Notification) error {
	return tx.Create(n).Error
}

// Publish pushes the notification to the recipient's websocket, if any.
// Called after commit; the database row stays the source of truth.
func (s *Service) Publish(n *Notification) {
	if s.hub == nil || n == nil {
		return
	}
	s.hub.Send(n.UserID, n)
}

func (s *Service) GetUserNotifications(ctx context.Context, userID int64, limit int) ([]Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	list, err := s.repo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		unread = 0
	}

	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// CleanupOldNotifications removes read notifications older than the retention
// window. Returns the number of deleted rows.
func (s *Service) CleanupOldNotifications(ctx context.Context, retention time.Duration) (int64, error) {
	startTime := time.Now()

	deleted, err := s.repo.DeleteReadOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		log.Printf("Error cleaning up old notifications: %v", err)
		return 0, err
	}

	log.Printf("Cleanup completed: deleted %d old notifications in %v", deleted, time.Since(startTime))
	return deleted, nil
}
