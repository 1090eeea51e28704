package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

func setupNotificationTest(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	dsn := fmt.Sprintf("file:notification_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&Notification{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db, NewService(NewRepository(db), nil)
}

func seedNotification(t *testing.T, db *gorm.DB, userID int64, isRead bool, age time.Duration) *Notification {
	t.Helper()
	n := &Notification{
		UserID:    userID,
		DepositID: 1,
		Type:      TypeStateChange,
		Title:     "Deposit state changed",
		Message:   "test",
		IsRead:    isRead,
	}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("failed to seed notification: %v", err)
	}
	if age > 0 {
		if err := db.Model(n).Update("created_at", time.Now().Add(-age)).Error; err != nil {
			t.Fatalf("failed to backdate notification: %v", err)
		}
	}
	return n
}

func TestGetUserNotificationsWithUnreadCount(t *testing.T) {
	db, svc := setupNotificationTest(t)
	ctx := context.Background()

	seedNotification(t, db, 1, false, 0)
	seedNotification(t, db, 1, true, 0)
	seedNotification(t, db, 2, false, 0)

	list, unread, err := svc.GetUserNotifications(ctx, 1, 50)
	if err != nil {
		t.Fatalf("get notifications failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications for user 1, got %d", len(list))
	}
	if unread != 1 {
		t.Fatalf("expected 1 unread, got %d", unread)
	}
}

func TestMarkAsReadScopedToOwner(t *testing.T) {
	db, svc := setupNotificationTest(t)
	ctx := context.Background()

	n := seedNotification(t, db, 1, false, 0)

	// Another user cannot mark someone else's notification.
	if err := svc.MarkAsRead(ctx, n.ID, 2); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}

	if err := svc.MarkAsRead(ctx, n.ID, 1); err != nil {
		t.Fatalf("mark as read failed: %v", err)
	}
	_, unread, err := svc.GetUserNotifications(ctx, 1, 50)
	if err != nil {
		t.Fatalf("get notifications failed: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected 0 unread, got %d", unread)
	}
}

func TestMarkAllAsRead(t *testing.T) {
	db, svc := setupNotificationTest(t)
	ctx := context.Background()

	seedNotification(t, db, 1, false, 0)
	seedNotification(t, db, 1, false, 0)
	seedNotification(t, db, 2, false, 0)

	if err := svc.MarkAllAsRead(ctx, 1); err != nil {
		t.Fatalf("mark all as read failed: %v", err)
	}

	_, unread, _ := svc.GetUserNotifications(ctx, 1, 50)
	if unread != 0 {
		t.Fatalf("expected 0 unread for user 1, got %d", unread)
	}
	_, otherUnread, _ := svc.GetUserNotifications(ctx, 2, 50)
	if otherUnread != 1 {
		t.Fatalf("other users must be untouched, got %d unread", otherUnread)
	}
}

func TestCleanupDeletesOnlyOldReadNotifications(t *testing.T) {
	db, svc := setupNotificationTest(t)
	ctx := context.Background()

	oldRead := seedNotification(t, db, 1, true, 100*24*time.Hour)
	oldUnread := seedNotification(t, db, 1, false, 100*24*time.Hour)
	freshRead := seedNotification(t, db, 1, true, time.Hour)

	deleted, err := svc.CleanupOldNotifications(ctx, 90*24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted row, got %d", deleted)
	}

	var remaining []Notification
	if err := db.Order("id").Find(&remaining).Error; err != nil {
		t.Fatalf("failed to load rows: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 surviving rows, got %d", len(remaining))
	}
	for _, n := range remaining {
		if n.ID == oldRead.ID {
			t.Fatal("old read notification should be gone")
		}
	}
	if remaining[0].ID != oldUnread.ID || remaining[1].ID != freshRead.ID {
		t.Fatal("unread and recent notifications must survive cleanup")
	}
}
