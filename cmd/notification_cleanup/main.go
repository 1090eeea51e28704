package main

import (
	"context"
	"log"
	"os"
	"time"

	"langarchive/internal/database"
	"langarchive/internal/domain/notification"
)

// One-shot retention cleanup, intended to be run from cron.
func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	retention := 90 * 24 * time.Hour
	if v := os.Getenv("NOTIFICATION_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid NOTIFICATION_RETENTION value %q", v)
		}
		retention = d
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	svc := notification.NewService(notification.NewRepository(db), nil)

	deleted, err := svc.CleanupOldNotifications(context.Background(), retention)
	if err != nil {
		log.Fatalf("notification cleanup failed: %v", err)
	}

	log.Printf("notification cleanup completed: deleted=%d retention=%s", deleted, retention)
}
