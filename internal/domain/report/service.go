package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"langarchive/internal/domain/deposit"

	"gorm.io/gorm"
)

var ErrInvalidBucket = errors.New("bucket must be day, week or month")

type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

type StateCount struct {
	State deposit.State `json:"state"`
	Count int64         `json:"count"`
}

type TimelinePoint struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

type UserActivity struct {
	UserID          int64 `json:"user_id"`
	DepositsCreated int64 `json:"deposits_created"`
	Transitions     int64 `json:"transitions"`
	FilesUploaded   int64 `json:"files_uploaded"`
}

// Service answers read-only aggregate queries over deposits, events and
// files. Bucketing happens in Go so the same queries run on postgres and
// the sqlite test databases.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) DepositCountsByState(ctx context.Context) ([]StateCount, error) {
	var out []StateCount
	err := s.db.WithContext(ctx).
		Model(&deposit.Deposit{}).
		Select("state, COUNT(*) as count").
		Group("state").
		Order("state").
		Scan(&out).Error
	return out, err
}

// ActivityTimeline buckets transition events between from and to.
func (s *Service) ActivityTimeline(ctx context.Context, from, to time.Time, bucket Bucket) ([]TimelinePoint, error) {
	if bucket != BucketDay && bucket != BucketWeek && bucket != BucketMonth {
		return nil, ErrInvalidBucket
	}

	var stamps []time.Time
	err := s.db.WithContext(ctx).
		Model(&deposit.DepositEvent{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at").
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	var order []string
	for _, ts := range stamps {
		key := bucketKey(ts.UTC(), bucket)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	out := make([]TimelinePoint, 0, len(order))
	for _, key := range order {
		out = append(out, TimelinePoint{Bucket: key, Count: counts[key]})
	}
	return out, nil
}

func (s *Service) UserActivity(ctx context.Context, userID int64) (*UserActivity, error) {
	a := &UserActivity{UserID: userID}

	if err := s.db.WithContext(ctx).
		Model(&deposit.Deposit{}).
		Where("draft_user_id = ?", userID).
		Count(&a.DepositsCreated).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&deposit.DepositEvent{}).
		Where("actor_id = ?", userID).
		Count(&a.Transitions).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Model(&deposit.DepositFile{}).
		Where("uploaded_by = ?", userID).
		Count(&a.FilesUploaded).Error; err != nil {
		return nil, err
	}

	return a, nil
}

func bucketKey(ts time.Time, bucket Bucket) string {
	switch bucket {
	case BucketWeek:
		year, week := ts.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case BucketMonth:
		return ts.Format("2006-01")
	default:
		return ts.Format("2006-01-02")
	}
}
