package notification

import "time"

// Type represents notification type
type Type string

const (
	// TypeStateChange is emitted to involved users when a deposit moves
	// through the review workflow.
	TypeStateChange Type = "STATE_CHANGE"
	// TypeSystem is the summary sent to the draft owner on terminal or
	// revision outcomes.
	TypeSystem Type = "SYSTEM"
)

// Notification is a message addressed to one user about one deposit.
// Immutable after creation except for the read flag.
type Notification struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	UserID    int64     `gorm:"column:user_id;index:idx_notifications_user_unread" json:"user_id"`
	DepositID int64     `gorm:"column:deposit_id;index" json:"deposit_id"`
	Type      Type      `gorm:"column:type" json:"type"`
	Title     string    `gorm:"column:title" json:"title"`
	Message   string    `gorm:"column:message" json:"message"`
	IsRead    bool      `gorm:"column:is_read;index:idx_notifications_user_unread" json:"is_read"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies table name for GORM
func (Notification) TableName() string {
	return "notifications"
}
