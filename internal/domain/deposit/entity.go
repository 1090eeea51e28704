package deposit

import (
	"encoding/json"
	"time"
)

// State is the deposit's position in the review workflow.
type State string

const (
	StateDraft         State = "DRAFT"
	StateReview        State = "REVIEW"
	StateAccepted      State = "ACCEPTED"
	StateNeedsRevision State = "NEEDS_REVISION"
)

var validStates = map[State]bool{
	StateDraft:         true,
	StateReview:        true,
	StateAccepted:      true,
	StateNeedsRevision: true,
}

// ParseState maps a request string onto the state enum.
func ParseState(s string) (State, bool) {
	st := State(s)
	return st, validStates[st]
}

// Deposit is a user-submitted bundle of files awaiting archival review.
// State is only mutated through the workflow engine; anything else bypasses
// validation and notifications.
type Deposit struct {
	ID          int64           `gorm:"column:id;primaryKey" json:"id"`
	Title       string          `gorm:"column:title" json:"title"`
	DraftUserID int64           `gorm:"column:draft_user_id;index" json:"draft_user_id"`
	State       State           `gorm:"column:state;index" json:"state"`
	IsDraft     bool            `gorm:"column:is_draft" json:"is_draft"`
	Metadata    json.RawMessage `gorm:"column:metadata;type:json" json:"metadata,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`

	Files []DepositFile `gorm:"foreignKey:DepositID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

func (Deposit) TableName() string { return "deposits" }

// DepositFile is one uploaded file of a deposit. At most one file per
// deposit carries the metadata flag; marking a new one replaces the old.
type DepositFile struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	DepositID      int64     `gorm:"column:deposit_id;index" json:"deposit_id"`
	Filename       string    `gorm:"column:filename" json:"filename"`
	FilePath       string    `gorm:"column:file_path" json:"-"` // relative disk path
	Size           int64     `gorm:"column:size" json:"size"`
	MimeType       string    `gorm:"column:mime_type" json:"mime_type"`
	UploadedBy     int64     `gorm:"column:uploaded_by" json:"uploaded_by"`
	IsMetadataFile bool      `gorm:"column:is_metadata_file" json:"is_metadata_file"`
	ItemIdent      string    `gorm:"column:item_ident" json:"item_ident,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (DepositFile) TableName() string { return "deposit_files" }

// InvolvedUser links a reviewer or stakeholder to a deposit.
type InvolvedUser struct {
	DepositID int64 `gorm:"column:deposit_id;primaryKey" json:"deposit_id"`
	UserID    int64 `gorm:"column:user_id;primaryKey" json:"user_id"`
}

func (InvolvedUser) TableName() string { return "deposit_involved_users" }

// DepositEvent is the append-only transition history. One row per
// successful transition, written in the same transaction.
type DepositEvent struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	DepositID int64     `gorm:"column:deposit_id;index" json:"deposit_id"`
	FromState State     `gorm:"column:from_state" json:"from_state"`
	ToState   State     `gorm:"column:to_state" json:"to_state"`
	ActorID   int64     `gorm:"column:actor_id;index" json:"actor_id"`
	Comment   string    `gorm:"column:comment" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (DepositEvent) TableName() string { return "deposit_events" }
