package deposit

import "encoding/json"

type CreateDepositRequest struct {
	Title    string          `json:"title" validate:"required"`
	Metadata json.RawMessage `json:"metadata"`
}

type TransitionRequest struct {
	TargetState   string `json:"target_state" validate:"required"`
	ObservedState string `json:"observed_state" validate:"required"`
	Comment       string `json:"comment"`
}

type InvolvedUserRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type BulkStateRequest struct {
	DepositIDs        []int64 `json:"deposit_ids" validate:"required,min=1"`
	TargetState       string  `json:"target_state" validate:"required"`
	EmitNotifications bool    `json:"emit_notifications"`
}
