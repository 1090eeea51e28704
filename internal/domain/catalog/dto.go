package catalog

type LanguoidRequest struct {
	Code      string   `json:"code" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Level     string   `json:"level" validate:"required,oneof=family language dialect"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type CollectionRequest struct {
	Slug        string `json:"slug" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	CuratorID   int64  `json:"curator_id"`
}

type ItemRequest struct {
	Ident        string  `json:"ident" validate:"required"`
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description"`
	CollectionID *int64  `json:"collection_id"`
	LanguoidIDs  []int64 `json:"languoid_ids"`
}

type CollaboratorRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Anonymous bool   `json:"anonymous"`
}

type ItemCollaboratorRequest struct {
	CollaboratorID int64  `json:"collaborator_id" validate:"required"`
	Role           string `json:"role" validate:"required"`
}
