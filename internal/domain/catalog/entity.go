package catalog

import "time"

// LanguoidLevel distinguishes families, languages and dialects.
type LanguoidLevel string

const (
	LevelFamily   LanguoidLevel = "family"
	LevelLanguage LanguoidLevel = "language"
	LevelDialect  LanguoidLevel = "dialect"
)

// Languoid is a catalogued language, dialect or family.
type Languoid struct {
	ID        int64         `gorm:"column:id;primaryKey" json:"id"`
	Code      string        `gorm:"column:code;uniqueIndex" json:"code" validate:"required"`
	Name      string        `gorm:"column:name;index" json:"name" validate:"required"`
	Level     LanguoidLevel `gorm:"column:level" json:"level" validate:"required,oneof=family language dialect"`
	Latitude  *float64      `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude *float64      `gorm:"column:longitude" json:"longitude,omitempty"`
	ItemCount int64         `gorm:"column:item_count" json:"item_count"`
	CreatedAt time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Languoid) TableName() string { return "languoids" }

// Collection groups items under a curator.
type Collection struct {
	ID          int64     `gorm:"column:id;primaryKey" json:"id"`
	Slug        string    `gorm:"column:slug;uniqueIndex" json:"slug" validate:"required"`
	Title       string    `gorm:"column:title" json:"title" validate:"required"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	CuratorID   int64     `gorm:"column:curator_id" json:"curator_id"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Collection) TableName() string { return "collections" }

// Item is a single archived record. Ident is the public archive identifier.
type Item struct {
	ID           int64      `gorm:"column:id;primaryKey" json:"id"`
	Ident        string     `gorm:"column:ident;uniqueIndex" json:"ident" validate:"required"`
	Title        string     `gorm:"column:title" json:"title" validate:"required"`
	Description  string     `gorm:"column:description" json:"description,omitempty"`
	CollectionID *int64     `gorm:"column:collection_id;index" json:"collection_id,omitempty"`
	Languoids    []Languoid `gorm:"many2many:item_languoids" json:"languoids,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Item) TableName() string { return "items" }

// Collaborator is a person associated with items (speaker, recorder, ...).
type Collaborator struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name" json:"name" validate:"required"`
	Email     string    `gorm:"column:email" json:"email,omitempty"`
	Anonymous bool      `gorm:"column:anonymous" json:"anonymous"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Collaborator) TableName() string { return "collaborators" }

// ItemCollaborator links a collaborator to an item with a role string.
type ItemCollaborator struct {
	ItemID         int64  `gorm:"column:item_id;primaryKey" json:"item_id"`
	CollaboratorID int64  `gorm:"column:collaborator_id;primaryKey" json:"collaborator_id"`
	Role           string `gorm:"column:role;primaryKey" json:"role"`
}

func (ItemCollaborator) TableName() string { return "item_collaborators" }
