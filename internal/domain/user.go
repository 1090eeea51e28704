package domain

import "time"

type UserRole string

const (
	RoleDepositor UserRole = "depositor"
	RoleReviewer  UserRole = "reviewer"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex" json:"email" validate:"required,email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	Role         UserRole  `gorm:"column:role" json:"role"`
	Name         string    `gorm:"column:name" json:"name"`
	Affiliation  string    `gorm:"column:affiliation" json:"affiliation,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }
