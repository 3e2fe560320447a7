package models

import "time"

// Role is what an actor is allowed to see and do
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAnnotator Role = "annotator"
	// RoleAnonymous is never stored; it marks requests without a session
	RoleAnonymous Role = "anonymous"
)

// Valid reports whether r can be assigned to a stored user
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAnnotator
}

// User represents an account that can log in
type User struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"not null;size:32;default:annotator"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}
