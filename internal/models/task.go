package models

import "time"

// Task is a named dataset batch uploaded by an administrator. Its annotation
// records (templates and instances) are deleted together with it.
type Task struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}
