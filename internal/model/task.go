package model

import "time"

// DefaultTaskStatus is assigned when a task is created without an
// explicit status. Status is an open string, not an enum.
const DefaultTaskStatus = "Pending"

// Task is a to-do item owned by exactly one user.
//
// CharacterID optionally references a record in the external character
// catalog. It is not validated against the catalog at write time; the
// list endpoint resolves it best-effort.
type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"not null" json:"user_id"`          // owner, immutable after create
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Title       string     `gorm:"type:varchar(191);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `gorm:"type:varchar(32);default:Pending" json:"status"`

	CharacterID *int `json:"character_id,omitempty"`
}
