package model

import "time"

// User is a registered account. Email is the login key; Password holds
// the bcrypt hash and is never returned in API responses.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`

	Tasks []Task `gorm:"foreignKey:UserID" json:"-"`
}
