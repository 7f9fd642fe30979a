package models

import "time"

// User & auth related models
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"unique;not null;index" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // hashé (bcrypt)
	Nom       string    `json:"nom"`
	Prenom    string    `json:"prenom"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
