package domain

import "time"

// User Model
type User struct {
	ID           uint      `gorm:"primaryKey"`                                    // Primary key
	Username     string    `gorm:"size:100;unique;not null"`                      // Unique username
	Email        string    `gorm:"size:150;unique;not null"`                      // Unique email, used to log in
	PhoneNumber  string    `gorm:"size:15"`                                       // Contact phone
	PasswordHash string    `gorm:"size:255;not null" json:"-"`                    // bcrypt hash of the password
	CreatedAt    time.Time `gorm:"autoCreateTime"`                                // Timestamp of creation
	Products     []Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Catalog owned by the user
}
