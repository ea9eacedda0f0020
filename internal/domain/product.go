package domain

import "time"

// Product Model
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`             // Primary key
	UserID      uint      `gorm:"index;not null" json:"user_id"`    // Foreign key to the owning User
	Name        string    `gorm:"size:200;not null" json:"name"`    // Product name, unique per user by convention only
	Description string    `gorm:"type:text" json:"description"`     // Optional description
	Price       float64   `gorm:"not null" json:"price"`            // Default unit price
	UnitType    string    `gorm:"size:50" json:"unit_type"`         // Free text unit, e.g. KG, NOS, PCS
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"` // Timestamp of creation
}
