package models

import "github.com/google/uuid"

// Address is a saved shipping address owned by one user.
type Address struct {
	BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	Name         string    `gorm:"not null" json:"name"`
	Address      string    `gorm:"not null" json:"address"`
	MobileNumber string    `gorm:"not null" json:"mobileNumber"`
}
