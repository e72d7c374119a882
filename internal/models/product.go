package models

import (
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	Name        string         `gorm:"index;not null" json:"name"`
	Price       float64        `gorm:"not null" json:"price"`
	Description string         `json:"description"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`
	Discount    *float64       `json:"discount,omitempty"`
	Sizes       pq.StringArray `gorm:"type:text[]" json:"sizes"`
	Categories  []Category     `gorm:"many2many:product_categories;" json:"categories,omitempty"`
}

// EffectivePrice applies the percentage discount when one is set.
func (p Product) EffectivePrice() float64 {
	if p.Discount == nil {
		return p.Price
	}
	return p.Price * (1 - *p.Discount/100)
}

// HasSize reports whether size is one of the product's sizes.
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
