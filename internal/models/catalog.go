package models

type Category struct {
	BaseModel
	Name     string    `gorm:"uniqueIndex;not null" json:"name"`
	Products []Product `gorm:"many2many:product_categories;" json:"products,omitempty"`
}
