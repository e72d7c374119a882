package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Order is an immutable snapshot of a submitted cart. Only the notification
// columns change after creation.
type Order struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"userId"`
	Items       OrderItems      `gorm:"type:jsonb;not null" json:"items"`
	Total       float64         `gorm:"not null" json:"total"`
	Address     ShippingAddress `gorm:"type:jsonb;not null" json:"address"`
	NotifiedAt  *time.Time      `json:"notifiedAt,omitempty"`
	NotifyError string          `json:"notificationError,omitempty"`
}

// OrderItem mirrors a client cart line at submission time.
type OrderItem struct {
	ProductID string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Image     string   `json:"image,omitempty"`
	Quantity  int      `json:"quantity"`
	Discount  *float64 `json:"discount,omitempty"`
	Size      string   `json:"size"`
}

// EffectivePrice is the unit price after discount.
func (i OrderItem) EffectivePrice() float64 {
	if i.Discount == nil {
		return i.Price
	}
	return i.Price * (1 - *i.Discount/100)
}

func (i OrderItem) Subtotal() float64 {
	return i.EffectivePrice() * float64(i.Quantity)
}

type OrderItems []OrderItem

// Sum adds up line subtotals without rounding.
func (items OrderItems) Sum() float64 {
	var total float64
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}

// Clone deep-copies the items, discount pointers included.
func (items OrderItems) Clone() OrderItems {
	if items == nil {
		return nil
	}
	out := make(OrderItems, len(items))
	for i, it := range items {
		if it.Discount != nil {
			d := *it.Discount
			it.Discount = &d
		}
		out[i] = it
	}
	return out
}

func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

func (items *OrderItems) Scan(src interface{}) error {
	return scanJSON(src, items)
}

// ShippingAddress is the address copied onto an order.
type ShippingAddress struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	MobileNumber string `json:"mobileNumber"`
}

func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ShippingAddress) Scan(src interface{}) error {
	return scanJSON(src, a)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported jsonb source type")
	}
}
