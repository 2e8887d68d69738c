package models

import (
	"github.com/shopspring/decimal"
)

// OrderItem is a line item owned by exactly one order. ProductName and
// UnitPrice are snapshots taken when the order was placed, not foreign keys
// into the menu catalog, so historical totals survive later menu edits.
type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	Order       *Order          `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductName string          `gorm:"type:varchar(200);not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	Notes       string          `gorm:"type:varchar(500)" json:"notes,omitempty"`
}

// LineTotal returns quantity x unit price.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
