package models

import "time"

// OrderStatusHistory is an append-only record of every status change,
// including a synthetic creation entry with FromStatus == ToStatus.
// Rows cascade-delete with their order.
type OrderStatusHistory struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"not null;index" json:"order_id"`
	Order      *Order      `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	FromStatus OrderStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ChangedAt  time.Time   `gorm:"not null" json:"changed_at"`
	ChangedBy  string      `gorm:"type:varchar(100)" json:"changed_by,omitempty"`
	Notes      string      `gorm:"type:varchar(500)" json:"notes,omitempty"`
}
