package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a closed set of order lifecycle states.
type OrderStatus string

const (
	OrderInProgress OrderStatus = "in_progress"
	OrderDelivered  OrderStatus = "delivered"
	OrderPaid       OrderStatus = "paid"
	OrderCancelled  OrderStatus = "cancelled"
)

// orderTransitions is the full transition table. Paid and Cancelled are
// terminal; self-transitions are not listed and therefore rejected.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderInProgress: {OrderDelivered, OrderPaid, OrderCancelled},
	OrderDelivered:  {OrderPaid, OrderCancelled},
	OrderPaid:       {},
	OrderCancelled:  {},
}

// AllowedTransitions returns the states reachable from the given status.
func AllowedTransitions(from OrderStatus) []OrderStatus {
	return orderTransitions[from]
}

// CanTransitionTo reports whether from -> to is a legal status change.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// IsActive reports whether the order still counts toward table occupancy.
func (s OrderStatus) IsActive() bool {
	return s == OrderInProgress || s == OrderDelivered
}

// ParseOrderStatus validates a raw status value against the closed set.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(raw)
	switch s {
	case OrderInProgress, OrderDelivered, OrderPaid, OrderCancelled:
		return s, true
	}
	return "", false
}

type Order struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	Reference     string               `gorm:"type:varchar(36);uniqueIndex;not null" json:"reference"`
	TableID       uint                 `gorm:"not null;index" json:"table_id"`
	Table         *Table               `gorm:"foreignKey:TableID" json:"table,omitempty"`
	Status        OrderStatus          `gorm:"type:varchar(20);not null;default:'in_progress';index" json:"status"`
	TotalAmount   decimal.Decimal      `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	CustomerNotes string               `gorm:"type:text" json:"customer_notes,omitempty"`
	Version       uint                 `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time            `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"not null" json:"updated_at"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
	DeliveredAt   *time.Time           `json:"delivered_at,omitempty"`
	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"`
}

// CanEdit reports whether items and notes may still be changed.
// A paid order is immutable.
func (o *Order) CanEdit() bool {
	return o.Status != OrderPaid
}
