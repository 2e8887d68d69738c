package models

import "time"

// TableStatus is a closed set of table states. Occupancy (available vs
// occupied) is derived from active orders by the table service; reserved and
// cleaning are manual states set by staff.
type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
	TableCleaning  TableStatus = "cleaning"
)

// ParseTableStatus validates a raw status value against the closed set.
func ParseTableStatus(raw string) (TableStatus, bool) {
	s := TableStatus(raw)
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableCleaning:
		return s, true
	}
	return "", false
}

type Table struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	TableNumber   int         `gorm:"uniqueIndex;not null" json:"table_number"`
	Capacity      int         `gorm:"not null" json:"capacity"`
	Status        TableStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	Location      string      `gorm:"type:varchar(100)" json:"location,omitempty"`
	OccupiedSince *time.Time  `json:"occupied_since,omitempty"`
	CurrentWaiter string      `gorm:"type:varchar(100)" json:"current_waiter,omitempty"`
	CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
	Orders        []Order     `gorm:"foreignKey:TableID" json:"orders,omitempty"`
}
