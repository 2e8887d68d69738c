package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuCategories is the fixed category set menu items must belong to.
var MenuCategories = []string{
	"Starters",
	"Mains",
	"Pizzas",
	"Pastas",
	"Salads",
	"Desserts",
	"Drinks",
	"Wines",
}

// ValidMenuCategory reports whether the category is one of the fixed set.
func ValidMenuCategory(category string) bool {
	for _, c := range MenuCategories {
		if c == category {
			return true
		}
	}
	return false
}

// MenuItem is the live catalog entry. Orders never reference it; they copy
// name and price at creation time.
type MenuItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description     string          `gorm:"type:varchar(500)" json:"description,omitempty"`
	Price           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	Category        string          `gorm:"type:varchar(50);not null;index" json:"category"`
	IsAvailable     bool            `gorm:"not null;default:true" json:"is_available"`
	PrepTimeMinutes int             `gorm:"not null;default:15" json:"prep_time_minutes"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}
