package database

import (
	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/models"
	"github.com/aerocomidas/restaurant-pos/utils"
)

// Migrate runs AutoMigrate for every model and ensures the indexes the
// query patterns rely on (orders by table, status and creation time; menu
// items by category).
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
	)
	if err != nil {
		return err
	}

	// AutoMigrate creates tag-declared indexes, but databases migrated before
	// the tags existed may miss them. Backfill through the migrator so the
	// DDL stays portable between sqlite and mysql.
	indexed := []struct {
		model  interface{}
		column string
	}{
		{&models.Order{}, "TableID"},
		{&models.Order{}, "Status"},
		{&models.Order{}, "CreatedAt"},
		{&models.OrderStatusHistory{}, "OrderID"},
		{&models.MenuItem{}, "Category"},
	}
	for _, idx := range indexed {
		if db.Migrator().HasIndex(idx.model, idx.column) {
			continue
		}
		if err := db.Migrator().CreateIndex(idx.model, idx.column); err != nil {
			utils.ErrorLogger.Printf("Error creating index on %s: %v", idx.column, err)
		}
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
