package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/live"
	"github.com/aerocomidas/restaurant-pos/models"
	"github.com/aerocomidas/restaurant-pos/utils"
)

// TableService owns every write to table rows. Occupancy is derived from the
// set of active orders referencing the table, recomputed on each relevant
// order transition rather than patched incrementally.
type TableService struct {
	DB    *gorm.DB
	locks *keyedMutex
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{DB: db, locks: newKeyedMutex()}
}

// LockTable serializes occupancy evaluation for one table. The order
// lifecycle engine holds this lock across its whole transaction so that the
// "any active orders remain" check cannot interleave with another create or
// release on the same table.
func (ts *TableService) LockTable(tableID uint) func() {
	return ts.locks.Lock(tableKey(tableID))
}

type CreateTableInput struct {
	TableNumber int    `json:"table_number" binding:"required"`
	Capacity    int    `json:"capacity" binding:"required"`
	Location    string `json:"location"`
}

func (ts *TableService) CreateTable(in CreateTableInput) (*models.Table, error) {
	if in.TableNumber <= 0 {
		return nil, utils.Validationf("table number must be positive")
	}
	if in.Capacity <= 0 {
		return nil, utils.Validationf("capacity must be positive")
	}

	var count int64
	if err := ts.DB.Model(&models.Table{}).Where("table_number = ?", in.TableNumber).Count(&count).Error; err != nil {
		return nil, utils.Storagef("count tables", err)
	}
	if count > 0 {
		return nil, utils.Validationf("table number %d already exists", in.TableNumber)
	}

	now := time.Now().UTC()
	table := models.Table{
		TableNumber: in.TableNumber,
		Capacity:    in.Capacity,
		Location:    in.Location,
		Status:      models.TableAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ts.DB.Create(&table).Error; err != nil {
		return nil, utils.Storagef("create table", err)
	}

	utils.InfoLogger.Printf("Table %d created (capacity=%d)", table.TableNumber, table.Capacity)
	live.BroadcastTableCreate(table)
	return &table, nil
}

func (ts *TableService) GetTable(id uint) (*models.Table, error) {
	var table models.Table
	if err := ts.DB.First(&table, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("table %d", id)
		}
		return nil, utils.Storagef("get table", err)
	}
	return &table, nil
}

func (ts *TableService) GetTableByNumber(number int) (*models.Table, error) {
	var table models.Table
	if err := ts.DB.Where("table_number = ?", number).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("table number %d", number)
		}
		return nil, utils.Storagef("get table by number", err)
	}
	return &table, nil
}

// ListTables returns tables ordered by their number, optionally filtered by
// status.
func (ts *TableService) ListTables(status *models.TableStatus) ([]models.Table, error) {
	query := ts.DB.Order("table_number asc")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var tables []models.Table
	if err := query.Find(&tables).Error; err != nil {
		return nil, utils.Storagef("list tables", err)
	}
	return tables, nil
}

type TableStats struct {
	Total         int64   `json:"total"`
	Available     int64   `json:"available"`
	Occupied      int64   `json:"occupied"`
	Reserved      int64   `json:"reserved"`
	Cleaning      int64   `json:"cleaning"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

func (ts *TableService) Stats() (*TableStats, error) {
	var stats TableStats
	counts := []struct {
		status models.TableStatus
		dest   *int64
	}{
		{models.TableAvailable, &stats.Available},
		{models.TableOccupied, &stats.Occupied},
		{models.TableReserved, &stats.Reserved},
		{models.TableCleaning, &stats.Cleaning},
	}
	for _, c := range counts {
		if err := ts.DB.Model(&models.Table{}).Where("status = ?", c.status).Count(c.dest).Error; err != nil {
			return nil, utils.Storagef("count tables", err)
		}
	}
	stats.Total = stats.Available + stats.Occupied + stats.Reserved + stats.Cleaning
	if stats.Total > 0 {
		stats.OccupancyRate = utils.RoundPct(float64(stats.Occupied) / float64(stats.Total) * 100)
	}
	return &stats, nil
}

type UpdateTableInput struct {
	Capacity      *int    `json:"capacity"`
	Status        *string `json:"status"`
	Location      *string `json:"location"`
	CurrentWaiter *string `json:"current_waiter"`
}

// UpdateTable applies manual field edits. It takes the same per-table lock
// as the occupancy hooks so a manual status change cannot clobber an
// engine-driven transition mid-flight.
func (ts *TableService) UpdateTable(id uint, in UpdateTableInput) (*models.Table, error) {
	unlock := ts.LockTable(id)
	defer unlock()

	var table models.Table
	err := ts.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&table, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundf("table %d", id)
			}
			return utils.Storagef("get table", err)
		}

		now := time.Now().UTC()

		if in.Capacity != nil {
			if *in.Capacity <= 0 {
				return utils.Validationf("capacity must be positive")
			}
			table.Capacity = *in.Capacity
		}

		if in.Status != nil {
			newStatus, ok := models.ParseTableStatus(*in.Status)
			if !ok {
				return utils.Validationf("unknown table status %q", *in.Status)
			}
			if newStatus == models.TableOccupied && table.Status != models.TableOccupied {
				table.OccupiedSince = &now
			}
			if newStatus == models.TableAvailable {
				table.OccupiedSince = nil
			}
			table.Status = newStatus
		}

		if in.Location != nil {
			table.Location = *in.Location
		}
		if in.CurrentWaiter != nil {
			table.CurrentWaiter = *in.CurrentWaiter
		}

		table.UpdatedAt = now
		if err := tx.Save(&table).Error; err != nil {
			return utils.Storagef("update table", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Table %d updated (status=%s)", table.TableNumber, table.Status)
	live.BroadcastTableUpdate(table)
	return &table, nil
}

// DeleteTable removes a table. Tables with any non-terminal order cannot be
// deleted.
func (ts *TableService) DeleteTable(id uint) error {
	unlock := ts.LockTable(id)
	defer unlock()

	var table models.Table
	err := ts.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&table, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFoundf("table %d", id)
			}
			return utils.Storagef("get table", err)
		}

		active, err := ts.activeOrderCount(tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return utils.InvalidStatef("table %d has %d active order(s) and cannot be deleted", table.TableNumber, active)
		}

		if err := tx.Delete(&models.Table{}, id).Error; err != nil {
			return utils.Storagef("delete table", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.Printf("Table %d deleted", table.TableNumber)
	live.BroadcastTableDelete(id)
	return nil
}

// OnOrderCreated marks a table occupied when its first order lands. Tables
// already occupied or reserved keep their state: an order does not override
// a reservation. The caller holds the table lock and the transaction spans
// the order insert.
func (ts *TableService) OnOrderCreated(tx *gorm.DB, tableID uint) (*models.Table, error) {
	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("table %d", tableID)
		}
		return nil, utils.Storagef("get table", err)
	}

	if table.Status != models.TableAvailable {
		return &table, nil
	}

	now := time.Now().UTC()
	table.Status = models.TableOccupied
	table.OccupiedSince = &now
	table.UpdatedAt = now
	if err := tx.Save(&table).Error; err != nil {
		return nil, utils.Storagef("occupy table", err)
	}
	return &table, nil
}

// ReleaseIfIdle frees a table once no active order references it. Called
// after every transition to paid or cancelled; the caller holds the table
// lock and the transaction includes the order's own status write, so the
// count below observes it.
func (ts *TableService) ReleaseIfIdle(tx *gorm.DB, tableID uint) (*models.Table, error) {
	active, err := ts.activeOrderCount(tx, tableID)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, nil
	}

	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("table %d", tableID)
		}
		return nil, utils.Storagef("get table", err)
	}
	if table.Status != models.TableOccupied {
		return nil, nil
	}

	table.Status = models.TableAvailable
	table.OccupiedSince = nil
	table.UpdatedAt = time.Now().UTC()
	if err := tx.Save(&table).Error; err != nil {
		return nil, utils.Storagef("release table", err)
	}
	return &table, nil
}

func (ts *TableService) activeOrderCount(tx *gorm.DB, tableID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Order{}).
		Where("table_id = ? AND status NOT IN ?", tableID, []models.OrderStatus{models.OrderPaid, models.OrderCancelled}).
		Count(&count).Error
	if err != nil {
		return 0, utils.Storagef("count active orders", err)
	}
	return count, nil
}
