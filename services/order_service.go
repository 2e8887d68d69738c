package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/live"
	"github.com/aerocomidas/restaurant-pos/models"
	"github.com/aerocomidas/restaurant-pos/utils"
)

// maxConflictRetries bounds the optimistic-lock retry loop on concurrent
// order mutations before the conflict is surfaced to the caller.
const maxConflictRetries = 3

// errStaleVersion signals a failed optimistic version check inside a
// transaction; the whole read-validate-write cycle is retried.
var errStaleVersion = errors.New("stale order version")

// OrderService is the single entry point for every order mutation. It
// enforces the status state machine, keeps TotalAmount equal to the sum of
// line totals, appends history rows and signals table occupancy through the
// TableService. It never writes table rows itself.
type OrderService struct {
	DB     *gorm.DB
	Tables *TableService
	locks  *keyedMutex
}

func NewOrderService(db *gorm.DB, tables *TableService) *OrderService {
	return &OrderService{DB: db, Tables: tables, locks: newKeyedMutex()}
}

type OrderItemInput struct {
	ProductName string          `json:"product_name" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	Notes       string          `json:"notes"`
}

type CreateOrderInput struct {
	TableID       uint             `json:"table_id" binding:"required"`
	Items         []OrderItemInput `json:"items" binding:"required"`
	CustomerNotes string           `json:"customer_notes"`
}

func validateItems(items []OrderItemInput) error {
	if len(items) == 0 {
		return utils.Validationf("order must contain at least one item")
	}
	for _, item := range items {
		if item.ProductName == "" {
			return utils.Validationf("product name is required")
		}
		if item.Quantity <= 0 {
			return utils.Validationf("invalid quantity for %q", item.ProductName)
		}
		if !item.UnitPrice.IsPositive() {
			return utils.Validationf("invalid unit price for %q", item.ProductName)
		}
	}
	return nil
}

func buildItems(items []OrderItemInput) ([]models.OrderItem, decimal.Decimal) {
	built := make([]models.OrderItem, 0, len(items))
	total := decimal.Zero
	for _, in := range items {
		item := models.OrderItem{
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Notes:       in.Notes,
		}
		total = total.Add(item.LineTotal())
		built = append(built, item)
	}
	return built, total
}

// CreateOrder validates the request, computes the total, writes the order
// with its synthetic history entry and flags the table occupied, all in one
// transaction under the table lock.
func (s *OrderService) CreateOrder(in CreateOrderInput) (*models.Order, error) {
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	unlock := s.Tables.LockTable(in.TableID)
	defer unlock()

	var table *models.Table
	var order models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Table{}).Where("id = ?", in.TableID).Count(&count).Error; err != nil {
			return utils.Storagef("check table", err)
		}
		if count == 0 {
			return utils.Validationf("table %d does not exist", in.TableID)
		}

		now := time.Now().UTC()
		items, total := buildItems(in.Items)
		order = models.Order{
			Reference:     uuid.NewString(),
			TableID:       in.TableID,
			Status:        models.OrderInProgress,
			TotalAmount:   total,
			CustomerNotes: in.CustomerNotes,
			CreatedAt:     now,
			UpdatedAt:     now,
			Items:         items,
		}
		if err := tx.Create(&order).Error; err != nil {
			return utils.Storagef("create order", err)
		}

		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: models.OrderInProgress,
			ToStatus:   models.OrderInProgress,
			ChangedAt:  now,
			Notes:      "order created",
		}
		if err := tx.Create(&history).Error; err != nil {
			return utils.Storagef("create status history", err)
		}
		order.StatusHistory = []models.OrderStatusHistory{history}

		var err error
		table, err = s.Tables.OnOrderCreated(tx, in.TableID)
		return err
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Order %d created for table %d (total=%s)", order.ID, order.TableID, order.TotalAmount)
	live.BroadcastOrderCreated(order)
	if table != nil {
		live.BroadcastTableUpdate(*table)
	}
	return &order, nil
}

// ReplaceItems swaps the whole item list of an order and recomputes the
// total. Partial item edits are not supported. Paid orders are immutable.
func (s *OrderService) ReplaceItems(orderID uint, items []OrderItemInput) (*models.Order, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(orderKey(orderID))
	defer unlock()

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			order, err := loadOrder(tx, orderID)
			if err != nil {
				return err
			}
			if order.Status == models.OrderPaid {
				return utils.InvalidStatef("order %d is paid and can no longer be edited", orderID)
			}

			newItems, total := buildItems(items)
			for i := range newItems {
				newItems[i].OrderID = orderID
			}

			res := tx.Model(&models.Order{}).
				Where("id = ? AND version = ?", orderID, order.Version).
				Updates(map[string]interface{}{
					"total_amount": total,
					"updated_at":   time.Now().UTC(),
					"version":      order.Version + 1,
				})
			if res.Error != nil {
				return utils.Storagef("update order", res.Error)
			}
			if res.RowsAffected == 0 {
				return errStaleVersion
			}

			if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
				return utils.Storagef("delete order items", err)
			}
			if err := tx.Create(&newItems).Error; err != nil {
				return utils.Storagef("create order items", err)
			}
			return nil
		})
		if errors.Is(err, errStaleVersion) {
			continue
		}
		if err != nil {
			return nil, err
		}

		order, getErr := s.GetOrder(orderID)
		if getErr != nil {
			return nil, getErr
		}
		utils.InfoLogger.Printf("Order %d items replaced (total=%s)", orderID, order.TotalAmount)
		live.BroadcastOrderUpdated(*order)
		return order, nil
	}
	return nil, utils.Conflictf("order %d was modified concurrently, giving up after %d attempts", orderID, maxConflictRetries)
}

// ChangeStatus executes a transition of the order state machine. Illegal
// pairs, self-transitions included, fail with an invalid-state error and
// leave the order untouched. Reaching paid or cancelled re-evaluates the
// table's occupancy inside the same transaction.
func (s *OrderService) ChangeStatus(orderID uint, newStatus models.OrderStatus, actor, notes string) (*models.Order, error) {
	unlock := s.locks.Lock(orderKey(orderID))
	defer unlock()

	// The table reference is immutable, so it can be read outside the
	// retry loop to fix the order->table lock ordering.
	initial, err := loadOrder(s.DB, orderID)
	if err != nil {
		return nil, err
	}
	tableID := initial.TableID

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		var from models.OrderStatus
		var table *models.Table

		unlockTable := s.Tables.LockTable(tableID)
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			order, err := loadOrder(tx, orderID)
			if err != nil {
				return err
			}
			from = order.Status

			if order.Status == models.OrderPaid {
				return utils.InvalidStatef("order %d is paid and its status can no longer change", orderID)
			}
			if !order.Status.CanTransitionTo(newStatus) {
				return utils.InvalidStatef("order %d cannot go from %q to %q", orderID, order.Status, newStatus)
			}

			now := time.Now().UTC()
			updates := map[string]interface{}{
				"status":     newStatus,
				"updated_at": now,
				"version":    order.Version + 1,
			}
			switch newStatus {
			case models.OrderPaid:
				updates["paid_at"] = now
			case models.OrderCancelled:
				updates["cancelled_at"] = now
			case models.OrderDelivered:
				updates["delivered_at"] = now
			}

			res := tx.Model(&models.Order{}).
				Where("id = ? AND version = ?", orderID, order.Version).
				Updates(updates)
			if res.Error != nil {
				return utils.Storagef("update order status", res.Error)
			}
			if res.RowsAffected == 0 {
				return errStaleVersion
			}

			history := models.OrderStatusHistory{
				OrderID:    orderID,
				FromStatus: from,
				ToStatus:   newStatus,
				ChangedAt:  now,
				ChangedBy:  actor,
				Notes:      notes,
			}
			if err := tx.Create(&history).Error; err != nil {
				return utils.Storagef("create status history", err)
			}

			if newStatus.IsTerminal() {
				table, err = s.Tables.ReleaseIfIdle(tx, tableID)
				if err != nil {
					return err
				}
			}
			return nil
		})
		unlockTable()

		if errors.Is(err, errStaleVersion) {
			continue
		}
		if err != nil {
			return nil, err
		}

		order, getErr := s.GetOrder(orderID)
		if getErr != nil {
			return nil, getErr
		}
		utils.InfoLogger.Printf("Order %d status changed from %s to %s", orderID, from, newStatus)
		live.BroadcastOrderStatus(*order, from, newStatus)
		if table != nil {
			live.BroadcastTableUpdate(*table)
		}
		return order, nil
	}
	return nil, utils.Conflictf("order %d was modified concurrently, giving up after %d attempts", orderID, maxConflictRetries)
}

// MarkPaidByReference is the entry point for the payment gateway's
// confirmation signal, which knows orders by their opaque reference.
func (s *OrderService) MarkPaidByReference(reference, actor, notes string) (*models.Order, error) {
	var order models.Order
	if err := s.DB.Where("reference = ?", reference).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("order reference %s", reference)
		}
		return nil, utils.Storagef("get order by reference", err)
	}
	return s.ChangeStatus(order.ID, models.OrderPaid, actor, notes)
}

// DeleteOrder removes a non-paid order with its items and history. Paid
// orders are retained for audit; cancellation is the way to void them
// beforehand.
func (s *OrderService) DeleteOrder(orderID uint) error {
	unlock := s.locks.Lock(orderKey(orderID))
	defer unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status == models.OrderPaid {
			return utils.InvalidStatef("order %d is paid and cannot be deleted, cancel before payment instead", orderID)
		}

		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return utils.Storagef("delete order items", err)
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderStatusHistory{}).Error; err != nil {
			return utils.Storagef("delete status history", err)
		}
		if err := tx.Delete(&models.Order{}, orderID).Error; err != nil {
			return utils.Storagef("delete order", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.Printf("Order %d deleted", orderID)
	live.BroadcastOrderDeleted(orderID)
	return nil
}

// GetOrder returns one order with items, chronological history and table.
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at asc, id asc")
		}).
		Preload("Table").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("order %d", orderID)
		}
		return nil, utils.Storagef("get order", err)
	}
	return &order, nil
}

type OrderFilter struct {
	TableID *uint
	Status  *models.OrderStatus
	Start   *time.Time
	End     *time.Time
}

// ListOrders returns orders newest first, filtered by table, status and an
// inclusive creation-time range.
func (s *OrderService) ListOrders(filter OrderFilter) ([]models.Order, error) {
	query := s.DB.Preload("Items").Order("created_at desc")
	if filter.TableID != nil {
		query = query.Where("table_id = ?", *filter.TableID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Start != nil {
		query = query.Where("created_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("created_at <= ?", *filter.End)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, utils.Storagef("list orders", err)
	}
	return orders, nil
}

func loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("order %d", orderID)
		}
		return nil, utils.Storagef("get order", err)
	}
	return &order, nil
}
