package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aerocomidas/restaurant-pos/models"
	"github.com/aerocomidas/restaurant-pos/services"
	"github.com/aerocomidas/restaurant-pos/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> open a new order on a table
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.CreateOrder(req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("New order %d created on table %d (total=%s)",
		order.ID, order.TableID, order.TotalAmount.StringFixed(2))
	utils.RespondJSON(c, http.StatusCreated, "Order created successfully", order)
}

// GetAllOrders -> list orders, optionally filtered by table, status and
// creation date range
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	var filter services.OrderFilter

	if raw := c.Query("table_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.RespondAppError(c, utils.Validationf("invalid table_id %q", raw))
			return
		}
		tableID := uint(id)
		filter.TableID = &tableID
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseOrderStatus(raw)
		if !ok {
			utils.RespondAppError(c, utils.Validationf("unknown order status %q", raw))
			return
		}
		filter.Status = &status
	}
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	filter.Start, filter.End = start, end

	orders, err := oc.Orders.ListOrders(filter)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> order detail with items and status history
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID, err := paramUint(c, "order_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	order, err := oc.Orders.GetOrder(orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrderItems -> replace an editable order's items
func (oc *OrderController) UpdateOrderItems(c *gin.Context) {
	orderID, err := paramUint(c, "order_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var req struct {
		Items []services.OrderItemInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.ReplaceItems(orderID, req.Items)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %d items replaced (total=%s)", order.ID, order.TotalAmount.StringFixed(2))
	utils.RespondJSON(c, http.StatusOK, "Order items updated", order)
}

// UpdateOrderStatus -> advance an order through its lifecycle
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := paramUint(c, "order_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	status, ok := models.ParseOrderStatus(req.Status)
	if !ok {
		utils.RespondAppError(c, utils.Validationf("unknown order status %q", req.Status))
		return
	}

	order, err := oc.Orders.ChangeStatus(orderID, status, actorFromContext(c), req.Notes)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %d status changed to %s", order.ID, order.Status)
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// DeleteOrder -> remove an unpaid order and its history
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	orderID, err := paramUint(c, "order_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if err := oc.Orders.DeleteOrder(orderID); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %d deleted", orderID)
	utils.RespondJSON(c, http.StatusOK, "Order deleted", gin.H{
		"id": orderID,
	})
}

// actorFromContext resolves who performed a change from the auth
// middleware, falling back to "system" on unauthenticated routes.
func actorFromContext(c *gin.Context) string {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(uint); ok {
			return "user:" + strconv.FormatUint(uint64(id), 10)
		}
	}
	return "system"
}

func paramUint(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, utils.Validationf("invalid %s %q", name, raw)
	}
	return uint(id), nil
}
