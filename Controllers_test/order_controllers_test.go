package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/controllers"
	"github.com/aerocomidas/restaurant-pos/database"
	"github.com/aerocomidas/restaurant-pos/services"
	"github.com/aerocomidas/restaurant-pos/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	utils.InitJWT()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:ctrl_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func setupOrderRouter(db *gorm.DB) (*gin.Engine, *services.TableService) {
	tables := services.NewTableService(db)
	orders := services.NewOrderService(db, tables)
	orderCtrl := controllers.NewOrderController(orders)
	tableCtrl := controllers.NewTableController(tables)

	r := gin.New()
	r.POST("/tables", tableCtrl.CreateTable)
	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders", orderCtrl.GetAllOrders)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	r.PATCH("/orders/:order_id/items", orderCtrl.UpdateOrderItems)
	r.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	r.DELETE("/orders/:order_id", orderCtrl.DeleteOrder)
	return r, tables
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp["data"].(map[string]interface{})
	return data
}

func createTableAndOrder(t *testing.T, r *gin.Engine) (tableID, orderID int) {
	t.Helper()
	w := doJSON(t, r, "POST", "/tables", map[string]interface{}{
		"table_number": 1,
		"capacity":     4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tableID = int(decodeData(t, w)["id"].(float64))

	w = doJSON(t, r, "POST", "/orders", map[string]interface{}{
		"table_id": tableID,
		"items": []map[string]interface{}{
			{"product_name": "Margherita", "quantity": 2, "unit_price": "12.50"},
			{"product_name": "Soda", "quantity": 1, "unit_price": "5.00"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID = int(decodeData(t, w)["id"].(float64))
	return tableID, orderID
}

func TestCreateAndGetOrder(t *testing.T) {
	db := setupTestDB(t)
	r, _ := setupOrderRouter(db)

	_, orderID := createTableAndOrder(t, r)

	w := doJSON(t, r, "GET", fmt.Sprintf("/orders/%d", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "in_progress", data["status"])
	assert.Equal(t, "30", data["total_amount"].(string)[:2])
	items := data["items"].([]interface{})
	assert.Len(t, items, 2)
}

func TestCreateOrderRejectsBadPayload(t *testing.T) {
	db := setupTestDB(t)
	r, _ := setupOrderRouter(db)

	w := doJSON(t, r, "POST", "/tables", map[string]interface{}{
		"table_number": 1, "capacity": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Zero quantity fails validation.
	w = doJSON(t, r, "POST", "/orders", map[string]interface{}{
		"table_id": 1,
		"items": []map[string]interface{}{
			{"product_name": "Soda", "quantity": 0, "unit_price": "5.00"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown table fails validation.
	w = doJSON(t, r, "POST", "/orders", map[string]interface{}{
		"table_id": 99,
		"items": []map[string]interface{}{
			{"product_name": "Soda", "quantity": 1, "unit_price": "5.00"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderStatusEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r, _ := setupOrderRouter(db)
	_, orderID := createTableAndOrder(t, r)

	url := fmt.Sprintf("/orders/%d/status", orderID)

	w := doJSON(t, r, "PATCH", url, map[string]interface{}{"status": "delivered"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "delivered", decodeData(t, w)["status"])

	// Going back is an invalid transition -> 409.
	w = doJSON(t, r, "PATCH", url, map[string]interface{}{"status": "in_progress"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown status value -> 400.
	w = doJSON(t, r, "PATCH", url, map[string]interface{}{"status": "vanished"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "PATCH", url, map[string]interface{}{"status": "paid"})
	assert.Equal(t, http.StatusOK, w.Code)

	// Paid orders are immutable -> 409.
	w = doJSON(t, r, "PATCH", url, map[string]interface{}{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaidOrderReleasesTable(t *testing.T) {
	db := setupTestDB(t)
	r, tables := setupOrderRouter(db)
	tableID, orderID := createTableAndOrder(t, r)

	table, err := tables.GetTable(uint(tableID))
	require.NoError(t, err)
	assert.Equal(t, "occupied", string(table.Status))

	w := doJSON(t, r, "PATCH", fmt.Sprintf("/orders/%d/status", orderID),
		map[string]interface{}{"status": "paid"})
	require.Equal(t, http.StatusOK, w.Code)

	table, err = tables.GetTable(uint(tableID))
	require.NoError(t, err)
	assert.Equal(t, "available", string(table.Status))
}

func TestUpdateOrderItemsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r, _ := setupOrderRouter(db)
	_, orderID := createTableAndOrder(t, r)

	w := doJSON(t, r, "PATCH", fmt.Sprintf("/orders/%d/items", orderID), map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_name": "Espresso", "quantity": 2, "unit_price": "2.50"},
		},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "5", data["total_amount"].(string)[:1])
	assert.Len(t, data["items"].([]interface{}), 1)
}

func TestDeleteOrderEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r, _ := setupOrderRouter(db)
	_, orderID := createTableAndOrder(t, r)

	w := doJSON(t, r, "DELETE", fmt.Sprintf("/orders/%d", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "GET", fmt.Sprintf("/orders/%d", orderID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, "DELETE", "/orders/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrdersEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r, _ := setupOrderRouter(db)
	createTableAndOrder(t, r)

	w := doJSON(t, r, "GET", "/orders?status=in_progress", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["data"].([]interface{}), 1)

	w = doJSON(t, r, "GET", "/orders?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
