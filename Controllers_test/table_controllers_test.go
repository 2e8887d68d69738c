package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/controllers"
	"github.com/aerocomidas/restaurant-pos/services"
)

func setupTableRouter(db *gorm.DB) *gin.Engine {
	tables := services.NewTableService(db)
	orders := services.NewOrderService(db, tables)
	tableCtrl := controllers.NewTableController(tables)
	orderCtrl := controllers.NewOrderController(orders)

	r := gin.New()
	r.POST("/tables", tableCtrl.CreateTable)
	r.GET("/tables", tableCtrl.GetAllTables)
	r.GET("/tables/stats", tableCtrl.GetTableStats)
	r.GET("/tables/:table_id", tableCtrl.GetTableByID)
	r.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	r.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	r.POST("/orders", orderCtrl.CreateOrder)
	return r
}

func TestCreateAndGetTable(t *testing.T) {
	db := setupTestDB(t)
	r := setupTableRouter(db)

	w := doJSON(t, r, "POST", "/tables", map[string]interface{}{
		"table_number": 5,
		"capacity":     2,
		"location":     "terrace",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "available", data["status"])
	tableID := int(data["id"].(float64))

	w = doJSON(t, r, "GET", fmt.Sprintf("/tables/%d", tableID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "terrace", decodeData(t, w)["location"])

	// Duplicate table number -> 400.
	w = doJSON(t, r, "POST", "/tables", map[string]interface{}{
		"table_number": 5,
		"capacity":     4,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTableStatusEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r := setupTableRouter(db)

	w := doJSON(t, r, "POST", "/tables", map[string]interface{}{
		"table_number": 1, "capacity": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	tableID := int(decodeData(t, w)["id"].(float64))

	url := fmt.Sprintf("/tables/%d", tableID)
	w = doJSON(t, r, "PATCH", url, map[string]interface{}{"status": "reserved"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reserved", decodeData(t, w)["status"])

	w = doJSON(t, r, "PATCH", url, map[string]interface{}{"status": "haunted"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "PATCH", "/tables/999", map[string]interface{}{"status": "cleaning"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteTableWithActiveOrder(t *testing.T) {
	db := setupTestDB(t)
	r := setupTableRouter(db)

	w := doJSON(t, r, "POST", "/tables", map[string]interface{}{
		"table_number": 1, "capacity": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	tableID := int(decodeData(t, w)["id"].(float64))

	w = doJSON(t, r, "POST", "/orders", map[string]interface{}{
		"table_id": tableID,
		"items": []map[string]interface{}{
			{"product_name": "Soda", "quantity": 1, "unit_price": "5.00"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "DELETE", fmt.Sprintf("/tables/%d", tableID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTableStatsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r := setupTableRouter(db)

	for i := 1; i <= 2; i++ {
		w := doJSON(t, r, "POST", "/tables", map[string]interface{}{
			"table_number": i, "capacity": 4,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, "GET", "/tables/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(2), data["available"])
	assert.Equal(t, float64(0), data["occupancy_rate"])
}

func TestListTablesFilteredByStatus(t *testing.T) {
	db := setupTestDB(t)
	r := setupTableRouter(db)

	w := doJSON(t, r, "POST", "/tables", map[string]interface{}{
		"table_number": 1, "capacity": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "GET", "/tables?status=available", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["data"].([]interface{}), 1)

	w = doJSON(t, r, "GET", "/tables?status=occupied", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp["data"])
}
