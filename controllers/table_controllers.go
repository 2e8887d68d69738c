package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aerocomidas/restaurant-pos/models"
	"github.com/aerocomidas/restaurant-pos/services"
	"github.com/aerocomidas/restaurant-pos/utils"
)

type TableController struct {
	Tables *services.TableService
}

func NewTableController(tables *services.TableService) *TableController {
	return &TableController{Tables: tables}
}

// CreateTable -> register a new table
func (tc *TableController) CreateTable(c *gin.Context) {
	var req services.CreateTableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.CreateTable(req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %d (status=%s)", table.TableNumber, table.Status)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> list tables, optionally filtered by status
func (tc *TableController) GetAllTables(c *gin.Context) {
	var status *models.TableStatus
	if raw := c.Query("status"); raw != "" {
		parsed, ok := models.ParseTableStatus(raw)
		if !ok {
			utils.RespondAppError(c, utils.Validationf("unknown table status %q", raw))
			return
		}
		status = &parsed
	}

	tables, err := tc.Tables.ListTables(status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID -> table detail
func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID, err := paramUint(c, "table_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	table, err := tc.Tables.GetTable(tableID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTable -> change table attributes or move it between statuses
func (tc *TableController) UpdateTable(c *gin.Context) {
	tableID, err := paramUint(c, "table_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var req services.UpdateTableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.UpdateTable(tableID, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %d updated (status=%s)", table.ID, table.Status)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> remove a table that has no active orders
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID, err := paramUint(c, "table_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if err := tc.Tables.DeleteTable(tableID); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %d deleted", tableID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{
		"id": tableID,
	})
}

// GetTableStats -> floor occupancy counters for the dashboard
func (tc *TableController) GetTableStats(c *gin.Context) {
	stats, err := tc.Tables.Stats()
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table stats", stats)
}
