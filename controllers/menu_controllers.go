package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/models"
	"github.com/aerocomidas/restaurant-pos/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetCategories -> the fixed menu category list
func (mc *MenuController) GetCategories(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Menu categories", models.MenuCategories)
}

// CreateMenuItem -> add an item to the menu
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var req struct {
		Name            string          `json:"name" binding:"required"`
		Description     string          `json:"description"`
		Price           decimal.Decimal `json:"price" binding:"required"`
		Category        string          `json:"category" binding:"required"`
		PrepTimeMinutes int             `json:"prep_time_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !req.Price.IsPositive() {
		utils.RespondAppError(c, utils.Validationf("price must be positive"))
		return
	}
	if !models.ValidMenuCategory(req.Category) {
		utils.RespondAppError(c, utils.Validationf("unknown category %q", req.Category))
		return
	}

	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsAvailable: true,
	}
	if req.PrepTimeMinutes > 0 {
		item.PrepTimeMinutes = req.PrepTimeMinutes
	}

	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondAppError(c, utils.Storagef("create menu item", err))
		return
	}

	utils.InfoLogger.Printf("New menu item created: %s (category=%s)", item.Name, item.Category)
	utils.RespondJSON(c, http.StatusCreated, "Menu item created successfully", item)
}

// GetAllMenuItems -> list menu items, optionally by category or availability
func (mc *MenuController) GetAllMenuItems(c *gin.Context) {
	query := mc.DB.Model(&models.MenuItem{})
	if category := c.Query("category"); category != "" {
		if !models.ValidMenuCategory(category) {
			utils.RespondAppError(c, utils.Validationf("unknown category %q", category))
			return
		}
		query = query.Where("category = ?", category)
	}
	if c.Query("available") == "true" {
		query = query.Where("is_available = ?", true)
	}

	var items []models.MenuItem
	if err := query.Order("category, name").Find(&items).Error; err != nil {
		utils.RespondAppError(c, utils.Storagef("list menu items", err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

// GetMenuItemByID -> menu item detail
func (mc *MenuController) GetMenuItemByID(c *gin.Context) {
	itemID, err := paramUint(c, "item_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondAppError(c, utils.NotFoundf("menu item %d not found", itemID))
			return
		}
		utils.RespondAppError(c, utils.Storagef("load menu item", err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item detail", item)
}

// UpdateMenuItem -> change price, availability or details. Orders keep the
// prices they were created with.
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	itemID, err := paramUint(c, "item_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var req struct {
		Name            *string          `json:"name"`
		Description     *string          `json:"description"`
		Price           *decimal.Decimal `json:"price"`
		Category        *string          `json:"category"`
		IsAvailable     *bool            `json:"is_available"`
		PrepTimeMinutes *int             `json:"prep_time_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondAppError(c, utils.NotFoundf("menu item %d not found", itemID))
			return
		}
		utils.RespondAppError(c, utils.Storagef("load menu item", err))
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			utils.RespondAppError(c, utils.Validationf("price must be positive"))
			return
		}
		item.Price = *req.Price
	}
	if req.Category != nil {
		if !models.ValidMenuCategory(*req.Category) {
			utils.RespondAppError(c, utils.Validationf("unknown category %q", *req.Category))
			return
		}
		item.Category = *req.Category
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.PrepTimeMinutes != nil {
		if *req.PrepTimeMinutes <= 0 {
			utils.RespondAppError(c, utils.Validationf("prep time must be positive"))
			return
		}
		item.PrepTimeMinutes = *req.PrepTimeMinutes
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondAppError(c, utils.Storagef("update menu item", err))
		return
	}

	utils.InfoLogger.Printf("Menu item %d updated", item.ID)
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// DeleteMenuItem -> remove a menu item. Past orders are unaffected because
// line items carry their own name and price snapshot.
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	itemID, err := paramUint(c, "item_id")
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondAppError(c, utils.NotFoundf("menu item %d not found", itemID))
			return
		}
		utils.RespondAppError(c, utils.Storagef("load menu item", err))
		return
	}

	if err := mc.DB.Delete(&item).Error; err != nil {
		utils.RespondAppError(c, utils.Storagef("delete menu item", err))
		return
	}

	utils.InfoLogger.Printf("Menu item %d deleted", item.ID)
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{
		"id": item.ID,
	})
}
