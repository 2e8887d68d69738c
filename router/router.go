package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/cache"
	"github.com/aerocomidas/restaurant-pos/controllers"
	"github.com/aerocomidas/restaurant-pos/middlewares"
	"github.com/aerocomidas/restaurant-pos/services"
)

// SetupRouter wires services, controllers and middleware into the HTTP
// surface. cacheClient may be nil when Redis is not configured.
func SetupRouter(db *gorm.DB, cacheClient *cache.Client, webhookSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	tableService := services.NewTableService(db)
	orderService := services.NewOrderService(db, tableService)
	analyticsService := services.NewAnalyticsService(db)

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(tableService)
	orderCtrl := controllers.NewOrderController(orderService)
	menuCtrl := controllers.NewMenuController(db)
	analyticsCtrl := controllers.NewAnalyticsController(analyticsService, cacheClient)
	paymentCtrl := controllers.NewPaymentController(orderService, webhookSecret)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Login and register sit behind a strict per-IP limit.
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// The payment gateway authenticates with an HMAC signature, not a JWT.
	r.POST("/payments/webhook", paymentCtrl.HandleWebhook)

	// Customer-facing reads need no auth.
	r.GET("/categories", menuCtrl.GetCategories)
	r.GET("/menus", menuCtrl.GetAllMenuItems)
	r.GET("/menus/:item_id", menuCtrl.GetMenuItemByID)

	auth := r.Group("/api")
	auth.Use(middlewares.NewAPIRateLimiter())
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)
	auth.POST("/logout", userCtrl.Logout)
	auth.GET("/users", userCtrl.GetAllUsers)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.GET("/tables/stats", tableCtrl.GetTableStats)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

	// MENU (writes restricted to admin/staff)
	menuAdmin := auth.Group("/menus")
	menuAdmin.Use(middlewares.RequireRole("admin", "staff"))
	{
		menuAdmin.POST("", menuCtrl.CreateMenuItem)
		menuAdmin.PATCH("/:item_id", menuCtrl.UpdateMenuItem)
		menuAdmin.DELETE("/:item_id", menuCtrl.DeleteMenuItem)
	}

	// ORDERS
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.POST("/orders", orderCtrl.CreateOrder)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.PATCH("/orders/:order_id/items", orderCtrl.UpdateOrderItems)
	auth.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	auth.DELETE("/orders/:order_id", orderCtrl.DeleteOrder)

	// ANALYTICS (admin/staff)
	analytics := auth.Group("/analytics")
	analytics.Use(middlewares.RequireRole("admin", "staff"))
	{
		analytics.GET("/average-ticket", analyticsCtrl.GetAverageTicket)
		analytics.GET("/top-items", analyticsCtrl.GetTopSellingItems)
		analytics.GET("/sales-by-hour", analyticsCtrl.GetSalesByHour)
		analytics.GET("/dashboard", analyticsCtrl.GetDashboard)
		analytics.GET("/comparison", analyticsCtrl.GetPeriodComparison)
		analytics.GET("/revenue-by-location", analyticsCtrl.GetRevenueByLocation)
		analytics.GET("/tables", analyticsCtrl.GetTableAnalytics)
	}

	// Live event stream for dashboards.
	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware())
	{
		ws.GET("/stream", controllers.StreamHandler)
	}

	return r
}
