package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aerocomidas/restaurant-pos/live"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler -> WebSocket endpoint pushing order and table events to
// connected dashboards.
func StreamHandler(c *gin.Context) {
	roleValue, exists := c.Get("role")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	role, ok := roleValue.(string)
	if !ok || (role != "admin" && role != "staff" && role != "waiter") {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	live.RegisterClient(ws, role)
	defer live.UnregisterClient(ws)

	// Drain client frames so pings are answered; all data flows one way.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
