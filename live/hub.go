// Package live broadcasts order, table and dashboard events to connected
// websocket clients (floor staff screens, the admin dashboard).
package live

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/aerocomidas/restaurant-pos/models"
	"github.com/aerocomidas/restaurant-pos/utils"
)

// Event types
const (
	EventOrderCreated  = "order_created"
	EventOrderUpdated  = "order_updated"
	EventOrderStatus   = "order_status_changed"
	EventOrderDeleted  = "order_deleted"
	EventTableUpdate   = "table_update"
	EventTableCreate   = "table_create"
	EventTableDelete   = "table_delete"
	EventDashboard     = "dashboard_stats"
	EventStaffNotif    = "staff_notification"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected client (staff, admin) keyed by connection.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a connection with its role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient removes and closes a connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastOrderCreated announces a freshly placed order.
func BroadcastOrderCreated(order models.Order) {
	broadcast(Message{Event: EventOrderCreated, Data: order})
}

// BroadcastOrderUpdated announces item or notes changes.
func BroadcastOrderUpdated(order models.Order) {
	broadcast(Message{Event: EventOrderUpdated, Data: order})
}

// BroadcastOrderStatus announces a lifecycle transition.
func BroadcastOrderStatus(order models.Order, from, to models.OrderStatus) {
	broadcast(Message{
		Event: EventOrderStatus,
		Data: map[string]interface{}{
			"order": order,
			"from":  from,
			"to":    to,
		},
	})
}

// BroadcastOrderDeleted announces an order removal.
func BroadcastOrderDeleted(orderID uint) {
	broadcast(Message{
		Event: EventOrderDeleted,
		Data:  map[string]interface{}{"order_id": orderID},
	})
}

// BroadcastTableUpdate announces occupancy or manual table changes.
func BroadcastTableUpdate(table models.Table) {
	broadcast(Message{Event: EventTableUpdate, Data: table})
}

// BroadcastTableCreate announces a new table.
func BroadcastTableCreate(table models.Table) {
	broadcast(Message{Event: EventTableCreate, Data: table})
}

// BroadcastTableDelete announces a removed table.
func BroadcastTableDelete(tableID uint) {
	broadcast(Message{
		Event: EventTableDelete,
		Data:  map[string]interface{}{"table_id": tableID},
	})
}

// BroadcastStaffNotification sends a free-text notice to staff screens.
func BroadcastStaffNotification(message string) {
	broadcast(Message{Event: EventStaffNotif, Data: message})
}

// BroadcastMessage sends an arbitrary event.
func BroadcastMessage(msg Message) {
	broadcast(msg)
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling event %s: %v", msg.Event, err)
		return
	}

	for conn, role := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to %s client: %v", msg.Event, role, err)
		}
	}
}
