package Controllers_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/controllers"
	"github.com/aerocomidas/restaurant-pos/models"
	"github.com/aerocomidas/restaurant-pos/services"
)

const testWebhookSecret = "test-webhook-secret"

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func setupPaymentRouter(db *gorm.DB) (*gin.Engine, *services.OrderService) {
	tables := services.NewTableService(db)
	orders := services.NewOrderService(db, tables)
	paymentCtrl := controllers.NewPaymentController(orders, testWebhookSecret)

	r := gin.New()
	r.POST("/payments/webhook", paymentCtrl.HandleWebhook)
	return r, orders
}

func signedWebhook(t *testing.T, r *gin.Engine, payload map[string]interface{}, secret string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest("POST", "/payments/webhook", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedWebhookOrder(t *testing.T, db *gorm.DB, orders *services.OrderService) *models.Order {
	t.Helper()
	tables := services.NewTableService(db)
	table, err := tables.CreateTable(services.CreateTableInput{TableNumber: 1, Capacity: 4})
	require.NoError(t, err)

	order, err := orders.CreateOrder(services.CreateOrderInput{
		TableID: table.ID,
		Items: []services.OrderItemInput{
			{ProductName: "Carbonara", Quantity: 1, UnitPrice: decimalFromString(t, "14.00")},
		},
	})
	require.NoError(t, err)
	return order
}

func TestWebhookMarksOrderPaid(t *testing.T) {
	db := setupTestDB(t)
	r, orders := setupPaymentRouter(db)
	order := seedWebhookOrder(t, db, orders)

	w := signedWebhook(t, r, map[string]interface{}{
		"order_reference": order.Reference,
		"status":          "settlement",
		"transaction_id":  "tx-123",
	}, testWebhookSecret)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	paid, err := orders.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	last := paid.StatusHistory[len(paid.StatusHistory)-1]
	assert.Equal(t, "payment-gateway", last.ChangedBy)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	db := setupTestDB(t)
	r, orders := setupPaymentRouter(db)
	order := seedWebhookOrder(t, db, orders)

	w := signedWebhook(t, r, map[string]interface{}{
		"order_reference": order.Reference,
		"status":          "settlement",
	}, "wrong-secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	unchanged, err := orders.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, unchanged.Status)
}

func TestWebhookIgnoresNonSettlement(t *testing.T) {
	db := setupTestDB(t)
	r, orders := setupPaymentRouter(db)
	order := seedWebhookOrder(t, db, orders)

	w := signedWebhook(t, r, map[string]interface{}{
		"order_reference": order.Reference,
		"status":          "pending",
	}, testWebhookSecret)
	assert.Equal(t, http.StatusOK, w.Code)

	unchanged, err := orders.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, unchanged.Status)
}

func TestWebhookUnknownReference(t *testing.T) {
	db := setupTestDB(t)
	r, _ := setupPaymentRouter(db)

	w := signedWebhook(t, r, map[string]interface{}{
		"order_reference": "no-such-order",
		"status":          "settlement",
	}, testWebhookSecret)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
