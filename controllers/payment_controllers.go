package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aerocomidas/restaurant-pos/live"
	"github.com/aerocomidas/restaurant-pos/services"
	"github.com/aerocomidas/restaurant-pos/utils"
)

// webhookActor is recorded in order history for gateway-driven payments.
const webhookActor = "payment-gateway"

type PaymentController struct {
	Orders *services.OrderService
	secret []byte
}

func NewPaymentController(orders *services.OrderService, webhookSecret string) *PaymentController {
	return &PaymentController{Orders: orders, secret: []byte(webhookSecret)}
}

// HandleWebhook -> payment gateway callback. The gateway signs the raw
// request body with HMAC-SHA256 and sends the hex digest in X-Signature;
// a settled payment marks the referenced order paid.
func (pc *PaymentController) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !pc.verifySignature(body, c.GetHeader("X-Signature")) {
		utils.ErrorLogger.Printf("Payment webhook rejected: bad signature from %s", c.ClientIP())
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid signature"))
		return
	}

	var payload struct {
		OrderReference string `json:"order_reference"`
		Status         string `json:"status"` // settlement, pending, failed
		TransactionID  string `json:"transaction_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if payload.OrderReference == "" {
		utils.RespondAppError(c, utils.Validationf("missing order_reference"))
		return
	}

	// Only settled payments advance the order; anything else is
	// acknowledged so the gateway stops retrying.
	if payload.Status != "settlement" {
		utils.InfoLogger.Printf("Payment webhook ignored for order %s (status=%s)",
			payload.OrderReference, payload.Status)
		utils.RespondJSON(c, http.StatusOK, "Webhook acknowledged", nil)
		return
	}

	notes := fmt.Sprintf("settled via gateway (tx %s)", payload.TransactionID)
	order, err := pc.Orders.MarkPaidByReference(payload.OrderReference, webhookActor, notes)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %d marked paid by gateway (tx=%s)", order.ID, payload.TransactionID)
	live.BroadcastStaffNotification(fmt.Sprintf("Order %d on table %d paid via gateway", order.ID, order.TableID))
	utils.RespondJSON(c, http.StatusOK, "Payment recorded", order)
}

func (pc *PaymentController) verifySignature(body []byte, signature string) bool {
	if len(pc.secret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, pc.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
