package deposit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"github.com/grandbet/deposit-service/internal/domain/entities"
)

// HandlePaymentCallback handles POST /callbacks/payment: the provider's
// payment-outcome message. The payload matches the cross-window message
// protocol ({type: PAYMENT_*} or {status: ...}); the signature and the
// Origin header are both checked before the message reaches any session.
func (h *Handlers) HandlePaymentCallback(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		h.logger.Error("Failed to read callback body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	if !h.verifyCallbackSignature(c, rawBody) {
		h.logger.Warn("Invalid payment callback signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var msg entities.ProviderMessage
	if err := json.Unmarshal(rawBody, &msg); err != nil {
		h.logger.Error("Failed to parse payment callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	msg.Origin = c.GetHeader("Origin")

	if msg.Normalize() == "" {
		h.logger.Info("Unrecognized payment callback payload ignored",
			zap.String("type", msg.Type), zap.String("status", msg.Status))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if msg.TransactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction_id is required"})
		return
	}

	h.logger.Info("Routing payment callback",
		zap.String("transaction_id", msg.TransactionID),
		zap.String("type", msg.Normalize()))

	if h.manager.HandleProviderMessage(msg) {
		c.JSON(http.StatusOK, gin.H{"status": "processed"})
		return
	}
	// No live session is monitoring the transaction (or the origin was
	// rejected); reconciliation settles the row from the gateway side.
	c.JSON(http.StatusOK, gin.H{"status": "ignored"})
}

// verifyCallbackSignature checks the HMAC-SHA256 signature header. A
// missing configured secret allows all callbacks in development.
func (h *Handlers) verifyCallbackSignature(c *gin.Context, body []byte) bool {
	if h.callbackSecret == "" {
		return true
	}
	signature := c.GetHeader("X-Gateway-Signature")
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.callbackSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}
