package deposit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"github.com/grandbet/deposit-service/internal/api/handlers/common"
	"github.com/grandbet/deposit-service/internal/domain/entities"
	"github.com/grandbet/deposit-service/internal/domain/services/catalog"
	"github.com/grandbet/deposit-service/internal/domain/services/wizard"
)

// DepositLister reads a user's deposit history
type DepositLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entities.Deposit, error)
}

// Handlers serves the deposit wizard API
type Handlers struct {
	manager        *wizard.Manager
	catalog        *catalog.Service
	deposits       DepositLister
	callbackSecret string
	logger         *zap.Logger
}

// NewHandlers creates the deposit API handlers
func NewHandlers(manager *wizard.Manager, catalogSvc *catalog.Service, deposits DepositLister, callbackSecret string, logger *zap.Logger) *Handlers {
	return &Handlers{
		manager:        manager,
		catalog:        catalogSvc,
		deposits:       deposits,
		callbackSecret: callbackSecret,
		logger:         logger,
	}
}

// ListPaymentMethods handles GET /payment-methods
func (h *Handlers) ListPaymentMethods(c *gin.Context) {
	methods := h.catalog.ListMethods(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"methods": methods,
		"total":   len(methods),
	})
}

// DepositHistoryItem is one row of the player's deposit history
type DepositHistoryItem struct {
	ID            string  `json:"id"`
	Method        string  `json:"method"`
	Amount        string  `json:"amount"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id"`
	FailureReason *string `json:"failure_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// ListDeposits handles GET /deposits
func (h *Handlers) ListDeposits(c *gin.Context) {
	userID, err := common.GetUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "User not authenticated")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit > 100 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	deposits, err := h.deposits.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list deposits", zap.Error(err), zap.String("user_id", userID.String()))
		common.RespondInternalError(c, "Failed to retrieve deposits")
		return
	}

	items := make([]DepositHistoryItem, 0, len(deposits))
	for _, d := range deposits {
		items = append(items, DepositHistoryItem{
			ID:            d.ID.String(),
			Method:        string(d.MethodID),
			Amount:        d.Amount.StringFixed(2),
			Status:        string(d.Status),
			TransactionID: d.TransactionID,
			FailureReason: d.FailureReason,
			CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"deposits": items,
		"total":    len(items),
		"limit":    limit,
		"offset":   offset,
		"has_more": len(items) == limit,
	})
}
