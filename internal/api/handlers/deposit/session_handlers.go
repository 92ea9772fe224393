package deposit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/grandbet/deposit-service/internal/api/handlers/common"
	"github.com/grandbet/deposit-service/internal/domain/entities"
	"github.com/grandbet/deposit-service/internal/domain/fieldrules"
	"github.com/grandbet/deposit-service/internal/domain/services/wizard"
)

// OpenSession handles POST /deposit/sessions.
// Always starts a fresh wizard; a previous open session is discarded.
func (h *Handlers) OpenSession(c *gin.Context) {
	user, err := common.GetUserProfile(c)
	if err != nil {
		common.RespondUnauthorized(c, "User not authenticated")
		return
	}

	session := h.manager.OpenSession(user)
	c.JSON(http.StatusCreated, session.State())
}

// GetSession handles GET /deposit/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// CloseSession handles DELETE /deposit/sessions/:id
func (h *Handlers) CloseSession(c *gin.Context) {
	userID, err := common.GetUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "User not authenticated")
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondBadRequest(c, "Invalid session ID")
		return
	}
	if err := h.manager.CloseSession(sessionID, userID); err != nil {
		common.RespondNotFound(c, "Session not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectMethodRequest selects the payment method
type SelectMethodRequest struct {
	MethodID string `json:"method_id" binding:"required"`
}

// SelectMethod handles POST /deposit/sessions/:id/method
func (h *Handlers) SelectMethod(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}

	var req SelectMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "method_id is required", bindingDetails(err))
		return
	}

	if err := h.manager.SelectMethod(c.Request.Context(), session, entities.ParseMethodID(req.MethodID)); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// SetAmountRequest carries the deposit amount
type SetAmountRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	UseBonus bool            `json:"use_bonus"`
}

// SetAmount handles POST /deposit/sessions/:id/amount
func (h *Handlers) SetAmount(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}

	var req SetAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "amount is required", bindingDetails(err))
		return
	}

	if err := session.SetAmount(req.Amount, req.UseBonus); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// SetFieldRequest carries one provider identifier field
type SetFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// SetField handles POST /deposit/sessions/:id/fields
func (h *Handlers) SetField(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}

	var req SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "field and value are required", bindingDetails(err))
		return
	}

	if err := session.SetField(fieldrules.Field(req.Field), req.Value); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// Back handles POST /deposit/sessions/:id/back
func (h *Handlers) Back(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	if err := session.Back(); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// Submit handles POST /deposit/sessions/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}

	state, err := h.manager.Submit(c.Request.Context(), session)
	if err != nil {
		var fieldErrs wizard.FieldErrors
		if errors.As(err, &fieldErrs) {
			common.RespondValidationError(c, fieldErrs)
			return
		}
		// Submission errors keep the session on Confirm; the state carries
		// the banner the client shows.
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "SUBMISSION_FAILED",
			"message": "Deposit submission failed",
			"state":   state,
		})
		return
	}
	c.JSON(http.StatusOK, state)
}

// WindowClosed handles POST /deposit/sessions/:id/window/closed
func (h *Handlers) WindowClosed(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	if err := session.ReportWindowClosed(); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// WindowBlocked handles POST /deposit/sessions/:id/window/blocked
func (h *Handlers) WindowBlocked(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	if err := session.ReportPopupBlocked(); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// WindowNewTab handles POST /deposit/sessions/:id/window/new-tab
func (h *Handlers) WindowNewTab(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	url, err := session.OpenInNewTab()
	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_url": url, "state": session.State()})
}

// WindowRedirect handles POST /deposit/sessions/:id/window/redirect
func (h *Handlers) WindowRedirect(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	url, err := session.RedirectURL()
	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_url": url, "state": session.State()})
}

// WindowRetry handles POST /deposit/sessions/:id/window/retry
func (h *Handlers) WindowRetry(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	if err := session.RetryAfterUnblock(); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// WindowReopen handles POST /deposit/sessions/:id/window/reopen
func (h *Handlers) WindowReopen(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	state, err := h.manager.ReopenWindow(session)
	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// DismissBanner handles POST /deposit/sessions/:id/banner/dismiss
func (h *Handlers) DismissBanner(c *gin.Context) {
	session, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	session.DismissBanner()
	c.JSON(http.StatusOK, session.State())
}

// sessionFromPath resolves the session named in the path for the
// authenticated user, responding on failure.
func (h *Handlers) sessionFromPath(c *gin.Context) (*wizard.Session, bool) {
	userID, err := common.GetUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "User not authenticated")
		return nil, false
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondBadRequest(c, "Invalid session ID")
		return nil, false
	}
	session, err := h.manager.Session(sessionID, userID)
	if err != nil {
		common.RespondNotFound(c, "Session not found")
		return nil, false
	}
	return session, true
}

// bindingDetails unpacks validator errors from a failed JSON bind into
// per-field messages.
func bindingDetails(err error) map[string]interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		details[strings.ToLower(fe.Field())] = fmt.Sprintf("failed on %s", fe.Tag())
	}
	return details
}

// respondSessionError maps session errors onto the API error taxonomy
func (h *Handlers) respondSessionError(c *gin.Context, err error) {
	var fieldErrs wizard.FieldErrors
	if errors.As(err, &fieldErrs) {
		common.RespondValidationError(c, fieldErrs)
		return
	}
	common.RespondConflict(c, err.Error())
}
