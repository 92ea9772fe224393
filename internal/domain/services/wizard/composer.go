package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"github.com/grandbet/deposit-service/internal/domain/entities"
	"github.com/grandbet/deposit-service/internal/domain/fieldrules"
)

// FieldErrors maps field names to user-facing validation messages. They
// block submission locally and are never sent to the gateway.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// GatewayClient creates deposits at the upstream payment gateway
type GatewayClient interface {
	CreateDeposit(ctx context.Context, req *entities.GatewayDepositRequest) (*entities.GatewayDepositResponse, error)
}

// SubmissionStash persists the last submission for diagnostic recovery.
// Writes are best-effort and must never block the deposit flow.
type SubmissionStash interface {
	StashSubmission(ctx context.Context, userID, transactionID string, blob []byte) error
}

// ComposerConfig carries the static payload fields
type ComposerConfig struct {
	ReturnURL     string
	CallbackURL   string
	SiteReference string
}

// Composer assembles the gateway deposit payload from the draft, the
// user profile and generated identifier fields, submits it, and extracts
// the transaction id and payment URL from the reply.
type Composer struct {
	gateway   GatewayClient
	stash     SubmissionStash
	generator *fieldrules.Generator
	cfg       ComposerConfig
	logger    *zap.Logger
}

// NewComposer creates a request composer
func NewComposer(gateway GatewayClient, stash SubmissionStash, generator *fieldrules.Generator, cfg ComposerConfig, logger *zap.Logger) *Composer {
	return &Composer{
		gateway:   gateway,
		stash:     stash,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Submit validates, composes and submits a deposit request. Validation
// failures come back as FieldErrors; transport and malformed-reply
// failures as ordinary errors.
func (c *Composer) Submit(ctx context.Context, user entities.UserProfile, draft *entities.DepositDraft, method entities.PaymentMethodDescriptor) (*entities.GatewayDepositResponse, error) {
	fieldErrs := FieldErrors{}

	// The gateway contract requires a display name on every deposit.
	if strings.TrimSpace(user.DisplayName) == "" {
		fieldErrs["user"] = "display name is required"
	}

	fields := make(map[string]string, len(draft.GeneratedFields))
	for k, v := range draft.GeneratedFields {
		fields[k] = v
	}

	tcNumber := ""
	if field, ok := fieldrules.FieldFor(method.ID); ok {
		value := fields[string(field)]
		if field == fieldrules.FieldTCNumber {
			// Card payments need the player's real identity number; it is
			// never synthesized.
			if msg := fieldrules.Validate(field, value); msg != "" {
				fieldErrs[string(field)] = msg
			}
			tcNumber = value
			delete(fields, string(field))
		} else if value == "" {
			if fieldrules.Generatable(field) {
				// Seed a placeholder identifier; the provider page
				// collects the real one interactively.
				fields[string(field)] = c.generator.Generate(field)
			} else {
				// IBAN and crypto ticker have shapes the generator
				// cannot produce; the player must supply them.
				fieldErrs[string(field)] = fieldrules.Validate(field, value)
			}
		} else if msg := fieldrules.Validate(field, value); msg != "" {
			fieldErrs[string(field)] = msg
		}
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	req := &entities.GatewayDepositRequest{
		Amount:              draft.Amount,
		PaymentMethodID:     method.RawID,
		UserID:              user.ID.String(),
		User:                user.DisplayName,
		UserEmail:           user.Email,
		ReturnURL:           c.cfg.ReturnURL,
		CallbackURL:         c.cfg.CallbackURL,
		SiteReferenceNumber: c.cfg.SiteReference,
		UseBonus:            draft.UseBonus,
		TCNumber:            tcNumber,
		Fields:              fields,
	}

	resp, err := c.gateway.CreateDeposit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit deposit: %w", err)
	}
	if resp == nil || resp.TransactionID == "" || resp.PaymentURL == "" {
		return nil, fmt.Errorf("gateway reply missing transaction id or payment url")
	}

	c.stashSubmission(ctx, user, req, resp.TransactionID)

	return resp, nil
}

// stashSubmission records the submission for later recovery/debugging.
// Failures are logged and swallowed.
func (c *Composer) stashSubmission(ctx context.Context, user entities.UserProfile, req *entities.GatewayDepositRequest, transactionID string) {
	if c.stash == nil {
		return
	}
	blob, err := json.Marshal(map[string]interface{}{
		"transaction_id": transactionID,
		"amount":         req.Amount,
		"method":         req.PaymentMethodID,
		"user_id":        req.UserID,
		"user_email":     req.UserEmail,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := c.stash.StashSubmission(ctx, user.ID.String(), transactionID, blob); err != nil {
		c.logger.Warn("Failed to stash submission",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
	}
}
