package wizard

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"github.com/grandbet/deposit-service/internal/domain/entities"
	"github.com/grandbet/deposit-service/internal/domain/fieldrules"
)

const defaultClosurePollInterval = time.Second

// GenericFailureMessage is surfaced when the provider reports failure
// without a message of its own.
const GenericFailureMessage = "Payment could not be completed. Please try again."

// SessionConfig tunes a wizard session
type SessionConfig struct {
	PollInterval time.Duration
}

// ResolutionEvent describes how an external payment step was resolved
type ResolutionEvent struct {
	SessionID         uuid.UUID
	TransactionID     string
	Outcome           *entities.PaymentOutcome // nil when the session returned to Confirm
	ReturnedToConfirm bool
	ViaMessage        bool
}

// Session drives one deposit wizard from method selection to a terminal
// outcome. Wizard state lives behind a single mutex; the closure poll
// and message listener are event producers that funnel into it through
// the monitor's resolved latch, so no signal is ever applied twice.
type Session struct {
	ID   uuid.UUID
	User entities.UserProfile

	cfg        SessionConfig
	bus        *MessageBus
	logger     *zap.Logger
	onResolved func(ResolutionEvent)

	mu            sync.Mutex
	open          bool
	submitting    bool
	step          entities.WizardStep
	draft         *entities.DepositDraft
	method        entities.PaymentMethodDescriptor
	hasMethod     bool
	transactionID string
	paymentURL    string
	outcome       *entities.PaymentOutcome
	banner        string
	mon           *monitor
}

// SessionState is a point-in-time snapshot served to the client
type SessionState struct {
	ID            uuid.UUID                          `json:"id"`
	Step          entities.WizardStep                `json:"step"`
	Draft         entities.DepositDraft              `json:"draft"`
	Method        *entities.PaymentMethodDescriptor  `json:"method,omitempty"`
	TransactionID string                             `json:"transaction_id,omitempty"`
	PaymentURL    string                             `json:"payment_url,omitempty"`
	Outcome       *entities.PaymentOutcome           `json:"outcome,omitempty"`
	Banner        string                             `json:"banner,omitempty"`
	CloseWindow   bool                               `json:"close_window"`
}

// NewSession opens a fresh wizard session at SelectMethod with an empty
// draft, regardless of any previous session's outcome.
func NewSession(user entities.UserProfile, bus *MessageBus, cfg SessionConfig, onResolved func(ResolutionEvent), logger *zap.Logger) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultClosurePollInterval
	}
	return &Session{
		ID:         uuid.New(),
		User:       user,
		cfg:        cfg,
		bus:        bus,
		logger:     logger,
		onResolved: onResolved,
		open:       true,
		step:       entities.StepSelectMethod,
		draft:      entities.NewDepositDraft(),
	}
}

// State returns a snapshot of the session
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The snapshot must not share the live fields map with the session.
	draft := *s.draft
	draft.GeneratedFields = make(map[string]string, len(s.draft.GeneratedFields))
	for k, v := range s.draft.GeneratedFields {
		draft.GeneratedFields[k] = v
	}

	state := SessionState{
		ID:            s.ID,
		Step:          s.step,
		Draft:         draft,
		TransactionID: s.transactionID,
		PaymentURL:    s.paymentURL,
		Outcome:       s.outcome,
		Banner:        s.banner,
	}
	if s.hasMethod {
		m := s.method
		state.Method = &m
	}
	if s.mon != nil && s.mon.window != nil && s.mon.window.Closed() {
		state.CloseWindow = true
	}
	return state
}

// SelectMethod chooses the payment method and advances to EnterAmount
func (s *Session) SelectMethod(method entities.PaymentMethodDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStep(entities.StepSelectMethod); err != nil {
		return err
	}
	if method.Disabled {
		return fmt.Errorf("payment method %s is not available", method.ID)
	}

	s.method = method
	s.hasMethod = true
	s.draft.SelectedMethodID = method.ID
	s.step = entities.StepEnterAmount
	return nil
}

// SetField stores a provider identifier field after validating it
func (s *Session) SetField(field fieldrules.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return fmt.Errorf("session is closed")
	}
	if msg := fieldrules.Validate(field, value); msg != "" {
		return FieldErrors{string(field): msg}
	}
	s.draft.GeneratedFields[string(field)] = strings.TrimSpace(value)
	return nil
}

// SetAmount validates the amount against the method limits (boundaries
// inclusive) and advances to Confirm.
func (s *Session) SetAmount(amount decimal.Decimal, useBonus bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStep(entities.StepEnterAmount); err != nil {
		return err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return FieldErrors{"amount": "amount must be greater than zero"}
	}
	if !s.method.AmountInRange(amount) {
		return FieldErrors{"amount": fmt.Sprintf(
			"amount must be between %s and %s",
			s.method.MinAmount.StringFixed(2), s.method.MaxAmount.StringFixed(2))}
	}

	s.draft.Amount = amount
	s.draft.UseBonus = useBonus
	s.step = entities.StepConfirm
	return nil
}

// Back steps the wizard back one step
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return fmt.Errorf("session is closed")
	}
	switch s.step {
	case entities.StepEnterAmount:
		s.step = entities.StepSelectMethod
	case entities.StepConfirm:
		s.step = entities.StepEnterAmount
	default:
		return fmt.Errorf("cannot go back from step %s", s.step)
	}
	return nil
}

// beginSubmit reserves the session for one in-flight submission and
// hands the caller a draft copy to compose from.
func (s *Session) beginSubmit() (entities.UserProfile, entities.DepositDraft, entities.PaymentMethodDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStep(entities.StepConfirm); err != nil {
		return entities.UserProfile{}, entities.DepositDraft{}, entities.PaymentMethodDescriptor{}, err
	}
	if s.submitting {
		return entities.UserProfile{}, entities.DepositDraft{}, entities.PaymentMethodDescriptor{}, fmt.Errorf("submission already in progress")
	}
	s.submitting = true
	s.banner = ""
	return s.User, *s.draft, s.method, nil
}

// failSubmit records a submission failure; the session stays on Confirm
// and the failure is surfaced as a dismissible banner.
func (s *Session) failSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	if !s.open {
		return // late result after close, discard
	}
	s.banner = err.Error()
}

// failSubmitSilent releases the submission slot without touching the
// banner; field-level validation failures are shown inline instead.
func (s *Session) failSubmitSilent() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

// completeSubmit installs the gateway reply, opens the payment window
// and arms the external payment monitors. A blocked popup (nil handle)
// lands in PopupBlocked with the payment URL stored for recovery.
func (s *Session) completeSubmit(resp *entities.GatewayDepositResponse, opener WindowOpener) entities.WizardStep {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	if !s.open {
		return s.step // wizard closed mid-flight, discard the result
	}

	s.transactionID = resp.TransactionID
	s.paymentURL = resp.PaymentURL

	win := opener.Open(resp.PaymentURL)
	if win == nil {
		s.step = entities.StepPopupBlocked
		return s.step
	}

	s.armMonitorsLocked(win)
	s.step = entities.StepExternalPayment
	return s.step
}

// ReportPopupBlocked moves an external payment step into the blocked
// fallback after the client reports its popup never opened.
func (s *Session) ReportPopupBlocked() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStep(entities.StepExternalPayment); err != nil {
		return err
	}
	s.disarmLocked()
	s.step = entities.StepPopupBlocked
	return nil
}

// OpenInNewTab serves the stored payment URL for the new-tab fallback
// and resumes monitoring via provider messages only. The existing
// transaction is reused; nothing is re-submitted.
func (s *Session) OpenInNewTab() (string, error) {
	return s.resumeFromBlocked()
}

// RedirectURL serves the stored payment URL for a full-page redirect.
// Monitoring continues via provider messages only.
func (s *Session) RedirectURL() (string, error) {
	return s.resumeFromBlocked()
}

func (s *Session) resumeFromBlocked() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStep(entities.StepPopupBlocked); err != nil {
		return "", err
	}
	if s.paymentURL == "" {
		return "", fmt.Errorf("no payment url stored")
	}

	// No window handle to poll; the message listener is the sole monitor.
	s.armMonitorsLocked(nil)
	s.step = entities.StepExternalPayment
	return s.paymentURL, nil
}

// RetryAfterUnblock returns to Confirm so the player can retry once the
// popup blocker is disabled. The stored transaction is kept.
func (s *Session) RetryAfterUnblock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStep(entities.StepPopupBlocked); err != nil {
		return err
	}
	s.step = entities.StepConfirm
	return nil
}

// ReopenWindow re-opens the payment window for the stored transaction
// from Confirm, without composing a new deposit request.
func (s *Session) ReopenWindow(opener WindowOpener) (entities.WizardStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStep(entities.StepConfirm); err != nil {
		return s.step, err
	}
	if s.paymentURL == "" || s.transactionID == "" {
		return s.step, fmt.Errorf("no pending transaction to reopen")
	}

	win := opener.Open(s.paymentURL)
	if win == nil {
		s.step = entities.StepPopupBlocked
		return s.step, nil
	}
	s.armMonitorsLocked(win)
	s.step = entities.StepExternalPayment
	return s.step, nil
}

// ReportWindowClosed records that the player closed the payment window.
// The closure poll observes it on its next tick.
func (s *Session) ReportWindowClosed() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStep(entities.StepExternalPayment); err != nil {
		return err
	}
	if s.mon == nil || s.mon.window == nil {
		return fmt.Errorf("no tracked payment window")
	}
	s.mon.window.Close()
	return nil
}

// DismissBanner clears the current submission error banner
func (s *Session) DismissBanner() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banner = ""
}

// Close shuts the wizard: monitors are disarmed, the draft is discarded
// and any in-flight submission result will be dropped on arrival.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.open = false
	s.disarmLocked()
	s.draft = entities.NewDepositDraft()
	s.mu.Unlock()
}

// IsOpen reports whether the session still accepts operations
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// armMonitorsLocked subscribes to provider messages for the current
// transaction and starts the closure poll. Caller holds s.mu.
func (s *Session) armMonitorsLocked(win PaymentWindow) {
	s.disarmLocked()

	msgs, cancel := s.bus.Subscribe(s.transactionID)
	mon := newMonitor(win, msgs, cancel)
	s.mon = mon
	mon.run(s.cfg.PollInterval, s.handleMessage, s.handleClosure)
}

// disarmLocked releases the active monitor, if any. Caller holds s.mu.
func (s *Session) disarmLocked() {
	if s.mon != nil {
		s.mon.disarm()
		s.mon = nil
	}
}

// handleMessage applies a provider message. The monitor's resolved latch
// was taken before this runs, so the closure poll cannot fire anymore;
// disarming here is cleanup, not a race guard.
func (s *Session) handleMessage(msg entities.ProviderMessage) {
	s.mu.Lock()

	mon := s.mon
	if mon != nil {
		mon.disarm()
		if mon.window != nil {
			mon.window.Close()
		}
		s.mon = nil
	}

	if !s.open || s.step != entities.StepExternalPayment {
		s.mu.Unlock()
		s.logger.Info("Provider message arrived after session left external payment, ignored",
			zap.String("transaction_id", msg.TransactionID))
		return
	}

	var event ResolutionEvent
	switch msg.Normalize() {
	case entities.MessagePaymentSuccess:
		s.outcome = &entities.PaymentOutcome{Kind: entities.OutcomeSuccess, ReachedAt: time.Now()}
		s.step = entities.StepDone
	case entities.MessagePaymentFailed:
		reason := msg.Message
		if reason == "" {
			reason = GenericFailureMessage
		}
		s.outcome = &entities.PaymentOutcome{Kind: entities.OutcomeFailed, Reason: reason, ReachedAt: time.Now()}
		s.step = entities.StepDone
	case entities.MessagePaymentCancelled:
		// Cancellation is not terminal for the wizard: back to Confirm
		// with the draft intact so the player can retry.
		s.step = entities.StepConfirm
		event.ReturnedToConfirm = true
	}

	event.SessionID = s.ID
	event.TransactionID = s.transactionID
	event.Outcome = s.outcome
	event.ViaMessage = true
	callback := s.onResolved
	s.mu.Unlock()

	if callback != nil {
		callback(event)
	}
}

// handleClosure applies a user-driven window closure with no message
// received: an implicit cancel that returns to Confirm for retry, since
// the payment may still complete asynchronously server-side.
func (s *Session) handleClosure() {
	s.mu.Lock()

	if s.mon != nil {
		s.mon.disarm()
		s.mon = nil
	}

	if !s.open || s.step != entities.StepExternalPayment {
		s.mu.Unlock()
		return
	}

	s.step = entities.StepConfirm

	event := ResolutionEvent{
		SessionID:         s.ID,
		TransactionID:     s.transactionID,
		ReturnedToConfirm: true,
	}
	callback := s.onResolved
	s.mu.Unlock()

	s.logger.Info("Payment window closed without provider message, returning to confirmation",
		zap.String("session_id", s.ID.String()),
		zap.String("transaction_id", event.TransactionID))

	if callback != nil {
		callback(event)
	}
}

func (s *Session) requireStep(step entities.WizardStep) error {
	if !s.open {
		return fmt.Errorf("session is closed")
	}
	if s.step != step {
		return fmt.Errorf("operation not valid in step %s", s.step)
	}
	return nil
}
