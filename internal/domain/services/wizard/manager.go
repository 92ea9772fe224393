package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"github.com/grandbet/deposit-service/internal/domain/entities"
	"github.com/grandbet/deposit-service/internal/domain/services/catalog"
	"github.com/grandbet/deposit-service/pkg/metrics"
)

// DepositRepository persists deposit transactions
type DepositRepository interface {
	Create(ctx context.Context, deposit *entities.Deposit) error
	UpdateStatusByTransactionID(ctx context.Context, transactionID string, status entities.DepositStatus, failureReason *string) error
}

// Manager owns the live wizard sessions: one open session per user,
// reset on every open. It wires the catalog, the request composer, the
// window opener and the provider message bus into the session state
// machine and mirrors session resolutions into the deposit store.
type Manager struct {
	catalog  *catalog.Service
	composer *Composer
	deposits DepositRepository
	bus      *MessageBus
	opener   WindowOpener
	cfg      SessionConfig
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session // session id -> session
	byUser   map[uuid.UUID]uuid.UUID
}

// NewManager creates a session manager
func NewManager(
	catalogSvc *catalog.Service,
	composer *Composer,
	deposits DepositRepository,
	bus *MessageBus,
	opener WindowOpener,
	cfg SessionConfig,
	logger *zap.Logger,
) *Manager {
	if opener == nil {
		opener = TrackedOpener{}
	}
	return &Manager{
		catalog:  catalogSvc,
		composer: composer,
		deposits: deposits,
		bus:      bus,
		opener:   opener,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
		byUser:   make(map[uuid.UUID]uuid.UUID),
	}
}

// OpenSession starts a fresh wizard for the user. Any previous session
// is closed first; the new one always begins at SelectMethod.
func (m *Manager) OpenSession(user entities.UserProfile) *Session {
	m.mu.Lock()
	if prevID, ok := m.byUser[user.ID]; ok {
		if prev := m.sessions[prevID]; prev != nil {
			prev.Close()
			delete(m.sessions, prevID)
			metrics.ActiveWizardSessions.Dec()
		}
	}

	session := NewSession(user, m.bus, m.cfg, m.onResolved, m.logger)
	m.sessions[session.ID] = session
	m.byUser[user.ID] = session.ID
	m.mu.Unlock()

	metrics.ActiveWizardSessions.Inc()
	m.logger.Info("Deposit wizard session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("user_id", user.ID.String()))
	return session
}

// Session looks up a live session by id and owner
func (m *Manager) Session(sessionID, userID uuid.UUID) (*Session, error) {
	m.mu.RLock()
	session := m.sessions[sessionID]
	m.mu.RUnlock()

	if session == nil || !session.IsOpen() {
		return nil, fmt.Errorf("session not found")
	}
	if session.User.ID != userID {
		return nil, fmt.Errorf("session not found")
	}
	return session, nil
}

// CloseSession closes a session and releases its resources
func (m *Manager) CloseSession(sessionID, userID uuid.UUID) error {
	session, err := m.Session(sessionID, userID)
	if err != nil {
		return err
	}

	session.Close()

	m.mu.Lock()
	delete(m.sessions, sessionID)
	if m.byUser[userID] == sessionID {
		delete(m.byUser, userID)
	}
	m.mu.Unlock()

	metrics.ActiveWizardSessions.Dec()
	return nil
}

// SelectMethod resolves the method from the catalog and applies it
func (m *Manager) SelectMethod(ctx context.Context, session *Session, methodID entities.MethodID) error {
	method, ok := m.catalog.FindMethod(ctx, methodID)
	if !ok {
		return fmt.Errorf("payment method %s is not available", methodID)
	}
	return session.SelectMethod(method)
}

// SetAmount forwards to the session
func (m *Manager) SetAmount(session *Session, amount decimal.Decimal, useBonus bool) error {
	return session.SetAmount(amount, useBonus)
}

// Submit composes and submits the deposit request, then opens the
// payment window. Validation problems surface as FieldErrors, transport
// and malformed-reply problems as a banner on the Confirm step.
func (m *Manager) Submit(ctx context.Context, session *Session) (SessionState, error) {
	user, draft, method, err := session.beginSubmit()
	if err != nil {
		return session.State(), err
	}

	resp, err := m.composer.Submit(ctx, user, &draft, method)
	if err != nil {
		var fieldErrs FieldErrors
		if errors.As(err, &fieldErrs) {
			// Field errors block submission without touching the banner.
			session.failSubmitSilent()
			return session.State(), fieldErrs
		}
		metrics.DepositSubmissions.WithLabelValues("error").Inc()
		session.failSubmit(err)
		return session.State(), err
	}

	m.recordDeposit(ctx, user, &draft, method, resp)
	metrics.DepositSubmissions.WithLabelValues("ok").Inc()

	step := session.completeSubmit(resp, m.opener)
	if step == entities.StepPopupBlocked {
		m.logger.Warn("Payment popup blocked",
			zap.String("session_id", session.ID.String()),
			zap.String("transaction_id", resp.TransactionID))
	}
	return session.State(), nil
}

// ReopenWindow reopens the payment window for the stored transaction
func (m *Manager) ReopenWindow(session *Session) (SessionState, error) {
	_, err := session.ReopenWindow(m.opener)
	return session.State(), err
}

// HandleProviderMessage feeds a provider callback into the bus. The
// message only reaches a session when its origin is trusted and a
// monitor is subscribed for its transaction.
func (m *Manager) HandleProviderMessage(msg entities.ProviderMessage) bool {
	return m.bus.Publish(msg)
}

// recordDeposit persists the submitted transaction. Persistence problems
// are logged, never surfaced to the player: the gateway already accepted
// the deposit and reconciliation will catch up.
func (m *Manager) recordDeposit(ctx context.Context, user entities.UserProfile, draft *entities.DepositDraft, method entities.PaymentMethodDescriptor, resp *entities.GatewayDepositResponse) {
	now := time.Now()
	deposit := &entities.Deposit{
		ID:            uuid.New(),
		UserID:        user.ID,
		MethodID:      method.ID,
		Amount:        draft.Amount,
		UseBonus:      draft.UseBonus,
		TransactionID: resp.TransactionID,
		PaymentURL:    resp.PaymentURL,
		Status:        entities.DepositStatusAwaitingProvider,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.deposits.Create(ctx, deposit); err != nil {
		m.logger.Error("Failed to persist deposit",
			zap.String("transaction_id", resp.TransactionID),
			zap.Error(err))
	}
}

// onResolved mirrors a session resolution into the deposit store
func (m *Manager) onResolved(event ResolutionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch {
	case event.Outcome != nil && event.Outcome.Kind == entities.OutcomeSuccess:
		metrics.DepositResolutions.WithLabelValues("success").Inc()
		m.updateDeposit(ctx, event.TransactionID, entities.DepositStatusSucceeded, nil)
	case event.Outcome != nil && event.Outcome.Kind == entities.OutcomeFailed:
		metrics.DepositResolutions.WithLabelValues("failed").Inc()
		reason := event.Outcome.Reason
		m.updateDeposit(ctx, event.TransactionID, entities.DepositStatusFailed, &reason)
	case event.ReturnedToConfirm:
		// Ambiguous: the player may have paid and closed the window, or
		// abandoned it. The row goes back to Submitted and reconciliation
		// settles it against the gateway's status endpoint.
		metrics.DepositResolutions.WithLabelValues("returned").Inc()
		m.updateDeposit(ctx, event.TransactionID, entities.DepositStatusSubmitted, nil)
	}
}

func (m *Manager) updateDeposit(ctx context.Context, transactionID string, status entities.DepositStatus, reason *string) {
	if transactionID == "" {
		return
	}
	if err := m.deposits.UpdateStatusByTransactionID(ctx, transactionID, status, reason); err != nil {
		m.logger.Error("Failed to update deposit status",
			zap.String("transaction_id", transactionID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}
