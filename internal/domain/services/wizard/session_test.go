package wizard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"github.com/grandbet/deposit-service/internal/domain/entities"
	"github.com/grandbet/deposit-service/internal/domain/fieldrules"
	"github.com/grandbet/deposit-service/internal/domain/services/catalog"
	"github.com/grandbet/deposit-service/pkg/metrics"
)

const trustedOrigin = "https://pay.provider.example"

// fakeWindow counts close calls so resolution idempotency is observable
type fakeWindow struct {
	url        string
	closed     atomic.Bool
	closeCalls atomic.Int32
}

func (w *fakeWindow) Closed() bool { return w.closed.Load() }
func (w *fakeWindow) Close() {
	w.closeCalls.Add(1)
	w.closed.Store(true)
}
func (w *fakeWindow) URL() string { return w.url }

// fakeOpener can simulate a popup blocker by returning nil handles
type fakeOpener struct {
	mu      sync.Mutex
	block   bool
	windows []*fakeWindow
}

func (o *fakeOpener) Open(url string) PaymentWindow {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.block {
		return nil
	}
	w := &fakeWindow{url: url}
	o.windows = append(o.windows, w)
	return w
}

func (o *fakeOpener) lastWindow() *fakeWindow {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.windows) == 0 {
		return nil
	}
	return o.windows[len(o.windows)-1]
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []*entities.GatewayDepositRequest
	resp     *entities.GatewayDepositResponse
	err      error
}

func (g *fakeGateway) CreateDeposit(_ context.Context, req *entities.GatewayDepositRequest) (*entities.GatewayDepositResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

func (g *fakeGateway) lastRequest() *entities.GatewayDepositRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return nil
	}
	return g.requests[len(g.requests)-1]
}

type fakeDepositRepo struct {
	mu      sync.Mutex
	created []*entities.Deposit
	updates map[string]entities.DepositStatus
}

func newFakeDepositRepo() *fakeDepositRepo {
	return &fakeDepositRepo{updates: make(map[string]entities.DepositStatus)}
}

func (r *fakeDepositRepo) Create(_ context.Context, d *entities.Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, d)
	return nil
}

func (r *fakeDepositRepo) UpdateStatusByTransactionID(_ context.Context, txID string, status entities.DepositStatus, _ *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[txID] = status
	return nil
}

func (r *fakeDepositRepo) statusOf(txID string) entities.DepositStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[txID]
}

type fakeMethodRepo struct{}

func (fakeMethodRepo) ListMethods(context.Context) ([]catalog.RawMethodRecord, error) {
	zero := 0.0
	return []catalog.RawMethodRecord{
		{ID: "papara", Name: "Papara", CommissionRate: &zero},
		{ID: "kredikarti", Name: "Kredi Karti"},
		{ID: "payfix", Name: "Payfix"},
		{ID: "havale", Name: "Havale"},
		{ID: "crypto", Name: "Crypto"},
	}, nil
}

type fakeStash struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStash() *fakeStash { return &fakeStash{blobs: make(map[string][]byte)} }

func (s *fakeStash) StashSubmission(_ context.Context, _, txID string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[txID] = blob
	return nil
}

type wizardFixture struct {
	manager *Manager
	opener  *fakeOpener
	gateway *fakeGateway
	repo    *fakeDepositRepo
	bus     *MessageBus
	stash   *fakeStash
}

func newFixture(t *testing.T) *wizardFixture {
	t.Helper()
	log := zap.NewNop()

	gateway := &fakeGateway{resp: &entities.GatewayDepositResponse{
		TransactionID: "tx-100",
		PaymentURL:    "https://pay.provider.example/p/tx-100",
	}}
	opener := &fakeOpener{}
	repo := newFakeDepositRepo()
	stash := newFakeStash()
	bus := NewMessageBus([]string{trustedOrigin}, log)

	catalogSvc := catalog.NewService(fakeMethodRepo{}, catalog.NewAdapter(nil), log)
	composer := NewComposer(gateway, stash, fieldrules.NewGenerator(), ComposerConfig{
		ReturnURL:     "https://casino.example/deposit/return",
		CallbackURL:   "https://casino.example/api/v1/callbacks/payment",
		SiteReference: "site-77",
	}, log)

	manager := NewManager(catalogSvc, composer, repo, bus, opener,
		SessionConfig{PollInterval: 5 * time.Millisecond}, log)

	return &wizardFixture{manager: manager, opener: opener, gateway: gateway, repo: repo, bus: bus, stash: stash}
}

func testUser() entities.UserProfile {
	return entities.UserProfile{ID: uuid.New(), DisplayName: "Ayşe Yılmaz", Email: "ayse@example.com"}
}

// driveToConfirm walks a session to the Confirm step
func (f *wizardFixture) driveToConfirm(t *testing.T, session *Session, method entities.MethodID, amount int64) {
	t.Helper()
	require.NoError(t, f.manager.SelectMethod(context.Background(), session, method))
	require.NoError(t, session.SetAmount(decimal.NewFromInt(amount), false))
}

func TestSession_HappyPathSuccessMessage(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())

	f.driveToConfirm(t, session, entities.MethodPapara, 100)

	state, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, entities.StepExternalPayment, state.Step)
	assert.Equal(t, "tx-100", state.TransactionID)

	delivered := f.bus.Publish(entities.ProviderMessage{
		Type:          entities.MessagePaymentSuccess,
		TransactionID: "tx-100",
		Origin:        trustedOrigin,
	})
	require.True(t, delivered)

	require.Eventually(t, func() bool {
		return session.State().Step == entities.StepDone
	}, time.Second, 5*time.Millisecond)

	state = session.State()
	require.NotNil(t, state.Outcome)
	assert.Equal(t, entities.OutcomeSuccess, state.Outcome.Kind)

	// The window was closed programmatically exactly once.
	win := f.opener.lastWindow()
	require.NotNil(t, win)
	assert.True(t, win.Closed())
	assert.Equal(t, int32(1), win.closeCalls.Load())

	require.Eventually(t, func() bool {
		return f.repo.statusOf("tx-100") == entities.DepositStatusSucceeded
	}, time.Second, 5*time.Millisecond)
}

func TestSession_ClosurePollResolvesAfterMessageIsNoOp(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPapara, 100)

	_, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)

	require.True(t, f.bus.Publish(entities.ProviderMessage{
		Type:          entities.MessagePaymentSuccess,
		TransactionID: "tx-100",
		Origin:        trustedOrigin,
	}))
	require.Eventually(t, func() bool {
		return session.State().Step == entities.StepDone
	}, time.Second, 5*time.Millisecond)

	// The closure poll sees a closed window now, but the step already
	// resolved: nothing may change and no second close may happen.
	win := f.opener.lastWindow()
	before := win.closeCalls.Load()
	time.Sleep(50 * time.Millisecond)

	state := session.State()
	assert.Equal(t, entities.StepDone, state.Step)
	assert.Equal(t, entities.OutcomeSuccess, state.Outcome.Kind)
	assert.Equal(t, before, win.closeCalls.Load())
}

func TestSession_WindowClosedByUserReturnsToConfirm(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPapara, 100)

	_, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)

	require.NoError(t, session.ReportWindowClosed())

	require.Eventually(t, func() bool {
		return session.State().Step == entities.StepConfirm
	}, time.Second, 5*time.Millisecond)

	// The draft survives for an immediate retry.
	state := session.State()
	assert.True(t, state.Draft.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, entities.MethodPapara, state.Draft.SelectedMethodID)

	// The message listener was disarmed: a late message finds no subscriber.
	assert.False(t, f.bus.Publish(entities.ProviderMessage{
		Type:          entities.MessagePaymentSuccess,
		TransactionID: "tx-100",
		Origin:        trustedOrigin,
	}))
	assert.Equal(t, entities.StepConfirm, session.State().Step)

	// Server-side the row returns to submitted for reconciliation.
	require.Eventually(t, func() bool {
		return f.repo.statusOf("tx-100") == entities.DepositStatusSubmitted
	}, time.Second, 5*time.Millisecond)
}

func TestSession_FailedMessageCarriesProviderReason(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPapara, 100)
	_, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)

	f.bus.Publish(entities.ProviderMessage{
		Type:          entities.MessagePaymentFailed,
		Message:       "insufficient balance",
		TransactionID: "tx-100",
		Origin:        trustedOrigin,
	})

	require.Eventually(t, func() bool {
		return session.State().Step == entities.StepDone
	}, time.Second, 5*time.Millisecond)

	state := session.State()
	assert.Equal(t, entities.OutcomeFailed, state.Outcome.Kind)
	assert.Equal(t, "insufficient balance", state.Outcome.Reason)
}

func TestSession_FailedMessageWithoutReasonUsesGenericText(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPapara, 100)
	_, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)

	// Short status form of the protocol.
	f.bus.Publish(entities.ProviderMessage{
		Status:        "failed",
		TransactionID: "tx-100",
		Origin:        trustedOrigin,
	})

	require.Eventually(t, func() bool {
		return session.State().Step == entities.StepDone
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, GenericFailureMessage, session.State().Outcome.Reason)
}

func TestSession_CancelledMessageReturnsToConfirm(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPapara, 100)
	_, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)

	f.bus.Publish(entities.ProviderMessage{
		Type:          entities.MessagePaymentCancelled,
		TransactionID: "tx-100",
		Origin:        trustedOrigin,
	})

	require.Eventually(t, func() bool {
		return session.State().Step == entities.StepConfirm
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, session.State().Outcome)
	assert.True(t, f.opener.lastWindow().Closed())
}

func TestSession_AmountRangeGuardBoundariesInclusive(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		amount  int64
		allowed bool
	}{
		{49, false},
		{50, true},
		{100, true},
		{10000, true},
		{10001, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("amount_%d", tt.amount), func(t *testing.T) {
			session := f.manager.OpenSession(testUser())
			require.NoError(t, f.manager.SelectMethod(context.Background(), session, entities.MethodPapara))

			err := session.SetAmount(decimal.NewFromInt(tt.amount), false)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, entities.StepConfirm, session.State().Step)
			} else {
				var fieldErrs FieldErrors
				require.ErrorAs(t, err, &fieldErrs)
				assert.Contains(t, fieldErrs, "amount")
				assert.Equal(t, entities.StepEnterAmount, session.State().Step)
			}
		})
	}
}

func TestSession_ResetOnReopen(t *testing.T) {
	f := newFixture(t)
	user := testUser()

	first := f.manager.OpenSession(user)
	f.driveToConfirm(t, first, entities.MethodPapara, 100)
	_, err := f.manager.Submit(context.Background(), first)
	require.NoError(t, err)

	second := f.manager.OpenSession(user)
	state := second.State()
	assert.Equal(t, entities.StepSelectMethod, state.Step)
	assert.True(t, state.Draft.Amount.IsZero())
	assert.Empty(t, state.Draft.GeneratedFields)
	assert.Empty(t, state.TransactionID)

	// The first session is closed and unreachable.
	assert.False(t, first.IsOpen())
	_, err = f.manager.Session(first.ID, user.ID)
	assert.Error(t, err)
}

func TestSession_PopupBlockedFallback(t *testing.T) {
	f := newFixture(t)
	f.opener.block = true

	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPapara, 100)

	state, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, entities.StepPopupBlocked, state.Step)
	assert.Equal(t, "https://pay.provider.example/p/tx-100", state.PaymentURL)

	// A single submission reached the gateway.
	require.Len(t, f.gateway.requests, 1)

	// New-tab recovery reuses the stored URL without re-submitting.
	url, err := session.OpenInNewTab()
	require.NoError(t, err)
	assert.Equal(t, state.PaymentURL, url)
	assert.Equal(t, entities.StepExternalPayment, session.State().Step)
	assert.Len(t, f.gateway.requests, 1)

	// The message listener still resolves the step.
	f.bus.Publish(entities.ProviderMessage{
		Type:          entities.MessagePaymentSuccess,
		TransactionID: "tx-100",
		Origin:        trustedOrigin,
	})
	require.Eventually(t, func() bool {
		return session.State().Step == entities.StepDone
	}, time.Second, 5*time.Millisecond)
}

func TestSession_PopupBlockedRetryReturnsToConfirm(t *testing.T) {
	f := newFixture(t)
	f.opener.block = true

	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPapara, 100)
	_, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)

	require.NoError(t, session.RetryAfterUnblock())
	assert.Equal(t, entities.StepConfirm, session.State().Step)

	// Blocker disabled: reopening uses the stored transaction, no new
	// gateway call.
	f.opener.block = false
	state, err := f.manager.ReopenWindow(session)
	require.NoError(t, err)
	assert.Equal(t, entities.StepExternalPayment, state.Step)
	assert.Len(t, f.gateway.requests, 1)
}

func TestSession_SubmitMissingPaymentURLStaysOnConfirm(t *testing.T) {
	f := newFixture(t)
	f.gateway.resp = &entities.GatewayDepositResponse{TransactionID: "tx-100"} // no payment_url

	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPapara, 100)

	state, err := f.manager.Submit(context.Background(), session)
	require.Error(t, err)
	assert.Equal(t, entities.StepConfirm, state.Step)
	assert.NotEmpty(t, state.Banner)

	// Retry is possible after the hard failure.
	f.gateway.resp = &entities.GatewayDepositResponse{TransactionID: "tx-101", PaymentURL: "https://pay.provider.example/p/tx-101"}
	state, err = f.manager.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, entities.StepExternalPayment, state.Step)
	assert.Empty(t, state.Banner)
}

func TestSession_KrediKartiRequiresTCNumber(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodKrediKarti, 100)

	_, err := f.manager.Submit(context.Background(), session)
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "tc_number")
	assert.Equal(t, entities.StepConfirm, session.State().Step)
	assert.Empty(t, f.gateway.requests, "validation failures must not reach the gateway")

	require.NoError(t, session.SetField(fieldrules.FieldTCNumber, "12345678901"))
	_, err = f.manager.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "12345678901", f.gateway.lastRequest().TCNumber)
}

func TestSession_MissingDisplayNameBlocksSubmission(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	user.DisplayName = ""
	session := f.manager.OpenSession(user)
	f.driveToConfirm(t, session, entities.MethodPapara, 100)

	_, err := f.manager.Submit(context.Background(), session)
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "user")
	assert.Empty(t, f.gateway.requests)
}

func TestSession_GeneratorSeedsMissingIdentifier(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPayfix, 100)

	_, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)

	seeded := f.gateway.lastRequest().Fields["payfix_number"]
	assert.Len(t, seeded, 11)
	assert.NotEqual(t, byte('0'), seeded[0])
	assert.Empty(t, fieldrules.Validate(fieldrules.FieldPayfixNumber, seeded))
}

func TestSession_IBANIsRequiredNotSeeded(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodHavale, 100)

	_, err := f.manager.Submit(context.Background(), session)
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs["iban"], "is required")
	assert.Empty(t, f.gateway.requests, "a seeded non-numeric identifier must never reach the gateway")

	require.NoError(t, session.SetField(fieldrules.FieldIBAN, "TR123456789012345678901234"))
	_, err = f.manager.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "TR123456789012345678901234", f.gateway.lastRequest().Fields["iban"])
}

func TestSession_CryptoTypeIsRequiredNotSeeded(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodCrypto, 100)

	_, err := f.manager.Submit(context.Background(), session)
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs["crypto_type"], "is required")
	assert.Empty(t, f.gateway.requests)

	require.NoError(t, session.SetField(fieldrules.FieldCryptoType, "USDT"))
	_, err = f.manager.Submit(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "USDT", f.gateway.lastRequest().Fields["crypto_type"])
}

func TestSession_StateSnapshotDoesNotShareFieldsMap(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodKrediKarti, 100)

	snapshot := session.State()
	require.NoError(t, session.SetField(fieldrules.FieldTCNumber, "12345678901"))

	assert.NotContains(t, snapshot.Draft.GeneratedFields, "tc_number")
	assert.Contains(t, session.State().Draft.GeneratedFields, "tc_number")
}

func TestManager_ReopenKeepsSessionGaugeStable(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	before := testutil.ToFloat64(metrics.ActiveWizardSessions)

	f.manager.OpenSession(user)
	f.manager.OpenSession(user)
	session := f.manager.OpenSession(user)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ActiveWizardSessions))

	require.NoError(t, f.manager.CloseSession(session.ID, user.ID))
	assert.Equal(t, before, testutil.ToFloat64(metrics.ActiveWizardSessions))
}

func TestSession_SubmissionStashedBestEffort(t *testing.T) {
	f := newFixture(t)
	session := f.manager.OpenSession(testUser())
	f.driveToConfirm(t, session, entities.MethodPapara, 100)

	_, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)

	f.stash.mu.Lock()
	defer f.stash.mu.Unlock()
	assert.Contains(t, f.stash.blobs, "tx-100")
}

func TestSession_CloseDisarmsMonitors(t *testing.T) {
	f := newFixture(t)
	user := testUser()
	session := f.manager.OpenSession(user)
	f.driveToConfirm(t, session, entities.MethodPapara, 100)
	_, err := f.manager.Submit(context.Background(), session)
	require.NoError(t, err)

	require.NoError(t, f.manager.CloseSession(session.ID, user.ID))

	// Subscription released: messages for the transaction have nowhere to go.
	assert.False(t, f.bus.Publish(entities.ProviderMessage{
		Type:          entities.MessagePaymentSuccess,
		TransactionID: "tx-100",
		Origin:        trustedOrigin,
	}))
}

func TestMessageBus_DropsUntrustedOrigin(t *testing.T) {
	log := zap.NewNop()
	bus := NewMessageBus([]string{trustedOrigin}, log)

	ch, cancel := bus.Subscribe("tx-9")
	defer cancel()

	assert.False(t, bus.Publish(entities.ProviderMessage{
		Type:          entities.MessagePaymentSuccess,
		TransactionID: "tx-9",
		Origin:        "https://evil.example",
	}))
	select {
	case <-ch:
		t.Fatal("message from untrusted origin must not be delivered")
	default:
	}

	assert.True(t, bus.Publish(entities.ProviderMessage{
		Type:          entities.MessagePaymentSuccess,
		TransactionID: "tx-9",
		Origin:        trustedOrigin,
	}))
}

func TestMonitor_FirstSignalWinsExactlyOnce(t *testing.T) {
	msgs := make(chan entities.ProviderMessage, 1)
	win := &fakeWindow{url: "https://pay.provider.example/p/x"}

	var messageFired, closureFired atomic.Int32
	mon := newMonitor(win, msgs, func() {})
	mon.run(time.Millisecond,
		func(entities.ProviderMessage) { messageFired.Add(1) },
		func() { closureFired.Add(1) })

	// Both signals fire back to back; only the first may resolve.
	msgs <- entities.ProviderMessage{Type: entities.MessagePaymentSuccess}
	win.closed.Store(true)

	require.Eventually(t, func() bool {
		return messageFired.Load()+closureFired.Load() >= 1
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(1), messageFired.Load()+closureFired.Load())

	mon.disarm()
	mon.wait()
}

func TestProviderMessage_NormalizeBothPayloadShapes(t *testing.T) {
	tests := []struct {
		msg  entities.ProviderMessage
		want string
	}{
		{entities.ProviderMessage{Type: "PAYMENT_SUCCESS"}, entities.MessagePaymentSuccess},
		{entities.ProviderMessage{Type: "PAYMENT_FAILED"}, entities.MessagePaymentFailed},
		{entities.ProviderMessage{Type: "PAYMENT_CANCELLED"}, entities.MessagePaymentCancelled},
		{entities.ProviderMessage{Status: "success"}, entities.MessagePaymentSuccess},
		{entities.ProviderMessage{Status: "failed"}, entities.MessagePaymentFailed},
		{entities.ProviderMessage{Status: "cancelled"}, entities.MessagePaymentCancelled},
		{entities.ProviderMessage{Status: "canceled"}, entities.MessagePaymentCancelled},
		{entities.ProviderMessage{Type: "SOMETHING_ELSE"}, ""},
		{entities.ProviderMessage{}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.msg.Normalize())
	}
}
