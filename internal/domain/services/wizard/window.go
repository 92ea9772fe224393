package wizard

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/grandbet/deposit-service/internal/domain/entities"
)

// PaymentWindow is a weak handle to the external payment window. The
// wizard only opens, closes and observes it; ownership of the window's
// lifetime stays with the player's browser and the provider page.
type PaymentWindow interface {
	// Closed reports whether the window is gone, regardless of which
	// side closed it.
	Closed() bool
	// Close closes the window programmatically. Safe to call twice.
	Close()
	// URL returns the payment page URL the window was opened with.
	URL() string
}

// WindowOpener opens the provider payment page. A nil handle means the
// popup was blocked; that is a fallback state, not an error.
type WindowOpener interface {
	Open(url string) PaymentWindow
}

// TrackedWindow is the production PaymentWindow. The browser client
// reports closure through the session API; until it does, the window
// counts as open.
type TrackedWindow struct {
	url    string
	closed atomic.Bool
}

// NewTrackedWindow creates a window handle for the given payment URL
func NewTrackedWindow(url string) *TrackedWindow {
	return &TrackedWindow{url: url}
}

// Closed reports whether closure has been observed
func (w *TrackedWindow) Closed() bool { return w.closed.Load() }

// Close marks the window closed. The client receives the close
// instruction in the next session state it polls.
func (w *TrackedWindow) Close() { w.closed.Store(true) }

// URL returns the payment page URL
func (w *TrackedWindow) URL() string { return w.url }

// TrackedOpener hands out TrackedWindow handles. Popup blocking is
// reported by the client after the fact via Session.ReportPopupBlocked,
// so opening itself always yields a handle.
type TrackedOpener struct{}

func (TrackedOpener) Open(url string) PaymentWindow { return NewTrackedWindow(url) }

// monitor owns the two resolution signals armed for the external payment
// step: the closure poll and the provider message subscription. Exactly
// one of them may resolve the step; the first to fire wins the resolved
// latch and the other is disarmed.
type monitor struct {
	window      PaymentWindow // nil when opened via new tab/redirect
	messages    <-chan entities.ProviderMessage
	unsubscribe func()

	resolved atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup
}

func newMonitor(window PaymentWindow, messages <-chan entities.ProviderMessage, unsubscribe func()) *monitor {
	return &monitor{
		window:      window,
		messages:    messages,
		unsubscribe: unsubscribe,
		stop:        make(chan struct{}),
	}
}

// run arms both signals. onMessage/onClosure are invoked at most once
// combined; the resolved latch is taken before either fires.
func (m *monitor) run(pollInterval time.Duration, onMessage func(entities.ProviderMessage), onClosure func()) {
	m.done.Add(2)

	// Closure poll: fixed-interval check of the window handle. Skipped
	// entirely when the payment page lives in a tab we hold no handle to.
	go func() {
		defer m.done.Done()
		if m.window == nil {
			<-m.stop
			return
		}
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				if !m.window.Closed() {
					continue
				}
				if !m.resolved.CompareAndSwap(false, true) {
					return
				}
				onClosure()
				return
			}
		}
	}()

	// Provider message listener.
	go func() {
		defer m.done.Done()
		for {
			select {
			case <-m.stop:
				return
			case msg, ok := <-m.messages:
				if !ok {
					return
				}
				if msg.Normalize() == "" {
					continue
				}
				if !m.resolved.CompareAndSwap(false, true) {
					return
				}
				onMessage(msg)
				return
			}
		}
	}()
}

// disarm releases the subscription and stops both goroutines. Idempotent;
// called both by the winning handler and by session close.
func (m *monitor) disarm() {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
	})
}

// wait blocks until both monitor goroutines have exited
func (m *monitor) wait() {
	m.done.Wait()
}
