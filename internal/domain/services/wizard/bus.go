package wizard

import (
	"sync"

	"go.uber.org/zap"
	"github.com/grandbet/deposit-service/internal/domain/entities"
)

// MessageBus routes provider callback messages to the session monitoring
// the matching transaction. Messages from origins outside the configured
// allowlist are dropped before any session sees them.
type MessageBus struct {
	mu             sync.RWMutex
	subscribers    map[string]chan entities.ProviderMessage // transaction id -> channel
	allowedOrigins map[string]bool
	logger         *zap.Logger
}

// NewMessageBus creates a bus trusting only the given provider origins.
// An empty allowlist rejects every message carrying an origin.
func NewMessageBus(allowedOrigins []string, logger *zap.Logger) *MessageBus {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &MessageBus{
		subscribers:    make(map[string]chan entities.ProviderMessage),
		allowedOrigins: allowed,
		logger:         logger,
	}
}

// Subscribe registers interest in messages for a transaction. The returned
// cancel func releases the subscription; it is safe to call more than once.
func (b *MessageBus) Subscribe(transactionID string) (<-chan entities.ProviderMessage, func()) {
	ch := make(chan entities.ProviderMessage, 4)

	b.mu.Lock()
	b.subscribers[transactionID] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if b.subscribers[transactionID] == ch {
				delete(b.subscribers, transactionID)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers a message to the subscriber for its transaction.
// Returns false when the message was dropped (untrusted origin, no
// subscriber, or subscriber backlog full).
func (b *MessageBus) Publish(msg entities.ProviderMessage) bool {
	if !b.allowedOrigins[msg.Origin] {
		b.logger.Warn("Dropping payment message from untrusted origin",
			zap.String("origin", msg.Origin),
			zap.String("transaction_id", msg.TransactionID))
		return false
	}

	b.mu.RLock()
	ch, ok := b.subscribers[msg.TransactionID]
	b.mu.RUnlock()
	if !ok {
		b.logger.Info("No session monitoring transaction, message ignored",
			zap.String("transaction_id", msg.TransactionID))
		return false
	}

	select {
	case ch <- msg:
		return true
	default:
		b.logger.Warn("Subscriber backlog full, message dropped",
			zap.String("transaction_id", msg.TransactionID))
		return false
	}
}
