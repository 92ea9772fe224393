// Package reconciliation settles deposits the wizard could not resolve:
// the player closed the payment window (or the whole wizard) and no
// provider message arrived, so the outcome only exists on the gateway
// side. A scheduled sweep polls the gateway's transaction status and
// applies it to the stored rows.
package reconciliation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/grandbet/deposit-service/internal/domain/entities"
	"github.com/grandbet/deposit-service/pkg/logger"
	"github.com/grandbet/deposit-service/pkg/metrics"
)

const (
	defaultSchedule  = "@every 2m"
	defaultBatchSize = 50
	defaultMinAge    = 5 * time.Minute
	sweepTimeout     = 90 * time.Second
)

// DepositStore reads and settles unsettled deposit rows
type DepositStore interface {
	ListUnsettled(ctx context.Context, olderThan time.Duration, limit int) ([]*entities.Deposit, error)
	UpdateStatusByTransactionID(ctx context.Context, transactionID string, status entities.DepositStatus, failureReason *string) error
}

// StatusPoller fetches the gateway's view of a transaction
type StatusPoller interface {
	GetTransactionStatus(ctx context.Context, transactionID string) (*entities.GatewayTransactionStatus, error)
}

// Config tunes the reconciliation worker
type Config struct {
	Schedule  string
	BatchSize int
	MinAge    time.Duration
}

// DefaultConfig returns the default reconciliation settings
func DefaultConfig() Config {
	return Config{
		Schedule:  defaultSchedule,
		BatchSize: defaultBatchSize,
		MinAge:    defaultMinAge,
	}
}

// Worker runs the scheduled reconciliation sweep
type Worker struct {
	store  DepositStore
	poller StatusPoller
	cfg    Config
	log    *logger.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewWorker creates a reconciliation worker
func NewWorker(store DepositStore, poller StatusPoller, cfg Config, log *logger.Logger) *Worker {
	if cfg.Schedule == "" {
		cfg.Schedule = defaultSchedule
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Worker{store: store, poller: poller, cfg: cfg, log: log}
}

// Start schedules the sweep
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("reconciliation worker already started")
	}

	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.cfg.Schedule, w.sweep); err != nil {
		return fmt.Errorf("schedule reconciliation sweep: %w", err)
	}
	w.cron.Start()
	w.running = true

	w.log.Info("Reconciliation worker started", "schedule", w.cfg.Schedule)
	return nil
}

// Stop stops the schedule and waits for a running sweep to finish
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.running = false

	w.log.Info("Reconciliation worker stopped")
	return nil
}

// sweep settles one batch of unsettled deposits
func (w *Worker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	deposits, err := w.store.ListUnsettled(ctx, w.cfg.MinAge, w.cfg.BatchSize)
	if err != nil {
		w.log.Error("Failed to list unsettled deposits", "error", err)
		metrics.ReconciliationSweeps.WithLabelValues("error").Inc()
		return
	}
	if len(deposits) == 0 {
		metrics.ReconciliationSweeps.WithLabelValues("empty").Inc()
		return
	}

	settled := 0
	for _, d := range deposits {
		select {
		case <-ctx.Done():
			w.log.Warn("Reconciliation sweep timed out", "settled", settled, "batch", len(deposits))
			return
		default:
		}
		if w.reconcileOne(ctx, d) {
			settled++
		}
	}

	w.log.Info("Reconciliation sweep completed", "batch", len(deposits), "settled", settled)
	metrics.ReconciliationSweeps.WithLabelValues("ok").Inc()
}

// reconcileOne applies the gateway status to a single deposit. Returns
// true when the row reached a terminal status.
func (w *Worker) reconcileOne(ctx context.Context, d *entities.Deposit) bool {
	status, err := w.poller.GetTransactionStatus(ctx, d.TransactionID)
	if err != nil {
		w.log.Warn("Failed to poll transaction status",
			"transaction_id", d.TransactionID, "error", err)
		return false
	}

	switch status.Status {
	case entities.GatewayStatusApproved:
		w.settle(ctx, d, entities.DepositStatusSucceeded, nil)
		return true
	case entities.GatewayStatusDeclined:
		reason := status.Message
		if reason == "" {
			reason = "declined by provider"
		}
		w.settle(ctx, d, entities.DepositStatusFailed, &reason)
		return true
	case entities.GatewayStatusExpired:
		reason := "payment window expired"
		w.settle(ctx, d, entities.DepositStatusCancelled, &reason)
		return true
	default:
		// Still pending on the gateway side; next sweep retries.
		return false
	}
}

func (w *Worker) settle(ctx context.Context, d *entities.Deposit, status entities.DepositStatus, reason *string) {
	if err := w.store.UpdateStatusByTransactionID(ctx, d.TransactionID, status, reason); err != nil {
		w.log.Error("Failed to settle deposit",
			"transaction_id", d.TransactionID, "status", string(status), "error", err)
		return
	}
	w.log.Info("Deposit settled by reconciliation",
		"transaction_id", d.TransactionID, "status", string(status))
}
