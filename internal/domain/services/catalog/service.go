package catalog

import (
	"context"

	"go.uber.org/zap"
	"github.com/grandbet/deposit-service/internal/domain/entities"
)

// MethodRepository provides raw provider records
type MethodRepository interface {
	ListMethods(ctx context.Context) ([]RawMethodRecord, error)
}

// Service serves the normalized payment method catalog
type Service struct {
	repo    MethodRepository
	adapter *Adapter
	logger  *zap.Logger
}

// NewService creates a catalog service
func NewService(repo MethodRepository, adapter *Adapter, logger *zap.Logger) *Service {
	if adapter == nil {
		adapter = NewAdapter(nil)
	}
	return &Service{repo: repo, adapter: adapter, logger: logger}
}

// ListMethods returns the normalized catalog. Source failures are logged
// and reported as an empty catalog, never as an error to the wizard.
func (s *Service) ListMethods(ctx context.Context) []entities.PaymentMethodDescriptor {
	records, err := s.repo.ListMethods(ctx)
	if err != nil {
		s.logger.Error("Failed to load payment method catalog", zap.Error(err))
		return []entities.PaymentMethodDescriptor{}
	}
	return s.adapter.Normalize(records)
}

// FindMethod returns the descriptor for a method id plus whether it
// exists and is enabled
func (s *Service) FindMethod(ctx context.Context, id entities.MethodID) (entities.PaymentMethodDescriptor, bool) {
	for _, m := range s.ListMethods(ctx) {
		if m.ID == id && !m.Disabled {
			return m, true
		}
	}
	return entities.PaymentMethodDescriptor{}, false
}
