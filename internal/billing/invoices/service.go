package invoices

import (
	"context"
	"log/slog"
	"time"

	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
)

// Clock supplies the business time zone used to decide what "today" is.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type Service struct {
	repo   Repository
	clock  Clock
	logger *slog.Logger
}

func NewService(repo Repository, clock Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, clock: clock, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetBySalesOrder(ctx context.Context, salesOrderID int64) (Invoice, error) {
	return s.repo.GetBySalesOrder(ctx, salesOrderID)
}

func (s *Service) List(ctx context.Context, filters salesshared.DocumentFilters) ([]Invoice, int, error) {
	return s.repo.List(ctx, filters)
}

// MarkOverdue flags pending and partially paid invoices whose due date has passed.
func (s *Service) MarkOverdue(ctx context.Context) ([]string, error) {
	now := s.clock.Now().In(s.clock.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	numbers, err := s.repo.MarkOverdue(ctx, today)
	if err != nil {
		return nil, err
	}
	if len(numbers) > 0 {
		s.logger.Info("invoices marked overdue", slog.Int("count", len(numbers)), slog.Any("numbers", numbers))
	}
	return numbers, nil
}
