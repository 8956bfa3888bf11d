package joborders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hairline-erp/hairline/internal/numbering"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type AuditPort interface {
	Record(ctx context.Context, log core.AuditLog) error
}

type Service struct {
	repo    Repository
	numbers *numbering.Service
	audit   AuditPort
	logger  *slog.Logger
}

func NewService(repo Repository, numbers *numbering.Service, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, numbers: numbers, audit: audit, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (JobOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters salesshared.DocumentFilters) ([]JobOrder, int, error) {
	return s.repo.List(ctx, filters)
}

// UpdateProgress applies absolute counter values per line, recomputes
// order_balance = to_produce - shipped and advances the status.
func (s *Service) UpdateProgress(ctx context.Context, caller core.Caller, id int64, input ProgressInput) (JobOrder, error) {
	if err := core.Validate(input); err != nil {
		return JobOrder{}, err
	}
	var jo JobOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		jo, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if jo.Status == StatusCompleted {
			return core.InvalidState("Job order %s is completed; progress can no longer change.", jo.Number)
		}
		index := make(map[int64]int, len(jo.Lines))
		for i, l := range jo.Lines {
			index[l.ID] = i
		}
		fields := map[string]string{}
		for n, p := range input.Lines {
			i, ok := index[p.LineID]
			if !ok {
				fields[fmt.Sprintf("lines[%d].line_id", n)] = fmt.Sprintf("line %d does not belong to job order %s", p.LineID, jo.Number)
				continue
			}
			line := &jo.Lines[i]
			for name, v := range map[string]*decimal.Decimal{"reserved": p.Reserved, "ready": p.Ready, "shipped": p.Shipped} {
				if v != nil && !core.QuantityFits(*v) {
					fields[fmt.Sprintf("lines[%d].%s", n, name)] = core.QuantityScaleMessage
				}
			}
			if p.Reserved != nil {
				line.Reserved = *p.Reserved
			}
			if p.Ready != nil {
				line.Ready = *p.Ready
			}
			if p.Shipped != nil {
				line.Shipped = *p.Shipped
			}
			if line.Shipped.GreaterThan(line.ToProduce) {
				fields[fmt.Sprintf("lines[%d].shipped", n)] = "cannot exceed the quantity to produce"
			}
			line.OrderBalance = line.ToProduce.Sub(line.Shipped)
		}
		if len(fields) > 0 {
			return core.ValidationFields(fields)
		}
		if input.Notes != nil {
			jo.Notes = *input.Notes
		}
		jo.Status = deriveStatus(jo.Lines)
		return repo.SaveProgress(ctx, jo)
	})
	if err != nil {
		return JobOrder{}, err
	}
	s.record(ctx, caller, "job_order:progress", jo, map[string]any{"status": jo.Status})
	return jo, nil
}

// Duplicate creates a pending copy without a sales order link. Its number comes from
// the sales order series so it can never collide with an order-derived job order.
func (s *Service) Duplicate(ctx context.Context, caller core.Caller, id int64) (JobOrder, error) {
	var dup JobOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		src, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		number, err := s.numbers.Next(ctx, repo, numbering.ClassSalesOrder, s.numbers.Now())
		if err != nil {
			return err
		}
		lines := make([]Line, len(src.Lines))
		for i, l := range src.Lines {
			lines[i] = Line{
				LineNo:       i + 1,
				ProductID:    l.ProductID,
				Description:  l.Description,
				Unit:         l.Unit,
				ToProduce:    l.ToProduce,
				OrderBalance: l.ToProduce,
			}
		}
		sourceID := src.ID
		dup, err = repo.Create(ctx, JobOrder{
			Number:     number,
			SourceID:   &sourceID,
			CustomerID: src.CustomerID,
			Status:     StatusPending,
			Notes:      src.Notes,
			CreatedBy:  caller.StaffID,
			Lines:      lines,
		})
		return err
	})
	if err != nil {
		return JobOrder{}, err
	}
	s.record(ctx, caller, "job_order:duplicate", dup, map[string]any{"source_id": id})
	return dup, nil
}

func (s *Service) record(ctx context.Context, caller core.Caller, action string, jo JobOrder, meta map[string]any) {
	if s.audit == nil {
		return
	}
	meta["number"] = jo.Number
	if err := s.audit.Record(ctx, core.AuditLog{ActorID: caller.StaffID, Action: action, Entity: "job_order", EntityID: fmt.Sprint(jo.ID), Meta: meta}); err != nil {
		s.logger.Warn("audit job order", slog.String("action", action), slog.Any("error", err))
	}
}
