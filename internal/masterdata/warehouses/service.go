package warehouses

import (
	"context"
	"strings"

	"github.com/hairline-erp/hairline/internal/masterdata/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Warehouse, error) {
	return s.repo.Get(ctx, id)
}

// ReservedBucket returns the location confirmed orders reserve stock into.
func (s *Service) ReservedBucket(ctx context.Context) (Warehouse, error) {
	return s.repo.ReservedBucket(ctx)
}

func (s *Service) Create(ctx context.Context, form WarehouseForm) (Warehouse, error) {
	if err := validateForm(form); err != nil {
		return Warehouse{}, err
	}
	w := Warehouse{
		Code:     strings.ToUpper(strings.TrimSpace(form.Code)),
		Name:     strings.TrimSpace(form.Name),
		Address:  strings.TrimSpace(form.Address),
		IsActive: form.IsActive == nil || *form.IsActive,
	}
	return s.repo.Create(ctx, w)
}

func (s *Service) Update(ctx context.Context, id int64, form WarehouseForm) (Warehouse, error) {
	if err := validateForm(form); err != nil {
		return Warehouse{}, err
	}
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return Warehouse{}, err
	}
	w.Code = strings.ToUpper(strings.TrimSpace(form.Code))
	w.Name = strings.TrimSpace(form.Name)
	w.Address = strings.TrimSpace(form.Address)
	if form.IsActive != nil {
		if w.IsReservedBucket && !*form.IsActive {
			return Warehouse{}, core.InvalidState("The reserved stock location cannot be deactivated.")
		}
		w.IsActive = *form.IsActive
	}
	if err := s.repo.Update(ctx, id, w); err != nil {
		return Warehouse{}, err
	}
	return s.repo.Get(ctx, id)
}
