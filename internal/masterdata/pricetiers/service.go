package pricetiers

import (
	"context"
	"strings"

	"github.com/hairline-erp/hairline/internal/masterdata/shared"
	"github.com/hairline-erp/hairline/internal/pricing"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]PriceTier, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (PriceTier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form TierForm) (PriceTier, error) {
	if err := s.validate(form); err != nil {
		return PriceTier{}, err
	}
	return s.repo.Create(ctx, fromForm(form))
}

// Update changes future calculations only; persisted document lines keep their prices.
func (s *Service) Update(ctx context.Context, id int64, form TierForm) (PriceTier, error) {
	if err := s.validate(form); err != nil {
		return PriceTier{}, err
	}
	if err := s.repo.Update(ctx, id, fromForm(form)); err != nil {
		return PriceTier{}, err
	}
	return s.repo.Get(ctx, id)
}

// Tier implements pricing.TierLookup.
func (s *Service) Tier(ctx context.Context, id int64) (pricing.Tier, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return pricing.Tier{}, err
	}
	return pricing.Tier{ID: t.ID, Code: t.Code, Name: t.Name, Multiplier: t.Multiplier}, nil
}

func fromForm(form TierForm) PriceTier {
	return PriceTier{
		Code:       strings.ToUpper(strings.TrimSpace(form.Code)),
		Name:       strings.TrimSpace(form.Name),
		Multiplier: strings.TrimSpace(form.Multiplier),
	}
}
