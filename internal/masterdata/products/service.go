package products

import (
	"context"
	"strings"

	"github.com/hairline-erp/hairline/internal/masterdata/shared"
	"github.com/hairline-erp/hairline/internal/pricing"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, core.Validation("Invalid product id.")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form ProductForm) (Product, error) {
	if err := s.validate(form); err != nil {
		return Product{}, err
	}
	p := fromForm(form)
	if form.IsActive == nil {
		p.IsActive = true
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id int64, form ProductForm) (Product, error) {
	if err := s.validate(form); err != nil {
		return Product{}, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p := fromForm(form)
	p.IsActive = existing.IsActive
	if form.IsActive != nil {
		p.IsActive = *form.IsActive
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

// Product implements pricing.ProductLookup.
func (s *Service) Product(ctx context.Context, id int64) (pricing.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return pricing.Product{}, err
	}
	return pricing.Product{ID: p.ID, Name: p.Name, Unit: p.Unit, BasePrice: p.BasePrice, Active: p.IsActive}, nil
}

func fromForm(form ProductForm) Product {
	return Product{
		SKU:       strings.ToUpper(strings.TrimSpace(form.SKU)),
		Name:      strings.TrimSpace(form.Name),
		Unit:      form.Unit,
		BasePrice: core.Round2(form.BasePrice),
	}
}

// Deactivate hides a product from new lines. Existing documents keep their copies.
func (s *Service) Deactivate(ctx context.Context, id int64) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !p.IsActive {
		return p, nil
	}
	p.IsActive = false
	if err := s.repo.Update(ctx, id, p); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}
