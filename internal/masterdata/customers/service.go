package customers

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

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest, createdBy int64) (Customer, error) {
	if err := core.Validate(req); err != nil {
		return Customer{}, err
	}
	customer := Customer{
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:        strings.TrimSpace(req.Name),
		Country:     strings.ToUpper(req.Country),
		Email:       req.Email,
		PriceTierID: req.PriceTierID,
		IsActive:    true,
		CreatedBy:   createdBy,
	}
	return s.repo.Create(ctx, customer)
}

// Update applies the non-nil fields of req. A price_tier_id of 0 clears the tier.
func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (Customer, error) {
	if err := core.Validate(req); err != nil {
		return Customer{}, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	if req.Name != nil {
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Country != nil {
		existing.Country = strings.ToUpper(*req.Country)
	}
	if req.Email != nil {
		existing.Email = req.Email
	}
	if req.PriceTierID != nil {
		if *req.PriceTierID == 0 {
			existing.PriceTierID = nil
		} else {
			existing.PriceTierID = req.PriceTierID
		}
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return Customer{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Activate(ctx context.Context, id int64) (Customer, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, id int64) (Customer, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id int64, active bool) (Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	if c.IsActive == active {
		return c, nil
	}
	c.IsActive = active
	if err := s.repo.Update(ctx, c); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// Active returns the customer when it may receive new documents.
func (s *Service) Active(ctx context.Context, id int64) (Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}
	if !c.IsActive {
		return Customer{}, core.Validation("Customer %s is inactive.", c.Code)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	return s.repo.List(ctx, filters)
}
