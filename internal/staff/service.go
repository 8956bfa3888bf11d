package staff

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hairline-erp/hairline/internal/shared"
)

// Service wraps staff management and identity resolution.
type Service struct {
	repo Repository
	cost int
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// HashPassword returns the bcrypt hash stored for a staff password.
func (s *Service) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("staff: hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Member, error) {
	if err := shared.Validate(req); err != nil {
		return Member{}, err
	}
	m := Member{
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Name:        strings.TrimSpace(req.Name),
		Role:        req.Role,
		Permissions: cleanPermissions(req.Permissions),
		IsActive:    true,
	}
	if req.Password != "" {
		hash, err := s.HashPassword(req.Password)
		if err != nil {
			return Member{}, err
		}
		m.PasswordHash = hash
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Member, error) {
	if err := shared.Validate(req); err != nil {
		return Member{}, err
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return Member{}, err
	}
	if req.Name != nil {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		m.Role = *req.Role
	}
	if req.Permissions != nil {
		m.Permissions = cleanPermissions(req.Permissions)
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := s.HashPassword(*req.Password)
		if err != nil {
			return Member{}, err
		}
		m.PasswordHash = hash
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Member, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Member, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Caller implements rbac.Directory. The effective permissions are the role
// defaults plus any granted individually.
func (s *Service) Caller(ctx context.Context, staffID int64) (shared.Caller, error) {
	m, err := s.repo.Get(ctx, staffID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Caller{}, shared.ErrUnauthorized
		}
		return shared.Caller{}, err
	}
	if !m.IsActive {
		return shared.Caller{}, shared.ErrUnauthorized
	}
	perms := append(shared.RolePermissions(m.Role), m.Permissions...)
	return shared.Caller{StaffID: m.ID, Role: m.Role, Permissions: cleanPermissions(perms)}, nil
}

func cleanPermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
