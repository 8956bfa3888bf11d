package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hairline-erp/hairline/internal/masterdata/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type memoryRepo struct {
	nextID int64
	items  map[int64]Customer
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[int64]Customer{}}
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Customer, error) {
	c, ok := m.items[id]
	if !ok {
		return Customer{}, core.NotFound("Customer", id)
	}
	return c, nil
}

func (m *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	var out []Customer
	for _, c := range m.items {
		if filters.IsActive != nil && c.IsActive != *filters.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Create(ctx context.Context, c Customer) (Customer, error) {
	m.nextID++
	c.ID = m.nextID
	m.items[c.ID] = c
	return c, nil
}

func (m *memoryRepo) Update(ctx context.Context, c Customer) error {
	if _, ok := m.items[c.ID]; !ok {
		return core.NotFound("Customer", c.ID)
	}
	m.items[c.ID] = c
	return nil
}

func TestCreateRecordsCreator(t *testing.T) {
	svc := NewService(newMemoryRepo())
	tier := int64(2)
	c, err := svc.Create(context.Background(), CreateCustomerRequest{Code: "acme", Name: "Acme Salon", Country: "ng", PriceTierID: &tier}, 7)
	require.NoError(t, err)
	require.Equal(t, "ACME", c.Code)
	require.Equal(t, "NG", c.Country)
	require.EqualValues(t, 7, c.CreatedBy)
	require.True(t, c.IsActive)
	require.Equal(t, &tier, c.PriceTierID)
}

func TestCreateRejectsBadEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())
	bad := "not-an-email"
	_, err := svc.Create(context.Background(), CreateCustomerRequest{Code: "X", Name: "X", Email: &bad}, 1)
	require.ErrorIs(t, err, core.ErrValidation)
	require.Contains(t, core.FieldErrors(err), "email")
}

func TestUpdateClearsTierWithZero(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	tier := int64(3)
	c, err := svc.Create(ctx, CreateCustomerRequest{Code: "B", Name: "Beauty Hub", PriceTierID: &tier}, 1)
	require.NoError(t, err)

	zero := int64(0)
	c, err = svc.Update(ctx, c.ID, UpdateCustomerRequest{PriceTierID: &zero})
	require.NoError(t, err)
	require.Nil(t, c.PriceTierID)
}

func TestDeactivatedCustomerIsNotActive(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	c, err := svc.Create(ctx, CreateCustomerRequest{Code: "C", Name: "Curls"}, 1)
	require.NoError(t, err)

	_, err = svc.Deactivate(ctx, c.ID)
	require.NoError(t, err)
	_, err = svc.Active(ctx, c.ID)
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Activate(ctx, c.ID)
	require.NoError(t, err)
	_, err = svc.Active(ctx, c.ID)
	require.NoError(t, err)
}
