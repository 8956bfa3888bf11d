package pricetiers

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hairline-erp/hairline/internal/masterdata/shared"
	"github.com/hairline-erp/hairline/internal/pricing"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]PriceTier
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]PriceTier)}
}

func (m *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]PriceTier, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PriceTier
	for _, t := range m.items {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (PriceTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return PriceTier{}, core.NotFound("Price tier", id)
	}
	return t, nil
}

func (m *memoryRepo) GetByCode(ctx context.Context, code string) (PriceTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.Code == code {
			return t, nil
		}
	}
	return PriceTier{}, core.NotFound("Price tier", code)
}

func (m *memoryRepo) Create(ctx context.Context, tier PriceTier) (PriceTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tier.ID = m.nextID
	m.items[tier.ID] = tier
	return tier, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, tier PriceTier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return core.NotFound("Price tier", id)
	}
	tier.ID = id
	m.items[id] = tier
	return nil
}

type stubDB struct {
	err  error
	args []any
}

type stubRow struct{ err error }

func (r stubRow) Scan(dest ...any) error { return r.err }

func (s *stubDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, s.err
}

func (s *stubDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.args = args
	return stubRow{err: s.err}
}

func TestCreateStoresTrimmedMultiplier(t *testing.T) {
	svc := NewService(newMemoryRepo())
	tier, err := svc.Create(context.Background(), TierForm{Code: " premier ", Name: "Premier", Multiplier: " 0.85 "})
	require.NoError(t, err)
	require.Equal(t, "PREMIER", tier.Code)
	require.Equal(t, "0.85", tier.Multiplier)
}

func TestMultiplierMustBePositiveDecimal(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	for _, raw := range []string{"abc", "0", "-0.5", "1,2"} {
		_, err := svc.Create(ctx, TierForm{Code: "X", Name: "X", Multiplier: raw})
		require.ErrorIs(t, err, core.ErrValidation, "multiplier=%q", raw)
		require.Contains(t, core.FieldErrors(err), "multiplier", "multiplier=%q", raw)
	}
	_, err := svc.Create(ctx, TierForm{Code: "X", Name: "X"})
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestTierFeedsThePriceResolver(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	created, err := svc.Create(ctx, TierForm{Code: "WHOLESALE", Name: "Wholesale", Multiplier: "0.75"})
	require.NoError(t, err)

	tier, err := svc.Tier(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, pricing.Tier{ID: created.ID, Code: "WHOLESALE", Name: "Wholesale", Multiplier: "0.75"}, tier)
	require.True(t, pricing.ResolveUnitPrice(decimal.RequireFromString("40"), &tier).Equal(decimal.RequireFromString("30.00")))

	_, err = svc.Update(ctx, created.ID, TierForm{Code: "WHOLESALE", Name: "Wholesale", Multiplier: "0.5"})
	require.NoError(t, err)
	tier, err = svc.Tier(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "0.5", tier.Multiplier)

	_, err = svc.Tier(ctx, 99)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryWritesMultiplierAsText(t *testing.T) {
	ctx := context.Background()

	db := &stubDB{}
	_, err := NewRepository(db).Create(ctx, PriceTier{Code: "PREMIER", Name: "Premier", Multiplier: "0.85"})
	require.NoError(t, err)
	require.Equal(t, []any{"PREMIER", "Premier", "0.85"}, db.args)

	_, err = NewRepository(&stubDB{err: &pgconn.PgError{Code: "23505"}}).Create(ctx, PriceTier{Code: "PREMIER"})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = NewRepository(&stubDB{err: pgx.ErrNoRows}).Get(ctx, 3)
	require.ErrorIs(t, err, core.ErrNotFound)
}
