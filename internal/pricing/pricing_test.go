package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	"github.com/hairline-erp/hairline/internal/shared"
)

type stubTiers map[int64]Tier

func (s stubTiers) Tier(ctx context.Context, id int64) (Tier, error) {
	t, ok := s[id]
	if !ok {
		return Tier{}, shared.NotFound("Price tier", id)
	}
	return t, nil
}

type stubProducts map[int64]Product

func (s stubProducts) Product(ctx context.Context, id int64) (Product, error) {
	p, ok := s[id]
	if !ok {
		return Product{}, shared.NotFound("Product", id)
	}
	return p, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v int64) *int64 { return &v }

func TestParseMultiplierDefaults(t *testing.T) {
	cases := map[string]string{
		"":      "1",
		"  ":    "1",
		"abc":   "1",
		"-0.5":  "1",
		"0":     "1",
		"0.85":  "0.85",
		" 1.2 ": "1.2",
	}
	for raw, want := range cases {
		require.True(t, ParseMultiplier(raw).Equal(d(want)), "raw=%q", raw)
	}
}

func TestResolveUnitPrice(t *testing.T) {
	base := d("50.00")
	require.True(t, ResolveUnitPrice(base, nil).Equal(base))
	require.True(t, ResolveUnitPrice(base, &Tier{Multiplier: "0.85"}).Equal(d("42.50")))
	require.True(t, ResolveUnitPrice(base, &Tier{Multiplier: "garbage"}).Equal(base))
	require.True(t, ResolveUnitPrice(d("33.33"), &Tier{Multiplier: "0.333"}).Equal(d("11.10")))
}

func TestResolveUnitPriceIsDeterministic(t *testing.T) {
	tier := &Tier{Multiplier: "0.75"}
	first := ResolveUnitPrice(d("19.99"), tier)
	for i := 0; i < 100; i++ {
		require.True(t, first.Equal(ResolveUnitPrice(d("19.99"), tier)))
	}
}

func newResolver() *Resolver {
	tiers := stubTiers{
		1: {ID: 1, Code: "REGULAR", Multiplier: "1.0"},
		2: {ID: 2, Code: "PREMIER", Multiplier: "0.85"},
	}
	products := stubProducts{
		10: {ID: 10, Name: "Bulk Hair 20in", Unit: "bundle", BasePrice: d("50.00"), Active: true},
		11: {ID: 11, Name: "Tape-in 18in", Unit: "pcs", BasePrice: d("12.40"), Active: true},
		12: {ID: 12, Name: "Old Weft", Unit: "pcs", BasePrice: d("5"), Active: false},
	}
	return NewResolver(tiers, products)
}

func TestBuildLinesResolvesTierPrices(t *testing.T) {
	r := newResolver()
	override := d("40")
	lines, err := r.BuildLines(context.Background(), []salesshared.LineInput{
		{ProductID: 10, Quantity: d("2")},
		{ProductID: 11, Quantity: d("1.5"), UnitPrice: &override},
	}, ptr(2))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.True(t, lines[0].UnitPrice.Equal(d("42.50")))
	require.Equal(t, "Bulk Hair 20in", lines[0].Description)
	require.Equal(t, "bundle", lines[0].Unit)
	require.True(t, lines[1].UnitPrice.Equal(d("40")))
}

func TestBuildLinesValidation(t *testing.T) {
	r := newResolver()
	ctx := context.Background()

	_, err := r.BuildLines(ctx, nil, nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = r.BuildLines(ctx, []salesshared.LineInput{{ProductID: 10, Quantity: d("-1")}}, nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = r.BuildLines(ctx, []salesshared.LineInput{{ProductID: 12, Quantity: d("1")}}, nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = r.BuildLines(ctx, []salesshared.LineInput{{ProductID: 99, Quantity: d("1")}}, nil)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = r.BuildLines(ctx, []salesshared.LineInput{{ProductID: 10, Quantity: d("1")}}, ptr(77))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRepriceReplacesEveryLine(t *testing.T) {
	r := newResolver()
	ctx := context.Background()
	lines := []salesshared.Line{
		{ProductID: 10, Quantity: d("2"), UnitPrice: d("50.00"), LineTotal: d("100.00")},
		{ProductID: 11, Quantity: d("3"), UnitPrice: d("99.00"), LineTotal: d("297.00")},
	}

	out, err := r.Reprice(ctx, lines, ptr(2))
	require.NoError(t, err)
	require.True(t, out[0].UnitPrice.Equal(d("42.50")))
	require.True(t, out[0].LineTotal.Equal(d("85.00")))
	require.True(t, out[1].UnitPrice.Equal(d("10.54")))
	require.True(t, out[1].LineTotal.Equal(d("31.62")))
	require.True(t, out[1].Quantity.Equal(d("3")))

	// the input slice is left untouched
	require.True(t, lines[1].UnitPrice.Equal(d("99.00")))

	back, err := r.Reprice(ctx, out, nil)
	require.NoError(t, err)
	require.True(t, back[0].UnitPrice.Equal(d("50.00")))
}

func TestBuildLinesRejectsQuantitiesFinerThanStoredScale(t *testing.T) {
	r := newResolver()
	ctx := context.Background()

	_, err := r.BuildLines(ctx, []salesshared.LineInput{
		{ProductID: 10, Quantity: d("1")},
		{ProductID: 11, Quantity: d("0.0004")},
	}, nil)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, shared.FieldErrors(err), "lines[1].quantity")

	lines, err := r.BuildLines(ctx, []salesshared.LineInput{{ProductID: 11, Quantity: d("1.125")}}, nil)
	require.NoError(t, err)
	require.True(t, lines[0].Quantity.Equal(d("1.125")))
}
