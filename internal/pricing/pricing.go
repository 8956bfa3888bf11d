// Package pricing resolves line unit prices from a product base price and a price tier multiplier.
package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	"github.com/hairline-erp/hairline/internal/shared"
)

// DefaultMultiplier applies when a tier has no usable multiplier.
var DefaultMultiplier = decimal.NewFromInt(1)

// Tier is the pricing view of a price tier. Multiplier is kept as stored text.
type Tier struct {
	ID         int64
	Code       string
	Name       string
	Multiplier string
}

// Product is the pricing view of a product.
type Product struct {
	ID        int64
	Name      string
	Unit      string
	BasePrice decimal.Decimal
	Active    bool
}

// TierLookup loads price tiers.
type TierLookup interface {
	Tier(ctx context.Context, id int64) (Tier, error)
}

// ProductLookup loads products.
type ProductLookup interface {
	Product(ctx context.Context, id int64) (Product, error)
}

// ParseMultiplier parses a stored multiplier. Empty, unparsable or non-positive text yields 1.0.
func ParseMultiplier(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultMultiplier
	}
	m, err := decimal.NewFromString(raw)
	if err != nil || !m.IsPositive() {
		return DefaultMultiplier
	}
	return m
}

// ResolveUnitPrice returns basePrice without a tier, otherwise round2(basePrice * multiplier).
func ResolveUnitPrice(basePrice decimal.Decimal, tier *Tier) decimal.Decimal {
	if tier == nil {
		return basePrice
	}
	return shared.Round2(basePrice.Mul(ParseMultiplier(tier.Multiplier)))
}

// Resolver applies tiers to document lines.
type Resolver struct {
	tiers    TierLookup
	products ProductLookup
}

// NewResolver builds a Resolver.
func NewResolver(tiers TierLookup, products ProductLookup) *Resolver {
	return &Resolver{tiers: tiers, products: products}
}

// Tier loads a tier; a nil id means no tier.
func (r *Resolver) Tier(ctx context.Context, tierID *int64) (*Tier, error) {
	if tierID == nil || *tierID == 0 {
		return nil, nil
	}
	tier, err := r.tiers.Tier(ctx, *tierID)
	if err != nil {
		return nil, fmt.Errorf("load price tier: %w", err)
	}
	return &tier, nil
}

// UnitPrice resolves the unit price for a base price under tierID.
func (r *Resolver) UnitPrice(ctx context.Context, basePrice decimal.Decimal, tierID *int64) (decimal.Decimal, error) {
	tier, err := r.Tier(ctx, tierID)
	if err != nil {
		return decimal.Zero, err
	}
	return ResolveUnitPrice(basePrice, tier), nil
}

// BuildLines turns client line inputs into priced lines. Inputs that carry an explicit unit
// price keep it; the rest are priced from the product base price and the tier.
func (r *Resolver) BuildLines(ctx context.Context, inputs []salesshared.LineInput, tierID *int64) ([]salesshared.Line, error) {
	if len(inputs) == 0 {
		return nil, shared.Validation("Add at least one product line.")
	}
	tier, err := r.Tier(ctx, tierID)
	if err != nil {
		return nil, err
	}
	lines := make([]salesshared.Line, 0, len(inputs))
	for i, in := range inputs {
		if !in.Quantity.IsPositive() {
			return nil, shared.ValidationFields(map[string]string{fmt.Sprintf("lines[%d].quantity", i): "must be greater than 0"})
		}
		if !shared.QuantityFits(in.Quantity) {
			return nil, shared.ValidationFields(map[string]string{fmt.Sprintf("lines[%d].quantity", i): shared.QuantityScaleMessage})
		}
		product, err := r.products.Product(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %d: %w", in.ProductID, err)
		}
		if !product.Active {
			return nil, shared.Validation("%s is no longer sold and cannot be added to a document.", product.Name)
		}
		price := ResolveUnitPrice(product.BasePrice, tier)
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				return nil, shared.ValidationFields(map[string]string{fmt.Sprintf("lines[%d].unit_price", i): "must not be negative"})
			}
			price = *in.UnitPrice
		}
		desc := in.Description
		if desc == "" {
			desc = product.Name
		}
		lines = append(lines, salesshared.Line{
			ProductID:   product.ID,
			Description: desc,
			Unit:        product.Unit,
			Quantity:    in.Quantity,
			UnitPrice:   price,
		})
	}
	return lines, nil
}

// Reprice replaces every line's unit price with the tier price of its product. Quantities are
// unchanged; the caller recomputes line totals and header totals.
func (r *Resolver) Reprice(ctx context.Context, lines []salesshared.Line, tierID *int64) ([]salesshared.Line, error) {
	tier, err := r.Tier(ctx, tierID)
	if err != nil {
		return nil, err
	}
	out := make([]salesshared.Line, len(lines))
	for i, line := range lines {
		product, err := r.products.Product(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %d: %w", line.ProductID, err)
		}
		line.UnitPrice = ResolveUnitPrice(product.BasePrice, tier)
		line.LineTotal = salesshared.LineTotal(line.Quantity, line.UnitPrice)
		out[i] = line
	}
	return out, nil
}
