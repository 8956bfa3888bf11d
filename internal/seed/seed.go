// Package seed installs the reference data a fresh database needs. Every statement is
// idempotent so the command can be re-run safely; it is never run at server startup.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hairline-erp/hairline/internal/platform/db"
	"github.com/hairline-erp/hairline/internal/shared"
)

// Hasher produces the stored password hash for the admin account.
type Hasher interface {
	HashPassword(password string) (string, error)
}

type Options struct {
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

// Report counts the rows this run actually inserted.
type Report struct {
	Permissions int
	Staff       int
	PriceTiers  int
	Warehouses  int
}

func (r Report) Empty() bool {
	return r.Permissions+r.Staff+r.PriceTiers+r.Warehouses == 0
}

type tier struct {
	code, name, multiplier string
}

var defaultTiers = []tier{
	{"REGULAR", "Regular", "1.0"},
	{"PREMIER", "Premier", "0.85"},
	{"WHOLESALE", "Wholesale", "0.75"},
}

const (
	MainWarehouseCode = "MAIN"
	ReservedCode      = "RESERVED"
)

// EnsureSeedData inserts permissions, the admin account, the default price tiers, the main
// warehouse and the reserved stock bucket when they are missing. Run it inside a transaction.
func EnsureSeedData(ctx context.Context, conn db.DBTX, hasher Hasher, opts Options, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var report Report

	for _, p := range shared.AllPermissions() {
		n, err := exec(ctx, conn, `INSERT INTO permissions (name, description) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
			WHERE permissions.description IS DISTINCT FROM EXCLUDED.description`, p[0], p[1])
		if err != nil {
			return report, fmt.Errorf("seed: permission %s: %w", p[0], err)
		}
		report.Permissions += n
	}

	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" || opts.AdminPassword == "" {
		return report, shared.Validation("An admin email and password are required to seed the database.")
	}
	name := opts.AdminName
	if name == "" {
		name = "Administrator"
	}
	hash, err := hasher.HashPassword(opts.AdminPassword)
	if err != nil {
		return report, fmt.Errorf("seed: hash admin password: %w", err)
	}
	n, err := exec(ctx, conn, `INSERT INTO staff (email, name, role, permissions, password_hash)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (email) DO NOTHING`,
		email, name, shared.RoleAdmin, shared.RolePermissions(shared.RoleAdmin), hash)
	if err != nil {
		return report, fmt.Errorf("seed: admin staff: %w", err)
	}
	report.Staff += n

	for _, t := range defaultTiers {
		n, err := exec(ctx, conn, `INSERT INTO price_tiers (code, name, multiplier) VALUES ($1, $2, $3)
			ON CONFLICT (code) DO NOTHING`, t.code, t.name, t.multiplier)
		if err != nil {
			return report, fmt.Errorf("seed: price tier %s: %w", t.code, err)
		}
		report.PriceTiers += n
	}

	n, err = exec(ctx, conn, `INSERT INTO warehouses (code, name, is_reserved_bucket) VALUES ($1, $2, FALSE)
		ON CONFLICT DO NOTHING`, MainWarehouseCode, "Main warehouse")
	if err != nil {
		return report, fmt.Errorf("seed: main warehouse: %w", err)
	}
	report.Warehouses += n

	// at most one reserved bucket may exist, whatever its code
	n, err = exec(ctx, conn, `INSERT INTO warehouses (code, name, is_reserved_bucket) VALUES ($1, $2, TRUE)
		ON CONFLICT DO NOTHING`, ReservedCode, "Reserved stock")
	if err != nil {
		return report, fmt.Errorf("seed: reserved bucket: %w", err)
	}
	report.Warehouses += n

	logger.Info("seed complete",
		slog.Int("permissions", report.Permissions),
		slog.Int("staff", report.Staff),
		slog.Int("price_tiers", report.PriceTiers),
		slog.Int("warehouses", report.Warehouses))
	return report, nil
}

func exec(ctx context.Context, conn db.DBTX, sql string, args ...any) (int, error) {
	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
