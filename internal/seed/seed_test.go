package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/hairline-erp/hairline/internal/shared"
)

// fakeConn treats the first argument of every insert as its unique key.
type fakeConn struct {
	seen  map[string]bool
	calls []string
	args  [][]any
	fail  string
}

func newFakeConn() *fakeConn { return &fakeConn{seen: make(map[string]bool)} }

func (f *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.fail != "" && strings.Contains(sql, f.fail) {
		return pgconn.CommandTag{}, errors.New("relation does not exist")
	}
	f.calls = append(f.calls, sql)
	f.args = append(f.args, args)
	table := strings.Fields(sql)[2]
	key := fmt.Sprintf("%s|%v", table, args[0])
	if strings.Contains(sql, "is_reserved_bucket) VALUES ($1, $2, TRUE)") {
		key = "reserved-bucket"
	}
	if f.seen[key] {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	f.seen[key] = true
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) { return "hashed:" + password, nil }

var opts = Options{AdminEmail: " Admin@Hairline.Local ", AdminPassword: "change-me"}

func TestEnsureSeedDataInsertsDefaults(t *testing.T) {
	conn := newFakeConn()
	report, err := EnsureSeedData(context.Background(), conn, plainHasher{}, opts, nil)
	require.NoError(t, err)
	require.Equal(t, len(shared.AllPermissions()), report.Permissions)
	require.Equal(t, 1, report.Staff)
	require.Equal(t, 3, report.PriceTiers)
	require.Equal(t, 2, report.Warehouses)

	var multipliers []string
	for i, sql := range conn.calls {
		if strings.Contains(sql, "INSERT INTO price_tiers") {
			multipliers = append(multipliers, conn.args[i][2].(string))
		}
		if strings.Contains(sql, "INSERT INTO staff") {
			require.Equal(t, "admin@hairline.local", conn.args[i][0])
			require.Equal(t, shared.RoleAdmin, conn.args[i][2])
			require.Equal(t, "hashed:change-me", conn.args[i][4])
		}
	}
	require.Equal(t, []string{"1.0", "0.85", "0.75"}, multipliers)
}

func TestEnsureSeedDataIsIdempotent(t *testing.T) {
	conn := newFakeConn()
	_, err := EnsureSeedData(context.Background(), conn, plainHasher{}, opts, nil)
	require.NoError(t, err)

	again, err := EnsureSeedData(context.Background(), conn, plainHasher{}, opts, nil)
	require.NoError(t, err)
	require.True(t, again.Empty())
}

func TestEnsureSeedDataRequiresAdminCredentials(t *testing.T) {
	_, err := EnsureSeedData(context.Background(), newFakeConn(), plainHasher{}, Options{AdminEmail: "a@b.c"}, nil)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestEnsureSeedDataWrapsStorageErrors(t *testing.T) {
	conn := newFakeConn()
	conn.fail = "INSERT INTO price_tiers"
	_, err := EnsureSeedData(context.Background(), conn, plainHasher{}, opts, nil)
	require.ErrorContains(t, err, "seed: price tier REGULAR")
}
