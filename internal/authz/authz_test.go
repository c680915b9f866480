package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedsql/internal/domain"
	"fedsql/internal/testutil"
)

func usersWith(admins map[string]bool) *testutil.MockUserRepo {
	return &testutil.MockUserRepo{
		GetByNameFn: func(_ context.Context, org, name string) (*domain.User, error) {
			admin, ok := admins[name]
			if !ok {
				return nil, domain.ErrNotFound("user %q not found", name)
			}
			return &domain.User{Org: org, Name: name, Admin: admin}, nil
		},
	}
}

func grantsWith(grants ...domain.Grant) *testutil.MockGrantRepo {
	return &testutil.MockGrantRepo{
		ListGrantsFn: func(_ context.Context, user, table string) ([]domain.Grant, error) {
			var out []domain.Grant
			for _, g := range grants {
				if g.User == user && g.Table == table {
					out = append(out, g)
				}
			}
			return out, nil
		},
	}
}

func TestCheckSelect_AdminBypassesGrants(t *testing.T) {
	t.Parallel()

	svc := New("acme", usersWith(map[string]bool{"root": true}), grantsWith())
	require.NoError(t, svc.CheckSelect(context.Background(), "root", "orders", []string{"*"}))
}

func TestCheckSelect_NoGrantDenied(t *testing.T) {
	t.Parallel()

	svc := New("acme", usersWith(map[string]bool{"bob": false}), grantsWith())
	err := svc.CheckSelect(context.Background(), "bob", "orders", []string{"id"})
	assert.True(t, domain.IsAccessDenied(err))
}

func TestCheckSelect_UnrestrictedGrantAllowsAll(t *testing.T) {
	t.Parallel()

	svc := New("acme", usersWith(map[string]bool{"bob": false}),
		grantsWith(domain.Grant{User: "bob", Table: "orders", Privilege: domain.PrivSelect}))
	require.NoError(t, svc.CheckSelect(context.Background(), "bob", "orders", []string{"*"}))
}

func TestCheckSelect_ColumnRestrictedGrant(t *testing.T) {
	t.Parallel()

	svc := New("acme", usersWith(map[string]bool{"bob": false}),
		grantsWith(domain.Grant{User: "bob", Table: "orders", Privilege: domain.PrivSelect, Columns: []string{"id", "total"}}))

	require.NoError(t, svc.CheckSelect(context.Background(), "bob", "orders", []string{"id"}))
	require.NoError(t, svc.CheckSelect(context.Background(), "bob", "orders", []string{"ID", "Total"}))

	err := svc.CheckSelect(context.Background(), "bob", "orders", []string{"id", "customer"})
	assert.True(t, domain.IsAccessDenied(err))

	// A restricted grant never covers a bare star.
	err = svc.CheckSelect(context.Background(), "bob", "orders", []string{"*"})
	assert.True(t, domain.IsAccessDenied(err))
}

func TestCheckSelect_TableNameCaseFolded(t *testing.T) {
	t.Parallel()

	svc := New("acme", usersWith(map[string]bool{"bob": false}),
		grantsWith(domain.Grant{User: "bob", Table: "orders", Privilege: domain.PrivSelect}))
	require.NoError(t, svc.CheckSelect(context.Background(), "bob", "Orders", []string{"id"}))
}

func TestCheckInsert(t *testing.T) {
	t.Parallel()

	svc := New("acme", usersWith(map[string]bool{"bob": false}),
		grantsWith(domain.Grant{User: "bob", Table: "sales", Privilege: domain.PrivInsert}))

	require.NoError(t, svc.CheckInsert(context.Background(), "bob", "sales"))

	err := svc.CheckInsert(context.Background(), "bob", "orders")
	assert.True(t, domain.IsAccessDenied(err))
}

func TestCheckInsert_SelectGrantDoesNotImplyInsert(t *testing.T) {
	t.Parallel()

	svc := New("acme", usersWith(map[string]bool{"bob": false}),
		grantsWith(domain.Grant{User: "bob", Table: "sales", Privilege: domain.PrivSelect}))
	err := svc.CheckInsert(context.Background(), "bob", "sales")
	assert.True(t, domain.IsAccessDenied(err))
}

func TestCheck_UnknownUserErrors(t *testing.T) {
	t.Parallel()

	svc := New("acme", usersWith(nil), grantsWith())
	err := svc.CheckSelect(context.Background(), "ghost", "orders", []string{"id"})
	require.Error(t, err)
	assert.False(t, domain.IsAccessDenied(err))
}

func TestCheck_GrantRepoErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("metastore unavailable")
	grants := &testutil.MockGrantRepo{
		ListGrantsFn: func(context.Context, string, string) ([]domain.Grant, error) {
			return nil, boom
		},
	}
	svc := New("acme", usersWith(map[string]bool{"bob": false}), grants)

	err := svc.CheckSelect(context.Background(), "bob", "orders", []string{"id"})
	require.ErrorIs(t, err, boom)
	assert.False(t, domain.IsAccessDenied(err))
}
