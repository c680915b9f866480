// Package authz is the privilege gate for column-select and table-insert
// operations, evaluated against the catalog's grants.
package authz

import (
	"context"
	"fmt"
	"strings"

	"fedsql/internal/domain"
)

var _ domain.AuthorizationGate = (*Service)(nil)

// Service checks grants stored in the catalog metastore. Admin users bypass
// all checks.
type Service struct {
	org    string
	users  domain.UserRepository
	grants domain.GrantRepository
}

// New creates the gate for one organization's catalog.
func New(org string, users domain.UserRepository, grants domain.GrantRepository) *Service {
	return &Service{org: org, users: users, grants: grants}
}

// CheckSelect verifies the user may select the given columns from the table.
// A column list of ["*"] requires an unrestricted grant.
func (s *Service) CheckSelect(ctx context.Context, user, table string, columns []string) error {
	admin, err := s.isAdmin(ctx, user)
	if err != nil || admin {
		return err
	}

	grant, err := s.findGrant(ctx, user, table, domain.PrivSelect)
	if err != nil {
		return err
	}
	if grant == nil {
		return domain.ErrAccessDenied("user %q lacks SELECT on table %q", user, table)
	}
	if len(grant.Columns) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(grant.Columns))
	for _, c := range grant.Columns {
		allowed[strings.ToLower(c)] = struct{}{}
	}
	for _, c := range columns {
		if c == "*" {
			return domain.ErrAccessDenied(
				"user %q may not select all columns of table %q: grant is restricted to (%s)",
				user, table, strings.Join(grant.Columns, ", "))
		}
		if _, ok := allowed[strings.ToLower(c)]; !ok {
			return domain.ErrAccessDenied("user %q lacks SELECT on column %q of table %q", user, c, table)
		}
	}
	return nil
}

// CheckInsert verifies the user may insert into the table.
func (s *Service) CheckInsert(ctx context.Context, user, table string) error {
	admin, err := s.isAdmin(ctx, user)
	if err != nil || admin {
		return err
	}

	grant, err := s.findGrant(ctx, user, table, domain.PrivInsert)
	if err != nil {
		return err
	}
	if grant == nil {
		return domain.ErrAccessDenied("user %q lacks INSERT on table %q", user, table)
	}
	return nil
}

func (s *Service) isAdmin(ctx context.Context, user string) (bool, error) {
	u, err := s.users.GetByName(ctx, s.org, user)
	if err != nil {
		return false, fmt.Errorf("resolve user %q: %w", user, err)
	}
	return u.Admin, nil
}

func (s *Service) findGrant(ctx context.Context, user, table, privilege string) (*domain.Grant, error) {
	grants, err := s.grants.ListGrants(ctx, user, strings.ToLower(table))
	if err != nil {
		return nil, fmt.Errorf("list grants for %q on %q: %w", user, table, err)
	}
	for i := range grants {
		if strings.EqualFold(grants[i].Privilege, privilege) {
			return &grants[i], nil
		}
	}
	return nil, nil
}
