package app

import (
	"context"
	"errors"
	"strings"

	"table-service-go/internal/db"
	"table-service-go/internal/domain"
)

func (a *App) CreateStaff(ctx context.Context, username, password, role, name string) (*db.Staff, error) {
	username = NormalizeUsername(username)
	name = strings.TrimSpace(name)
	role = strings.ToUpper(strings.TrimSpace(role))
	if username == "" || name == "" {
		return nil, domain.Errorf(domain.KindInvalidInput, "username and display name are required")
	}
	if !ValidRole(role) {
		return nil, domain.Errorf(domain.KindInvalidInput, "unknown role %q", role)
	}
	hash, err := HashPassword(password)
	if errors.Is(err, ErrPasswordTooShort) {
		return nil, domain.Errorf(domain.KindInvalidInput, "password must be at least 8 characters")
	}
	if err != nil {
		return nil, err
	}

	var out *db.Staff
	err = a.store.InTx(ctx, func(q *db.Queries) error {
		dup, err := q.GetStaffByUsername(ctx, username)
		if err != nil {
			return err
		}
		if dup != nil {
			return domain.Errorf(domain.KindInvalidState, "username %q is taken", username)
		}
		id, err := q.CreateStaff(ctx, db.CreateStaffParams{
			Username:     username,
			PasswordHash: hash,
			Role:         role,
			DisplayName:  name,
			IsActive:     true,
		})
		if err != nil {
			return err
		}
		out, err = q.GetStaffByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.log.Info("staff created", "staff_id", out.ID, "username", out.Username, "role", out.Role)
	return out, nil
}

// Authenticate returns the active staff member matching the credentials, or nil.
func (a *App) Authenticate(ctx context.Context, username, password string) (*db.Staff, error) {
	s, err := a.store.Q.GetStaffByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, err
	}
	if s == nil || !s.IsActive || !CheckPassword(s.PasswordHash, password) {
		return nil, nil
	}
	return s, nil
}

func (a *App) ListStaff(ctx context.Context) ([]db.Staff, error) {
	out, err := a.store.Q.ListStaff(ctx)
	if out == nil && err == nil {
		out = []db.Staff{}
	}
	return out, err
}

// ToggleStaff flips the active flag. The last active manager cannot be disabled.
func (a *App) ToggleStaff(ctx context.Context, id int64) (*db.Staff, error) {
	var out *db.Staff
	err := a.store.InTx(ctx, func(q *db.Queries) error {
		s, err := q.GetStaffByID(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.Errorf(domain.KindNotFound, "staff %d not found", id)
		}
		if s.IsActive && s.Role == RoleManager {
			all, err := q.ListStaff(ctx)
			if err != nil {
				return err
			}
			others := 0
			for _, o := range all {
				if o.ID != s.ID && o.IsActive && o.Role == RoleManager {
					others++
				}
			}
			if others == 0 {
				return domain.Errorf(domain.KindInvalidState, "cannot disable the last active manager")
			}
		}
		if err := q.SetStaffActive(ctx, s.ID, !s.IsActive); err != nil {
			return err
		}
		out, err = q.GetStaffByID(ctx, s.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.log.Info("staff toggled", "staff_id", out.ID, "active", out.IsActive)
	return out, nil
}
