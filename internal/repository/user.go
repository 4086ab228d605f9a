package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trailpeak/api/internal/database"
	"github.com/trailpeak/api/internal/model"
)

// UserRepository handles user data access. Deactivated users are
// excluded from reads; password material never leaves this layer except
// through the typed auth lookups.
type UserRepository struct {
	*Collection
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	r := &UserRepository{db: db}
	r.Collection = NewCollection(db, CollectionConfig{
		Table:      "user",
		BaseFilter: "active != false",
		Validate:   model.ValidateUser,
		BeforeSave: func(ctx context.Context, fields model.Record, isNew bool) error {
			if isNew {
				if _, ok := fields["role"]; !ok {
					fields["role"] = model.RoleUser
				}
				if _, ok := fields["active"]; !ok {
					fields["active"] = true
				}
			}
			return nil
		},
	})
	return r
}

// CreateUser persists a new account with an already-hashed password
func (r *UserRepository) CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	result, err := r.db.QueryOne(ctx, `
		CREATE user CONTENT {
			name: $name,
			email: $email,
			password: $password,
			role: $role,
			active: true,
			createdAt: time::now(),
			revision: 0
		}
	`, map[string]interface{}{
		"name":     name,
		"email":    email,
		"password": passwordHash,
		"role":     model.RoleUser,
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return nil, err
	}
	return parseUserRaw(result), nil
}

// GetByEmail retrieves an active user with password material, for login
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	result, err := r.db.QueryOne(ctx,
		"SELECT * FROM user WHERE email = $email AND active != false LIMIT 1",
		map[string]interface{}{"email": email},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseUserRaw(result), nil
}

// Get retrieves an active user by id with password material, for token
// verification and password changes
func (r *UserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	result, err := r.db.QueryOne(ctx,
		"SELECT * FROM type::record($id) WHERE active != false",
		map[string]interface{}{"id": id},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseUserRaw(result), nil
}

// UpdatePassword stores a new hash and moves passwordChangedAt slightly
// into the past so tokens already in flight stay valid.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.db.Execute(ctx, `
		UPDATE type::record($id) SET
			password = $password,
			passwordChangedAt = $changedAt,
			resetTokenHash = NONE,
			resetTokenExpires = NONE
	`, map[string]interface{}{
		"id":        userID,
		"password":  passwordHash,
		"changedAt": time.Now().Add(-time.Second).UTC(),
	})
}

// SetResetToken stores a hashed password-reset token with its expiry
func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	return r.db.Execute(ctx, `
		UPDATE type::record($id) SET
			resetTokenHash = $hash,
			resetTokenExpires = $expires
	`, map[string]interface{}{
		"id":      userID,
		"hash":    tokenHash,
		"expires": expires.UTC(),
	})
}

// GetByResetToken retrieves the user holding an unexpired reset token hash
func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string) (*model.User, error) {
	result, err := r.db.QueryOne(ctx,
		"SELECT * FROM user WHERE resetTokenHash = $hash AND resetTokenExpires > time::now() LIMIT 1",
		map[string]interface{}{"hash": tokenHash},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseUserRaw(result), nil
}

// ClearExpiredResetTokens drops stale reset tokens; returns nothing
// useful beyond the error because the sweep is best-effort
func (r *UserRepository) ClearExpiredResetTokens(ctx context.Context) error {
	return r.db.Execute(ctx, `
		UPDATE user SET resetTokenHash = NONE, resetTokenExpires = NONE
		WHERE resetTokenExpires != NONE AND resetTokenExpires <= time::now()
	`, nil)
}

// Deactivate soft-deletes an account; reads no longer return it
func (r *UserRepository) Deactivate(ctx context.Context, userID string) error {
	return r.db.Execute(ctx,
		"UPDATE type::record($id) SET active = false",
		map[string]interface{}{"id": userID},
	)
}

// parseUserRaw converts a raw result into a typed user including
// password material. Callers outside auth flows use the Collection
// reads, which scrub those fields.
func parseUserRaw(raw interface{}) *model.User {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	user := parseUser(m)
	if user == nil {
		return nil
	}
	user.PasswordHash = getString(m, "password")
	user.PasswordChangedAt = getTime(m, "passwordChangedAt")
	user.ResetTokenHash = getString(m, "resetTokenHash")
	user.ResetTokenExpires = getTime(m, "resetTokenExpires")
	return user
}

// parseUser converts a raw result into the public view of a user
func parseUser(m map[string]interface{}) *model.User {
	if m == nil {
		return nil
	}
	role := getString(m, "role")
	if role == "" {
		role = model.RoleUser
	}
	active := true
	if v, ok := m["active"].(bool); ok {
		active = v
	}
	return &model.User{
		ID:     extractRecordID(m["id"]),
		Name:   getString(m, "name"),
		Email:  getString(m, "email"),
		Photo:  getString(m, "photo"),
		Role:   role,
		Active: active,
	}
}
