package auth

import (
	"context"
	"fmt"
	"strings"

	"space-trips/internal/logger"
	"space-trips/internal/models"
)

// UserStore is the slice of the reservation store the resolver needs.
type UserStore interface {
	FindOrCreateUser(ctx context.Context, email string) (*models.User, bool, error)
}

// Resolver turns credentials into users.
type Resolver struct {
	users  UserStore
	logger logger.Logger
}

func NewResolver(users UserStore, log logger.Logger) *Resolver {
	return &Resolver{users: users, logger: log}
}

// Resolve returns the user for credential, or nil for an anonymous request.
// An invalid credential is anonymous, not an error. Store failures are errors.
func (r *Resolver) Resolve(ctx context.Context, credential string) (*models.User, error) {
	if credential == "" {
		return nil, nil
	}
	email, err := DecodeToken(credential)
	if err != nil {
		r.logger.Debug("ignoring invalid credential", logger.Error(err))
		return nil, nil
	}

	user, created, err := r.users.FindOrCreateUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if created {
		r.logger.Info("registered user on first request", logger.Int64("user_id", user.ID))
	}
	return user, nil
}

// Login find-or-creates the user for email and returns it with its token.
func (r *Resolver) Login(ctx context.Context, email string) (*models.User, string, error) {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}

	user, _, err := r.users.FindOrCreateUser(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	return user, EncodeToken(email), nil
}

type userContextKey struct{}

// WithUser stores the resolved user in ctx. A nil user marks the request anonymous.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user stored by WithUser, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey{}).(*models.User)
	return user
}
