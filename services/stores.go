package services

import (
	"context"
	"time"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
)

// The stores below are satisfied by the Mongo repositories.

type PermissionStore interface {
	Get(ctx context.Context, email string) (*models.UserPermission, error)
	EnsureClient(ctx context.Context, id models.Identity, now time.Time) (bool, error)
	TouchLastLogin(ctx context.Context, email string, now time.Time) error
	List(ctx context.Context) ([]models.UserPermission, int, error)
	UpdateRole(ctx context.Context, email string, role models.Role) error
	Delete(ctx context.Context, email string) error
	Watch(ctx context.Context) (repositories.ChangeStream, error)
}

type AppStore interface {
	List(ctx context.Context) ([]models.ExternalApp, int, error)
	Create(ctx context.Context, app *models.ExternalApp) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context) (repositories.ChangeStream, error)
}

type MarketStore interface {
	List(ctx context.Context, ownerID string, limit int64) ([]models.PropertyRecord, int, error)
	Create(ctx context.Context, rec *models.PropertyRecord) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context) (repositories.ChangeStream, error)
}

type WorkLogStore interface {
	List(ctx context.Context, limit int64) ([]models.WorkLogEntry, int, error)
	Create(ctx context.Context, entry *models.WorkLogEntry) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context) (repositories.ChangeStream, error)
}

type ConfigPersistence interface {
	LoadOverride(ctx context.Context) ([]byte, error)
	SaveOverride(ctx context.Context, payload []byte) error
}

// SessionNotifier reaches the open live sessions of a user.
type SessionNotifier interface {
	TeardownUser(uid string)
	NotifyRoleChange(email string, role models.Role)
}

// TokenRevoker is implemented by the Firebase auth client.
type TokenRevoker interface {
	RevokeRefreshTokens(ctx context.Context, uid string) error
}
