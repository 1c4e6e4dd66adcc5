package repositories

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abs-valuers/abs_backend/models"
)

type PermissionRepository struct {
	collectionRepo
}

func NewPermissionRepository(db *mongo.Database, logger echo.Logger) *PermissionRepository {
	return &PermissionRepository{collectionRepo{
		coll:   db.Collection(models.CollectionPermissions),
		logger: logger,
	}}
}

func (r *PermissionRepository) Get(ctx context.Context, email string) (*models.UserPermission, error) {
	var p models.UserPermission
	err := r.coll.FindOne(ctx, bson.M{"_id": models.NormalizeEmail(email)}).Decode(&p)
	if err != nil {
		return nil, wrap("get permission", err)
	}
	if err := p.Validate(); err != nil {
		r.logger.Warnf("permission record %s is malformed: %v", p.Email, err)
		return nil, wrap("get permission", ErrNotFound)
	}
	return &p, nil
}

// EnsureClient creates a client record for the identity unless one exists.
// Existing records keep their role; only lastLogin is touched.
func (r *PermissionRepository) EnsureClient(ctx context.Context, id models.Identity, now time.Time) (bool, error) {
	email := models.NormalizeEmail(id.Email)
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": email},
		bson.M{
			"$setOnInsert": bson.M{
				"role":        models.RoleClient,
				"uid":         id.UID,
				"displayName": id.Label(),
				"createdAt":   now,
			},
			"$set": bson.M{"lastLogin": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, wrap("ensure permission", err)
	}
	return res.UpsertedCount == 1, nil
}

func (r *PermissionRepository) TouchLastLogin(ctx context.Context, email string, now time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": models.NormalizeEmail(email)},
		bson.M{"$set": bson.M{"lastLogin": now}},
	)
	return wrap("touch last login", err)
}

func (r *PermissionRepository) List(ctx context.Context) ([]models.UserPermission, int, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, 0, wrap("list permissions", err)
	}
	return decodeAll[models.UserPermission](ctx, cur, r.logger, models.CollectionPermissions)
}

func (r *PermissionRepository) UpdateRole(ctx context.Context, email string, role models.Role) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": models.NormalizeEmail(email)},
		bson.M{"$set": bson.M{"role": role}},
	)
	if err != nil {
		return wrap("update role", err)
	}
	if res.MatchedCount == 0 {
		return wrap("update role", ErrNotFound)
	}
	return nil
}

func (r *PermissionRepository) Delete(ctx context.Context, email string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": models.NormalizeEmail(email)})
	if err != nil {
		return wrap("delete permission", err)
	}
	if res.DeletedCount == 0 {
		return wrap("delete permission", ErrNotFound)
	}
	return nil
}
