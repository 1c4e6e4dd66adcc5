package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/abs-valuers/abs_backend/security"
)

var ErrNotFound = errors.New("record not found")

// mongoUnauthorized is the server error code for an operation the
// connected user has no privilege for.
const mongoUnauthorized = 13

// ChangeStream is the part of *mongo.ChangeStream the live queries use.
type ChangeStream interface {
	Next(ctx context.Context) bool
	Err() error
	Close(ctx context.Context) error
}

// IsPermissionDenied reports whether err is an access-rule rejection, either
// from the capability check or from the database itself.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, security.ErrPermissionDenied) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorCode(mongoUnauthorized)
	}
	return false
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if IsPermissionDenied(err) && !errors.Is(err, security.ErrPermissionDenied) {
		return fmt.Errorf("%s: %w: %v", op, security.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type collectionRepo struct {
	coll   *mongo.Collection
	logger echo.Logger
}

func (r collectionRepo) Watch(ctx context.Context) (ChangeStream, error) {
	cs, err := r.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, wrap("watch "+r.coll.Name(), err)
	}
	return cs, nil
}

func (r collectionRepo) deleteByHex(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.coll.Name(), ErrNotFound)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return wrap("delete "+r.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s: %w", r.coll.Name(), ErrNotFound)
	}
	return nil
}

// decodeAll decodes every document of the cursor, quarantining those that do
// not decode or validate instead of failing the whole query.
func decodeAll[T any, PT interface {
	*T
	Validate() error
}](ctx context.Context, cur *mongo.Cursor, logger echo.Logger, coll string) ([]T, int, error) {
	defer cur.Close(ctx)

	out := make([]T, 0)
	quarantined := 0
	for cur.Next(ctx) {
		var v T
		if err := bson.Unmarshal(cur.Current, &v); err != nil {
			quarantined++
			logger.Warnf("quarantined malformed %s document %v: %v", coll, cur.Current.Lookup("_id"), err)
			continue
		}
		if err := PT(&v).Validate(); err != nil {
			quarantined++
			logger.Warnf("quarantined invalid %s document %v: %v", coll, cur.Current.Lookup("_id"), err)
			continue
		}
		out = append(out, v)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, wrap("read "+coll, err)
	}
	return out, quarantined, nil
}
