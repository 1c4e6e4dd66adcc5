package repositories

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abs-valuers/abs_backend/models"
)

type WorkLogRepository struct {
	collectionRepo
}

func NewWorkLogRepository(db *mongo.Database, logger echo.Logger) *WorkLogRepository {
	return &WorkLogRepository{collectionRepo{
		coll:   db.Collection(models.CollectionWorkLogs),
		logger: logger,
	}}
}

func (r *WorkLogRepository) List(ctx context.Context, limit int64) ([]models.WorkLogEntry, int, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, wrap("list work logs", err)
	}
	return decodeAll[models.WorkLogEntry](ctx, cur, r.logger, models.CollectionWorkLogs)
}

func (r *WorkLogRepository) Create(ctx context.Context, entry *models.WorkLogEntry) error {
	res, err := r.coll.InsertOne(ctx, entry)
	if err != nil {
		return wrap("create work log", err)
	}
	entry.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *WorkLogRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByHex(ctx, id)
}
