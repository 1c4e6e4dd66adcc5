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

type MarketRepository struct {
	collectionRepo
}

func NewMarketRepository(db *mongo.Database, logger echo.Logger) *MarketRepository {
	return &MarketRepository{collectionRepo{
		coll:   db.Collection(models.CollectionMarket),
		logger: logger,
	}}
}

// List returns the newest records first. An empty ownerID lists every owner.
func (r *MarketRepository) List(ctx context.Context, ownerID string, limit int64) ([]models.PropertyRecord, int, error) {
	filter := bson.M{}
	if ownerID != "" {
		filter["userId"] = ownerID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, wrap("list market records", err)
	}
	return decodeAll[models.PropertyRecord](ctx, cur, r.logger, models.CollectionMarket)
}

func (r *MarketRepository) Create(ctx context.Context, rec *models.PropertyRecord) error {
	res, err := r.coll.InsertOne(ctx, rec)
	if err != nil {
		return wrap("create market record", err)
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MarketRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByHex(ctx, id)
}
