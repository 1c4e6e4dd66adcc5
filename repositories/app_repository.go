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

type AppRepository struct {
	collectionRepo
}

func NewAppRepository(db *mongo.Database, logger echo.Logger) *AppRepository {
	return &AppRepository{collectionRepo{
		coll:   db.Collection(models.CollectionExternalApps),
		logger: logger,
	}}
}

func (r *AppRepository) List(ctx context.Context) ([]models.ExternalApp, int, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, wrap("list apps", err)
	}
	return decodeAll[models.ExternalApp](ctx, cur, r.logger, models.CollectionExternalApps)
}

func (r *AppRepository) Create(ctx context.Context, app *models.ExternalApp) error {
	res, err := r.coll.InsertOne(ctx, app)
	if err != nil {
		return wrap("create app", err)
	}
	app.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *AppRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByHex(ctx, id)
}
