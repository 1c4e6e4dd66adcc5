package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abs-valuers/abs_backend/models"
)

const siteConfigID = "site"

type siteConfigDoc struct {
	ID        string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// SiteRepository stores the site-config override and public quote requests.
type SiteRepository struct {
	configs *mongo.Collection
	quotes  *mongo.Collection
}

func NewSiteRepository(db *mongo.Database) *SiteRepository {
	return &SiteRepository{
		configs: db.Collection(models.CollectionSiteConfig),
		quotes:  db.Collection(models.CollectionQuotes),
	}
}

// LoadOverride returns the persisted JSON override, or ErrNotFound.
func (r *SiteRepository) LoadOverride(ctx context.Context) ([]byte, error) {
	var doc siteConfigDoc
	if err := r.configs.FindOne(ctx, bson.M{"_id": siteConfigID}).Decode(&doc); err != nil {
		return nil, wrap("load site config", err)
	}
	return []byte(doc.Payload), nil
}

func (r *SiteRepository) SaveOverride(ctx context.Context, payload []byte) error {
	_, err := r.configs.ReplaceOne(ctx,
		bson.M{"_id": siteConfigID},
		siteConfigDoc{ID: siteConfigID, Payload: string(payload), UpdatedAt: time.Now()},
		options.Replace().SetUpsert(true),
	)
	return wrap("save site config", err)
}

func (r *SiteRepository) CreateQuote(ctx context.Context, q *models.QuoteRequest) error {
	_, err := r.quotes.InsertOne(ctx, q)
	return wrap("create quote request", err)
}
