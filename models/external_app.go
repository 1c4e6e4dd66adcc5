package models

import (
	"errors"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultAppCategory = "Utility"

type ExternalApp struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	URL         string             `json:"url" bson:"url"`
	Description string             `json:"description" bson:"description"`
	Category    string             `json:"category" bson:"category"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

func (a *ExternalApp) Validate() error {
	if a.Name == "" {
		return errors.New("app without name")
	}
	u, err := url.Parse(a.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("app url is not absolute")
	}
	return nil
}

type CreateAppRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description" validate:"max=500"`
	Category    string `json:"category" validate:"max=60"`
}
