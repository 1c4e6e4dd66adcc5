package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type QuoteRequest struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name" validate:"required,max=120"`
	Phone        string             `json:"phone" bson:"phone" validate:"required,min=7,max=20"`
	Email        string             `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	PropertyType string             `json:"propertyType" bson:"propertyType" validate:"required,max=60"`
	Message      string             `json:"message" bson:"message" validate:"max=2000"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}
