package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var PropertyTypes = []string{"Residential", "Commercial", "Industrial"}

// PropertyRecord is one market-intelligence entry logged at a map location.
type PropertyRecord struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Lat        float64            `json:"lat" bson:"lat"`
	Lng        float64            `json:"lng" bson:"lng"`
	Type       string             `json:"type" bson:"type"`
	Rate       float64            `json:"rate" bson:"rate"`
	AreaName   string             `json:"areaName" bson:"areaName"`
	City       string             `json:"city" bson:"city"`
	RecordedBy string             `json:"recordedBy" bson:"recordedBy"`
	UserID     string             `json:"userId" bson:"userId"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
}

func (r *PropertyRecord) Validate() error {
	if r.Lat < -90 || r.Lat > 90 || r.Lng < -180 || r.Lng > 180 {
		return errors.New("coordinates out of range")
	}
	if r.UserID == "" {
		return errors.New("record without owner")
	}
	if r.Type == "" {
		return errors.New("record without property type")
	}
	return nil
}

type CreatePropertyRecordRequest struct {
	Lat      float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng      float64 `json:"lng" validate:"gte=-180,lte=180"`
	Type     string  `json:"type" validate:"required,oneof=Residential Commercial Industrial"`
	Rate     float64 `json:"rate" validate:"gt=0"`
	AreaName string  `json:"areaName" validate:"max=200"`
	City     string  `json:"city" validate:"max=120"`
}

// Marker is how a record is drawn on the survey map.
type Marker struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Color string  `json:"color"`
	Popup string  `json:"popup"`
}
