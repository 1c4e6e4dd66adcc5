package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkLogEntry struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Reason     string             `json:"reason" bson:"reason"`
	UserID     string             `json:"userId" bson:"userId"`
	RecordedBy string             `json:"recordedBy" bson:"recordedBy"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
	Date       string             `json:"date" bson:"date"`
}

func (w *WorkLogEntry) Validate() error {
	if w.Reason == "" {
		return errors.New("work log without activity")
	}
	if w.UserID == "" {
		return errors.New("work log without owner")
	}
	return nil
}

type CreateWorkLogRequest struct {
	Name   string `json:"name" validate:"max=120"`
	Reason string `json:"reason" validate:"required,max=2000"`
}
