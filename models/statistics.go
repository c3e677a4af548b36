package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statistics keeps the app-wide counters shown on the admin dashboard.
// A single "all-time" document is upserted in place.
type Statistics struct {
	ID     primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Data   StatisticsData     `json:"data" bson:"data"`
	Period string             `json:"period" bson:"period"` // "daily", "weekly", "monthly", "yearly", "all-time"
	Date   time.Time          `json:"date" bson:"date"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type StatisticsData struct {
	Downloads       int `json:"downloads" bson:"downloads"`
	TotalProperties int `json:"totalProperties" bson:"totalProperties"`
	Users           int `json:"users" bson:"users"`
	Views           int `json:"views" bson:"views"`
}
