package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Property types and transaction types accepted by the listing endpoints
var (
	ValidPropertyTypes    = []string{"Apartment", "House", "Villa", "Cottage", "Commercial", "Land"}
	ValidTransactionTypes = []string{"Sale", "Rent", "Lease"}
	ValidAreaUnits        = []string{"sq ft", "sq m", "acres", "hectares"}
)

// Property is a real-estate listing created by a broker
type Property struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title           string             `json:"title" bson:"title"`
	Description     string             `json:"description" bson:"description"`
	PropertyType    string             `json:"propertyType" bson:"propertyType"`
	TransactionType string             `json:"transactionType" bson:"transactionType"`
	Price           float64            `json:"price" bson:"price"`
	Area            float64            `json:"area" bson:"area"`
	AreaUnit        string             `json:"areaUnit" bson:"areaUnit"`
	Bedrooms        int                `json:"bedrooms,omitempty" bson:"bedrooms,omitempty"`
	Bathrooms       int                `json:"bathrooms,omitempty" bson:"bathrooms,omitempty"`

	Location  PropertyLocation `json:"location" bson:"location"`
	Images    []string         `json:"images" bson:"images"`
	Amenities []string         `json:"amenities,omitempty" bson:"amenities,omitempty"`
	Features  []string         `json:"features,omitempty" bson:"features,omitempty"`

	BrokerID      primitive.ObjectID `json:"brokerId" bson:"brokerId"`
	BrokerName    string             `json:"brokerName" bson:"brokerName"`
	BrokerContact string             `json:"brokerContact" bson:"brokerContact"`

	Status     string               `json:"status" bson:"status"` // "Active", "Inactive", "Sold", "Rented"
	IsFeatured bool                 `json:"isFeatured" bson:"isFeatured"`
	Views      int                  `json:"views" bson:"views"`
	Favorites  []primitive.ObjectID `json:"favorites,omitempty" bson:"favorites,omitempty"`
	Documents  []PropertyDocument   `json:"documents,omitempty" bson:"documents,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type PropertyLocation struct {
	Address     string       `json:"address" bson:"address"`
	City        string       `json:"city" bson:"city"`
	State       string       `json:"state" bson:"state"`
	Pincode     string       `json:"pincode" bson:"pincode"`
	Coordinates *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// PropertyDocument is a legal/ownership document attached to a listing
type PropertyDocument struct {
	Name       string    `json:"name" bson:"name"`
	URL        string    `json:"url" bson:"url"`
	Key        string    `json:"key" bson:"key"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}
