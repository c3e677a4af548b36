// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User model covers regular app users as well as brokers and sub-brokers.
// Brokers carry the extra verification, KYC and referral-linkage fields.
type User struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email         string             `json:"email" bson:"email"`
	Password      string             `json:"password,omitempty" bson:"password"`
	FullName      string             `json:"fullName" bson:"fullName"`
	ContactNumber string             `json:"contactNumber" bson:"contactNumber"`
	Location      string             `json:"location" bson:"location"`
	PropertyType  []string           `json:"propertyType,omitempty" bson:"propertyType,omitempty"`
	UserType      string             `json:"userType" bson:"userType"` // "user", "broker", "sub_broker", "admin"
	IsActive      bool               `json:"isActive" bson:"isActive"`
	ProfileImage  string             `json:"profileImage,omitempty" bson:"profileImage,omitempty"`

	// Broker-only fields
	ParentBrokerID     *primitive.ObjectID `json:"parentBrokerId,omitempty" bson:"parentBrokerId,omitempty"`
	VerificationStatus string              `json:"verificationStatus,omitempty" bson:"verificationStatus,omitempty"` // "pending", "verified", "rejected"
	IsVerified         bool                `json:"isVerified,omitempty" bson:"isVerified,omitempty"`
	KYCDocuments       []KYCDocument       `json:"kycDocuments,omitempty" bson:"kycDocuments,omitempty"`

	// Referral linkage, written by the referral service when a signup or
	// first listing is attributed to an employee.
	ReferredBy            *primitive.ObjectID `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	ReferralCode          string              `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ReferralDate          *time.Time          `json:"referralDate,omitempty" bson:"referralDate,omitempty"`
	IsFirstPropertyListed bool                `json:"isFirstPropertyListed" bson:"isFirstPropertyListed"`
	FirstPropertyDate     *time.Time          `json:"firstPropertyDate,omitempty" bson:"firstPropertyDate,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// KYCDocument is an identity document uploaded during broker registration
type KYCDocument struct {
	Type       string    `json:"type" bson:"type"` // "aadhar", "pan", "photo", "other"
	URL        string    `json:"url" bson:"url"`
	Key        string    `json:"key" bson:"key"`
	Status     string    `json:"status" bson:"status"` // "pending", "approved", "rejected"
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination is the envelope used by paginated listing endpoints
type Pagination struct {
	Current int   `json:"current"`
	Pages   int64 `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// NewPagination computes the pagination envelope for page/limit/total
func NewPagination(page, limit int, total int64) Pagination {
	pages := (total + int64(limit) - 1) / int64(limit)
	return Pagination{
		Current: page,
		Pages:   pages,
		Total:   total,
		HasNext: int64(page) < pages,
		HasPrev: page > 1,
	}
}
