package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Referral subject types
const (
	ReferralSubjectUser   = "user"
	ReferralSubjectBroker = "broker"
)

// ReferralStats is the commission ledger entry for one employee and one
// calendar month. The (employeeId, period) pair is unique. Counters are
// only ever bumped by AddReferral-style updates, so they always equal the
// event counts in ReferredUsers.
type ReferralStats struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	EmployeeID primitive.ObjectID `json:"employeeId" bson:"employeeId"`
	Year       int                `json:"year" bson:"year"`
	Month      int                `json:"month" bson:"month"`
	Period     string             `json:"period" bson:"period"` // "YYYY-MM"

	UsersReferred         int `json:"usersReferred" bson:"usersReferred"`
	BrokersReferred       int `json:"brokersReferred" bson:"brokersReferred"`
	BrokerFirstProperties int `json:"brokerFirstProperties" bson:"brokerFirstProperties"`

	TotalEarnings float64 `json:"totalEarnings" bson:"totalEarnings"`
	BonusEarnings float64 `json:"bonusEarnings" bson:"bonusEarnings"`

	IsPaid           bool       `json:"isPaid" bson:"isPaid"`
	PaidDate         *time.Time `json:"paidDate,omitempty" bson:"paidDate,omitempty"`
	PaidAmount       float64    `json:"paidAmount" bson:"paidAmount"`
	PaymentReference string     `json:"paymentReference" bson:"paymentReference"`

	DailyStats    []DailyStat    `json:"dailyStats" bson:"dailyStats"`
	ReferredUsers []ReferredUser `json:"referredUsers" bson:"referredUsers"`
	Notes         string         `json:"notes" bson:"notes"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DailyStat is the per-calendar-date rollup inside a ledger entry
type DailyStat struct {
	Date            string `json:"date" bson:"date"` // "YYYY-MM-DD"
	UsersReferred   int    `json:"usersReferred" bson:"usersReferred"`
	BrokersReferred int    `json:"brokersReferred" bson:"brokersReferred"`
}

// ReferredUser is one referral event, appended in chronological order
type ReferredUser struct {
	UserID           primitive.ObjectID `json:"userId" bson:"userId"`
	UserType         string             `json:"userType" bson:"userType"` // "user" or "broker"
	RegistrationDate time.Time          `json:"registrationDate" bson:"registrationDate"`
	Commission       float64            `json:"commission" bson:"commission"`
	IsFirstProperty  bool               `json:"isFirstProperty" bson:"isFirstProperty"`
}

// PeriodKey formats a year/month pair as the ledger period key.
// The format is load-bearing: it is the lookup key for ledger entries and
// must be produced identically everywhere.
func PeriodKey(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// PeriodOf returns the ledger period key for a point in time
func PeriodOf(t time.Time) string {
	return PeriodKey(t.Year(), int(t.Month()))
}

// PeriodsInRange enumerates every "YYYY-MM" period intersecting
// [start, end], inclusive of both boundary months.
func PeriodsInRange(start, end time.Time) []string {
	var periods []string
	startYear, startMonth := start.Year(), int(start.Month())
	endYear, endMonth := end.Year(), int(end.Month())

	for year := startYear; year <= endYear; year++ {
		fromMonth := 1
		if year == startYear {
			fromMonth = startMonth
		}
		toMonth := 12
		if year == endYear {
			toMonth = endMonth
		}
		for month := fromMonth; month <= toMonth; month++ {
			periods = append(periods, PeriodKey(year, month))
		}
	}
	return periods
}

// NewReferralStats returns a zeroed ledger entry for the given employee
// and point in time.
func NewReferralStats(employeeID primitive.ObjectID, now time.Time) *ReferralStats {
	return &ReferralStats{
		EmployeeID:    employeeID,
		Year:          now.Year(),
		Month:         int(now.Month()),
		Period:        PeriodOf(now),
		DailyStats:    []DailyStat{},
		ReferredUsers: []ReferredUser{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApplyReferral folds one referral event into the entry: appends the
// event, bumps the matching counters, bumps earnings and updates the
// daily rollup. The persistence layer mirrors this exact mutation as a
// single atomic document update; this in-memory form backs the unit tests
// and keeps the invariant definition in one place.
func (rs *ReferralStats) ApplyReferral(userID primitive.ObjectID, userType string, commission float64, isFirstProperty bool, now time.Time) {
	rs.ReferredUsers = append(rs.ReferredUsers, ReferredUser{
		UserID:           userID,
		UserType:         userType,
		RegistrationDate: now,
		Commission:       commission,
		IsFirstProperty:  isFirstProperty,
	})

	switch userType {
	case ReferralSubjectUser:
		rs.UsersReferred++
	case ReferralSubjectBroker:
		rs.BrokersReferred++
		if isFirstProperty {
			rs.BrokerFirstProperties++
		}
	}

	rs.TotalEarnings += commission

	dateKey := now.Format("2006-01-02")
	idx := -1
	for i := range rs.DailyStats {
		if rs.DailyStats[i].Date == dateKey {
			idx = i
			break
		}
	}
	if idx < 0 {
		rs.DailyStats = append(rs.DailyStats, DailyStat{Date: dateKey})
		idx = len(rs.DailyStats) - 1
	}
	switch userType {
	case ReferralSubjectUser:
		rs.DailyStats[idx].UsersReferred++
	case ReferralSubjectBroker:
		rs.DailyStats[idx].BrokersReferred++
	}

	rs.UpdatedAt = now
}

// TotalCommission is the period's combined base and bonus earnings
func (rs *ReferralStats) TotalCommission() float64 {
	return rs.TotalEarnings + rs.BonusEarnings
}

// TopPerformer is one row of the period leaderboard
type TopPerformer struct {
	EmployeeID            primitive.ObjectID `json:"employeeId" bson:"_id"`
	EmployeeName          string             `json:"employeeName" bson:"employeeName"`
	ReferralCode          string             `json:"referralCode" bson:"referralCode"`
	UsersReferred         int                `json:"usersReferred" bson:"usersReferred"`
	BrokersReferred       int                `json:"brokersReferred" bson:"brokersReferred"`
	BrokerFirstProperties int                `json:"brokerFirstProperties" bson:"brokerFirstProperties"`
	TotalReferred         int                `json:"totalReferred" bson:"totalReferred"`
	TotalCommission       float64            `json:"totalCommission" bson:"totalCommission"`
	IsPaid                bool               `json:"isPaid" bson:"isPaid"`
}
