package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/snkproperties/snkprop_backend/models"
)

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrStatsNotFound       = errors.New("referral stats not found for the specified period")
	ErrBrokerNotFound      = errors.New("broker not found")
	ErrInvalidReferralCode = errors.New("invalid referral code")
)

// Leaderboard sort keys accepted by GetTopPerformers
const (
	SortByTotalCommission = "totalCommission"
	SortByTotalReferred   = "totalReferred"
	SortByUsersReferred   = "usersReferred"
	SortByBrokersReferred = "brokersReferred"
)

// ReferralService owns the commission ledger: it consumes registration and
// first-listing events from the user/property surfaces, updates per-period
// stats and answers the aggregate queries behind the employee and admin
// dashboards.
type ReferralService struct {
	DB *mongo.Database
}

func NewReferralService(db *mongo.Database) *ReferralService {
	return &ReferralService{DB: db}
}

func (rs *ReferralService) statsCollection() *mongo.Collection {
	return rs.DB.Collection("referral_stats")
}

// ValidateReferralCode resolves a referral code to an active employee.
// Codes are stored upper-cased; the lookup is case-insensitive.
func (rs *ReferralService) ValidateReferralCode(ctx context.Context, code string) (*models.Employee, error) {
	var employee models.Employee
	err := rs.DB.Collection("employees").FindOne(ctx, bson.M{
		"referralCode": strings.ToUpper(strings.TrimSpace(code)),
		"isActive":     true,
	}).Decode(&employee)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidReferralCode
		}
		return nil, err
	}
	return &employee, nil
}

// AddReferral records one referral event against the (employee, period)
// ledger entry, creating the entry with zeroed counters if absent.
//
// The event append, counter bump and earnings bump ride on a single upsert
// so the triad can never partially apply; concurrent calls for the same
// entry serialize on the store's per-document atomicity. The daily rollup
// lives in the same document and is reconciled right after.
func (rs *ReferralService) AddReferral(ctx context.Context, employeeID primitive.ObjectID, period string, userID primitive.ObjectID, userType string, commission float64, isFirstProperty bool) (*models.ReferralStats, error) {
	now := time.Now()
	year, month := periodParts(period, now)

	counterInc := bson.M{"totalEarnings": commission}
	switch userType {
	case models.ReferralSubjectUser:
		counterInc["usersReferred"] = 1
	case models.ReferralSubjectBroker:
		counterInc["brokersReferred"] = 1
		if isFirstProperty {
			counterInc["brokerFirstProperties"] = 1
		}
	}

	event := models.ReferredUser{
		UserID:           userID,
		UserType:         userType,
		RegistrationDate: now,
		Commission:       commission,
		IsFirstProperty:  isFirstProperty,
	}

	filter := bson.M{"employeeId": employeeID, "period": period}
	update := bson.M{
		"$setOnInsert": bson.M{
			"year":             year,
			"month":            month,
			"bonusEarnings":    float64(0),
			"isPaid":           false,
			"paidAmount":       float64(0),
			"paymentReference": "",
			"notes":            "",
			"dailyStats":       []models.DailyStat{},
			"createdAt":        now,
		},
		"$inc":  counterInc,
		"$push": bson.M{"referredUsers": event},
		"$set":  bson.M{"updatedAt": now},
	}

	_, err := rs.statsCollection().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Two first referrals for a fresh (employee, period) entry can
		// race on the insert path; the loser hits the unique index.
		// One retry matches the now-existing entry and takes the
		// increment path instead.
		_, err = rs.statsCollection().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	if err != nil {
		return nil, err
	}

	if err := rs.bumpDailyStat(ctx, filter, userType, now); err != nil {
		// The rollup is a same-document retry away; the authoritative
		// counters and event log are already committed.
		log.Printf("Failed to update daily referral rollup for %s/%s: %v", employeeID.Hex(), period, err)
	}

	var stats models.ReferralStats
	if err := rs.statsCollection().FindOne(ctx, filter).Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// bumpDailyStat increments today's rollup element, inserting it on the
// first event of a new day.
func (rs *ReferralService) bumpDailyStat(ctx context.Context, filter bson.M, userType string, now time.Time) error {
	dateKey := now.Format("2006-01-02")

	field := "dailyStats.$.usersReferred"
	if userType == models.ReferralSubjectBroker {
		field = "dailyStats.$.brokersReferred"
	}

	dayFilter := bson.M{"dailyStats.date": dateKey}
	for k, v := range filter {
		dayFilter[k] = v
	}

	res, err := rs.statsCollection().UpdateOne(ctx, dayFilter, bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	day := models.DailyStat{Date: dateKey}
	switch userType {
	case models.ReferralSubjectUser:
		day.UsersReferred = 1
	case models.ReferralSubjectBroker:
		day.BrokersReferred = 1
	}
	_, err = rs.statsCollection().UpdateOne(ctx, filter, bson.M{"$push": bson.M{"dailyStats": day}})
	return err
}

// TrackUserRegistration links a fresh signup to the employee whose
// referral code was supplied and credits the flat commission for the
// subject type to the current calendar period.
//
// An unknown or inactive code returns ErrInvalidReferralCode so the
// signup handler can report it, but registration itself has already
// succeeded by the time this runs and is never rolled back.
func (rs *ReferralService) TrackUserRegistration(ctx context.Context, referralCode string, userID primitive.ObjectID, userType string) error {
	employee, err := rs.ValidateReferralCode(ctx, referralCode)
	if err != nil {
		return err
	}
	return rs.CreditReferral(ctx, employee, userID, userType)
}

// CreditReferral links the signup to an already-resolved employee and
// writes the commission event. Split out so callers that validated the
// code up front (to report it in their own response) skip the second
// lookup.
func (rs *ReferralService) CreditReferral(ctx context.Context, employee *models.Employee, userID primitive.ObjectID, userType string) error {
	now := time.Now()
	_, err := rs.DB.Collection("users").UpdateByID(ctx, userID, bson.M{
		"$set": bson.M{
			"referredBy":   employee.ID,
			"referralCode": employee.ReferralCode,
			"referralDate": now,
			"updatedAt":    now,
		},
	})
	if err != nil {
		return err
	}

	commission := employee.CommissionRates.UserRegistration
	subjectType := models.ReferralSubjectUser
	if userType == "broker" || userType == "sub_broker" {
		commission = employee.CommissionRates.BrokerRegistration
		subjectType = models.ReferralSubjectBroker
	}

	_, err = rs.AddReferral(ctx, employee.ID, models.PeriodOf(now), userID, subjectType, commission, false)
	return err
}

// TrackBrokerFirstProperty awards the one-time first-property bonus. It is
// idempotent: the broker's isFirstPropertyListed flag gates the bonus, so
// a second listing (or a duplicate call) is a no-op. Returns true when the
// first listing was recorded by this call.
func (rs *ReferralService) TrackBrokerFirstProperty(ctx context.Context, brokerID primitive.ObjectID) (bool, error) {
	users := rs.DB.Collection("users")

	var broker models.User
	err := users.FindOne(ctx, bson.M{"_id": brokerID}).Decode(&broker)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, ErrBrokerNotFound
		}
		return false, err
	}
	if broker.UserType != "broker" && broker.UserType != "sub_broker" {
		return false, nil
	}

	now := time.Now()

	// Flip the flag atomically so two concurrent listings cannot both
	// claim the first-property bonus.
	res, err := users.UpdateOne(ctx,
		bson.M{"_id": brokerID, "isFirstPropertyListed": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"isFirstPropertyListed": true,
			"firstPropertyDate":     now,
			"updatedAt":             now,
		}},
	)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 0 {
		return false, nil // already tracked
	}

	if broker.ReferredBy == nil {
		return true, nil
	}

	var employee models.Employee
	err = rs.DB.Collection("employees").FindOne(ctx, bson.M{"_id": *broker.ReferredBy}).Decode(&employee)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return true, nil // referring employee since deleted; flag stays set
		}
		return true, err
	}

	commission := employee.CommissionRates.BrokerFirstProperty
	_, err = rs.AddReferral(ctx, employee.ID, models.PeriodOf(now), brokerID, models.ReferralSubjectBroker, commission, true)
	if err != nil {
		return true, err
	}

	log.Printf("First property bonus tracked for %s: broker %s listed first property", employee.EmployeeName, broker.FullName)
	return true, nil
}

// CalculateEarnings recomputes a period's totals wholesale from its
// counters using the employee's current rate card and persists the
// result. Idempotent while rates stay unchanged; after a rate change it
// deliberately rewrites the period to reflect current rates.
func (rs *ReferralService) CalculateEarnings(ctx context.Context, employeeID primitive.ObjectID, year, month int) (float64, error) {
	var employee models.Employee
	err := rs.DB.Collection("employees").FindOne(ctx, bson.M{"_id": employeeID}).Decode(&employee)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrEmployeeNotFound
		}
		return 0, err
	}

	period := models.PeriodKey(year, month)
	var stats models.ReferralStats
	err = rs.statsCollection().FindOne(ctx, bson.M{"employeeId": employeeID, "period": period}).Decode(&stats)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrStatsNotFound
		}
		return 0, err
	}

	result := ComputeCommission(ReferralCounts{
		UsersReferred:         stats.UsersReferred,
		BrokersReferred:       stats.BrokersReferred,
		BrokerFirstProperties: stats.BrokerFirstProperties,
	}, employee.CommissionRates)

	_, err = rs.statsCollection().UpdateByID(ctx, stats.ID, bson.M{
		"$set": bson.M{
			"totalEarnings": result.BaseCommission,
			"bonusEarnings": result.BonusCommission,
			"updatedAt":     time.Now(),
		},
	})
	if err != nil {
		return 0, err
	}
	return result.TotalCommission, nil
}

// CalculateMonthlyCommission reports the calculator output for a period
// without persisting anything. A missing ledger row yields a zero result.
func (rs *ReferralService) CalculateMonthlyCommission(ctx context.Context, employeeID primitive.ObjectID, year, month int) (*CommissionResult, error) {
	var employee models.Employee
	err := rs.DB.Collection("employees").FindOne(ctx, bson.M{"_id": employeeID}).Decode(&employee)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}

	period := models.PeriodKey(year, month)
	var stats models.ReferralStats
	err = rs.statsCollection().FindOne(ctx, bson.M{"employeeId": employeeID, "period": period}).Decode(&stats)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			zero := ComputeCommission(ReferralCounts{}, employee.CommissionRates)
			return &zero, nil
		}
		return nil, err
	}

	result := ComputeCommission(ReferralCounts{
		UsersReferred:         stats.UsersReferred,
		BrokersReferred:       stats.BrokersReferred,
		BrokerFirstProperties: stats.BrokerFirstProperties,
	}, employee.CommissionRates)
	return &result, nil
}

// GetPeriod fetches one ledger entry, nil when the employee has no
// activity in that period.
func (rs *ReferralService) GetPeriod(ctx context.Context, employeeID primitive.ObjectID, year, month int) (*models.ReferralStats, error) {
	var stats models.ReferralStats
	err := rs.statsCollection().FindOne(ctx, bson.M{
		"employeeId": employeeID,
		"period":     models.PeriodKey(year, month),
	}).Decode(&stats)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

// MarkPaymentsPaid settles one employee period. It fails with
// ErrStatsNotFound rather than creating a row, and performs no check that
// the amount matches computed earnings; that is the caller's call.
func (rs *ReferralService) MarkPaymentsPaid(ctx context.Context, employeeID primitive.ObjectID, year, month int, paidAmount float64, paymentReference string) (*models.ReferralStats, error) {
	period := models.PeriodKey(year, month)
	now := time.Now()

	var updated models.ReferralStats
	err := rs.statsCollection().FindOneAndUpdate(ctx,
		bson.M{"employeeId": employeeID, "period": period},
		bson.M{"$set": bson.M{
			"isPaid":           true,
			"paidDate":         now,
			"paidAmount":       paidAmount,
			"paymentReference": paymentReference,
			"updatedAt":        now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrStatsNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// AllTimeTotals folds an employee's entire ledger history into one row.
type AllTimeTotals struct {
	TotalUsers    int     `json:"totalUsers" bson:"totalUsers"`
	TotalBrokers  int     `json:"totalBrokers" bson:"totalBrokers"`
	TotalEarnings float64 `json:"totalEarnings" bson:"totalEarnings"`
	TotalPaid     float64 `json:"totalPaid" bson:"totalPaid"`
}

func (rs *ReferralService) GetAllTimeTotals(ctx context.Context, employeeID primitive.ObjectID) (*AllTimeTotals, error) {
	total := bson.M{"$add": bson.A{"$totalEarnings", "$bonusEarnings"}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"employeeId": employeeID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"totalUsers":    bson.M{"$sum": "$usersReferred"},
			"totalBrokers":  bson.M{"$sum": "$brokersReferred"},
			"totalEarnings": bson.M{"$sum": total},
			"totalPaid": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$isPaid", total, 0},
			}},
		}}},
	}

	cursor, err := rs.statsCollection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var totals []AllTimeTotals
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, err
	}
	if len(totals) == 0 {
		return &AllTimeTotals{}, nil
	}
	return &totals[0], nil
}

// GetMonthlyTrend returns the employee's ledger entries for the last
// `months` calendar months including the current one, oldest first.
// Months with no activity have no row.
func (rs *ReferralService) GetMonthlyTrend(ctx context.Context, employeeID primitive.ObjectID, months int) ([]models.ReferralStats, error) {
	now := time.Now()
	periods := models.PeriodsInRange(now.AddDate(0, -(months-1), 0), now)

	cursor, err := rs.statsCollection().Find(ctx,
		bson.M{"employeeId": employeeID, "period": bson.M{"$in": periods}},
		options.Find().SetSort(bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	trend := []models.ReferralStats{}
	if err := cursor.All(ctx, &trend); err != nil {
		return nil, err
	}
	return trend, nil
}

// GetRecentStats returns the employee's newest ledger entries, most
// recent period first.
func (rs *ReferralService) GetRecentStats(ctx context.Context, employeeID primitive.ObjectID, limit int) ([]models.ReferralStats, error) {
	cursor, err := rs.statsCollection().Find(ctx,
		bson.M{"employeeId": employeeID},
		options.Find().
			SetSort(bson.D{{Key: "year", Value: -1}, {Key: "month", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := []models.ReferralStats{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// RecentReferral is the trimmed user view shown on the dashboard.
type RecentReferral struct {
	FullName     string     `json:"fullName" bson:"fullName"`
	Email        string     `json:"email" bson:"email"`
	UserType     string     `json:"userType" bson:"userType"`
	ReferralDate *time.Time `json:"referralDate" bson:"referralDate"`
}

// GetRecentReferrals lists the employee's most recently referred
// signups, newest first.
func (rs *ReferralService) GetRecentReferrals(ctx context.Context, employeeID primitive.ObjectID, limit int) ([]RecentReferral, error) {
	cursor, err := rs.DB.Collection("users").Find(ctx,
		bson.M{"referredBy": employeeID},
		options.Find().
			SetSort(bson.D{{Key: "referralDate", Value: -1}}).
			SetLimit(int64(limit)).
			SetProjection(bson.M{"fullName": 1, "email": 1, "userType": 1, "referralDate": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	referrals := []RecentReferral{}
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, err
	}
	return referrals, nil
}

// EmployeePerformance is the date-range summary behind the admin
// performance endpoint.
type EmployeePerformance struct {
	Employee         PerformanceEmployee    `json:"employee"`
	Start            time.Time              `json:"start"`
	End              time.Time              `json:"end"`
	Totals           PerformanceTotals      `json:"totals"`
	MonthlyBreakdown []models.ReferralStats `json:"monthlyBreakdown"`
}

type PerformanceEmployee struct {
	EmployeeName string `json:"employeeName"`
	EmployeeCode string `json:"employeeCode"`
	ReferralCode string `json:"referralCode"`
}

type PerformanceTotals struct {
	UsersReferred         int     `json:"usersReferred"`
	BrokersReferred       int     `json:"brokersReferred"`
	BrokerFirstProperties int     `json:"brokerFirstProperties"`
	TotalEarnings         float64 `json:"totalEarnings"`
	TotalPaid             float64 `json:"totalPaid"`
}

// GetEmployeePerformance sums every period intersecting [start, end],
// boundary months included. Periods with no ledger row contribute zero.
func (rs *ReferralService) GetEmployeePerformance(ctx context.Context, employeeID primitive.ObjectID, start, end time.Time) (*EmployeePerformance, error) {
	var employee models.Employee
	err := rs.DB.Collection("employees").FindOne(ctx, bson.M{"_id": employeeID}).Decode(&employee)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}

	periods := models.PeriodsInRange(start, end)

	cursor, err := rs.statsCollection().Find(ctx,
		bson.M{"employeeId": employeeID, "period": bson.M{"$in": periods}},
		options.Find().SetSort(bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var breakdown []models.ReferralStats
	if err := cursor.All(ctx, &breakdown); err != nil {
		return nil, err
	}

	var totals PerformanceTotals
	for _, stat := range breakdown {
		totals.UsersReferred += stat.UsersReferred
		totals.BrokersReferred += stat.BrokersReferred
		totals.BrokerFirstProperties += stat.BrokerFirstProperties
		totals.TotalEarnings += stat.TotalCommission()
		if stat.IsPaid {
			totals.TotalPaid += stat.TotalCommission()
		}
	}

	return &EmployeePerformance{
		Employee: PerformanceEmployee{
			EmployeeName: employee.EmployeeName,
			EmployeeCode: employee.EmployeeCode,
			ReferralCode: employee.ReferralCode,
		},
		Start:            start,
		End:              end,
		Totals:           totals,
		MonthlyBreakdown: breakdown,
	}, nil
}

// GetTopPerformers returns the period leaderboard, at most limit rows,
// sorted descending by sortBy with the documented secondary tiebreaks.
func (rs *ReferralService) GetTopPerformers(ctx context.Context, year, month, limit int, sortBy string) ([]models.TopPerformer, error) {
	period := models.PeriodKey(year, month)

	var sortStage bson.D
	switch sortBy {
	case SortByTotalReferred:
		sortStage = bson.D{{Key: "totalReferred", Value: -1}, {Key: "totalCommission", Value: -1}}
	case SortByUsersReferred:
		sortStage = bson.D{{Key: "usersReferred", Value: -1}}
	case SortByBrokersReferred:
		sortStage = bson.D{{Key: "brokersReferred", Value: -1}}
	default:
		sortStage = bson.D{{Key: "totalCommission", Value: -1}, {Key: "totalReferred", Value: -1}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"period": period}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "employees",
			"localField":   "employeeId",
			"foreignField": "_id",
			"as":           "employee",
		}}},
		{{Key: "$unwind", Value: "$employee"}},
		{{Key: "$addFields", Value: bson.M{
			"totalReferred":   bson.M{"$add": bson.A{"$usersReferred", "$brokersReferred"}},
			"totalCommission": bson.M{"$add": bson.A{"$totalEarnings", "$bonusEarnings"}},
			"employeeName":    "$employee.employeeName",
			"referralCode":    "$employee.referralCode",
		}}},
		{{Key: "$sort", Value: sortStage}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{
			"_id":                   "$employeeId",
			"employeeName":          1,
			"referralCode":          1,
			"usersReferred":         1,
			"brokersReferred":       1,
			"brokerFirstProperties": 1,
			"totalReferred":         1,
			"totalCommission":       1,
			"isPaid":                1,
		}}},
	}

	cursor, err := rs.statsCollection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var performers []models.TopPerformer
	if err := cursor.All(ctx, &performers); err != nil {
		return nil, err
	}
	return performers, nil
}

// ReferralOverview is the admin-wide period summary: one roll-up across
// every employee's ledger entry plus the period's top five performers.
type ReferralOverview struct {
	Period        string                `json:"period"`
	Overview      OverviewTotals        `json:"overview"`
	TopPerformers []models.TopPerformer `json:"topPerformers"`
}

type OverviewTotals struct {
	ActiveEmployees int     `json:"activeEmployees" bson:"activeEmployees"`
	TotalUsers      int     `json:"totalUsers" bson:"totalUsers"`
	TotalBrokers    int     `json:"totalBrokers" bson:"totalBrokers"`
	TotalEarnings   float64 `json:"totalEarnings" bson:"totalEarnings"`
	TotalPaid       float64 `json:"totalPaid" bson:"totalPaid"`
	PendingPayment  float64 `json:"pendingPayment" bson:"pendingPayment"`
}

// GetOverview aggregates one period across all employees. An employee is
// active when they hold a ledger entry for the period; paid and pending
// split each entry's full commission (base plus bonus) on its isPaid flag.
func (rs *ReferralService) GetOverview(ctx context.Context, year, month int) (*ReferralOverview, error) {
	period := models.PeriodKey(year, month)
	total := bson.M{"$add": bson.A{"$totalEarnings", "$bonusEarnings"}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"period": period}}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"employees":     bson.M{"$addToSet": "$employeeId"},
			"totalUsers":    bson.M{"$sum": "$usersReferred"},
			"totalBrokers":  bson.M{"$sum": "$brokersReferred"},
			"totalEarnings": bson.M{"$sum": total},
			"totalPaid": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$isPaid", total, 0},
			}},
			"pendingPayment": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$isPaid", 0, total},
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"activeEmployees": bson.M{"$size": "$employees"},
			"totalUsers":      1,
			"totalBrokers":    1,
			"totalEarnings":   1,
			"totalPaid":       1,
			"pendingPayment":  1,
		}}},
	}

	cursor, err := rs.statsCollection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var totals []OverviewTotals
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, err
	}

	overview := &ReferralOverview{Period: period}
	if len(totals) > 0 {
		overview.Overview = totals[0]
	}

	overview.TopPerformers, err = rs.GetTopPerformers(ctx, year, month, 5, SortByTotalCommission)
	if err != nil {
		return nil, err
	}
	return overview, nil
}

// UnpaidCommissions groups every unpaid period with a positive commission
// by employee, largest outstanding amount first.
type UnpaidCommissions struct {
	Summary   UnpaidSummary    `json:"summary"`
	Employees []UnpaidEmployee `json:"employees"`
}

type UnpaidSummary struct {
	TotalAmount   float64 `json:"totalAmount"`
	EmployeeCount int     `json:"employeeCount"`
}

type UnpaidEmployee struct {
	EmployeeID    primitive.ObjectID `json:"employeeId" bson:"_id"`
	EmployeeName  string             `json:"employeeName" bson:"employeeName"`
	ReferralCode  string             `json:"referralCode" bson:"referralCode"`
	TotalUnpaid   float64            `json:"totalUnpaid" bson:"totalUnpaid"`
	UnpaidPeriods []UnpaidPeriod     `json:"unpaidPeriods" bson:"unpaidPeriods"`
}

type UnpaidPeriod struct {
	Period          string  `json:"period" bson:"period"`
	Amount          float64 `json:"amount" bson:"amount"`
	UsersReferred   int     `json:"usersReferred" bson:"usersReferred"`
	BrokersReferred int     `json:"brokersReferred" bson:"brokersReferred"`
}

func (rs *ReferralService) GetUnpaidCommissions(ctx context.Context) (*UnpaidCommissions, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"isPaid": false,
			"$expr":  bson.M{"$gt": bson.A{bson.M{"$add": bson.A{"$totalEarnings", "$bonusEarnings"}}, 0}},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "employees",
			"localField":   "employeeId",
			"foreignField": "_id",
			"as":           "employee",
		}}},
		{{Key: "$unwind", Value: "$employee"}},
		{{Key: "$addFields", Value: bson.M{
			"totalCommission": bson.M{"$add": bson.A{"$totalEarnings", "$bonusEarnings"}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$employeeId",
			"employeeName": bson.M{"$first": "$employee.employeeName"},
			"referralCode": bson.M{"$first": "$employee.referralCode"},
			"totalUnpaid":  bson.M{"$sum": "$totalCommission"},
			"unpaidPeriods": bson.M{"$push": bson.M{
				"period":          "$period",
				"amount":          "$totalCommission",
				"usersReferred":   "$usersReferred",
				"brokersReferred": "$brokersReferred",
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalUnpaid", Value: -1}}}},
	}

	cursor, err := rs.statsCollection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var employees []UnpaidEmployee
	if err := cursor.All(ctx, &employees); err != nil {
		return nil, err
	}

	var summary UnpaidSummary
	for _, emp := range employees {
		summary.TotalAmount += emp.TotalUnpaid
		summary.EmployeeCount++
	}

	return &UnpaidCommissions{Summary: summary, Employees: employees}, nil
}

// ReferralAnalytics counts referred signups straight from the user
// records. This is a separate data path from the ledger counters: the
// ledger stays authoritative for commission, this view reports what the
// subject records say, and the two are intentionally not reconciled.
type ReferralAnalytics struct {
	Summary           AnalyticsSummary    `json:"summary"`
	EmployeeBreakdown []EmployeeAnalytics `json:"employeeBreakdown"`
}

type AnalyticsSummary struct {
	TotalReferrals  int `json:"totalReferrals"`
	TotalUsers      int `json:"totalUsers"`
	TotalBrokers    int `json:"totalBrokers"`
	ActiveEmployees int `json:"activeEmployees"`
}

type EmployeeAnalytics struct {
	EmployeeID   primitive.ObjectID `json:"employeeId"`
	EmployeeName string             `json:"employeeName"`
	ReferralCode string             `json:"referralCode"`
	Users        int                `json:"users"`
	Brokers      int                `json:"brokers"`
	Total        int                `json:"total"`
}

func (rs *ReferralService) GetReferralAnalytics(ctx context.Context, start, end time.Time) (*ReferralAnalytics, error) {
	cursor, err := rs.DB.Collection("users").Find(ctx, bson.M{
		"referredBy":   bson.M{"$exists": true, "$ne": nil},
		"referralDate": bson.M{"$gte": start, "$lte": end},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var referred []models.User
	if err := cursor.All(ctx, &referred); err != nil {
		return nil, err
	}

	byEmployee := make(map[primitive.ObjectID]*EmployeeAnalytics)
	var summary AnalyticsSummary
	for _, user := range referred {
		summary.TotalReferrals++
		isBroker := user.UserType == "broker" || user.UserType == "sub_broker"
		if isBroker {
			summary.TotalBrokers++
		} else {
			summary.TotalUsers++
		}

		entry, ok := byEmployee[*user.ReferredBy]
		if !ok {
			entry = &EmployeeAnalytics{EmployeeID: *user.ReferredBy}
			byEmployee[*user.ReferredBy] = entry
		}
		if isBroker {
			entry.Brokers++
		} else {
			entry.Users++
		}
		entry.Total++
	}
	summary.ActiveEmployees = len(byEmployee)

	// Join display fields for each referring employee
	breakdown := make([]EmployeeAnalytics, 0, len(byEmployee))
	for id, entry := range byEmployee {
		var employee models.Employee
		err := rs.DB.Collection("employees").FindOne(ctx, bson.M{"_id": id}).Decode(&employee)
		if err == nil {
			entry.EmployeeName = employee.EmployeeName
			entry.ReferralCode = employee.ReferralCode
		}
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Total > breakdown[j].Total
	})

	return &ReferralAnalytics{Summary: summary, EmployeeBreakdown: breakdown}, nil
}

// periodParts extracts year and month from a "YYYY-MM" key, falling back
// to the supplied time on a malformed key.
func periodParts(period string, fallback time.Time) (int, int) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return fallback.Year(), int(fallback.Month())
	}
	return t.Year(), int(t.Month())
}
