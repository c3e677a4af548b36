package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/snkproperties/snkprop_backend/models"
)

func statsNamespace(mt *mtest.T) string {
	return fmt.Sprintf("%s.referral_stats", mt.DB.Name())
}

func TestAddReferralRetriesOnUpsertRace(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("second attempt lands after losing the insert race", func(mt *mtest.T) {
		employeeID := primitive.NewObjectID()
		userID := primitive.NewObjectID()

		mt.AddMockResponses(
			// First upsert loses the insert race to a concurrent call
			// and trips the unique (employeeId, period) index.
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error",
			}),
			// Retry matches the now-existing entry.
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			// Daily rollup increment matches an existing day element.
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			// Final read of the updated entry.
			mtest.CreateCursorResponse(0, statsNamespace(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "employeeId", Value: employeeID},
				{Key: "period", Value: "2026-09"},
				{Key: "usersReferred", Value: 2},
				{Key: "totalEarnings", Value: 100.0},
			}),
		)

		svc := NewReferralService(mt.DB)
		stats, err := svc.AddReferral(context.Background(), employeeID, "2026-09", userID, models.ReferralSubjectUser, 50, false)

		require.NoError(mt.T, err)
		require.NotNil(mt.T, stats)
		assert.Equal(mt.T, 2, stats.UsersReferred)
		assert.Equal(mt.T, float64(100), stats.TotalEarnings)
	})

	mt.Run("persistent duplicate key surfaces after one retry", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error",
			}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error",
			}),
		)

		svc := NewReferralService(mt.DB)
		stats, err := svc.AddReferral(context.Background(), primitive.NewObjectID(), "2026-09", primitive.NewObjectID(), models.ReferralSubjectUser, 50, false)

		require.Error(mt.T, err)
		assert.True(mt.T, mongo.IsDuplicateKeyError(err))
		assert.Nil(mt.T, stats)
	})
}

func TestGetOverviewAggregatesPeriod(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("rolls up counters and paid split", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, statsNamespace(mt), mtest.FirstBatch, bson.D{
				{Key: "activeEmployees", Value: 3},
				{Key: "totalUsers", Value: 42},
				{Key: "totalBrokers", Value: 7},
				{Key: "totalEarnings", Value: 3500.0},
				{Key: "totalPaid", Value: 1200.0},
				{Key: "pendingPayment", Value: 2300.0},
			}),
			mtest.CreateCursorResponse(0, statsNamespace(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "employeeName", Value: "Priya Nair"},
				{Key: "usersReferred", Value: 20},
				{Key: "totalCommission", Value: 1500.0},
			}),
		)

		svc := NewReferralService(mt.DB)
		overview, err := svc.GetOverview(context.Background(), 2026, 9)

		require.NoError(mt.T, err)
		assert.Equal(mt.T, "2026-09", overview.Period)
		assert.Equal(mt.T, 3, overview.Overview.ActiveEmployees)
		assert.Equal(mt.T, 42, overview.Overview.TotalUsers)
		assert.Equal(mt.T, 7, overview.Overview.TotalBrokers)
		assert.Equal(mt.T, float64(3500), overview.Overview.TotalEarnings)
		assert.Equal(mt.T, float64(1200), overview.Overview.TotalPaid)
		assert.Equal(mt.T, float64(2300), overview.Overview.PendingPayment)
		require.Len(mt.T, overview.TopPerformers, 1)
		assert.Equal(mt.T, "Priya Nair", overview.TopPerformers[0].EmployeeName)
	})

	mt.Run("empty period yields zero totals", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, statsNamespace(mt), mtest.FirstBatch),
			mtest.CreateCursorResponse(0, statsNamespace(mt), mtest.FirstBatch),
		)

		svc := NewReferralService(mt.DB)
		overview, err := svc.GetOverview(context.Background(), 2026, 2)

		require.NoError(mt.T, err)
		assert.Equal(mt.T, "2026-02", overview.Period)
		assert.Equal(mt.T, OverviewTotals{}, overview.Overview)
		assert.Empty(mt.T, overview.TopPerformers)
	})
}

func TestGetAllTimeTotals(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sums history including paid split", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, statsNamespace(mt), mtest.FirstBatch, bson.D{
				{Key: "totalUsers", Value: 61},
				{Key: "totalBrokers", Value: 9},
				{Key: "totalEarnings", Value: 7250.0},
				{Key: "totalPaid", Value: 5000.0},
			}),
		)

		svc := NewReferralService(mt.DB)
		totals, err := svc.GetAllTimeTotals(context.Background(), primitive.NewObjectID())

		require.NoError(mt.T, err)
		assert.Equal(mt.T, 61, totals.TotalUsers)
		assert.Equal(mt.T, 9, totals.TotalBrokers)
		assert.Equal(mt.T, float64(7250), totals.TotalEarnings)
		assert.Equal(mt.T, float64(5000), totals.TotalPaid)
	})

	mt.Run("no history yields zeroes rather than nil", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, statsNamespace(mt), mtest.FirstBatch),
		)

		svc := NewReferralService(mt.DB)
		totals, err := svc.GetAllTimeTotals(context.Background(), primitive.NewObjectID())

		require.NoError(mt.T, err)
		require.NotNil(mt.T, totals)
		assert.Equal(mt.T, AllTimeTotals{}, *totals)
	})
}

func TestGetRecentReferrals(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns trimmed user records", func(mt *mtest.T) {
		ns := fmt.Sprintf("%s.users", mt.DB.Name())
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{
					{Key: "fullName", Value: "Rohit Shah"},
					{Key: "email", Value: "rohit@example.com"},
					{Key: "userType", Value: "broker"},
				},
				bson.D{
					{Key: "fullName", Value: "Meera Iyer"},
					{Key: "email", Value: "meera@example.com"},
					{Key: "userType", Value: "user"},
				},
			),
		)

		svc := NewReferralService(mt.DB)
		referrals, err := svc.GetRecentReferrals(context.Background(), primitive.NewObjectID(), 10)

		require.NoError(mt.T, err)
		require.Len(mt.T, referrals, 2)
		assert.Equal(mt.T, "Rohit Shah", referrals[0].FullName)
		assert.Equal(mt.T, "broker", referrals[0].UserType)
		assert.Equal(mt.T, "meera@example.com", referrals[1].Email)
	})

	mt.Run("no referrals yields empty slice", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, fmt.Sprintf("%s.users", mt.DB.Name()), mtest.FirstBatch),
		)

		svc := NewReferralService(mt.DB)
		referrals, err := svc.GetRecentReferrals(context.Background(), primitive.NewObjectID(), 10)

		require.NoError(mt.T, err)
		assert.Empty(mt.T, referrals)
		assert.NotNil(mt.T, referrals)
	})
}

func TestValidateReferralCode(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unknown code maps to invalid-code error", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, fmt.Sprintf("%s.employees", mt.DB.Name()), mtest.FirstBatch),
		)

		svc := NewReferralService(mt.DB)
		employee, err := svc.ValidateReferralCode(context.Background(), "emp9999")

		assert.ErrorIs(mt.T, err, ErrInvalidReferralCode)
		assert.Nil(mt.T, employee)
	})

	mt.Run("active employee resolves", func(mt *mtest.T) {
		employeeID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, fmt.Sprintf("%s.employees", mt.DB.Name()), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: employeeID},
				{Key: "employeeName", Value: "Arjun Mehta"},
				{Key: "referralCode", Value: "EMPA1B2"},
				{Key: "isActive", Value: true},
			}),
		)

		svc := NewReferralService(mt.DB)
		employee, err := svc.ValidateReferralCode(context.Background(), " empa1b2 ")

		require.NoError(mt.T, err)
		assert.Equal(mt.T, employeeID, employee.ID)
		assert.Equal(mt.T, "EMPA1B2", employee.ReferralCode)
	})
}
