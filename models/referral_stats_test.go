package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "2024-01", PeriodKey(2024, 1))
	assert.Equal(t, "2024-12", PeriodKey(2024, 12))
	assert.Equal(t, "2023-09", PeriodKey(2023, 9))
}

func TestPeriodOf(t *testing.T) {
	assert.Equal(t, "2024-03", PeriodOf(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)))
}

func TestPeriodsInRange(t *testing.T) {
	start := time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	periods := PeriodsInRange(start, end)

	assert.Equal(t, []string{"2023-11", "2023-12", "2024-01", "2024-02"}, periods)
}

func TestPeriodsInRangeSingleMonth(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"2024-06"}, PeriodsInRange(start, end))
}

func TestApplyReferralUser(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	stats := NewReferralStats(primitive.NewObjectID(), now)
	userID := primitive.NewObjectID()

	stats.ApplyReferral(userID, ReferralSubjectUser, 50, false, now)

	assert.Equal(t, 1, stats.UsersReferred)
	assert.Equal(t, 0, stats.BrokersReferred)
	assert.Equal(t, float64(50), stats.TotalEarnings)
	require.Len(t, stats.ReferredUsers, 1)
	assert.Equal(t, userID, stats.ReferredUsers[0].UserID)
	assert.Equal(t, ReferralSubjectUser, stats.ReferredUsers[0].UserType)
	require.Len(t, stats.DailyStats, 1)
	assert.Equal(t, "2024-05-10", stats.DailyStats[0].Date)
	assert.Equal(t, 1, stats.DailyStats[0].UsersReferred)
}

func TestApplyReferralBrokerEvents(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	stats := NewReferralStats(primitive.NewObjectID(), now)

	stats.ApplyReferral(primitive.NewObjectID(), ReferralSubjectBroker, 200, false, now)
	stats.ApplyReferral(primitive.NewObjectID(), ReferralSubjectBroker, 500, true, now)

	assert.Equal(t, 2, stats.BrokersReferred)
	assert.Equal(t, 1, stats.BrokerFirstProperties)
	assert.Equal(t, 0, stats.UsersReferred)
	assert.Equal(t, float64(700), stats.TotalEarnings)
	assert.Len(t, stats.ReferredUsers, 2)
}

func TestApplyReferralCountersMatchEvents(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	stats := NewReferralStats(primitive.NewObjectID(), now)

	stats.ApplyReferral(primitive.NewObjectID(), ReferralSubjectUser, 50, false, now)
	stats.ApplyReferral(primitive.NewObjectID(), ReferralSubjectUser, 50, false, now.Add(time.Hour))
	stats.ApplyReferral(primitive.NewObjectID(), ReferralSubjectBroker, 200, false, now.Add(2*time.Hour))

	users, brokers := 0, 0
	for _, event := range stats.ReferredUsers {
		switch event.UserType {
		case ReferralSubjectUser:
			users++
		case ReferralSubjectBroker:
			brokers++
		}
	}
	assert.Equal(t, stats.UsersReferred, users)
	assert.Equal(t, stats.BrokersReferred, brokers)

	var commission float64
	for _, event := range stats.ReferredUsers {
		commission += event.Commission
	}
	assert.Equal(t, stats.TotalEarnings, commission)
}

func TestApplyReferralDailyRollup(t *testing.T) {
	day1 := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	day1Later := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC)

	stats := NewReferralStats(primitive.NewObjectID(), day1)
	stats.ApplyReferral(primitive.NewObjectID(), ReferralSubjectUser, 50, false, day1)
	stats.ApplyReferral(primitive.NewObjectID(), ReferralSubjectBroker, 200, false, day1Later)
	stats.ApplyReferral(primitive.NewObjectID(), ReferralSubjectUser, 50, false, day2)

	require.Len(t, stats.DailyStats, 2)
	assert.Equal(t, "2024-05-10", stats.DailyStats[0].Date)
	assert.Equal(t, 1, stats.DailyStats[0].UsersReferred)
	assert.Equal(t, 1, stats.DailyStats[0].BrokersReferred)
	assert.Equal(t, "2024-05-11", stats.DailyStats[1].Date)
	assert.Equal(t, 1, stats.DailyStats[1].UsersReferred)
}

func TestTotalCommission(t *testing.T) {
	stats := &ReferralStats{TotalEarnings: 1500, BonusEarnings: 2000}
	assert.Equal(t, float64(3500), stats.TotalCommission())
}
