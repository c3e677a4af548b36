package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snkproperties/snkprop_backend/models"
)

func TestComputeCommissionBase(t *testing.T) {
	rates := models.DefaultCommissionRates()

	result := ComputeCommission(ReferralCounts{
		UsersReferred:         3,
		BrokersReferred:       2,
		BrokerFirstProperties: 1,
	}, rates)

	assert.Equal(t, float64(3*50+2*200+1*500), result.BaseCommission)
	assert.Equal(t, float64(0), result.BonusCommission)
	assert.Equal(t, result.BaseCommission, result.TotalCommission)
	assert.False(t, result.Breakdown.UserTargetMet)
	assert.False(t, result.Breakdown.BrokerTargetMet)
}

func TestComputeCommissionUserTargetBonus(t *testing.T) {
	rates := models.DefaultCommissionRates()

	// Exactly at the user target: 30*50 base plus the 2000 bonus
	result := ComputeCommission(ReferralCounts{UsersReferred: 30}, rates)

	assert.Equal(t, float64(1500), result.BaseCommission)
	assert.Equal(t, float64(2000), result.BonusCommission)
	assert.Equal(t, float64(3500), result.TotalCommission)
	assert.True(t, result.Breakdown.UserTargetMet)
	assert.False(t, result.Breakdown.BrokerTargetMet)
}

func TestComputeCommissionBelowTargetNoProration(t *testing.T) {
	rates := models.DefaultCommissionRates()

	// One short of the target pays no part of the bonus
	result := ComputeCommission(ReferralCounts{UsersReferred: 29}, rates)

	assert.Equal(t, float64(29*50), result.BaseCommission)
	assert.Equal(t, float64(0), result.BonusCommission)
}

func TestComputeCommissionBothTargets(t *testing.T) {
	rates := models.DefaultCommissionRates()

	result := ComputeCommission(ReferralCounts{
		UsersReferred:   35,
		BrokersReferred: 12,
	}, rates)

	assert.Equal(t, float64(35*50+12*200), result.BaseCommission)
	assert.Equal(t, float64(2000+5000), result.BonusCommission)
	assert.True(t, result.Breakdown.UserTargetMet)
	assert.True(t, result.Breakdown.BrokerTargetMet)
}

func TestComputeCommissionCustomRates(t *testing.T) {
	rates := models.CommissionRates{
		UserRegistration:    10,
		BrokerRegistration:  100,
		BrokerFirstProperty: 250,
		MonthlyBonus: models.MonthlyBonus{
			UserTarget:   models.BonusRule{Achievement: 5, Bonus: 300},
			BrokerTarget: models.BonusRule{Achievement: 2, Bonus: 400},
		},
	}

	result := ComputeCommission(ReferralCounts{
		UsersReferred:         5,
		BrokersReferred:       1,
		BrokerFirstProperties: 1,
	}, rates)

	assert.Equal(t, float64(5*10+100+250), result.BaseCommission)
	assert.Equal(t, float64(300), result.BonusCommission)
	assert.Equal(t, float64(5*10+100+250+300), result.TotalCommission)
}

func TestComputeCommissionZeroCounts(t *testing.T) {
	result := ComputeCommission(ReferralCounts{}, models.DefaultCommissionRates())

	assert.Equal(t, float64(0), result.BaseCommission)
	assert.Equal(t, float64(0), result.BonusCommission)
	assert.Equal(t, float64(0), result.TotalCommission)
}

func TestComputeCommissionDeterministic(t *testing.T) {
	rates := models.DefaultCommissionRates()
	counts := ReferralCounts{UsersReferred: 7, BrokersReferred: 3, BrokerFirstProperties: 2}

	first := ComputeCommission(counts, rates)
	second := ComputeCommission(counts, rates)

	assert.Equal(t, first, second)
}
