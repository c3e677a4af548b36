package services

import "github.com/snkproperties/snkprop_backend/models"

// ReferralCounts is the slice of a ledger entry the commission calculator
// reads. Decoupled from ReferralStats so the calculator stays pure.
type ReferralCounts struct {
	UsersReferred         int
	BrokersReferred       int
	BrokerFirstProperties int
}

// CommissionBreakdown itemizes how a period's commission was computed
type CommissionBreakdown struct {
	UsersReferred         int     `json:"usersReferred"`
	BrokersReferred       int     `json:"brokersReferred"`
	BrokerFirstProperties int     `json:"brokerFirstProperties"`
	UserCommission        float64 `json:"userCommission"`
	BrokerCommission      float64 `json:"brokerCommission"`
	FirstPropertyBonus    float64 `json:"firstPropertyBonus"`
	UserTargetMet         bool    `json:"userTargetMet"`
	BrokerTargetMet       bool    `json:"brokerTargetMet"`
}

// CommissionResult is the calculator output. Callers persist it; the
// calculator never touches storage.
type CommissionResult struct {
	BaseCommission  float64             `json:"baseCommission"`
	BonusCommission float64             `json:"bonusCommission"`
	TotalCommission float64             `json:"totalCommission"`
	Breakdown       CommissionBreakdown `json:"breakdown"`
}

// ComputeCommission translates period counters and a rate card into base
// commission, bonus commission and a breakdown. Deterministic and free of
// side effects. Threshold bonuses are all-or-nothing: each pays exactly
// once when its counter reaches the achievement mark, with no proration.
func ComputeCommission(counts ReferralCounts, rates models.CommissionRates) CommissionResult {
	userCommission := float64(counts.UsersReferred) * rates.UserRegistration
	brokerCommission := float64(counts.BrokersReferred) * rates.BrokerRegistration
	firstPropertyBonus := float64(counts.BrokerFirstProperties) * rates.BrokerFirstProperty
	base := userCommission + brokerCommission + firstPropertyBonus

	userTargetMet := counts.UsersReferred >= rates.MonthlyBonus.UserTarget.Achievement
	brokerTargetMet := counts.BrokersReferred >= rates.MonthlyBonus.BrokerTarget.Achievement

	var bonus float64
	if userTargetMet {
		bonus += rates.MonthlyBonus.UserTarget.Bonus
	}
	if brokerTargetMet {
		bonus += rates.MonthlyBonus.BrokerTarget.Bonus
	}

	return CommissionResult{
		BaseCommission:  base,
		BonusCommission: bonus,
		TotalCommission: base + bonus,
		Breakdown: CommissionBreakdown{
			UsersReferred:         counts.UsersReferred,
			BrokersReferred:       counts.BrokersReferred,
			BrokerFirstProperties: counts.BrokerFirstProperties,
			UserCommission:        userCommission,
			BrokerCommission:      brokerCommission,
			FirstPropertyBonus:    firstPropertyBonus,
			UserTargetMet:         userTargetMet,
			BrokerTargetMet:       brokerTargetMet,
		},
	}
}
