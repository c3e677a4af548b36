package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Employee is a sales employee who refers users and brokers onto the
// platform. EmployeeCode and ReferralCode are generated once at creation
// and are globally unique.
type Employee struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	EmployeeCode string             `json:"employeeCode" bson:"employeeCode"` // SNK<year><4 digits>
	EmployeeName string             `json:"employeeName" bson:"employeeName"`
	Email        string             `json:"email" bson:"email"`
	Phone        string             `json:"phone" bson:"phone"`
	ReferralCode string             `json:"referralCode" bson:"referralCode"` // EMP<4 alnum>, stored upper-case
	Password     string             `json:"password,omitempty" bson:"password"`
	JoinDate     time.Time          `json:"joinDate" bson:"joinDate"`
	IsActive     bool               `json:"isActive" bson:"isActive"`
	Role         string             `json:"role" bson:"role"` // "field_agent", "team_lead", "manager"

	Targets         EmployeeTargets `json:"targets" bson:"targets"`
	CommissionRates CommissionRates `json:"commissionRates" bson:"commissionRates"`
	BankDetails     BankDetails     `json:"bankDetails" bson:"bankDetails"`
	Address         *Address        `json:"address,omitempty" bson:"address,omitempty"`

	LastLogin *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// EmployeeTargets holds informational referral goals; the calculator does
// not enforce them.
type EmployeeTargets struct {
	Monthly   TargetPair `json:"monthly" bson:"monthly"`
	Quarterly TargetPair `json:"quarterly" bson:"quarterly"`
}

type TargetPair struct {
	Users   int `json:"users" bson:"users"`
	Brokers int `json:"brokers" bson:"brokers"`
}

// CommissionRates is an employee's commission configuration. Rate lookups
// are always "current", never versioned, so recomputing a past period
// after a rate change reflects the new rates.
type CommissionRates struct {
	UserRegistration    float64      `json:"userRegistration" bson:"userRegistration"`
	BrokerRegistration  float64      `json:"brokerRegistration" bson:"brokerRegistration"`
	BrokerFirstProperty float64      `json:"brokerFirstProperty" bson:"brokerFirstProperty"`
	MonthlyBonus        MonthlyBonus `json:"monthlyBonus" bson:"monthlyBonus"`
}

type MonthlyBonus struct {
	UserTarget   BonusRule `json:"userTarget" bson:"userTarget"`
	BrokerTarget BonusRule `json:"brokerTarget" bson:"brokerTarget"`
}

// BonusRule pays Bonus once per period when the matching counter reaches
// Achievement. All-or-nothing, not prorated.
type BonusRule struct {
	Achievement int     `json:"achievement" bson:"achievement"`
	Bonus       float64 `json:"bonus" bson:"bonus"`
}

type BankDetails struct {
	AccountNumber     string `json:"accountNumber" bson:"accountNumber"`
	IFSCCode          string `json:"ifscCode" bson:"ifscCode"`
	BankName          string `json:"bankName" bson:"bankName"`
	AccountHolderName string `json:"accountHolderName" bson:"accountHolderName"`
}

type Address struct {
	Street  string `json:"street,omitempty" bson:"street,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	Pincode string `json:"pincode,omitempty" bson:"pincode,omitempty"`
}

// DefaultTargets returns the standard referral goals for a new employee
func DefaultTargets() EmployeeTargets {
	return EmployeeTargets{
		Monthly:   TargetPair{Users: 30, Brokers: 10},
		Quarterly: TargetPair{Users: 90, Brokers: 30},
	}
}

// DefaultCommissionRates returns the standard rate card for a new employee
func DefaultCommissionRates() CommissionRates {
	return CommissionRates{
		UserRegistration:    50,
		BrokerRegistration:  200,
		BrokerFirstProperty: 500,
		MonthlyBonus: MonthlyBonus{
			UserTarget:   BonusRule{Achievement: 30, Bonus: 2000},
			BrokerTarget: BonusRule{Achievement: 10, Bonus: 5000},
		},
	}
}
