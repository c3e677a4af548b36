// models/auth.go

package models

// RegisterRequest is the user signup payload. ReferralCode is optional;
// when present the referral service links the signup to an employee
// best-effort, without ever failing the registration itself.
type RegisterRequest struct {
	Email         string   `json:"email" validate:"required,email"`
	Password      string   `json:"password" validate:"required,min=6"`
	FullName      string   `json:"fullName" validate:"required"`
	ContactNumber string   `json:"contactNumber" validate:"required"`
	Location      string   `json:"location" validate:"required"`
	PropertyType  []string `json:"propertyType,omitempty"`
	ReferralCode  string   `json:"referralCode,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FullName      string   `json:"fullName,omitempty"`
	ContactNumber string   `json:"contactNumber,omitempty"`
	Location      string   `json:"location,omitempty"`
	PropertyType  []string `json:"propertyType,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// CreateEmployeeRequest is the admin payload for onboarding an employee.
// Targets and CommissionRates fall back to the defaults when omitted.
type CreateEmployeeRequest struct {
	EmployeeName    string           `json:"employeeName" validate:"required"`
	Email           string           `json:"email" validate:"required,email"`
	Phone           string           `json:"phone" validate:"required"`
	Password        string           `json:"password" validate:"required,min=6"`
	Role            string           `json:"role,omitempty"`
	Targets         *EmployeeTargets `json:"targets,omitempty"`
	CommissionRates *CommissionRates `json:"commissionRates,omitempty"`
	BankDetails     *BankDetails     `json:"bankDetails,omitempty"`
	Address         *Address         `json:"address,omitempty"`
}

// MarkPaidRequest settles one employee period
type MarkPaidRequest struct {
	Year             int     `json:"year" validate:"required"`
	Month            int     `json:"month" validate:"required,min=1,max=12"`
	PaidAmount       float64 `json:"paidAmount" validate:"required"`
	PaymentReference string  `json:"paymentReference,omitempty"`
}
