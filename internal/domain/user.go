package domain

import "time"

type UserType string

const (
	UserTypeTenant   UserType = "TENANT"
	UserTypeLandlord UserType = "LANDLORD"
)

type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "PENDING"
	AccountStatusApproved AccountStatus = "APPROVED"
	AccountStatusRejected AccountStatus = "REJECTED"
)

type User struct {
	ID            int32         `json:"id" db:"id"`
	Email         string        `json:"email" db:"email"`
	PasswordHash  string        `json:"-" db:"password_hash"`
	FullName      string        `json:"full_name" db:"full_name"`
	Phone         string        `json:"phone" db:"phone"`
	UserType      UserType      `json:"user_type" db:"user_type"`
	Role          Role          `json:"role" db:"role"`
	AccountStatus AccountStatus `json:"account_status" db:"account_status"`

	IsCompany        bool   `json:"is_company" db:"is_company"`
	CompanyName      string `json:"company_name,omitempty" db:"company_name"`
	CompanyTaxID     string `json:"company_tax_id,omitempty" db:"company_tax_id"`
	CompanyDocuments string `json:"company_documents,omitempty" db:"company_documents"`
	ProfilePicture   string `json:"profile_picture,omitempty" db:"profile_picture"`
	BIDocument       string `json:"bi_document,omitempty" db:"bi_document"`
	BIValidated      bool   `json:"bi_validated" db:"bi_validated"`

	ApprovedBy      *int32     `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	RejectedBy      *int32     `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// InitialAccountStatus decides the status a freshly registered account starts in.
// Landlords and companies wait for staff validation.
func InitialAccountStatus(userType UserType, isCompany bool) AccountStatus {
	if userType == UserTypeLandlord || isCompany {
		return AccountStatusPending
	}
	return AccountStatusApproved
}

func (u *User) IsApproved() bool {
	return u.AccountStatus == AccountStatusApproved
}

func (u *User) IsLandlord() bool {
	return u.UserType == UserTypeLandlord
}

func (u *User) IsTenant() bool {
	return u.UserType == UserTypeTenant
}

// IsStaff reports whether the user holds any moderation tier.
func (u *User) IsStaff() bool {
	return u.Role.Level() >= RoleModerator.Level()
}

type UserFilter struct {
	Role           Role
	UserType       UserType
	AccountStatus  AccountStatus
	Search         string
	IncludeDeleted bool
}

type BroadcastAudience string

const (
	AudienceAll       BroadcastAudience = "all"
	AudienceLandlords BroadcastAudience = "landlords"
	AudienceTenants   BroadcastAudience = "tenants"
	AudienceStaff     BroadcastAudience = "staff"
)

func (a BroadcastAudience) Valid() bool {
	switch a {
	case AudienceAll, AudienceLandlords, AudienceTenants, AudienceStaff:
		return true
	}
	return false
}
