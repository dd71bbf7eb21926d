package member

import (
	"time"

	"github.com/shopspring/decimal"
)

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

// Member is the local profile of an identity-provider user.
type Member struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	MemberID          string          `gorm:"column:member_id;size:32;uniqueIndex:ux_members_member_id" json:"member_id"`
	Name              string          `gorm:"column:name;size:128" json:"name"`
	Region            string          `gorm:"column:region;size:64" json:"region"`
	KYCStatus         KYCStatus       `gorm:"column:kyc_status;size:16;default:'pending'" json:"kyc_status"`
	GuarantorLimit    decimal.Decimal `gorm:"column:guarantor_limit;type:decimal(18,2);default:0" json:"guarantor_limit"`
	ContributionTotal decimal.Decimal `gorm:"column:contribution_total;type:decimal(18,2);default:0" json:"contribution_total"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string { return "members" }

func (m *Member) Verified() bool { return m.KYCStatus == KYCVerified }

func ValidKYCStatus(s KYCStatus) bool {
	switch s {
	case KYCPending, KYCVerified, KYCRejected:
		return true
	}
	return false
}
