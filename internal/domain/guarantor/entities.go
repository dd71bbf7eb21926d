package guarantor

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusReleased  Status = "released"
)

// Confirmation links one guarantor to one loan.
type Confirmation struct {
	ID                uint64     `gorm:"primaryKey;column:id" json:"-"`
	LoanID            uint64     `gorm:"column:loan_id;not null;uniqueIndex:ux_gc_loan_guarantor;uniqueIndex:ux_gc_loan_position" json:"-"`
	GuarantorID       string     `gorm:"column:guarantor_id;size:32;not null;uniqueIndex:ux_gc_loan_guarantor;index:idx_gc_guarantor_status" json:"guarantor_id"`
	Position          int        `gorm:"column:position;not null;uniqueIndex:ux_gc_loan_position" json:"position"`
	Status            Status     `gorm:"column:status;size:16;index:idx_gc_guarantor_status" json:"status"`
	ConfirmedAt       *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	BiometricVerified bool       `gorm:"column:biometric_verified" json:"biometric_verified"`
	Signature         string     `gorm:"column:signature;size:64" json:"signature"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Confirmation) TableName() string { return "guarantor_confirmations" }
