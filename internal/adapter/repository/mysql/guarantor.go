package mysql

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	guarantorDomain "cooploan-backend/internal/domain/guarantor"
	loanDomain "cooploan-backend/internal/domain/loan"
)

type GuarantorRepository struct{ db *gorm.DB }

func NewGuarantorRepository(db *gorm.DB) *GuarantorRepository {
	return &GuarantorRepository{db: db}
}

func (r *GuarantorRepository) Create(ctx context.Context, c *guarantorDomain.Confirmation) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, "guarantor confirmation")
}

func (r *GuarantorRepository) ListByLoan(ctx context.Context, loanID uint64) ([]guarantorDomain.Confirmation, error) {
	var out []guarantorDomain.Confirmation
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("position ASC").Find(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "guarantor confirmation")
	}
	return out, nil
}

func (r *GuarantorRepository) GetByLoanAndGuarantor(ctx context.Context, loanID uint64, guarantorID string) (*guarantorDomain.Confirmation, error) {
	var out guarantorDomain.Confirmation
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND guarantor_id = ?", loanID, guarantorID).
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "guarantor confirmation")
	}
	return &out, nil
}

func (r *GuarantorRepository) MaxPosition(ctx context.Context, loanID uint64) (int, error) {
	var pos int
	err := r.db.WithContext(ctx).
		Model(&guarantorDomain.Confirmation{}).
		Select("COALESCE(MAX(position), 0)").
		Where("loan_id = ?", loanID).
		Row().
		Scan(&pos)
	return pos, translate(err, "guarantor confirmation")
}

func (r *GuarantorRepository) CountByStatus(ctx context.Context, loanID uint64, status guarantorDomain.Status) (int, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&guarantorDomain.Confirmation{}).
		Where("loan_id = ? AND status = ?", loanID, status).
		Count(&n)
	return int(n), translate(res.Error, "guarantor confirmation")
}

func (r *GuarantorRepository) UpdateStatusByLoan(ctx context.Context, loanID uint64, from, to guarantorDomain.Status) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&guarantorDomain.Confirmation{}).
		Where("loan_id = ? AND status = ?", loanID, from).
		Update("status", to)
	return res.RowsAffected, translate(res.Error, "guarantor confirmation")
}

func (r *GuarantorRepository) SumExposure(ctx context.Context, guarantorID string, states []loanDomain.State) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Table("guarantor_confirmations AS gc").
		Select("COALESCE(SUM(l.amount), 0)").
		Joins("JOIN loans l ON l.id = gc.loan_id").
		Where("gc.guarantor_id = ? AND gc.status = ? AND l.state IN ?",
			guarantorID, guarantorDomain.StatusConfirmed, stateStrings(states)).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, translate(err, "guarantor confirmation")
	}
	return sum, nil
}
