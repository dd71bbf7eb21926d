package mysql

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cooploan-backend/internal/domain/apperr"
	memberDomain "cooploan-backend/internal/domain/member"
)

type MemberRepository struct{ db *gorm.DB }

func NewMemberRepository(db *gorm.DB) *MemberRepository { return &MemberRepository{db: db} }

func (r *MemberRepository) Create(ctx context.Context, m *memberDomain.Member) error {
	return translate(r.db.WithContext(ctx).Create(m).Error, "member")
}

func (r *MemberRepository) Save(ctx context.Context, m *memberDomain.Member) error {
	return translate(r.db.WithContext(ctx).Save(m).Error, "member")
}

func (r *MemberRepository) GetByMemberID(ctx context.Context, memberID string) (*memberDomain.Member, error) {
	var out memberDomain.Member
	res := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "member")
	}
	return &out, nil
}

func (r *MemberRepository) GetByMemberIDForUpdate(ctx context.Context, memberID string) (*memberDomain.Member, error) {
	var out memberDomain.Member
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("member_id = ?", memberID).
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "member")
	}
	return &out, nil
}

func (r *MemberRepository) AddContribution(ctx context.Context, memberID string, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&memberDomain.Member{}).
		Where("member_id = ?", memberID).
		UpdateColumn("contribution_total", gorm.Expr("contribution_total + ?", amount))
	if res.Error != nil {
		return translate(res.Error, "member")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("member")
	}
	return nil
}
