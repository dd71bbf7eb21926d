// Package member keeps the local profile of identity users: KYC status and
// guarantor limits.
package member

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/member"
	"cooploan-backend/internal/domain/uow"
)

type RegisterInput struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Region   string `json:"region"`
}

// UpdateInput is the admin change set; nil fields are left alone.
type UpdateInput struct {
	KYCStatus      *member.KYCStatus `json:"kyc_status"`
	GuarantorLimit *decimal.Decimal  `json:"guarantor_limit"`
}

type Usecase struct {
	repo member.Repository
	uow  uow.UnitOfWork
	log  *zap.Logger
}

func NewUsecase(repo member.Repository, tx uow.UnitOfWork, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: repo, uow: tx, log: log.Named("member")}
}

func (u *Usecase) Get(ctx context.Context, memberID string) (*member.Member, error) {
	m, err := u.repo.GetByMemberID(ctx, memberID)
	return m, apperr.Wrap(err)
}

// Register creates the profile on first sight and refreshes name and region
// afterwards. KYC status and limits are never touched here.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*member.Member, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.MemberID == "" || in.Name == "" {
		return nil, apperr.Validation("member_id and name are required")
	}
	var out *member.Member
	err := uow.Retry(ctx, 3, func() error {
		return u.uow.WithinTx(ctx, func(r uow.Repos) error {
			m, err := r.Members.GetByMemberIDForUpdate(ctx, in.MemberID)
			if errors.Is(err, apperr.ErrNotFound) {
				m = &member.Member{MemberID: in.MemberID, Name: in.Name, Region: in.Region, KYCStatus: member.KYCPending}
				if err := r.Members.Create(ctx, m); err != nil {
					return err
				}
				out = m
				return nil
			}
			if err != nil {
				return err
			}
			if m.Name == in.Name && m.Region == in.Region {
				out = m
				return nil
			}
			m.Name, m.Region = in.Name, in.Region
			if err := r.Members.Save(ctx, m); err != nil {
				return err
			}
			out = m
			return nil
		})
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return out, nil
}

func (u *Usecase) SetKYCStatus(ctx context.Context, memberID string, status member.KYCStatus, actorID string) (*member.Member, error) {
	return u.Update(ctx, memberID, UpdateInput{KYCStatus: &status}, actorID)
}

func (u *Usecase) SetGuarantorLimit(ctx context.Context, memberID string, limit decimal.Decimal, actorID string) (*member.Member, error) {
	return u.Update(ctx, memberID, UpdateInput{GuarantorLimit: &limit}, actorID)
}

// Update applies an admin change under the member row lock. A zero limit
// means the limit is derived from contributions.
func (u *Usecase) Update(ctx context.Context, memberID string, in UpdateInput, actorID string) (*member.Member, error) {
	if in.KYCStatus != nil && !member.ValidKYCStatus(*in.KYCStatus) {
		return nil, apperr.Validation("unknown kyc_status " + string(*in.KYCStatus))
	}
	if in.GuarantorLimit != nil {
		l := *in.GuarantorLimit
		if l.IsNegative() || !l.Equal(l.Round(2)) {
			return nil, apperr.ErrInvalidAmount
		}
	}
	var out *member.Member
	err := uow.Retry(ctx, 3, func() error {
		return u.uow.WithinTx(ctx, func(r uow.Repos) error {
			m, err := r.Members.GetByMemberIDForUpdate(ctx, memberID)
			if err != nil {
				return err
			}
			if in.KYCStatus != nil {
				m.KYCStatus = *in.KYCStatus
			}
			if in.GuarantorLimit != nil {
				m.GuarantorLimit = *in.GuarantorLimit
			}
			if err := r.Members.Save(ctx, m); err != nil {
				return err
			}
			out = m
			return nil
		})
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	u.log.Info("member updated", zap.String("member_id", memberID), zap.String("by", actorID),
		zap.String("kyc_status", string(out.KYCStatus)), zap.String("guarantor_limit", out.GuarantorLimit.StringFixed(2)))
	return out, nil
}
