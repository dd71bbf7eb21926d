package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/wallet"
	"cooploan-backend/internal/usecase/feature"
	"cooploan-backend/internal/usecase/ledger"
	"cooploan-backend/internal/usecase/loan"
	"cooploan-backend/internal/usecase/member"
	"cooploan-backend/pkg/id"
)

// AdminHandler serves the permission-guarded back-office routes.
type AdminHandler struct {
	loans    *loan.Usecase
	members  *member.Usecase
	features *feature.Usecase
	ledger   *ledger.Usecase
	log      *zap.Logger
}

func NewAdminHandler(loans *loan.Usecase, members *member.Usecase, features *feature.Usecase, l *ledger.Usecase, log *zap.Logger) *AdminHandler {
	return &AdminHandler{loans: loans, members: members, features: features, ledger: l, log: orNop(log)}
}

type reasonReq struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type resolveReq struct {
	Approve *bool `json:"approve" validate:"required"`
}

type contributionReq struct {
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,dec2"`
	Reference   string          `json:"reference" validate:"required,max=64"`
	Description string          `json:"description" validate:"max=255"`
}

type assistedConfirmReq struct {
	GuarantorID       string `json:"guarantor_id" validate:"required,hex32"`
	BiometricVerified bool   `json:"biometric_verified"`
}

type settleReq struct {
	Succeeded *bool `json:"succeeded" validate:"required"`
}

func (h *AdminHandler) Review(c echo.Context) error {
	dto, err := h.loans.StartReview(c.Request().Context(), c.Param("loan_id"), caller(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Approve(c echo.Context) error {
	dto, err := h.loans.Approve(c.Request().Context(), c.Param("loan_id"), caller(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Reject(c echo.Context) error {
	var req reasonReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	dto, err := h.loans.Reject(c.Request().Context(), c.Param("loan_id"), caller(c), req.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) Default(c echo.Context) error {
	var req reasonReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	dto, err := h.loans.MarkDefaulted(c.Request().Context(), c.Param("loan_id"), caller(c), req.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) ResolveRollover(c echo.Context) error {
	var req resolveReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	dto, err := h.loans.ResolveRollover(c.Request().Context(), c.Param("loan_id"), caller(c), *req.Approve)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) UpsertFeature(c echo.Context) error {
	var req feature.UpsertInput
	if err := bindValid(c, &req); err != nil {
		return err
	}
	req.Name = c.Param("name")
	f, err := h.features.Upsert(c.Request().Context(), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *AdminHandler) ListFeatures(c echo.Context) error {
	fs, err := h.features.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"features": fs})
}

func (h *AdminHandler) UpdateMember(c echo.Context) error {
	var req member.UpdateInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	m, err := h.members.Update(c.Request().Context(), c.Param("member_id"), req, caller(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) SettleWithdrawal(c echo.Context) error {
	var req settleReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	tx, err := h.ledger.SettleWithdrawal(c.Request().Context(), c.Param("tx_id"), *req.Succeeded)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, tx)
}

func (h *AdminHandler) Reconcile(c echo.Context) error {
	if !id.Valid(c.Param("member_id")) {
		return writeError(c, h.log, apperr.Validation("member_id must be a 32-char hex id"))
	}
	rec, err := h.ledger.Reconcile(c.Request().Context(), c.Param("member_id"), wallet.Type(c.Param("type")))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// PostContribution credits a member's contribution wallet once the payment
// reconciler has matched the incoming payment to reference.
func (h *AdminHandler) PostContribution(c echo.Context) error {
	memberID := c.Param("member_id")
	if !id.Valid(memberID) {
		return writeError(c, h.log, apperr.Validation("member_id must be a 32 char hex id"))
	}
	var req contributionReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	tx, err := h.ledger.Credit(c.Request().Context(), memberID, wallet.TypeContribution, req.Amount,
		ledger.Meta{Type: wallet.TxContribution, Reference: req.Reference, Description: req.Description})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, tx)
}

// ConfirmGuarantor records a guarantor an officer has verified in person.
// Members confirm by redeeming the borrower's QR.
func (h *AdminHandler) ConfirmGuarantor(c echo.Context) error {
	var req assistedConfirmReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.loans.ConfirmGuarantor(c.Request().Context(), loan.ConfirmInput{
		LoanID:            c.Param("loan_id"),
		GuarantorID:       req.GuarantorID,
		BiometricVerified: req.BiometricVerified,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	h.log.Info("guarantor confirmed by officer", zap.String("loan_id", res.LoanID),
		zap.String("guarantor_id", req.GuarantorID), zap.String("officer_id", caller(c)))
	return c.JSON(http.StatusCreated, res)
}
