package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cooploan-backend/internal/adapter/identity"
	"cooploan-backend/internal/usecase/exposure"
	"cooploan-backend/internal/usecase/loan"
)

type LoanHandler struct {
	uc       *loan.Usecase
	exposure *exposure.Usecase
	ids      identity.Provider
	log      *zap.Logger
}

func NewLoanHandler(uc *loan.Usecase, exp *exposure.Usecase, ids identity.Provider, log *zap.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, exposure: exp, ids: ids, log: orNop(log)}
}

type applyReq struct {
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,dec2"`
	TenorMonths int             `json:"tenor_months" validate:"required,gt=0"`
	Purpose     string          `json:"purpose" validate:"required,max=500"`
}

type inviteReq struct {
	GuarantorID string `json:"guarantor_id" validate:"required,hex32"`
}

type redeemReq struct {
	QR                string `json:"qr" validate:"required_without=Payload"`
	Payload           string `json:"payload" validate:"required_without=QR"`
	Signature         string `json:"signature" validate:"required_with=Payload"`
	BiometricVerified bool   `json:"biometric_verified"`
}

type repayReq struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0,dec2"`
}

type rolloverReq struct {
	Reason   string `json:"reason" validate:"required,max=500"`
	NewTenor int    `json:"new_tenor" validate:"omitempty,gt=0"`
}

func (h *LoanHandler) Apply(c echo.Context) error {
	var req applyReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.uc.Apply(c.Request().Context(), loan.ApplyInput{
		BorrowerID:  caller(c),
		Amount:      req.Amount,
		TenorMonths: req.TenorMonths,
		Purpose:     req.Purpose,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *LoanHandler) List(c echo.Context) error {
	out, err := h.uc.ListForBorrower(c.Request().Context(), caller(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": out})
}

// canView lets loan officers and the loan's own parties through.
func (h *LoanHandler) canView(c echo.Context) error {
	ctx := c.Request().Context()
	uid := caller(c)
	if h.ids.HasPermission(ctx, uid, identity.PermReviewLoans) {
		return nil
	}
	return h.uc.CheckParty(ctx, c.Param("loan_id"), uid)
}

func (h *LoanHandler) Get(c echo.Context) error {
	if err := h.canView(c); err != nil {
		return writeError(c, h.log, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) RefreshQR(c echo.Context) error {
	tok, err := h.uc.RefreshToken(c.Request().Context(), c.Param("loan_id"), caller(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, tok)
}

func (h *LoanHandler) Invite(c echo.Context) error {
	var req inviteReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.uc.InviteGuarantor(c.Request().Context(), c.Param("loan_id"), caller(c), req.GuarantorID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoanHandler) Guarantors(c echo.Context) error {
	if err := h.canView(c); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Guarantors(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"guarantors": out})
}

func (h *LoanHandler) Redeem(c echo.Context) error {
	var req redeemReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.uc.RedeemToken(c.Request().Context(), loan.RedeemInput{
		QR:                req.QR,
		Payload:           req.Payload,
		Signature:         req.Signature,
		GuarantorID:       caller(c),
		BiometricVerified: req.BiometricVerified,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *LoanHandler) Repay(c echo.Context) error {
	var req repayReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.uc.Repay(c.Request().Context(), c.Param("loan_id"), caller(c), req.Amount)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoanHandler) Rollover(c echo.Context) error {
	var req rolloverReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	dto, err := h.uc.RequestRollover(c.Request().Context(), loan.RolloverInput{
		LoanID:      c.Param("loan_id"),
		RequesterID: caller(c),
		Reason:      req.Reason,
		NewTenor:    req.NewTenor,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) MyExposure(c echo.Context) error {
	snap, err := h.exposure.Snapshot(c.Request().Context(), caller(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, snap)
}
