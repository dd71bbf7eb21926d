package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cooploan-backend/internal/domain/wallet"
	"cooploan-backend/internal/usecase/ledger"
)

type WalletHandler struct {
	uc  *ledger.Usecase
	log *zap.Logger
}

func NewWalletHandler(uc *ledger.Usecase, log *zap.Logger) *WalletHandler {
	return &WalletHandler{uc: uc, log: orNop(log)}
}

type withdrawalReq struct {
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,dec2"`
	WalletType  string          `json:"wallet_type" validate:"omitempty,oneof=savings contribution investment"`
	Description string          `json:"description" validate:"max=255"`
}

type transferReq struct {
	From        string          `json:"from" validate:"required,oneof=savings contribution investment"`
	To          string          `json:"to" validate:"required,oneof=savings contribution investment,nefield=From"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,dec2"`
	Description string          `json:"description" validate:"max=255"`
}

func (h *WalletHandler) Balance(c echo.Context) error {
	wt := wallet.Type(c.Param("type"))
	bal, err := h.uc.GetBalance(c.Request().Context(), caller(c), wt)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"wallet_type": wt, "balance": bal})
}

func (h *WalletHandler) Transactions(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 500"})
		}
		limit = n
	}
	txs, err := h.uc.History(c.Request().Context(), caller(c), wallet.Type(c.Param("type")), limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"transactions": txs})
}

func (h *WalletHandler) Withdraw(c echo.Context) error {
	var req withdrawalReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	wt := wallet.TypeSavings
	if req.WalletType != "" {
		wt = wallet.Type(req.WalletType)
	}
	tx, err := h.uc.Debit(c.Request().Context(), caller(c), wt, req.Amount,
		ledger.Meta{Type: wallet.TxWithdrawal, Description: req.Description})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, tx)
}

func (h *WalletHandler) Transfer(c echo.Context) error {
	var req transferReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.uc.Transfer(c.Request().Context(), caller(c), wallet.Type(req.From), wallet.Type(req.To), req.Amount, req.Description)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, res)
}
