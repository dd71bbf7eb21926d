package http

import (
	"github.com/labstack/echo/v4"

	"cooploan-backend/internal/adapter/identity"
	mw "cooploan-backend/internal/adapter/middleware"
)

type Routes struct {
	Health  *Handler
	Wallets *WalletHandler
	Loans   *LoanHandler
	Members *MemberHandler
	Admin   *AdminHandler

	// Auth authenticates every route but /health; Idempotency guards the
	// mutating ones and must run after Auth.
	Auth        echo.MiddlewareFunc
	Idempotency echo.MiddlewareFunc
	IDs         identity.Provider
}

func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)

	api := e.Group("", r.Auth, r.Idempotency)

	api.GET("/wallets/:type/balance", r.Wallets.Balance)
	api.GET("/wallets/:type/transactions", r.Wallets.Transactions)
	api.POST("/wallets/withdrawals", r.Wallets.Withdraw)
	api.POST("/wallets/transfers", r.Wallets.Transfer)

	api.POST("/loans", r.Loans.Apply)
	api.GET("/loans", r.Loans.List)
	api.GET("/loans/:loan_id", r.Loans.Get)
	api.POST("/loans/:loan_id/qr/refresh", r.Loans.RefreshQR)
	api.POST("/loans/:loan_id/guarantors/invite", r.Loans.Invite)
	api.GET("/loans/:loan_id/guarantors", r.Loans.Guarantors)
	api.POST("/guarantees/redeem", r.Loans.Redeem)
	api.POST("/loans/:loan_id/repayments", r.Loans.Repay)
	api.POST("/loans/:loan_id/rollover", r.Loans.Rollover)

	api.POST("/members/me/sync", r.Members.Sync)
	api.GET("/members/me", r.Members.Me)
	api.GET("/members/me/notifications", r.Members.Notifications)
	api.GET("/members/me/exposure", r.Loans.MyExposure)
	api.GET("/features/:name", r.Members.Feature)

	perm := func(p string) echo.MiddlewareFunc { return mw.RequirePermission(r.IDs, p) }
	admin := api.Group("/admin")
	admin.POST("/loans/:loan_id/review", r.Admin.Review, perm(identity.PermReviewLoans))
	admin.POST("/loans/:loan_id/guarantors", r.Admin.ConfirmGuarantor, perm(identity.PermReviewLoans))
	admin.POST("/loans/:loan_id/approve", r.Admin.Approve, perm(identity.PermApproveLoans))
	admin.POST("/loans/:loan_id/reject", r.Admin.Reject, perm(identity.PermApproveLoans))
	admin.POST("/loans/:loan_id/default", r.Admin.Default, perm(identity.PermApproveLoans))
	admin.POST("/loans/:loan_id/rollover/resolve", r.Admin.ResolveRollover, perm(identity.PermApproveLoans))
	admin.GET("/features", r.Admin.ListFeatures, perm(identity.PermManageFeatures))
	admin.PUT("/features/:name", r.Admin.UpsertFeature, perm(identity.PermManageFeatures))
	admin.PUT("/members/:member_id", r.Admin.UpdateMember, perm(identity.PermManageMembers))
	admin.POST("/members/:member_id/contributions", r.Admin.PostContribution, perm(identity.PermPostContributions))
	admin.POST("/withdrawals/:tx_id/settle", r.Admin.SettleWithdrawal, perm(identity.PermSettleWithdrawals))
	admin.GET("/members/:member_id/wallets/:type/reconcile", r.Admin.Reconcile, perm(identity.PermSettleWithdrawals))
}
