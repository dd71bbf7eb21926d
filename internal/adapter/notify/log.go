package notify

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LogNotifier writes every notification to the service log.
type LogNotifier struct{ log *zap.Logger }

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log.Named("notify")}
}

func (l *LogNotifier) NotifyLoanStatus(_ context.Context, userID, loanID, status string, data map[string]string) error {
	l.log.Info("loan status", zap.String("user_id", userID), zap.String("loan_id", loanID),
		zap.String("status", status), zap.Any("data", data))
	return nil
}

func (l *LogNotifier) NotifyGuarantorRequest(_ context.Context, userID, loanID, borrowerName string, amount decimal.Decimal, position, totalRequired int) error {
	l.log.Info("guarantor request", zap.String("user_id", userID), zap.String("loan_id", loanID),
		zap.String("borrower", borrowerName), zap.String("amount", amount.StringFixed(2)),
		zap.Int("position", position), zap.Int("required", totalRequired))
	return nil
}

func (l *LogNotifier) NotifyGuarantorConfirmed(_ context.Context, borrowerID, loanID, guarantorName string, confirmedCount, totalRequired int) error {
	l.log.Info("guarantor confirmed", zap.String("user_id", borrowerID), zap.String("loan_id", loanID),
		zap.String("guarantor", guarantorName), zap.Int("confirmed", confirmedCount), zap.Int("required", totalRequired))
	return nil
}
