package mysql

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	walletDomain "cooploan-backend/internal/domain/wallet"
)

// sqlite has no row locks, so the locking reads are checked against the SQL
// the mysql dialect renders.
func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return gdb, mock
}

func TestForUpdateReadsTakeRowLocks(t *testing.T) {
	tests := []struct {
		name  string
		query string
		cols  []string
		row   []driver.Value
		run   func(ctx context.Context, db *gorm.DB) error
	}{
		{
			name:  "loan",
			query: "SELECT \\* FROM `loans` WHERE loan_id = \\? .*FOR UPDATE",
			cols:  []string{"id", "loan_id"},
			row:   []driver.Value{1, "L1"},
			run: func(ctx context.Context, db *gorm.DB) error {
				_, err := NewLoanRepository(db).GetByLoanIDForUpdate(ctx, "L1")
				return err
			},
		},
		{
			name:  "member",
			query: "SELECT \\* FROM `members` WHERE member_id = \\? .*FOR UPDATE",
			cols:  []string{"id", "member_id"},
			row:   []driver.Value{1, "M1"},
			run: func(ctx context.Context, db *gorm.DB) error {
				_, err := NewMemberRepository(db).GetByMemberIDForUpdate(ctx, "M1")
				return err
			},
		},
		{
			name:  "wallet",
			query: "SELECT \\* FROM `wallets` WHERE user_id = \\? AND type = \\? .*FOR UPDATE",
			cols:  []string{"id", "user_id", "type"},
			row:   []driver.Value{1, "M1", "savings"},
			run: func(ctx context.Context, db *gorm.DB) error {
				_, err := NewWalletRepository(db).GetForUpdate(ctx, "M1", walletDomain.TypeSavings)
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, mock := mockDB(t)
			mock.ExpectQuery(tt.query).WillReturnRows(sqlmock.NewRows(tt.cols).AddRow(tt.row...))

			if err := tt.run(context.Background(), gdb); err != nil {
				t.Fatalf("locking read: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}
