package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cooploan-backend/internal/domain/feature"
	"cooploan-backend/internal/domain/guarantor"
	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/member"
	"cooploan-backend/internal/domain/wallet"
)

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&member.Member{},
		&wallet.Wallet{},
		&wallet.Transaction{},
		&loan.Loan{},
		&guarantor.Confirmation{},
		&feature.Flag{},
	}
}

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenGormWithDialector opens, tunes the pool and pings. TranslateError is on so
// unique violations surface as gorm.ErrDuplicatedKey on every driver.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Warn),
		TranslateError:       true,
		DisableAutomaticPing: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	zap.L().Info("gorm: connected", zap.String("dialect", dial.Name()))
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
