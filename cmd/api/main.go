package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"cooploan-backend/internal/adapter/audit"
	"cooploan-backend/internal/adapter/dispatch"
	httpadp "cooploan-backend/internal/adapter/http"
	"cooploan-backend/internal/adapter/identity"
	mw "cooploan-backend/internal/adapter/middleware"
	"cooploan-backend/internal/adapter/notify"
	"cooploan-backend/internal/adapter/realtime"
	"cooploan-backend/internal/adapter/repository/mysql"
	"cooploan-backend/internal/config"
	"cooploan-backend/internal/domain/event"
	"cooploan-backend/internal/infrastructure/cache"
	"cooploan-backend/internal/infrastructure/db"
	"cooploan-backend/internal/infrastructure/logger"
	"cooploan-backend/internal/infrastructure/queue"
	"cooploan-backend/internal/jobs"
	"cooploan-backend/internal/usecase/exposure"
	"cooploan-backend/internal/usecase/feature"
	"cooploan-backend/internal/usecase/ledger"
	"cooploan-backend/internal/usecase/loan"
	"cooploan-backend/internal/usecase/member"
	"cooploan-backend/internal/usecase/token"
)

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		zl.Fatal("mysql", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}

	rdb, err := cache.OpenRedis(context.Background(), cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPool,
	})
	if err != nil {
		zl.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	sqlDB, err := gdb.DB()
	if err != nil {
		zl.Fatal("mysql handle", zap.Error(err))
	}

	// repositories
	members := mysql.NewMemberRepository(gdb)
	wallets := mysql.NewWalletRepository(gdb)
	txs := mysql.NewTransactionRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	// events
	inbox := notify.NewInbox(rdb, cfg.InboxTTL)
	subs := []event.Subscriber{
		notify.NewSubscriber(notify.Multi{notify.NewLogNotifier(zl), inbox}),
		audit.NewSubscriber(audit.NewZapSink(zl)),
	}
	if len(cfg.KafkaBrokers) > 0 {
		kw := queue.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, func(err error) {
			zl.Warn("kafka delivery failed", zap.Error(err))
		})
		defer kw.Close()
		subs = append(subs, realtime.NewPublisher(kw))
	}
	bus := dispatch.NewBus(zl, subs...)

	// usecases
	jwt := identity.NewJWT(cfg.JWTSecret, cfg.JWTIssuer, time.Hour)
	features := feature.NewUsecase(mysql.NewFeatureRepository(gdb), rdb, cfg.FeatureCacheTTL, jwt, zl)
	tracker := exposure.NewTracker(cfg.ExposurePolicy())
	loans := loan.NewUsecase(loan.Deps{
		UoW:        tx,
		Loans:      mysql.NewLoanRepository(gdb),
		Members:    members,
		Guarantors: mysql.NewGuarantorRepository(gdb),
		Tokens:     token.NewService(cfg.QRSecret, cfg.QRTTL, cfg.ConfirmMaxAge, nil),
		Exposure:   tracker,
		Gate:       features,
		Events:     bus,
		Policy:     cfg.LoanPolicy(),
		Log:        zl,
	})
	led := ledger.NewUsecase(wallets, txs, tx, zl)
	mem := member.NewUsecase(members, tx, zl)

	// jobs
	sweeper := jobs.NewSweeper(loans, cfg.SweepTimeout, zl)
	if err := sweeper.Schedule(cfg.SweepCron); err != nil {
		zl.Fatal("sweeper schedule", zap.String("spec", cfg.SweepCron), zap.Error(err))
	}
	sweeper.Start()

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.RequestID(), middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				zl.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			zl.Info("request", fields...)
			return nil
		},
	}))

	httpadp.Register(e, httpadp.Routes{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "mysql", Ping: sqlDB.PingContext},
			httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		Wallets:     httpadp.NewWalletHandler(led, zl),
		Loans:       httpadp.NewLoanHandler(loans, exposure.NewUsecase(tracker, tx), jwt, zl),
		Members:     httpadp.NewMemberHandler(mem, features, inbox, zl),
		Admin:       httpadp.NewAdminHandler(loans, mem, features, led, zl),
		Auth:        mw.Auth(jwt),
		Idempotency: mw.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), zl),
		IDs:         jwt,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.AppPort
		zl.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
	sweeper.Stop(shutdownCtx)
}
