package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cooploan-backend/internal/usecase/exposure"
	"cooploan-backend/internal/usecase/loan"
)

type Config struct {
	AppPort string
	AppEnv  string

	LogLevel string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisPass string
	RedisDB   int
	RedisPool int

	IdempTTLSecs int

	JWTSecret string
	JWTIssuer string

	QRSecret        string
	QRTTL           time.Duration
	ConfirmMaxAge   time.Duration
	FeatureCacheTTL time.Duration
	InboxTTL        time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	SweepCron    string
	SweepTimeout time.Duration

	MinLoanAmount      decimal.Decimal
	ProcessingFeeRate  decimal.Decimal
	GuarantorsRequired int
	MinContributions   int64
	DefaultGraceDays   int
	ApplicationsFlag   string
	RolloverFlag       string
	GuarantorFloor     decimal.Decimal
	GuarantorMultiple  decimal.Decimal
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getdur(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := time.ParseDuration(v); err == nil {
			return n
		}
	}
	return d
}

func getdec(k string, d decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(k); v != "" {
		if n, err := decimal.NewFromString(v); err == nil {
			return n
		}
	}
	return d
}

func getlist(k, d string) []string {
	var out []string
	for _, s := range strings.Split(getenv(k, d), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func Load() *Config {
	lp := loan.DefaultPolicy()
	ep := exposure.DefaultPolicy()
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		AppEnv:    getenv("APP_ENV", "development"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "cooploan"),
		MySQLUser: getenv("MYSQL_USER", "cooploan"),
		MySQLPass: getenv("MYSQL_PASS", "cooploan"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisPass:    os.Getenv("REDIS_PASS"),
		RedisDB:      getint("REDIS_DB", 0),
		RedisPool:    getint("REDIS_POOL_SIZE", 20),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getenv("JWT_ISSUER", ""),

		QRSecret:        os.Getenv("QR_SECRET"),
		QRTTL:           getdur("QR_TTL", 7*24*time.Hour),
		ConfirmMaxAge:   getdur("CONFIRM_MAX_AGE", 15*time.Minute),
		FeatureCacheTTL: getdur("FEATURE_CACHE_TTL", time.Minute),
		InboxTTL:        getdur("INBOX_TTL", 30*24*time.Hour),

		KafkaBrokers: getlist("KAFKA_BROKERS", ""),
		KafkaTopic:   getenv("KAFKA_TOPIC", "loan-events"),

		SweepCron:    getenv("SWEEP_CRON", "0 2 * * *"),
		SweepTimeout: getdur("SWEEP_TIMEOUT", 5*time.Minute),

		MinLoanAmount:      getdec("LOAN_MIN_AMOUNT", lp.MinAmount),
		ProcessingFeeRate:  getdec("LOAN_PROCESSING_FEE_RATE", lp.ProcessingFeeRate),
		GuarantorsRequired: getint("LOAN_GUARANTORS_REQUIRED", lp.GuarantorsRequired),
		MinContributions:   int64(getint("LOAN_MIN_CONTRIBUTIONS", int(lp.MinContributions))),
		DefaultGraceDays:   getint("LOAN_DEFAULT_GRACE_DAYS", int(lp.DefaultGrace/(24*time.Hour))),
		ApplicationsFlag:   getenv("LOAN_APPLICATIONS_FLAG", lp.ApplicationsFlag),
		RolloverFlag:       getenv("LOAN_ROLLOVER_FLAG", lp.RolloverFlag),
		GuarantorFloor:     getdec("GUARANTOR_LIMIT_FLOOR", ep.Floor),
		GuarantorMultiple:  getdec("GUARANTOR_LIMIT_MULTIPLIER", ep.Multiplier),
	}
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.JWTSecret == "" || c.QRSecret == "" {
		return errors.New("missing JWT_SECRET or QR_SECRET")
	}
	if c.JWTSecret == c.QRSecret {
		return errors.New("JWT_SECRET and QR_SECRET must differ")
	}
	if c.QRTTL <= 0 || c.ConfirmMaxAge <= 0 {
		return errors.New("QR_TTL and CONFIRM_MAX_AGE must be positive")
	}
	if !c.MinLoanAmount.IsPositive() {
		return errors.New("LOAN_MIN_AMOUNT must be positive")
	}
	if c.ProcessingFeeRate.IsNegative() || c.ProcessingFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("LOAN_PROCESSING_FEE_RATE %s out of range [0,1)", c.ProcessingFeeRate)
	}
	if c.GuarantorsRequired < 1 {
		return errors.New("LOAN_GUARANTORS_REQUIRED must be at least 1")
	}
	if c.MinContributions < 0 || c.DefaultGraceDays < 0 {
		return errors.New("LOAN_MIN_CONTRIBUTIONS and LOAN_DEFAULT_GRACE_DAYS must not be negative")
	}
	if c.GuarantorFloor.IsNegative() || c.GuarantorMultiple.IsNegative() {
		return errors.New("guarantor limit floor and multiplier must not be negative")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// LoanPolicy is the default policy with the env overrides applied. The rate
// table is not configurable.
func (c *Config) LoanPolicy() loan.Policy {
	p := loan.DefaultPolicy()
	p.MinAmount = c.MinLoanAmount
	p.ProcessingFeeRate = c.ProcessingFeeRate
	p.GuarantorsRequired = c.GuarantorsRequired
	p.MinContributions = c.MinContributions
	p.DefaultGrace = time.Duration(c.DefaultGraceDays) * 24 * time.Hour
	p.ApplicationsFlag = c.ApplicationsFlag
	p.RolloverFlag = c.RolloverFlag
	return p
}

func (c *Config) ExposurePolicy() exposure.Policy {
	return exposure.Policy{Floor: c.GuarantorFloor, Multiplier: c.GuarantorMultiple}
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
