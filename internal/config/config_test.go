package config

import (
	"strings"
	"testing"
	"time"
)

func setBase(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("QR_SECRET", "qr-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setBase(t)
	c := Load()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if c.QRTTL != 7*24*time.Hour || c.ConfirmMaxAge != 15*time.Minute {
		t.Fatalf("token ttls = %v/%v", c.QRTTL, c.ConfirmMaxAge)
	}
	if c.IdempotencyTTL() != 5*time.Minute {
		t.Fatalf("idempotency ttl = %v", c.IdempotencyTTL())
	}
	p := c.LoanPolicy()
	if p.GuarantorsRequired != 3 || p.DefaultGrace != 30*24*time.Hour || len(p.Rates) != 4 {
		t.Fatalf("policy = %+v", p)
	}
	if len(c.KafkaBrokers) != 0 {
		t.Fatalf("kafka is off unless brokers are set, got %v", c.KafkaBrokers)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setBase(t)
	t.Setenv("LOAN_GUARANTORS_REQUIRED", "2")
	t.Setenv("LOAN_MIN_AMOUNT", "25000")
	t.Setenv("LOAN_DEFAULT_GRACE_DAYS", "7")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("QR_TTL", "2h")
	t.Setenv("REDIS_DB", "nope")

	c := Load()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	p := c.LoanPolicy()
	if p.GuarantorsRequired != 2 || p.MinAmount.String() != "25000" || p.DefaultGrace != 7*24*time.Hour {
		t.Fatalf("policy = %+v", p)
	}
	if strings.Join(c.KafkaBrokers, "|") != "k1:9092|k2:9092" {
		t.Fatalf("brokers = %q", c.KafkaBrokers)
	}
	if c.QRTTL != 2*time.Hour || c.RedisDB != 0 {
		t.Fatalf("qr ttl=%v redis db=%d", c.QRTTL, c.RedisDB)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"no secrets", map[string]string{"JWT_SECRET": "", "QR_SECRET": ""}, "JWT_SECRET"},
		{"shared secret", map[string]string{"QR_SECRET": "jwt-secret"}, "must differ"},
		{"bad port", map[string]string{"MYSQL_PORT": "not-a-port"}, "MYSQL_PORT"},
		{"zero guarantors", map[string]string{"LOAN_GUARANTORS_REQUIRED": "0"}, "GUARANTORS"},
		{"fee too high", map[string]string{"LOAN_PROCESSING_FEE_RATE": "1.5"}, "FEE_RATE"},
		{"zero minimum", map[string]string{"LOAN_MIN_AMOUNT": "0"}, "MIN_AMOUNT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBase(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			err := Load().Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	c := &Config{MySQLUser: "u", MySQLPass: "p", MySQLHost: "db", MySQLPort: "3306", MySQLDB: "coop"}
	if got := c.MySQLDSN(); !strings.HasPrefix(got, "u:p@tcp(db:3306)/coop?") || !strings.Contains(got, "parseTime=true") {
		t.Fatalf("dsn = %s", got)
	}
}
