package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	cases := []struct {
		level, env string
		wantErr    bool
		debug      bool
	}{
		{"info", "production", false, false},
		{"debug", "development", false, true},
		{"loud", "production", true, false},
	}
	for _, tc := range cases {
		l, err := New(tc.level, tc.env)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.level)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.level, err)
		}
		if got := l.Core().Enabled(zap.DebugLevel); got != tc.debug {
			t.Fatalf("%s/%s: debug enabled=%v", tc.level, tc.env, got)
		}
	}
}
