package utils

import (
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(true) returned nil logger")
		}
		_ = logger.Sync()
	})

	t.Run("production mode returns production logger", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(false) returned nil logger")
		}
		_ = logger.Sync()
	})
}

func TestWithRequest(t *testing.T) {
	if WithRequest(nil, "id", "svc") == nil {
		t.Fatal("nil base logger should yield a no-op logger")
	}
	base, err := NewLogger(false)
	if err != nil {
		t.Fatal(err)
	}
	if WithRequest(base, "req-1", "api/radars/run") == nil {
		t.Fatal("expected child logger")
	}
}
