package utils

import "testing"

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
	}{
		{"debug mode returns development logger", true},
		{"production mode returns production logger", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.debug)
			if err != nil {
				t.Fatalf("NewLogger(%v) error: %v", tt.debug, err)
			}
			if logger == nil {
				t.Fatalf("NewLogger(%v) returned nil logger", tt.debug)
			}
			if tt.debug != logger.Core().Enabled(-1) {
				t.Errorf("NewLogger(%v) debug level enabled = %v", tt.debug, !tt.debug)
			}
			_ = logger.Sync()
		})
	}
}
