package schema

import (
	"strings"
	"testing"
)

func TestValidateDefaultValue(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
		errorMsg  string
	}{
		{name: "valid CURRENT_TIMESTAMP", value: "CURRENT_TIMESTAMP"},
		{name: "valid number", value: "0"},
		{name: "valid decimal", value: "0.00"},
		{name: "valid boolean", value: "false"},
		{name: "valid enum literal", value: "'subscriber'"},
		{
			name:      "CURRENT TIMESTAMP with space",
			value:     "CURRENT TIMESTAMP",
			wantError: true,
			errorMsg:  "CURRENT_TIMESTAMP",
		},
		{
			name:      "NOW with space",
			value:     "NOW ()",
			wantError: true,
			errorMsg:  "NOW()",
		},
		{
			name:      "MySQL ON UPDATE clause",
			value:     "CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP",
			wantError: true,
			errorMsg:  "autoUpdate",
		},
		{
			name:      "unterminated literal",
			value:     "'active",
			wantError: true,
			errorMsg:  "unterminated",
		},
		{
			name:      "empty expression",
			value:     "  ",
			wantError: true,
			errorMsg:  "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDefaultValue(tt.value)
			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.value)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error %q should mention %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateDefaultValue_ReportsLongestMistake(t *testing.T) {
	for i := 0; i < 100; i++ {
		err := ValidateDefaultValue("CURRENT TIMESTAMP")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "'CURRENT_TIMESTAMP'") {
			t.Fatalf("run %d: expected CURRENT_TIMESTAMP suggestion, got %q", i, err)
		}
	}

	err := ValidateDefaultValue("current time")
	if err == nil || !strings.Contains(err.Error(), "'CURRENT_TIME'") {
		t.Errorf("expected CURRENT_TIME suggestion, got %v", err)
	}
}
