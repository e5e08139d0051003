package utils

import "testing"

func TestParseDurationMs(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"3:25", 205000},
		{"0:07", 7000},
		{" 12:00 ", 720000},
		{"205", 205000},
		{"187.5", 187500},
		{"10000", 10000000},
		{"215000", 215000},
		{"", DefaultDurationMs},
		{"abc", DefaultDurationMs},
		{"1:2:3", DefaultDurationMs},
		{"x:10", DefaultDurationMs},
		{"-5", DefaultDurationMs},
		{"0", DefaultDurationMs},
	}

	for _, tt := range tests {
		if got := ParseDurationMs(tt.input); got != tt.expected {
			t.Errorf("ParseDurationMs(%q) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}
