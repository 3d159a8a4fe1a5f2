package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{" ru ", "ru"},
		{"eng", "en"},
		{"en-US", "en"},
		{"pt-BR", "pt"},
		{"english", "en"},
		{"Russian", "ru"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.input)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize("not a language!"); err == nil {
		t.Fatal("expected error for invalid tag")
	}
	if got := ToISO2("not a language!"); got != "" {
		t.Fatalf("expected empty ToISO2 for invalid tag, got %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"ru", "Russian"},
		{"english", "English"},
		{"", "Unknown"},
		{"not a language!", "NOT A LANGUAGE!"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
