package utils

import "testing"

func TestGeneratePseudonymShape(t *testing.T) {
	p, err := GeneratePseudonym()
	if err != nil {
		t.Fatalf("GeneratePseudonym returned error: %v", err)
	}
	if !IsPseudonym(p) {
		t.Fatalf("generated pseudonym %q does not match expected shape", p)
	}
}

func TestGeneratePseudonymUnique(t *testing.T) {
	seen := make(map[string]bool, 200)
	for i := 0; i < 200; i++ {
		p, err := GeneratePseudonym()
		if err != nil {
			t.Fatalf("GeneratePseudonym returned error: %v", err)
		}
		if seen[p] {
			t.Fatalf("duplicate pseudonym generated: %q", p)
		}
		seen[p] = true
	}
}

func TestIsPseudonym(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"anon_m1k3v9q_ab2cd3ef4gh5jk6m", true},
		{"anon__ab2cd3ef4gh5jk6m", false},
		{"anon_m1k3v9q_short", false},
		{"anon_m1k3v9q_AB2CD3EF4GH5JK6M", false},
		{"user_m1k3v9q_ab2cd3ef4gh5jk6m", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPseudonym(tt.in); got != tt.want {
			t.Errorf("IsPseudonym(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
