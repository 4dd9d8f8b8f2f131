package utils

import (
	"strings"
	"testing"
)

// Checksum casing vectors published alongside EIP-55.
var checksummedAddrs = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestChecksumAddressVectors(t *testing.T) {
	for _, want := range checksummedAddrs {
		if got := ChecksumAddress(strings.ToLower(want)); got != want {
			t.Errorf("ChecksumAddress(%q) = %q, want %q", strings.ToLower(want), got, want)
		}
	}
}

func TestNormalizeWalletAddress(t *testing.T) {
	canonical := checksummedAddrs[0]

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"lowercase accepted", strings.ToLower(canonical), canonical, false},
		{"uppercase accepted", "0x" + strings.ToUpper(canonical[2:]), canonical, false},
		{"valid checksum accepted", canonical, canonical, false},
		{"surrounding space trimmed", "  " + strings.ToLower(canonical) + "\n", canonical, false},
		{"bad checksum rejected", "0x5Aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "", true},
		{"too short", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe", "", true},
		{"missing prefix", canonical[2:], "", true},
		{"non-hex characters", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAzz", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeWalletAddress(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeWalletAddress(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeWalletAddress(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeWalletAddress(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
