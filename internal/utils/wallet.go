package utils

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var hexAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NormalizeWalletAddress validates an EVM-style address and returns its
// EIP-55 checksum form, which is the canonical representation stored
// and compared everywhere else. All-lowercase and all-uppercase inputs
// carry no checksum and are accepted as-is; mixed-case inputs must
// already checksum correctly.
func NormalizeWalletAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if !hexAddressRe.MatchString(addr) {
		return "", fmt.Errorf("wallet address must be 0x followed by 40 hex characters")
	}
	body := addr[2:]
	checksummed := ChecksumAddress(addr)
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return checksummed, nil
	}
	if addr != checksummed {
		return "", fmt.Errorf("wallet address failed checksum validation")
	}
	return checksummed, nil
}

// ChecksumAddress applies EIP-55 casing to a 0x-prefixed hex address.
// The input is assumed to have passed the shape check already.
func ChecksumAddress(addr string) string {
	body := strings.ToLower(strings.TrimPrefix(strings.ToLower(addr), "0x"))
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(body))
	sum := h.Sum(nil)
	out := []byte(body)
	for i := range out {
		c := out[i]
		if c >= '0' && c <= '9' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}
	return "0x" + string(out)
}
