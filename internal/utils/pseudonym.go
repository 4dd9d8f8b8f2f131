package utils

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	pseudonymPrefix     = "anon_"
	pseudonymEntropyLen = 16
)

// Lowercase base32, no padding characters. 256 is a multiple of 32 so
// taking bytes mod 32 introduces no bias.
const pseudonymAlphabet = "abcdefghijklmnopqrstuvwxyz234567"

var pseudonymRe = regexp.MustCompile(`^anon_[0-9a-z]+_[a-z2-7]{16}$`)

// GeneratePseudonym returns a fresh opaque handle of the form
// anon_<ts36>_<random>. The timestamp segment keeps handles roughly
// sortable for operators; the 16-character tail carries 80 bits of
// entropy so a handle reveals nothing about the wallet behind it.
func GeneratePseudonym() (string, error) {
	buf := make([]byte, pseudonymEntropyLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading entropy: %w", err)
	}
	tail := make([]byte, pseudonymEntropyLen)
	for i, b := range buf {
		tail[i] = pseudonymAlphabet[int(b)%len(pseudonymAlphabet)]
	}
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)
	return pseudonymPrefix + ts + "_" + string(tail), nil
}

// IsPseudonym reports whether s has the generated-handle shape.
func IsPseudonym(s string) bool {
	return pseudonymRe.MatchString(s)
}
