package services

import (
	"bytes"
	"testing"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/repos/testutil"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestAvatarServiceRenderIsDeterministic(t *testing.T) {
	svc := NewAvatarService(testutil.Logger(t))
	handle := "anon_m8q2xk_abcdefghij234567"

	first, err := svc.Render(handle)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := svc.Render(handle)
	if err != nil {
		t.Fatalf("Render again: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("same handle produced different images")
	}
	if !bytes.HasPrefix(first, pngMagic) {
		t.Fatalf("render output is not a PNG, first bytes: %x", first[:8])
	}

	other, err := svc.Render("anon_m8q2xl_abcdefghij234567")
	if err != nil {
		t.Fatalf("Render other: %v", err)
	}
	if bytes.Equal(first, other) {
		t.Fatalf("different handles produced identical images")
	}
}

func TestAvatarServiceRejectsMalformedHandle(t *testing.T) {
	svc := NewAvatarService(testutil.Logger(t))
	if _, err := svc.Render("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"); !apperr.IsValidation(err) {
		t.Fatalf("Render wallet-looking input: want validation error, got %v", err)
	}
}
