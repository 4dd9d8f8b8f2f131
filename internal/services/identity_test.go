package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/config"
	"github.com/veilrank/veilrank-backend/internal/repos"
	"github.com/veilrank/veilrank-backend/internal/repos/testutil"
	"github.com/veilrank/veilrank-backend/internal/types"
	"github.com/veilrank/veilrank-backend/internal/utils"
)

func newIdentityService(t *testing.T) (IdentityService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	svc := NewIdentityService(tx, log, repos.NewIdentityRepo(tx, log), config.IdentityConfig{PseudonymMaxAttempts: 5})
	return svc, tx
}

func TestIdentityServiceRegisterIssuesPseudonym(t *testing.T) {
	ctx := context.Background()
	svc, _ := newIdentityService(t)

	identity, err := svc.Register(ctx, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "Ethereum", "pk-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if identity.ID == uuid.Nil {
		t.Fatalf("Register: identity id not assigned")
	}
	if want := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"; identity.WalletAddress != want {
		t.Fatalf("wallet address: want=%s got=%s", want, identity.WalletAddress)
	}
	if identity.Chain != "ethereum" {
		t.Fatalf("chain: want=ethereum got=%s", identity.Chain)
	}
	if !utils.IsPseudonym(identity.Pseudonym()) {
		t.Fatalf("pseudonym: malformed handle %q", identity.Pseudonym())
	}
}

func TestIdentityServiceRegisterDuplicateWallet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newIdentityService(t)

	if _, err := svc.Register(ctx, "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", "ethereum", ""); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	// Same wallet in checksum casing must still collide.
	_, err := svc.Register(ctx, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", "ethereum", "")
	if !apperr.IsConflict(err) {
		t.Fatalf("second Register: want conflict, got %v", err)
	}
	if code := apperr.CodeOf(err); code != "wallet_already_registered" {
		t.Fatalf("second Register code: want=wallet_already_registered got=%s", code)
	}
}

func TestIdentityServiceRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newIdentityService(t)

	tests := []struct {
		name   string
		wallet string
		chain  string
	}{
		{"malformed wallet", "not-a-wallet", "ethereum"},
		{"short wallet", "0x1234", "ethereum"},
		{"bad checksum", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "ethereum"},
		{"missing chain", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.wallet, tt.chain, "")
			if !apperr.IsValidation(err) {
				t.Fatalf("Register: want validation error, got %v", err)
			}
		})
	}
}

func TestIdentityServiceLookupByWallet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newIdentityService(t)

	created, err := svc.Register(ctx, "0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb", "polygon", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Any accepted casing of the same address resolves the binding.
	found, err := svc.LookupByWallet(ctx, "0xDBF03B407C01E7CD3CBEA99509D93F8DDDC8C6FB")
	if err != nil {
		t.Fatalf("LookupByWallet: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("LookupByWallet: want id=%s got=%s", created.ID, found.ID)
	}

	_, err = svc.LookupByWallet(ctx, "0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb")
	if !apperr.IsNotFound(err) {
		t.Fatalf("LookupByWallet unknown: want not found, got %v", err)
	}
}

func TestIdentityServiceLookupByPseudonym(t *testing.T) {
	ctx := context.Background()
	svc, _ := newIdentityService(t)

	created, err := svc.Register(ctx, "0x52908400098527886e0f7030069857d2e4169ee7", "ethereum", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	found, err := svc.LookupByPseudonym(ctx, created.Pseudonym())
	if err != nil {
		t.Fatalf("LookupByPseudonym: %v", err)
	}
	if found.WalletAddress != created.WalletAddress {
		t.Fatalf("LookupByPseudonym wallet: want=%s got=%s", created.WalletAddress, found.WalletAddress)
	}

	if _, err := svc.LookupByPseudonym(ctx, "bogus-handle"); !apperr.IsValidation(err) {
		t.Fatalf("LookupByPseudonym malformed: want validation error, got %v", err)
	}
}

func TestIdentityServiceAttachMetadata(t *testing.T) {
	ctx := context.Background()
	svc, _ := newIdentityService(t)

	created, err := svc.Register(ctx, "0x8617e340b3d01fa5f11f306f4090fd50e238070d", "ethereum", "old-key")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	newKey := "new-key"
	updated, err := svc.AttachMetadata(ctx, created.ID, types.IdentityPatch{PublicKey: &newKey})
	if err != nil {
		t.Fatalf("AttachMetadata: %v", err)
	}
	if updated.PublicKey != newKey {
		t.Fatalf("public key: want=%s got=%s", newKey, updated.PublicKey)
	}
	if updated.WalletAddress != created.WalletAddress {
		t.Fatalf("wallet changed by metadata patch: %s -> %s", created.WalletAddress, updated.WalletAddress)
	}
	if updated.Pseudonym() != created.Pseudonym() {
		t.Fatalf("pseudonym changed by metadata patch: %s -> %s", created.Pseudonym(), updated.Pseudonym())
	}
}

func TestIdentityServiceAttachMetadataRejectsBindingChanges(t *testing.T) {
	ctx := context.Background()
	svc, _ := newIdentityService(t)

	created, err := svc.Register(ctx, "0xde709f2102306220921060314715629080e2fb77", "ethereum", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	otherWallet := "0x27b1fdb04752bbc536007a920d24acb045561c26"
	otherHandle := "anon_zzz_abcdefghij234567"
	key := "k"

	tests := []struct {
		name  string
		patch types.IdentityPatch
		code  string
	}{
		{"wallet change", types.IdentityPatch{WalletAddress: &otherWallet}, "wallet_immutable"},
		{"pseudonym change", types.IdentityPatch{PseudonymID: &otherHandle}, "pseudonym_immutable"},
		{"empty patch", types.IdentityPatch{}, "empty_patch"},
		{"pseudonym change wins over key", types.IdentityPatch{PublicKey: &key, PseudonymID: &otherHandle}, "pseudonym_immutable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AttachMetadata(ctx, created.ID, tt.patch)
			if apperr.CodeOf(err) != tt.code {
				t.Fatalf("AttachMetadata: want code=%s got=%v", tt.code, err)
			}
		})
	}

	_, err = svc.AttachMetadata(ctx, uuid.New(), types.IdentityPatch{PublicKey: &key})
	if !apperr.IsNotFound(err) {
		t.Fatalf("AttachMetadata unknown identity: want not found, got %v", err)
	}
}
