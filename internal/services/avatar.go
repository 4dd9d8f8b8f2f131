package services

import (
	"bytes"
	"crypto/sha256"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/utils"
)

// AvatarService renders the identicon shown next to a pseudonym on the
// public leaderboard. The image is a pure function of the handle, so
// the same pseudonym always gets the same picture and nothing about the
// underlying wallet leaks into it.
type AvatarService interface {
	Render(pseudonymID string) ([]byte, error)
}

const (
	avatarSize = 256
	avatarGrid = 5
)

// avatarPalette holds the background/foreground pairs an identicon can
// use. Digest byte 0 picks the pair.
var avatarPalette = []struct{ bg, fg color.NRGBA }{
	{color.NRGBA{R: 0x1F, G: 0x2A, B: 0x44, A: 0xFF}, color.NRGBA{R: 0x5E, G: 0x9C, B: 0xFF, A: 0xFF}},
	{color.NRGBA{R: 0x23, G: 0x2B, B: 0x2B, A: 0xFF}, color.NRGBA{R: 0x4C, G: 0xC9, B: 0x8F, A: 0xFF}},
	{color.NRGBA{R: 0x2E, G: 0x22, B: 0x3D, A: 0xFF}, color.NRGBA{R: 0xB4, G: 0x7E, B: 0xE8, A: 0xFF}},
	{color.NRGBA{R: 0x3A, G: 0x28, B: 0x1E, A: 0xFF}, color.NRGBA{R: 0xF2, G: 0xA6, B: 0x54, A: 0xFF}},
	{color.NRGBA{R: 0x10, G: 0x32, B: 0x38, A: 0xFF}, color.NRGBA{R: 0x3F, G: 0xC1, B: 0xC9, A: 0xFF}},
	{color.NRGBA{R: 0x38, G: 0x1C, B: 0x24, A: 0xFF}, color.NRGBA{R: 0xE8, G: 0x6A, B: 0x92, A: 0xFF}},
	{color.NRGBA{R: 0x27, G: 0x33, B: 0x1C, A: 0xFF}, color.NRGBA{R: 0xA3, G: 0xD1, B: 0x5A, A: 0xFF}},
	{color.NRGBA{R: 0x31, G: 0x2F, B: 0x1B, A: 0xFF}, color.NRGBA{R: 0xE3, G: 0xC5, B: 0x4E, A: 0xFF}},
}

type avatarService struct {
	log *logger.Logger
}

func NewAvatarService(log *logger.Logger) AvatarService {
	serviceLog := log.With("service", "AvatarService")
	return &avatarService{log: serviceLog}
}

func (as *avatarService) Render(pseudonymID string) ([]byte, error) {
	if !utils.IsPseudonym(pseudonymID) {
		return nil, apperr.Validationf("invalid_pseudonym", "malformed pseudonym handle")
	}

	digest := sha256.Sum256([]byte(pseudonymID))
	pair := avatarPalette[int(digest[0])%len(avatarPalette)]

	dc := gg.NewContext(avatarSize, avatarSize)

	// Clip to circle
	dc.DrawCircle(float64(avatarSize)/2, float64(avatarSize)/2, float64(avatarSize)/2)
	dc.Clip()

	// Fill bg
	dc.SetColor(pair.bg)
	dc.DrawRectangle(0, 0, float64(avatarSize), float64(avatarSize))
	dc.Fill()

	// 5x5 grid mirrored across the vertical axis, one digest bit per
	// cell in the left three columns.
	cell := float64(avatarSize) / float64(avatarGrid+2)
	offset := cell // one-cell margin on every side
	dc.SetColor(pair.fg)

	bit := 0
	for col := 0; col <= avatarGrid/2; col++ {
		for row := 0; row < avatarGrid; row++ {
			idx := 1 + bit/8 // byte 0 is spent on the palette
			on := digest[idx]>>(uint(bit)%8)&1 == 1
			bit++
			if !on {
				continue
			}
			x := offset + float64(col)*cell
			y := offset + float64(row)*cell
			dc.DrawRectangle(x, y, cell, cell)
			mirror := avatarGrid - 1 - col
			if mirror != col {
				dc.DrawRectangle(offset+float64(mirror)*cell, y, cell, cell)
			}
		}
	}
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, apperr.Unavailable("avatar_encode_failed", err)
	}
	return buf.Bytes(), nil
}
