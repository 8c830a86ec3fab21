package samplepack

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"

	"stickerd/internal/logging"
	"stickerd/internal/manifest"
	"stickerd/internal/packstore"
)

// PackName is the display name of the generated demonstration pack.
const PackName = "Sample Pack"

// Install creates a small demonstration pack through the regular store API
// and returns its identifier. The generated pack passes validation, so a
// fresh install has something to serve immediately. When a pack named
// "Sample Pack" already exists its identifier is returned instead.
func Install(ctx context.Context, store *packstore.Store, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	if existing, ok := findExisting(store); ok {
		logger.Info("sample pack already installed", logging.String("identifier", existing))
		return existing, nil
	}

	identifier, err := store.AllocateIdentifier()
	if err != nil {
		return "", err
	}

	cleanup := func() {
		_, _ = store.DeletePack(identifier)
	}

	trayName, err := store.SaveTrayIcon(ctx, identifier, swatch(color.NRGBA{R: 66, G: 133, B: 244, A: 255}))
	if err != nil {
		cleanup()
		return "", fmt.Errorf("sample tray: %w", err)
	}

	pack := manifest.Pack{
		Identifier:    identifier,
		Name:          PackName,
		Publisher:     "stickerd",
		TrayImageFile: trayName,
	}

	stickers := []struct {
		fill  color.NRGBA
		emoji string
		a11y  string
	}{
		{color.NRGBA{R: 219, G: 68, B: 55, A: 255}, "🔴", "A red square"},
		{color.NRGBA{R: 15, G: 157, B: 88, A: 255}, "🟢", "A green square"},
		{color.NRGBA{R: 244, G: 180, B: 0, A: 255}, "🟡", "A yellow square"},
	}
	for i, s := range stickers {
		sticker, err := store.AddSticker(ctx, identifier, i+1, swatch(s.fill), []string{s.emoji}, s.a11y)
		if err != nil {
			cleanup()
			return "", fmt.Errorf("sample sticker: %w", err)
		}
		pack.Stickers = append(pack.Stickers, sticker)
	}

	if err := store.SaveManifest(pack); err != nil {
		cleanup()
		return "", err
	}

	logger.Info("sample pack installed", logging.String("identifier", identifier))
	return identifier, nil
}

// findExisting scans the store for a pack carrying the sample pack name.
func findExisting(store *packstore.Store) (string, bool) {
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pack, err := store.LoadPack(entry.Name())
		if err != nil {
			continue
		}
		if pack.Name == PackName {
			return pack.Identifier, true
		}
	}
	return "", false
}

// swatch renders a solid 512x512 PNG suitable as encoder input.
func swatch(fill color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 512, 512))
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding a valid in-memory image cannot fail.
		panic(err)
	}
	return buf.Bytes()
}
