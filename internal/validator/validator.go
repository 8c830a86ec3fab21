package validator

import (
	"bytes"
	"fmt"
	"image"
	"regexp"
	"strings"
	"unicode/utf8"

	// Dimension probing for the formats packs actually contain.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/dustin/go-humanize"

	"stickerd/internal/manifest"
)

const (
	maxFieldRunes = 128

	trayMaxBytes     = 50 * 1024
	trayDimensionMin = 24
	trayDimensionMax = 512

	stickerCountMin = 3
	stickerCountMax = 30

	emojiCountMin = 1

	staticA11yMaxRunes   = 125
	animatedA11yMaxRunes = 255

	staticStickerMaxBytes   = 100 * 1024
	animatedStickerMaxBytes = 500 * 1024

	stickerDimension = 512
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.,'\s]+$`)

// FetchFunc retrieves the bytes of one asset belonging to a pack. The query
// service provides the production implementation; tests inject their own.
type FetchFunc func(identifier, filename string) ([]byte, error)

// ValidationError reports why a pack is not fit to be served to the
// external client. It always carries the pack identifier and, for
// asset-level failures, the offending filename.
type ValidationError struct {
	Identifier string
	Filename   string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("pack %q: file %q: %s", e.Identifier, e.Filename, e.Reason)
	}
	return fmt.Sprintf("pack %q: %s", e.Identifier, e.Reason)
}

func failf(identifier, filename, format string, args ...any) *ValidationError {
	return &ValidationError{
		Identifier: identifier,
		Filename:   filename,
		Reason:     fmt.Sprintf(format, args...),
	}
}

// Verify checks a fully loaded pack against every publishability rule.
// It never touches the filesystem directly; asset bytes come from fetch.
// The first failing rule is returned.
func Verify(pack manifest.Pack, fetch FetchFunc) error {
	id := pack.Identifier
	if err := verifyIdentifier(id); err != nil {
		return err
	}
	if err := verifyField(id, "publisher", pack.Publisher); err != nil {
		return err
	}
	if err := verifyField(id, "name", pack.Name); err != nil {
		return err
	}
	if pack.TrayImageFile == "" {
		return failf(id, "", "tray image file is empty")
	}
	if err := verifyTray(id, pack.TrayImageFile, fetch); err != nil {
		return err
	}
	if count := len(pack.Stickers); count < stickerCountMin || count > stickerCountMax {
		return failf(id, "", "sticker count must be between %d and %d inclusive, currently %d",
			stickerCountMin, stickerCountMax, count)
	}
	for _, sticker := range pack.Stickers {
		if err := verifySticker(id, sticker, pack.AnimatedStickerPack, fetch); err != nil {
			return err
		}
	}
	return nil
}

func verifyIdentifier(id string) error {
	if id == "" {
		return failf(id, "", "identifier is empty")
	}
	if utf8.RuneCountInString(id) > maxFieldRunes {
		return failf(id, "", "identifier cannot exceed %d characters", maxFieldRunes)
	}
	if !identifierPattern.MatchString(id) {
		return failf(id, "", "identifier contains invalid characters; allowed are letters, digits, _ - . , ' and whitespace")
	}
	if strings.Contains(id, "..") {
		return failf(id, "", "identifier cannot contain ..")
	}
	return nil
}

func verifyField(id, field, value string) error {
	if value == "" {
		return failf(id, "", "%s is empty", field)
	}
	if utf8.RuneCountInString(value) > maxFieldRunes {
		return failf(id, "", "%s cannot exceed %d characters", field, maxFieldRunes)
	}
	return nil
}

func verifyTray(id, filename string, fetch FetchFunc) error {
	data, err := fetch(id, filename)
	if err != nil {
		return failf(id, filename, "cannot open tray image: %v", err)
	}
	if len(data) > trayMaxBytes {
		return failf(id, filename, "tray image is %s, ceiling is %s",
			humanize.IBytes(uint64(len(data))), humanize.IBytes(trayMaxBytes))
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if cfg.Width < trayDimensionMin || cfg.Width > trayDimensionMax {
			return failf(id, filename, "tray image width must be between %d and %d pixels, currently %d",
				trayDimensionMin, trayDimensionMax, cfg.Width)
		}
		if cfg.Height < trayDimensionMin || cfg.Height > trayDimensionMax {
			return failf(id, filename, "tray image height must be between %d and %d pixels, currently %d",
				trayDimensionMin, trayDimensionMax, cfg.Height)
		}
	}
	return nil
}

func verifySticker(id string, sticker manifest.Sticker, animated bool, fetch FetchFunc) error {
	filename := sticker.ImageFile
	if count := len(sticker.Emojis); count > manifest.EmojiMaxCount {
		return failf(id, filename, "emoji count exceeds limit of %d", manifest.EmojiMaxCount)
	} else if count < emojiCountMin {
		return failf(id, filename, "sticker needs at least %d emoji", emojiCountMin)
	}
	if filename == "" {
		return failf(id, "", "sticker has no file name")
	}

	a11yMax := staticA11yMaxRunes
	if animated {
		a11yMax = animatedA11yMaxRunes
	}
	if utf8.RuneCountInString(sticker.AccessibilityText) > a11yMax {
		return failf(id, filename, "accessibility text cannot exceed %d characters", a11yMax)
	}

	data, err := fetch(id, filename)
	if err != nil {
		return failf(id, filename, "cannot open sticker file: %v", err)
	}
	maxBytes := staticStickerMaxBytes
	kind := "static"
	if animated {
		maxBytes = animatedStickerMaxBytes
		kind = "animated"
	}
	if len(data) > maxBytes {
		return failf(id, filename, "%s sticker is %s, ceiling is %s",
			kind, humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(maxBytes)))
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if cfg.Width != stickerDimension || cfg.Height != stickerDimension {
			return failf(id, filename, "sticker must be %dx%d pixels, currently %dx%d",
				stickerDimension, stickerDimension, cfg.Width, cfg.Height)
		}
	}
	return nil
}
