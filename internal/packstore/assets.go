package packstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"stickerd/internal/logging"
	"stickerd/internal/manifest"
)

const stickerFilePrefix = "sticker_"

// TrayFileName returns the tray icon filename for a pack.
func TrayFileName(identifier string) string {
	return "tray_" + identifier + manifest.TrayExt
}

// SaveTrayIcon encodes src as the pack's tray icon and returns its filename.
func (s *Store) SaveTrayIcon(ctx context.Context, identifier string, src []byte) (string, error) {
	if err := checkSegment("identifier", identifier); err != nil {
		return "", err
	}
	if err := s.requirePack(identifier); err != nil {
		return "", err
	}

	name := TrayFileName(identifier)
	if err := s.encoder.EncodeTray(ctx, src, filepath.Join(s.PackDir(identifier), name)); err != nil {
		return "", err
	}

	s.logger.Info("tray icon saved",
		logging.String("identifier", identifier),
		logging.String("file", name))
	s.notify()
	return name, nil
}

// AddSticker encodes src as sticker_<index> in the pack and returns the
// Sticker value referencing it. The caller appends the value to its pack and
// saves the manifest; the store does not touch manifests here and does not
// cap how many stickers a pack holds. Publishability bounds are the
// validator's concern.
func (s *Store) AddSticker(ctx context.Context, identifier string, index int, src []byte, emojis []string, accessibilityText string) (manifest.Sticker, error) {
	if err := checkSegment("identifier", identifier); err != nil {
		return manifest.Sticker{}, err
	}
	if err := s.requirePack(identifier); err != nil {
		return manifest.Sticker{}, err
	}
	if index < 1 {
		return manifest.Sticker{}, fmt.Errorf("sticker index must be positive, got %d", index)
	}

	name := fmt.Sprintf("%s%d%s", stickerFilePrefix, index, manifest.StickerExt)
	path := filepath.Join(s.PackDir(identifier), name)
	if _, err := os.Stat(path); err == nil {
		return manifest.Sticker{}, fmt.Errorf("%s already exists in pack %s; use ReplaceSticker", name, identifier)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return manifest.Sticker{}, fmt.Errorf("stat sticker: %w", err)
	}
	if err := s.encoder.EncodeSticker(ctx, src, path); err != nil {
		return manifest.Sticker{}, err
	}

	s.logger.Info("sticker added",
		logging.String("identifier", identifier),
		logging.String("file", name))
	s.notify()
	return manifest.Sticker{
		ImageFile:         name,
		Emojis:            emojis,
		AccessibilityText: accessibilityText,
	}, nil
}

// ReplaceSticker re-encodes src over an existing sticker file.
func (s *Store) ReplaceSticker(ctx context.Context, identifier, filename string, src []byte) error {
	if err := checkSegment("identifier", identifier); err != nil {
		return err
	}
	if err := checkSegment("filename", filename); err != nil {
		return err
	}
	if !strings.HasSuffix(filename, manifest.StickerExt) {
		return fmt.Errorf("sticker files carry the %s extension, got %q", manifest.StickerExt, filename)
	}

	path := filepath.Join(s.PackDir(identifier), filename)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: no sticker %s in pack %s", ErrUnknownPack, filename, identifier)
		}
		return fmt.Errorf("stat sticker: %w", err)
	}
	if err := s.encoder.EncodeSticker(ctx, src, path); err != nil {
		return err
	}

	s.logger.Info("sticker replaced",
		logging.String("identifier", identifier),
		logging.String("file", filename))
	s.notify()
	return nil
}

// DeleteAsset removes one asset file from a pack. It reports whether the
// file existed. Deleting an asset does not rewrite the manifest; callers
// save an updated manifest separately.
func (s *Store) DeleteAsset(identifier, filename string) (bool, error) {
	if err := checkSegment("identifier", identifier); err != nil {
		return false, err
	}
	if err := checkSegment("filename", filename); err != nil {
		return false, err
	}
	if filename == manifest.FileName {
		return false, fmt.Errorf("%s is not a deletable asset", manifest.FileName)
	}

	err := os.Remove(filepath.Join(s.PackDir(identifier), filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove asset %s: %w", filename, err)
	}

	s.logger.Info("asset deleted",
		logging.String("identifier", identifier),
		logging.String("file", filename))
	s.notify()
	return true, nil
}

func (s *Store) requirePack(identifier string) error {
	if _, err := os.Stat(s.PackDir(identifier)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrUnknownPack, identifier)
		}
		return fmt.Errorf("stat pack directory: %w", err)
	}
	return nil
}

// NextStickerIndex scans the pack directory and returns the lowest unused
// sticker index, reusing indexes freed by deletions.
func (s *Store) NextStickerIndex(identifier string) (int, error) {
	if err := checkSegment("identifier", identifier); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(s.PackDir(identifier))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownPack, identifier)
		}
		return 0, fmt.Errorf("read pack directory: %w", err)
	}

	used := make(map[int]struct{})
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, stickerFilePrefix) || !strings.HasSuffix(name, manifest.StickerExt) {
			continue
		}
		middle := strings.TrimSuffix(strings.TrimPrefix(name, stickerFilePrefix), manifest.StickerExt)
		if n, err := strconv.Atoi(middle); err == nil && n > 0 {
			used[n] = struct{}{}
		}
	}

	n := 1
	for {
		if _, taken := used[n]; !taken {
			return n, nil
		}
		n++
	}
}
