package provider

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"stickerd/internal/config"
	"stickerd/internal/logging"
	"stickerd/internal/manifest"
)

// ErrNotFound is returned when a requested pack or asset does not exist.
var ErrNotFound = errors.New("not found")

// PackRow is the metadata projection of one pack. The JSON field names are
// the row contract the external client queries by; they must not change.
type PackRow struct {
	Identifier              string `json:"sticker_pack_identifier"`
	Name                    string `json:"sticker_pack_name"`
	Publisher               string `json:"sticker_pack_publisher"`
	TrayImageFile           string `json:"sticker_pack_icon"`
	AndroidPlayStoreLink    string `json:"android_play_store_link"`
	IOSAppDownloadLink      string `json:"ios_app_download_link"`
	PublisherEmail          string `json:"sticker_pack_publisher_email"`
	PublisherWebsite        string `json:"sticker_pack_publisher_website"`
	PrivacyPolicyWebsite    string `json:"sticker_pack_privacy_policy_website"`
	LicenseAgreementWebsite string `json:"sticker_pack_license_agreement_website"`
	ImageDataVersion        string `json:"image_data_version"`
	AvoidCache              bool   `json:"whatsapp_will_not_cache_stickers"`
	AnimatedStickerPack     bool   `json:"animated_sticker_pack"`
}

// StickerRow is the per-sticker projection. Emojis are joined with commas,
// matching what the client splits on.
type StickerRow struct {
	FileName          string `json:"sticker_file_name"`
	Emoji             string `json:"sticker_emoji"`
	AccessibilityText string `json:"sticker_accessibility_text"`
}

// Service answers metadata and asset queries straight from the pack tree.
// It holds no cache; every call rescans, so edits made by the store or by
// hand are visible on the next query.
type Service struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewService builds a query service over the configured packs root.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{cfg: cfg, logger: logging.WithComponent(logger, "provider")}
}

// ListPacks scans the packs root and returns one row per readable pack,
// ordered by directory name. Directories whose manifest is missing, corrupt,
// or names a different identifier are logged and skipped; one broken pack
// never hides the rest.
func (s *Service) ListPacks() ([]PackRow, error) {
	entries, err := os.ReadDir(s.cfg.PacksRoot())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read packs root: %w", err)
	}

	rows := make([]PackRow, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pack, ok := s.loadPack(entry.Name())
		if !ok {
			continue
		}
		rows = append(rows, packRow(pack))
	}
	return rows, nil
}

// GetPack returns the metadata row for one pack, or ErrNotFound.
func (s *Service) GetPack(identifier string) (PackRow, error) {
	if err := checkSegment(identifier); err != nil {
		return PackRow{}, err
	}
	pack, ok := s.loadPack(identifier)
	if !ok {
		return PackRow{}, fmt.Errorf("%w: pack %s", ErrNotFound, identifier)
	}
	return packRow(pack), nil
}

// ListStickers returns the sticker rows of one pack. An unknown or
// unreadable pack yields an empty list, not an error.
func (s *Service) ListStickers(identifier string) ([]StickerRow, error) {
	if err := checkSegment(identifier); err != nil {
		return nil, err
	}
	pack, ok := s.loadPack(identifier)
	if !ok {
		return nil, nil
	}

	rows := make([]StickerRow, 0, len(pack.Stickers))
	for _, sticker := range pack.Stickers {
		rows = append(rows, StickerRow{
			FileName:          sticker.ImageFile,
			Emoji:             strings.Join(sticker.Emojis, ","),
			AccessibilityText: sticker.AccessibilityText,
		})
	}
	return rows, nil
}

// FetchAsset opens one asset file for streaming, returning the reader and
// the byte length. The caller closes the reader.
func (s *Service) FetchAsset(identifier, filename string) (io.ReadCloser, int64, error) {
	if err := checkSegment(identifier); err != nil {
		return nil, 0, err
	}
	if err := checkSegment(filename); err != nil {
		return nil, 0, err
	}

	path := filepath.Join(s.cfg.PacksRoot(), identifier, filename)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s/%s", ErrNotFound, identifier, filename)
		}
		return nil, 0, fmt.Errorf("open asset: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmt.Errorf("stat asset: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, 0, fmt.Errorf("%w: %s/%s is not a regular file", ErrNotFound, identifier, filename)
	}
	return file, info.Size(), nil
}

// FetchAssetBytes reads one asset fully into memory. Its signature matches
// validator.FetchFunc so a Service can back pack validation directly.
func (s *Service) FetchAssetBytes(identifier, filename string) ([]byte, error) {
	reader, _, err := s.FetchAsset(identifier, filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// loadPack decodes the manifest in one pack directory and returns the entry
// matching the directory name. The directory name is authoritative; a
// manifest naming only other identifiers is treated as broken.
func (s *Service) loadPack(identifier string) (manifest.Pack, bool) {
	path := filepath.Join(s.cfg.PacksRoot(), identifier, manifest.FileName)
	packs, err := manifest.DecodeFile(path)
	if err != nil {
		s.logger.Warn("skipping unreadable pack",
			logging.String("identifier", identifier),
			logging.Error(err))
		return manifest.Pack{}, false
	}
	for _, pack := range packs {
		if pack.Identifier == identifier {
			return pack, true
		}
	}
	s.logger.Warn("skipping pack whose manifest names a different identifier",
		logging.String("identifier", identifier))
	return manifest.Pack{}, false
}

func packRow(pack manifest.Pack) PackRow {
	return PackRow{
		Identifier:              pack.Identifier,
		Name:                    pack.Name,
		Publisher:               pack.Publisher,
		TrayImageFile:           pack.TrayImageFile,
		AndroidPlayStoreLink:    pack.AndroidPlayStoreLink,
		IOSAppDownloadLink:      pack.IOSAppStoreLink,
		PublisherEmail:          pack.PublisherEmail,
		PublisherWebsite:        pack.PublisherWebsite,
		PrivacyPolicyWebsite:    pack.PrivacyPolicyWebsite,
		LicenseAgreementWebsite: pack.LicenseAgreementWebsite,
		ImageDataVersion:        pack.ImageDataVersion,
		AvoidCache:              pack.AvoidCache,
		AnimatedStickerPack:     pack.AnimatedStickerPack,
	}
}

func checkSegment(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("name %q must be a plain name without path separators", name)
	}
	return nil
}
