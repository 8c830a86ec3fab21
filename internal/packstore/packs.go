package packstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"stickerd/internal/fileutil"
	"stickerd/internal/logging"
	"stickerd/internal/manifest"
)

const identifierPrefix = "pack_"

// AllocateIdentifier generates a fresh pack identifier and creates its
// directory. The identifier is pack_ followed by twelve hex characters.
func (s *Store) AllocateIdentifier() (string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		raw := strings.ReplaceAll(uuid.New().String(), "-", "")
		identifier := identifierPrefix + raw[:12]

		err := os.Mkdir(s.PackDir(identifier), 0o755)
		if err == nil {
			s.logger.Info("pack directory created", logging.String("identifier", identifier))
			return identifier, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create pack directory: %w", err)
		}
	}
	return "", errors.New("could not allocate an unused pack identifier")
}

// SaveManifest serializes pack into its manifest file. The document-level
// app-store links come from configuration, not from the pack. Writes to the
// same pack are serialized; the file lands atomically.
func (s *Store) SaveManifest(pack manifest.Pack) error {
	if err := checkSegment("identifier", pack.Identifier); err != nil {
		return err
	}
	if _, err := os.Stat(s.PackDir(pack.Identifier)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrUnknownPack, pack.Identifier)
		}
		return fmt.Errorf("stat pack directory: %w", err)
	}

	data, err := manifest.Encode(pack, s.cfg.Store.AndroidPlayStoreLink, s.cfg.Store.IOSAppStoreLink)
	if err != nil {
		return err
	}

	mu := s.manifestLock(pack.Identifier)
	mu.Lock()
	defer mu.Unlock()

	if err := fileutil.WriteFileAtomic(s.ManifestPath(pack.Identifier), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	s.logger.Info("manifest saved",
		logging.String("identifier", pack.Identifier),
		logging.Int("stickers", len(pack.Stickers)))
	s.notify()
	return nil
}

// LoadPack reads the manifest of one pack. The returned pack is the entry
// whose identifier matches; a manifest whose packs all carry a different
// identifier is treated as absent.
func (s *Store) LoadPack(identifier string) (manifest.Pack, error) {
	if err := checkSegment("identifier", identifier); err != nil {
		return manifest.Pack{}, err
	}
	packs, err := manifest.DecodeFile(s.ManifestPath(identifier))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return manifest.Pack{}, fmt.Errorf("%w: %s", ErrUnknownPack, identifier)
		}
		return manifest.Pack{}, err
	}
	for _, pack := range packs {
		if pack.Identifier == identifier {
			return pack, nil
		}
	}
	return manifest.Pack{}, fmt.Errorf("%w: manifest in %s names no pack %q", ErrUnknownPack, s.PackDir(identifier), identifier)
}

// DeletePack removes a pack directory and everything in it. It reports
// whether the pack existed.
func (s *Store) DeletePack(identifier string) (bool, error) {
	if err := checkSegment("identifier", identifier); err != nil {
		return false, err
	}
	dir := s.PackDir(identifier)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat pack directory: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("remove pack %s: %w", identifier, err)
	}

	s.logger.Info("pack deleted", logging.String("identifier", identifier))
	s.notify()
	return true, nil
}

// ImportPack copies an externally prepared pack directory into the store.
// The source must contain a decodable manifest; assets referenced by it are
// copied alongside. Returns the imported pack's identifier.
func (s *Store) ImportPack(ctx context.Context, dir string) (string, error) {
	packs, err := manifest.DecodeFile(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return "", fmt.Errorf("import %s: %w", dir, err)
	}
	pack := packs[0]

	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := s.PackDir(pack.Identifier)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("pack %s already exists", pack.Identifier)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat pack directory: %w", err)
	}
	if err := os.Mkdir(target, 0o755); err != nil {
		return "", fmt.Errorf("create pack directory: %w", err)
	}

	assets := []string{pack.TrayImageFile}
	for _, sticker := range pack.Stickers {
		assets = append(assets, sticker.ImageFile)
	}
	for _, name := range assets {
		if err := ctx.Err(); err != nil {
			_ = os.RemoveAll(target)
			return "", err
		}
		if err := fileutil.CopyFile(filepath.Join(dir, name), filepath.Join(target, name)); err != nil {
			_ = os.RemoveAll(target)
			return "", fmt.Errorf("copy asset %s: %w", name, err)
		}
	}

	if err := s.SaveManifest(pack); err != nil {
		_ = os.RemoveAll(target)
		return "", err
	}

	s.logger.Info("pack imported",
		logging.String("identifier", pack.Identifier),
		logging.String("source", dir),
		logging.Int("stickers", len(pack.Stickers)))
	return pack.Identifier, nil
}
