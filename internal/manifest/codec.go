package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
)

// document is the manifest root object. A file written by this system always
// contains exactly one pack, but the format allows several and Decode accepts
// them all.
type document struct {
	AndroidPlayStoreLink string     `json:"android_play_store_link"`
	IOSAppStoreLink      string     `json:"ios_app_store_link"`
	StickerPacks         *[]rawPack `json:"sticker_packs"`
}

type rawPack struct {
	Identifier              string       `json:"identifier"`
	Name                    string       `json:"name"`
	Publisher               string       `json:"publisher"`
	TrayImageFile           string       `json:"tray_image_file"`
	PublisherEmail          string       `json:"publisher_email"`
	PublisherWebsite        string       `json:"publisher_website"`
	PrivacyPolicyWebsite    string       `json:"privacy_policy_website"`
	LicenseAgreementWebsite string       `json:"license_agreement_website"`
	ImageDataVersion        *string      `json:"image_data_version"`
	AvoidCache              bool         `json:"avoid_cache"`
	AnimatedStickerPack     bool         `json:"animated_sticker_pack"`
	Stickers                []rawSticker `json:"stickers"`
}

type rawSticker struct {
	ImageFile         string   `json:"image_file"`
	Emojis            []string `json:"emojis"`
	AccessibilityText string   `json:"accessibility_text"`
}

// Encode renders a single pack as a manifest document. Optional string
// fields are normalized to empty strings so the external client never sees
// null or absent keys.
func Encode(pack Pack, androidLink, iosLink string) ([]byte, error) {
	raw := rawPack{
		Identifier:              pack.Identifier,
		Name:                    pack.Name,
		Publisher:               pack.Publisher,
		TrayImageFile:           pack.TrayImageFile,
		PublisherEmail:          pack.PublisherEmail,
		PublisherWebsite:        pack.PublisherWebsite,
		PrivacyPolicyWebsite:    pack.PrivacyPolicyWebsite,
		LicenseAgreementWebsite: pack.LicenseAgreementWebsite,
		AvoidCache:              pack.AvoidCache,
		AnimatedStickerPack:     pack.AnimatedStickerPack,
		Stickers:                make([]rawSticker, 0, len(pack.Stickers)),
	}
	version := pack.ImageDataVersion
	if version == "" {
		version = DefaultImageDataVersion
	}
	raw.ImageDataVersion = &version

	for _, sticker := range pack.Stickers {
		emojis := sticker.Emojis
		if emojis == nil {
			emojis = []string{}
		}
		raw.Stickers = append(raw.Stickers, rawSticker{
			ImageFile:         sticker.ImageFile,
			Emojis:            emojis,
			AccessibilityText: sticker.AccessibilityText,
		})
	}

	packs := []rawPack{raw}
	doc := document{
		AndroidPlayStoreLink: androidLink,
		IOSAppStoreLink:      iosLink,
		StickerPacks:         &packs,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// Decode parses a manifest document into its packs. The document-level
// app-store links are broadcast onto every pack. Failures are *SchemaError.
func Decode(data []byte) ([]Pack, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, schemaErrorf("", "invalid JSON: %v", err)
	}
	if doc.StickerPacks == nil {
		return nil, schemaErrorf("sticker_packs", "missing")
	}
	if len(*doc.StickerPacks) == 0 {
		return nil, schemaErrorf("sticker_packs", "pack list cannot be empty")
	}

	packs := make([]Pack, 0, len(*doc.StickerPacks))
	for _, raw := range *doc.StickerPacks {
		pack, err := decodePack(raw)
		if err != nil {
			return nil, err
		}
		pack.AndroidPlayStoreLink = doc.AndroidPlayStoreLink
		pack.IOSAppStoreLink = doc.IOSAppStoreLink
		packs = append(packs, pack)
	}
	return packs, nil
}

// DecodeFile reads and decodes one manifest file. Each sticker's Size is
// derived by stating its backing file next to the manifest; a sticker whose
// file is missing keeps Size zero, since an unreferenced or not-yet-written
// asset is a validation concern, not a decode failure.
func DecodeFile(path string) ([]Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	packs, err := Decode(data)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	for pi := range packs {
		for si := range packs[pi].Stickers {
			info, err := os.Stat(filepath.Join(dir, packs[pi].Stickers[si].ImageFile))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			packs[pi].Stickers[si].Size = info.Size()
		}
	}
	return packs, nil
}

func decodePack(raw rawPack) (Pack, error) {
	switch {
	case raw.Identifier == "":
		return Pack{}, schemaErrorf("identifier", "cannot be empty")
	case strings.Contains(raw.Identifier, "..") || strings.Contains(raw.Identifier, "/"):
		return Pack{}, schemaErrorf("identifier", "must not contain .. or / (directory traversal)")
	case raw.Name == "":
		return Pack{}, schemaErrorf("name", "cannot be empty")
	case raw.Publisher == "":
		return Pack{}, schemaErrorf("publisher", "cannot be empty")
	case raw.TrayImageFile == "":
		return Pack{}, schemaErrorf("tray_image_file", "cannot be empty")
	case strings.Contains(raw.TrayImageFile, "..") || strings.Contains(raw.TrayImageFile, "/"):
		return Pack{}, schemaErrorf("tray_image_file", "must not contain .. or / (directory traversal), got %q", raw.TrayImageFile)
	}

	version := DefaultImageDataVersion
	if raw.ImageDataVersion != nil {
		if *raw.ImageDataVersion == "" {
			return Pack{}, schemaErrorf("image_data_version", "cannot be empty")
		}
		version = *raw.ImageDataVersion
	}

	stickers := make([]Sticker, 0, len(raw.Stickers))
	for _, rawSticker := range raw.Stickers {
		sticker, err := decodeSticker(rawSticker)
		if err != nil {
			return Pack{}, err
		}
		stickers = append(stickers, sticker)
	}

	return Pack{
		Identifier:              raw.Identifier,
		Name:                    raw.Name,
		Publisher:               raw.Publisher,
		TrayImageFile:           raw.TrayImageFile,
		PublisherEmail:          raw.PublisherEmail,
		PublisherWebsite:        raw.PublisherWebsite,
		PrivacyPolicyWebsite:    raw.PrivacyPolicyWebsite,
		LicenseAgreementWebsite: raw.LicenseAgreementWebsite,
		ImageDataVersion:        version,
		AvoidCache:              raw.AvoidCache,
		AnimatedStickerPack:     raw.AnimatedStickerPack,
		Stickers:                stickers,
	}, nil
}

func decodeSticker(raw rawSticker) (Sticker, error) {
	switch {
	case raw.ImageFile == "":
		return Sticker{}, schemaErrorf("image_file", "cannot be empty")
	case !strings.HasSuffix(raw.ImageFile, StickerExt):
		return Sticker{}, schemaErrorf("image_file", "sticker images must be %s files, got %q", StickerExt, raw.ImageFile)
	case strings.Contains(raw.ImageFile, "..") || strings.Contains(raw.ImageFile, "/"):
		return Sticker{}, schemaErrorf("image_file", "must not contain .. or / (directory traversal), got %q", raw.ImageFile)
	}

	emojis := make([]string, 0, EmojiMaxCount)
	for _, emoji := range raw.Emojis {
		if emoji == "" {
			continue
		}
		emojis = append(emojis, emoji)
		if len(emojis) == EmojiMaxCount {
			break
		}
	}

	return Sticker{
		ImageFile:         raw.ImageFile,
		Emojis:            emojis,
		AccessibilityText: raw.AccessibilityText,
	}, nil
}
