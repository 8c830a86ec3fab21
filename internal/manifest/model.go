package manifest

const (
	// FileName is the manifest file inside every pack directory.
	FileName = "contents.json"

	// StickerExt is the required extension for sticker image files.
	StickerExt = ".webp"

	// TrayExt is the extension for tray icon files.
	TrayExt = ".png"

	// DefaultImageDataVersion is assumed when a manifest omits the field.
	DefaultImageDataVersion = "1"

	// EmojiMaxCount is the most emojis a sticker may carry. Decode truncates
	// beyond it; the validator additionally requires at least one.
	EmojiMaxCount = 3
)

// Pack is one sticker collection. The JSON tags define the manifest schema
// consumed by the external client; the key names are a compatibility
// contract and must not change.
type Pack struct {
	Identifier              string    `json:"identifier"`
	Name                    string    `json:"name"`
	Publisher               string    `json:"publisher"`
	TrayImageFile           string    `json:"tray_image_file"`
	PublisherEmail          string    `json:"publisher_email"`
	PublisherWebsite        string    `json:"publisher_website"`
	PrivacyPolicyWebsite    string    `json:"privacy_policy_website"`
	LicenseAgreementWebsite string    `json:"license_agreement_website"`
	ImageDataVersion        string    `json:"image_data_version"`
	AvoidCache              bool      `json:"avoid_cache"`
	AnimatedStickerPack     bool      `json:"animated_sticker_pack"`
	Stickers                []Sticker `json:"stickers"`

	// Carried at the document level in the manifest format and broadcast
	// onto every pack at decode time.
	AndroidPlayStoreLink string `json:"-"`
	IOSAppStoreLink      string `json:"-"`
}

// Sticker is one image within a pack.
type Sticker struct {
	ImageFile         string   `json:"image_file"`
	Emojis            []string `json:"emojis"`
	AccessibilityText string   `json:"accessibility_text"`

	// Size is the byte length of the backing file, derived at load time.
	// It is never persisted; the file on disk is authoritative.
	Size int64 `json:"-"`
}
