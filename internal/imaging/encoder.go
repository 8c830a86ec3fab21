package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"

	// Register decoders for the source formats the editor hands us.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"
)

const (
	// StickerSizePx is the required square dimension for sticker images.
	StickerSizePx = 512

	// TraySizePx is the square dimension tray icons are produced at. The
	// external client accepts 24..512; 96 matches what it renders.
	TraySizePx = 96

	// MaxStickerBytes is the encoded ceiling for one static sticker file.
	MaxStickerBytes = 100 * 1024

	// MaxTrayBytes is the encoded ceiling for a tray icon file.
	MaxTrayBytes = 50 * 1024
)

// Encoder turns an arbitrary source image into a correctly sized, correctly
// encoded asset file at a target path. The pack store depends on this
// capability and never performs pixel work itself.
type Encoder interface {
	// EncodeSticker writes src as a 512x512 WebP file at dst.
	EncodeSticker(ctx context.Context, src []byte, dst string) error

	// EncodeTray writes src as a square PNG tray icon at dst.
	EncodeTray(ctx context.Context, src []byte, dst string) error
}

// EncodeError reports a failed image encode, carrying the target path.
type EncodeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encode %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("encode %s: %s", e.Path, e.Reason)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// scaleToSquare scales src so the shorter edge reaches size, then center
// crops to size x size.
func scaleToSquare(src image.Image, size int) *image.NRGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var scaled image.Image = src
	if w != size || h != size {
		newW, newH := uint(size), uint(size)
		if w > h {
			newW = uint(float64(w) * float64(size) / float64(h))
		} else if h > w {
			newH = uint(float64(h) * float64(size) / float64(w))
		}
		scaled = resize.Resize(newW, newH, src, resize.Lanczos3)
	}

	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	offsetX := (scaled.Bounds().Dx() - size) / 2
	offsetY := (scaled.Bounds().Dy() - size) / 2
	origin := scaled.Bounds().Min.Add(image.Pt(offsetX, offsetY))
	draw.Draw(out, out.Bounds(), scaled, origin, draw.Src)
	return out
}

func decodeSource(src []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	return img, nil
}
