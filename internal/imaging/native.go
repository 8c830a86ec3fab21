package imaging

import (
	"bytes"
	"context"
	"image/png"

	"github.com/HugoSmits86/nativewebp"
	"github.com/dustin/go-humanize"

	"stickerd/internal/fileutil"
)

// Native is a pure-Go Encoder: Lanczos3 scale-to-square, WebP stickers,
// PNG tray icons. Output over the byte ceiling is an error; the target file
// is only ever written complete, via temp-file-and-rename.
type Native struct{}

var _ Encoder = Native{}

func (Native) EncodeSticker(ctx context.Context, src []byte, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := decodeSource(src)
	if err != nil {
		return &EncodeError{Path: dst, Reason: "decode source image", Err: err}
	}

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, scaleToSquare(img, StickerSizePx), nil); err != nil {
		return &EncodeError{Path: dst, Reason: "encode webp", Err: err}
	}
	if buf.Len() > MaxStickerBytes {
		return &EncodeError{
			Path:   dst,
			Reason: "encoded sticker is " + humanize.IBytes(uint64(buf.Len())) + ", ceiling is " + humanize.IBytes(MaxStickerBytes),
		}
	}

	if err := fileutil.WriteFileAtomic(dst, buf.Bytes(), 0o644); err != nil {
		return &EncodeError{Path: dst, Reason: "write sticker file", Err: err}
	}
	return nil
}

func (Native) EncodeTray(ctx context.Context, src []byte, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := decodeSource(src)
	if err != nil {
		return &EncodeError{Path: dst, Reason: "decode source image", Err: err}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaleToSquare(img, TraySizePx)); err != nil {
		return &EncodeError{Path: dst, Reason: "encode png", Err: err}
	}
	if buf.Len() > MaxTrayBytes {
		return &EncodeError{
			Path:   dst,
			Reason: "encoded tray icon is " + humanize.IBytes(uint64(buf.Len())) + ", ceiling is " + humanize.IBytes(MaxTrayBytes),
		}
	}

	if err := fileutil.WriteFileAtomic(dst, buf.Bytes(), 0o644); err != nil {
		return &EncodeError{Path: dst, Reason: "write tray file", Err: err}
	}
	return nil
}
