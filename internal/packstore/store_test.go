package packstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"stickerd/internal/config"
	"stickerd/internal/fileutil"
	"stickerd/internal/logging"
	"stickerd/internal/manifest"
)

// passthroughEncoder writes source bytes unchanged. Store tests exercise
// file layout and locking, not pixel work.
type passthroughEncoder struct{}

func (passthroughEncoder) EncodeSticker(_ context.Context, src []byte, dst string) error {
	return fileutil.WriteFileAtomic(dst, src, 0o644)
}

func (passthroughEncoder) EncodeTray(_ context.Context, src []byte, dst string) error {
	return fileutil.WriteFileAtomic(dst, src, 0o644)
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()
	cfg.Paths.DataRoot = root
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Store.AndroidPlayStoreLink = "https://play.google.com/store/apps/details?id=com.example"
	return &cfg
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(newTestConfig(t), passthroughEncoder{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func newTestPack(identifier string) manifest.Pack {
	return manifest.Pack{
		Identifier:    identifier,
		Name:          "Test Pack",
		Publisher:     "Tester",
		TrayImageFile: TrayFileName(identifier),
		Stickers: []manifest.Sticker{
			{ImageFile: "sticker_1.webp", Emojis: []string{"😀"}},
		},
	}
}

func TestAllocateIdentifierShape(t *testing.T) {
	store := newTestStore(t)

	id, err := store.AllocateIdentifier()
	if err != nil {
		t.Fatalf("AllocateIdentifier: %v", err)
	}
	if !strings.HasPrefix(id, "pack_") || len(id) != len("pack_")+12 {
		t.Fatalf("unexpected identifier %q", id)
	}
	for _, r := range id[len("pack_"):] {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("identifier %q contains non-hex rune %q", id, r)
		}
	}
	if info, err := os.Stat(store.PackDir(id)); err != nil || !info.IsDir() {
		t.Fatalf("pack directory missing: %v", err)
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := newTestConfig(t)
	first, err := New(cfg, passthroughEncoder{}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer first.Close()

	if _, err := New(cfg, passthroughEncoder{}, logging.NewNop()); err == nil {
		t.Fatal("expected second instance to be rejected")
	}
}

func TestSaveAndLoadManifest(t *testing.T) {
	store := newTestStore(t)
	id, err := store.AllocateIdentifier()
	if err != nil {
		t.Fatalf("AllocateIdentifier: %v", err)
	}

	if err := store.SaveManifest(newTestPack(id)); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	loaded, err := store.LoadPack(id)
	if err != nil {
		t.Fatalf("LoadPack: %v", err)
	}
	if loaded.Name != "Test Pack" || loaded.Publisher != "Tester" {
		t.Fatalf("unexpected pack %+v", loaded)
	}
	if loaded.AndroidPlayStoreLink == "" {
		t.Fatal("expected configured play store link to round trip")
	}
	if loaded.ImageDataVersion != manifest.DefaultImageDataVersion {
		t.Fatalf("unexpected image data version %q", loaded.ImageDataVersion)
	}
}

func TestSaveManifestUnknownPack(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveManifest(newTestPack("pack_missing00003"))
	if err == nil || !strings.Contains(err.Error(), "unknown pack") {
		t.Fatalf("expected unknown pack error, got %v", err)
	}
}

func TestAddStickerNumbersAndGapReuse(t *testing.T) {
	store := newTestStore(t)
	id, err := store.AllocateIdentifier()
	if err != nil {
		t.Fatalf("AllocateIdentifier: %v", err)
	}

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		index, err := store.NextStickerIndex(id)
		if err != nil {
			t.Fatalf("NextStickerIndex: %v", err)
		}
		if index != i {
			t.Fatalf("got index %d, want %d", index, i)
		}
		sticker, err := store.AddSticker(ctx, id, index, []byte("img"), []string{"😀"}, "")
		if err != nil {
			t.Fatalf("AddSticker %d: %v", i, err)
		}
		if want := fmt.Sprintf("sticker_%d.webp", i); sticker.ImageFile != want {
			t.Fatalf("got %q, want %q", sticker.ImageFile, want)
		}
	}

	if _, err := store.AddSticker(ctx, id, 2, []byte("img"), nil, ""); err == nil {
		t.Fatal("expected duplicate index rejection")
	}

	if ok, err := store.DeleteAsset(id, "sticker_2.webp"); err != nil || !ok {
		t.Fatalf("DeleteAsset: ok=%v err=%v", ok, err)
	}
	index, err := store.NextStickerIndex(id)
	if err != nil {
		t.Fatalf("NextStickerIndex after delete: %v", err)
	}
	if index != 2 {
		t.Fatalf("expected freed index reuse, got %d", index)
	}
}

func TestAddStickerHasNoCountCap(t *testing.T) {
	store := newTestStore(t)
	id, err := store.AllocateIdentifier()
	if err != nil {
		t.Fatalf("AllocateIdentifier: %v", err)
	}

	ctx := context.Background()
	for i := 1; i <= 31; i++ {
		if _, err := store.AddSticker(ctx, id, i, []byte("img"), []string{"😀"}, ""); err != nil {
			t.Fatalf("AddSticker %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(store.PackDir(id))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 31 {
		t.Fatalf("expected 31 stickers on disk, found %d entries", len(entries))
	}
}

func TestReplaceStickerRequiresExistingFile(t *testing.T) {
	store := newTestStore(t)
	id, err := store.AllocateIdentifier()
	if err != nil {
		t.Fatalf("AllocateIdentifier: %v", err)
	}

	ctx := context.Background()
	err = store.ReplaceSticker(ctx, id, "sticker_9.webp", []byte("img"))
	if err == nil || !strings.Contains(err.Error(), "unknown pack") {
		t.Fatalf("expected missing sticker error, got %v", err)
	}

	sticker, err := store.AddSticker(ctx, id, 1, []byte("first"), []string{"😀"}, "")
	if err != nil {
		t.Fatalf("AddSticker: %v", err)
	}
	if err := store.ReplaceSticker(ctx, id, sticker.ImageFile, []byte("second")); err != nil {
		t.Fatalf("ReplaceSticker: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(store.PackDir(id), sticker.ImageFile))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestDeleteAssetGuards(t *testing.T) {
	store := newTestStore(t)
	id, err := store.AllocateIdentifier()
	if err != nil {
		t.Fatalf("AllocateIdentifier: %v", err)
	}

	if _, err := store.DeleteAsset(id, "../escape.webp"); err == nil {
		t.Fatal("expected traversal rejection")
	}
	if _, err := store.DeleteAsset(id, manifest.FileName); err == nil {
		t.Fatal("expected manifest deletion rejection")
	}
	ok, err := store.DeleteAsset(id, "sticker_1.webp")
	if err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for absent asset")
	}
}

func TestDeletePack(t *testing.T) {
	store := newTestStore(t)
	id, err := store.AllocateIdentifier()
	if err != nil {
		t.Fatalf("AllocateIdentifier: %v", err)
	}

	ok, err := store.DeletePack(id)
	if err != nil || !ok {
		t.Fatalf("DeletePack: ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(store.PackDir(id)); !os.IsNotExist(err) {
		t.Fatalf("pack directory still present: %v", err)
	}
	ok, err = store.DeletePack(id)
	if err != nil || ok {
		t.Fatalf("second DeletePack: ok=%v err=%v", ok, err)
	}
}

func TestConcurrentSavesAlwaysDecodable(t *testing.T) {
	store := newTestStore(t)
	id, err := store.AllocateIdentifier()
	if err != nil {
		t.Fatalf("AllocateIdentifier: %v", err)
	}
	if err := store.SaveManifest(newTestPack(id)); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			pack := newTestPack(id)
			pack.Name = fmt.Sprintf("Writer %d", w)
			for i := 0; i < 25; i++ {
				if err := store.SaveManifest(pack); err != nil {
					t.Errorf("SaveManifest: %v", err)
					return
				}
			}
		}(w)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-done:
			if _, err := store.LoadPack(id); err != nil {
				t.Fatalf("final LoadPack: %v", err)
			}
			return
		default:
			if _, err := store.LoadPack(id); err != nil {
				t.Fatalf("LoadPack during writes: %v", err)
			}
		}
	}
}

func TestSubscribeSignalsOnMutation(t *testing.T) {
	store := newTestStore(t)
	ch, cancel := store.Subscribe()
	defer cancel()

	before := store.Generation()
	id, err := store.AllocateIdentifier()
	if err != nil {
		t.Fatalf("AllocateIdentifier: %v", err)
	}
	if err := store.SaveManifest(newTestPack(id)); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	select {
	case <-ch:
	default:
		t.Fatal("expected a change signal")
	}
	if store.Generation() <= before {
		t.Fatal("expected generation to advance")
	}
}

func TestImportPack(t *testing.T) {
	store := newTestStore(t)

	src := t.TempDir()
	pack := newTestPack("pack_abcdef012345")
	pack.Stickers = []manifest.Sticker{
		{ImageFile: "sticker_1.webp", Emojis: []string{"😀"}},
		{ImageFile: "sticker_2.webp", Emojis: []string{"🎉"}},
		{ImageFile: "sticker_3.webp", Emojis: []string{"🚀"}},
	}
	data, err := manifest.Encode(pack, "", "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, manifest.FileName), data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	assets := append([]string{pack.TrayImageFile}, "sticker_1.webp", "sticker_2.webp", "sticker_3.webp")
	for _, name := range assets {
		if err := os.WriteFile(filepath.Join(src, name), []byte("img"), 0o644); err != nil {
			t.Fatalf("write asset: %v", err)
		}
	}

	id, err := store.ImportPack(context.Background(), src)
	if err != nil {
		t.Fatalf("ImportPack: %v", err)
	}
	if id != pack.Identifier {
		t.Fatalf("got identifier %q, want %q", id, pack.Identifier)
	}
	loaded, err := store.LoadPack(id)
	if err != nil {
		t.Fatalf("LoadPack: %v", err)
	}
	if len(loaded.Stickers) != 3 {
		t.Fatalf("expected 3 stickers, got %d", len(loaded.Stickers))
	}
	for _, name := range assets {
		if _, err := os.Stat(filepath.Join(store.PackDir(id), name)); err != nil {
			t.Fatalf("asset %s missing: %v", name, err)
		}
	}

	if _, err := store.ImportPack(context.Background(), src); err == nil {
		t.Fatal("expected duplicate import rejection")
	}
}

func TestImportPackRejectsTrayTraversal(t *testing.T) {
	store := newTestStore(t)

	src := t.TempDir()
	pack := newTestPack("pack_abcdef012345")
	pack.TrayImageFile = "../../evil.png"
	data, err := manifest.Encode(pack, "", "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, manifest.FileName), data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	if _, err := store.ImportPack(context.Background(), src); err == nil {
		t.Fatal("expected import to reject tray traversal")
	}
	escaped := filepath.Join(store.PackDir(pack.Identifier), "../../evil.png")
	if _, err := os.Stat(escaped); err == nil {
		t.Fatalf("file escaped the pack directory: %s", escaped)
	}
	if _, err := os.Stat(store.PackDir(pack.Identifier)); err == nil {
		t.Fatal("rejected import left a pack directory behind")
	}
}
