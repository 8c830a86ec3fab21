package packstore

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"stickerd/internal/config"
	"stickerd/internal/imaging"
	"stickerd/internal/logging"
	"stickerd/internal/manifest"
)

// ErrUnknownPack is returned when an operation references a pack directory
// that does not exist.
var ErrUnknownPack = errors.New("unknown pack")

const lockFileName = ".lock"

// Store owns the pack tree under the configured packs root and enforces
// single-instance mutation. All writes go through it; reads may bypass it
// because every write lands atomically.
type Store struct {
	cfg     *config.Config
	encoder imaging.Encoder
	logger  *slog.Logger

	lockPath string
	lock     *flock.Flock

	// Serializes manifest writes per pack so concurrent saves cannot
	// interleave and readers always decode a complete document.
	manifestMu sync.Mutex
	manifests  map[string]*sync.Mutex

	generation atomic.Uint64

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// New prepares the pack tree and acquires the store lock. It fails when
// another stickerd process already holds the lock.
func New(cfg *config.Config, encoder imaging.Encoder, logger *slog.Logger) (*Store, error) {
	if cfg == nil || encoder == nil {
		return nil, errors.New("packstore requires config and encoder")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lockPath := filepath.Join(cfg.PacksRoot(), lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another stickerd instance holds %s", lockPath)
	}

	return &Store{
		cfg:       cfg,
		encoder:   encoder,
		logger:    logging.WithComponent(logger, "packstore"),
		lockPath:  lockPath,
		lock:      lock,
		manifests: make(map[string]*sync.Mutex),
		subs:      make(map[int]chan struct{}),
	}, nil
}

// Close releases the store lock.
func (s *Store) Close() error {
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("release store lock: %w", err)
	}
	return nil
}

// Root returns the directory holding one subdirectory per pack.
func (s *Store) Root() string {
	return s.cfg.PacksRoot()
}

// PackDir returns the directory for one pack.
func (s *Store) PackDir(identifier string) string {
	return filepath.Join(s.cfg.PacksRoot(), identifier)
}

// ManifestPath returns the manifest file location for one pack.
func (s *Store) ManifestPath(identifier string) string {
	return filepath.Join(s.PackDir(identifier), manifest.FileName)
}

// Generation is a counter bumped on every store mutation. Clients use it to
// detect that previously fetched listings are stale.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// Subscribe returns a channel that receives a signal after every store
// mutation and a cancel function that releases the subscription. Signals
// coalesce; a slow receiver sees at least one signal, not one per change.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.generation.Add(1)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) manifestLock(identifier string) *sync.Mutex {
	s.manifestMu.Lock()
	defer s.manifestMu.Unlock()
	mu, ok := s.manifests[identifier]
	if !ok {
		mu = &sync.Mutex{}
		s.manifests[identifier] = mu
	}
	return mu
}

// checkSegment rejects names that would escape the pack directory when
// joined onto it.
func checkSegment(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%s %q must be a plain name without path separators", kind, name)
	}
	return nil
}
