package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	json "github.com/goccy/go-json"

	"stickerd/internal/config"
	"stickerd/internal/logging"
	"stickerd/internal/manifest"
)

const generationHeader = "X-Packs-Generation"

// GenerationSource reports the store's mutation counter so clients can tell
// when listings go stale. The pack store implements it.
type GenerationSource interface {
	Generation() uint64
}

// Server exposes the query service over HTTP.
type Server struct {
	bind   string
	logger *slog.Logger
	svc    *Service
	gen    GenerationSource

	listener net.Listener
	server   *http.Server
}

// NewServer wires the query service into an HTTP server on the configured
// bind address. A nil generation source simply omits the staleness header.
func NewServer(cfg *config.Config, svc *Service, gen GenerationSource, logger *slog.Logger) (*Server, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("server requires config and service")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}

	srv := &Server{
		bind:   bind,
		logger: logger,
		svc:    svc,
		gen:    gen,
	}
	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the route table. Exposed so tests can drive it without a
// listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/healthz", s.handleHealthz)
	mux.HandleFunc("/v1/metadata", s.handleMetadata)
	mux.HandleFunc("/v1/metadata/", s.handleMetadataOne)
	mux.HandleFunc("/v1/stickers/", s.handleStickers)
	mux.HandleFunc("/v1/stickers_asset/", s.handleAsset)
	return mux
}

// Start begins serving and shuts down when ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down and closes the listener.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rows, err := s.svc.ListPacks()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []PackRow{}
	}
	s.setGeneration(w)
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleMetadataOne(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	identifier := strings.TrimPrefix(r.URL.Path, "/v1/metadata/")
	if identifier == "" || strings.Contains(identifier, "/") {
		s.writeError(w, http.StatusNotFound, "pack not found")
		return
	}
	row, err := s.svc.GetPack(identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "pack not found")
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.setGeneration(w)
	s.writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleStickers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	identifier := strings.TrimPrefix(r.URL.Path, "/v1/stickers/")
	if identifier == "" || strings.Contains(identifier, "/") {
		s.writeError(w, http.StatusNotFound, "pack not found")
		return
	}
	rows, err := s.svc.ListStickers(identifier)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rows == nil {
		rows = []StickerRow{}
	}
	s.setGeneration(w)
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/stickers_asset/")
	identifier, filename, ok := strings.Cut(rest, "/")
	if !ok || identifier == "" || filename == "" || strings.Contains(filename, "/") {
		s.writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	reader, size, err := s.svc.FetchAsset(identifier, filename)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", assetContentType(filename))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		s.log().Warn("asset write interrupted", logging.Error(err))
	}
}

func assetContentType(filename string) string {
	switch {
	case strings.HasSuffix(filename, manifest.StickerExt):
		return "image/webp"
	case strings.HasSuffix(filename, manifest.TrayExt):
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func (s *Server) setGeneration(w http.ResponseWriter) {
	if s.gen == nil {
		return
	}
	w.Header().Set(generationHeader, strconv.FormatUint(s.gen.Generation(), 10))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return logging.WithComponent(s.logger, "api-server")
	}
	return logging.NewNop()
}
