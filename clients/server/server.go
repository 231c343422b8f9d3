// Package server provides the GoStamp editor HTTP API over one session.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xob0t/GoStamp/pkg/encoder"
	"github.com/xob0t/GoStamp/pkg/interact"
	"github.com/xob0t/GoStamp/pkg/session"
	"github.com/xob0t/GoStamp/pkg/stamp"
	"github.com/xob0t/GoStamp/pkg/surface"
)

// Config wires the API to its session.
type Config struct {
	Session        *session.Session
	Logger         *slog.Logger
	MaxUploadBytes int64
	Export         encoder.Options
}

// Server serves the editor API.
type Server struct {
	sess      *session.Session
	log       *slog.Logger
	maxUpload int64
	export    encoder.Options
}

// New creates a Server. A nil Session gets a fresh one with default wiring.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Session == nil {
		cfg.Session = session.New(session.Config{Logger: cfg.Logger})
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	return &Server{
		sess:      cfg.Session,
		log:       cfg.Logger,
		maxUpload: cfg.MaxUploadBytes,
		export:    cfg.Export,
	}
}

// Routes builds the chi router for the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/document", s.handleLoadDocument)
		r.Get("/document", s.handleInfo)

		r.Get("/pages/groups", s.handlePageGroups)
		r.Post("/pages/{n}/goto", s.handleGoTo)
		r.Get("/pages/{n}/image", s.handlePageImage)
		r.Get("/pages/{n}/preview", s.handlePreview)

		r.Post("/stamps", s.handleUploadStamps)
		r.Get("/stamps", s.handleListStamps)
		r.Get("/stamps/{id}/image", s.handleStampImage)
		r.Patch("/stamps/{id}", s.handleUpdateStamp)

		r.Get("/placements", s.handleListPlacements)
		r.Post("/placements", s.handleAddPlacement)
		r.Patch("/placements/{id}", s.handleEditPlacement)
		r.Delete("/placements/{id}", s.handleRemovePlacement)

		r.Post("/pointer/down", s.handlePointerDown)
		r.Post("/pointer/move", s.handlePointerMove)
		r.Post("/pointer/up", s.handlePointerUp)

		r.Get("/export", s.handleExport)
	})
	return r
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("GoStamp listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", shutdownTimeout)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// ── Document ──

func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpError(w, "read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.sess.LoadDocument(r.Context(), header.Filename, data); err != nil {
		switch {
		case errors.Is(err, session.ErrUnsupportedDocument):
			httpError(w, err.Error(), http.StatusUnsupportedMediaType)
		case errors.Is(err, session.ErrConversionFailure):
			httpError(w, "document conversion failed", http.StatusBadGateway)
		default:
			s.log.Error("load document", "error", err)
			httpError(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Info())
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Info())
}

// ── Pages ──

func (s *Server) handlePageGroups(w http.ResponseWriter, r *http.Request) {
	groups := s.sess.PageGroups()
	if groups == nil {
		groups = []session.PageGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// handleGoTo ignores pages outside the document and reports the unchanged state.
func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	n, ok := pageParam(w, r)
	if !ok {
		return
	}
	s.sess.GoToPage(n)
	writeJSON(w, http.StatusOK, s.sess.Info())
}

func (s *Server) handlePageImage(w http.ResponseWriter, r *http.Request) {
	n, ok := pageParam(w, r)
	if !ok {
		return
	}
	if s.sess.Info().Flattened {
		page, err := s.sess.PageRaster(r.Context(), n)
		if err != nil {
			s.pageError(w, err)
			return
		}
		writePNG(w, page)
		return
	}

	enc, err := s.sess.PageEncoded(n)
	if err != nil {
		s.pageError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(enc.Data)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	n, ok := pageParam(w, r)
	if !ok {
		return
	}
	page, err := s.sess.Preview(r.Context(), n)
	if err != nil {
		s.pageError(w, err)
		return
	}
	writePNG(w, page)
}

func (s *Server) pageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoDocument), errors.Is(err, surface.ErrPageRange):
		httpError(w, err.Error(), http.StatusNotFound)
	default:
		s.log.Error("render page", "error", err)
		httpError(w, "render failed", http.StatusInternalServerError)
	}
}

// ── Stamps ──

// handleUploadStamps adds every image in the "file" fields. Non-image files
// are skipped; the response lists the stamps that were added, or is 204 when
// none were.
func (s *Server) handleUploadStamps(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		httpError(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		httpError(w, "no file uploaded", http.StatusBadRequest)
		return
	}

	added := make([]stamp.Asset, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			httpError(w, "read upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		if a, ok := s.sess.UploadStamp(fh.Filename, partContentType(fh), data); ok {
			added = append(added, a)
		}
	}
	if len(added) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, added)
}

func (s *Server) handleListStamps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Stamps())
}

func (s *Server) handleStampImage(w http.ResponseWriter, r *http.Request) {
	a, ok := s.sess.Stamp(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Write(a.Data)
}

func (s *Server) handleUpdateStamp(w http.ResponseWriter, r *http.Request) {
	var upd stamp.AssetUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	a, ok := s.sess.UpdateStamp(chi.URLParam(r, "id"), upd)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ── Placements ──

func (s *Server) handleListPlacements(w http.ResponseWriter, r *http.Request) {
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			httpError(w, "invalid page", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(s.sess.Placements(n)))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.sess.AllPlacements()))
}

type addRequest struct {
	Stamp string `json:"stamp"`
	Page  *int   `json:"page,omitempty"`
}

func (s *Server) handleAddPlacement(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		p  stamp.Placement
		ok bool
	)
	if req.Page != nil {
		p, ok = s.sess.AddToPage(req.Stamp, *req.Page)
	} else {
		p, ok = s.sess.AddToCurrentPage(req.Stamp)
	}
	if !ok {
		httpError(w, "unknown stamp "+strconv.Quote(req.Stamp), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// editRequest carries optional edits. X and Y move together; a missing one
// keeps its current value.
type editRequest struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Size     *float64 `json:"size,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

func (s *Server) handleEditPlacement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req editRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, ok := s.sess.Placement(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	var err error
	if req.X != nil || req.Y != nil {
		x, y := p.X, p.Y
		if req.X != nil {
			x = *req.X
		}
		if req.Y != nil {
			y = *req.Y
		}
		p, err = s.sess.MovePlacement(id, x, y)
	}
	if err == nil && req.Size != nil {
		p, err = s.sess.ResizePlacement(id, *req.Size)
	}
	if err == nil && req.Rotation != nil {
		p, err = s.sess.RotatePlacement(id, *req.Rotation)
	}
	if err != nil {
		// Removed concurrently.
		httpError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRemovePlacement(w http.ResponseWriter, r *http.Request) {
	if !s.sess.RemovePlacement(chi.URLParam(r, "id")) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Pointer ──

type pointerDown struct {
	ID string `json:"id"`
}

type pointerMove struct {
	Point    interact.Point    `json:"point"`
	Viewport interact.Viewport `json:"viewport"`
}

func (s *Server) handlePointerDown(w http.ResponseWriter, r *http.Request) {
	var req pointerDown
	if !decodeJSON(w, r, &req) {
		return
	}
	if !s.sess.PointerDown(req.ID) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Info())
}

// handlePointerMove answers 204 when nothing is being dragged.
func (s *Server) handlePointerMove(w http.ResponseWriter, r *http.Request) {
	var req pointerMove
	if !decodeJSON(w, r, &req) {
		return
	}
	p, moved := s.sess.PointerMove(req.Point, req.Viewport)
	if !moved {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePointerUp(w http.ResponseWriter, r *http.Request) {
	s.sess.PointerUp()
	w.WriteHeader(http.StatusNoContent)
}

// ── Export ──

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}
	enc, err := encoder.ForExtension("."+format, s.export)
	if err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	res, err := s.sess.Export(r.Context(), enc, &buf)
	if err != nil {
		if errors.Is(err, session.ErrNoDocument) {
			httpError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.log.Error("export failed", "format", format, "error", err)
		httpError(w, "export failed", http.StatusInternalServerError)
		return
	}
	if res.Skipped > 0 {
		w.Header().Set("X-Skipped-Placements", strconv.Itoa(res.Skipped))
	}

	w.Header().Set("Content-Type", enc.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportName(s.sess.Info().Name, enc.Ext())))
	w.Write(buf.Bytes())
}

// exportName derives the download name from the loaded document.
func exportName(doc, ext string) string {
	base := strings.TrimSuffix(filepath.Base(doc), filepath.Ext(doc))
	if base == "" || base == "." {
		base = "document"
	}
	base = strings.NewReplacer(`"`, "_", "/", "_", `\`, "_").Replace(base)
	return base + "_stamped" + ext
}

// ── Helpers ──

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func pageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		httpError(w, "invalid page number", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// partContentType trusts the part's declared type unless the client sent a
// generic one, in which case the extension decides.
func partContentType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename))); byExt != "" {
			return byExt
		}
	}
	return ct
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		httpError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, page surface.Page) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, page.Image); err != nil {
		httpError(w, "encode PNG: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func httpError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil(ps []stamp.Placement) []stamp.Placement {
	if ps == nil {
		return []stamp.Placement{}
	}
	return ps
}

// OpenBrowser points the desktop browser at url.
func OpenBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
