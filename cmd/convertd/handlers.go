// handlers.go — HTTP endpoints of the conversion service.
package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xob0t/GoStamp/pkg/surface"
)

type handlerConfig struct {
	PDF       surface.PDFConverter
	HTML      surface.HTMLConverter
	Origin    string
	MaxUpload int64
	Logger    *slog.Logger
}

type handlers struct {
	handlerConfig
}

func newRouter(cfg handlerConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = 50 << 20
	}
	h := &handlers{cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.cors)

	r.Post("/convert-docx", h.convertDocx)
	r.Post("/upload-docx", h.uploadDocx)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

func (h *handlers) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.Origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// convertDocx answers with the converted PDF.
func (h *handlers) convertDocx(w http.ResponseWriter, r *http.Request) {
	name, data, ok := h.readDocx(w, r)
	if !ok {
		return
	}
	pdf, err := h.PDF.ToPDF(r.Context(), name, data)
	if err != nil {
		h.Logger.Error("convert-docx failed", "name", name, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="converted.pdf"`)
	w.Write(pdf)
}

// uploadDocx answers with the document body as HTML.
func (h *handlers) uploadDocx(w http.ResponseWriter, r *http.Request) {
	name, data, ok := h.readDocx(w, r)
	if !ok {
		return
	}
	html, err := h.HTML.ToHTML(r.Context(), name, data)
	if err != nil {
		h.Logger.Error("upload-docx failed", "name", name, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

func (h *handlers) readDocx(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "no file uploaded", http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".docx") {
		jsonError(w, "Only .docx files are supported.", http.StatusBadRequest)
		return "", nil, false
	}
	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "read upload: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	return header.Filename, data, true
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
