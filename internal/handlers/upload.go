package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/poster-splitter/internal/document"
	"github.com/lehigh-university-libraries/poster-splitter/internal/layout"
	"github.com/lehigh-university-libraries/poster-splitter/internal/poster"
)

const missingImageMessage = "Please upload an image first."

// HandleIndex serves the upload form and turns submitted images into a
// downloadable poster.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case "GET":
		h.renderIndex(w, r)
	case "POST":
		h.handlePosterUpload(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePosterUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.readUpload(w, r)
	if err != nil {
		h.flashAndRedirect(w, r, err.Error())
		return
	}
	defer file.Close()

	cfg := h.formConfig(r)

	var pdf bytes.Buffer
	plan, err := poster.Write(&pdf, file, cfg)
	if err != nil {
		if poster.IsValidationError(err) {
			slog.Info("Rejected poster request", "filename", header.Filename, "err", err)
			h.flashAndRedirect(w, r, err.Error())
			return
		}
		h.writeError(w, "Failed to create poster: "+err.Error(), http.StatusInternalServerError)
		return
	}

	downloadName := fmt.Sprintf("poster-%s.pdf", h.now().Format("20060102-150405"))
	slog.Info("Poster created",
		"filename", header.Filename,
		"download", downloadName,
		"pages", plan.Pages(),
		"rows", plan.Rows,
		"cols", plan.Cols,
		"bytes", pdf.Len(),
	)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	w.Header().Set("Content-Length", strconv.Itoa(pdf.Len()))
	if _, err := pdf.WriteTo(w); err != nil {
		slog.Error("Unable to write poster", "err", err)
	}
}

// PlanResponse is the JSON body returned by HandlePlan.
type PlanResponse struct {
	Config    poster.Config      `json:"config"`
	Plan      layout.Plan        `json:"plan"`
	Pages     int                `json:"pages"`
	Placement document.Placement `json:"placement"`
}

// HandlePlan reports the tile grid an upload would produce without
// rendering it.
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, _, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	cfg := h.formConfig(r)
	plan, err := poster.Plan(file, cfg)
	if err != nil {
		code := http.StatusInternalServerError
		if poster.IsValidationError(err) {
			code = http.StatusBadRequest
		}
		h.writeError(w, err.Error(), code)
		return
	}

	h.writeJSON(w, PlanResponse{
		Config:    cfg,
		Plan:      plan,
		Pages:     plan.Pages(),
		Placement: document.Place(plan.TileWidthPx, plan.TileHeightPx, cfg.MarginMM, cfg.DPI),
	})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("File too large (max %d MB)", h.maxUploadBytes>>20)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, errors.New(missingImageMessage)
		}
		return nil, nil, fmt.Errorf("Failed to read upload: %w", err)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, nil, errors.New(missingImageMessage)
	}
	if header.Filename == "" {
		file.Close()
		return nil, nil, errors.New(missingImageMessage)
	}
	return file, header, nil
}

// formConfig reads the poster settings from the form. Missing or malformed
// values fall back to the defaults; range checks are left to the pipeline.
// The pixel ceiling always comes from the server settings.
func (h *Handler) formConfig(r *http.Request) poster.Config {
	cfg := poster.DefaultConfig()
	cfg.MaxPixels = h.maxPixels
	if v, err := strconv.Atoi(strings.TrimSpace(r.FormValue("pages_across"))); err == nil {
		cfg.PagesAcross = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("margin_mm")), 64); err == nil {
		cfg.MarginMM = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(r.FormValue("dpi"))); err == nil {
		cfg.DPI = v
	}
	if v := r.FormValue("orientation"); v != "" {
		cfg.Orientation = v
	}
	return cfg
}
