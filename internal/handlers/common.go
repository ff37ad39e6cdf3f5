package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"embed"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/poster-splitter/internal/config"
	"github.com/lehigh-university-libraries/poster-splitter/internal/storage"
)

const sessionCookie = "poster_session"

//go:embed templates/*.html
var templateFS embed.FS

type Handler struct {
	flashes        *storage.FlashStore
	secretKey      []byte
	maxUploadBytes int64
	maxPixels      int64
	index          *template.Template

	// now is swapped in tests to pin download names.
	now func() time.Time
}

func New(cfg config.Server) *Handler {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = config.DefaultMaxUploadBytes
	}
	return &Handler{
		flashes:        storage.NewWithLimits(cfg.FlashTTL, cfg.FlashLimit),
		secretKey:      []byte(cfg.SecretKey),
		maxUploadBytes: maxUpload,
		maxPixels:      cfg.MaxPixels,
		index:          template.Must(template.ParseFS(templateFS, "templates/index.html")),
		now:            time.Now,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers

// sessionID returns the caller's signed session id, issuing a new one when
// the cookie is missing or has been tampered with.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, ok := h.verify(c.Value); ok {
			return id
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    h.sign(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handler) sign(id string) string {
	mac := hmac.New(sha256.New, h.secretKey)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) verify(value string) (string, bool) {
	id, _, found := strings.Cut(value, ".")
	if !found || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(value), []byte(h.sign(id))) {
		return "", false
	}
	return id, true
}

// flashAndRedirect queues message for the next page view and sends the
// browser back to the form.
func (h *Handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, message string) {
	h.flashes.Add(h.sessionID(w, r), message)
	slog.Debug("Queued flash message", "pending_sessions", h.flashes.Len())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
