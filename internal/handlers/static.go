package handlers

import (
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/poster-splitter/internal/poster"
)

type indexPage struct {
	Messages []string
	Defaults poster.Config
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		Messages: h.flashes.Pop(h.sessionID(w, r)),
		Defaults: poster.DefaultConfig(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.index.Execute(w, page); err != nil {
		slog.Error("Unable to render index", "err", err)
	}
}

// HandleHealthcheck reports that the server is up.
func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}
