package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ponyo877/lanshare/server/domain"
	"github.com/ponyo877/lanshare/server/usecase"
	"github.com/ponyo877/lanshare/wire"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (a *Adaptor) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (a *Adaptor) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, errorResponse{Error: message})
}

func (a *Adaptor) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (a *Adaptor) handlePeers(w http.ResponseWriter, r *http.Request) {
	stats := a.uc.Peers()
	a.writeJSON(w, http.StatusOK, wire.PeerStats{
		TotalPeers: stats.TotalPeers,
		Peers:      toPeerInfos(stats.Peers),
	})
}

func (a *Adaptor) handleFiles(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, toFileInfos(a.uc.Contents()))
}

func (a *Adaptor) handleFile(w http.ResponseWriter, r *http.Request) {
	item, err := a.uc.Content(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrContentNotFound) {
			a.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		a.logger.Error("Error getting content", zap.Error(err))
		a.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	a.writeJSON(w, http.StatusOK, toFileInfo(item))
}

// handleMessages serves the live history, or searches the archive when a
// pattern is given.
func (a *Adaptor) handleMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if s := query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			a.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	pattern := query.Get("pattern")
	if pattern == "" {
		a.writeJSON(w, http.StatusOK, toChatMessages(a.uc.ListMessages(limit)))
		return
	}

	messages, err := a.uc.SearchMessages(r.Context(), pattern, limit)
	switch {
	case errors.Is(err, usecase.ErrInvalidPattern):
		a.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrArchiveDisabled):
		a.writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		a.logger.Error("Error searching messages", zap.String("pattern", pattern), zap.Error(err))
		a.writeError(w, http.StatusInternalServerError, "internal error")
	default:
		a.writeJSON(w, http.StatusOK, toChatMessages(messages))
	}
}

func (a *Adaptor) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := a.uc.Stats()
	a.writeJSON(w, http.StatusOK, wire.ServerStats{
		Sessions:      stats.Sessions,
		Contents:      stats.Contents,
		Messages:      stats.Messages,
		Subscribers:   stats.Broadcast.Subscribers,
		Published:     stats.Broadcast.Published,
		Unicast:       stats.Broadcast.Unicast,
		Evicted:       stats.Broadcast.Evicted,
		UptimeSeconds: int64(stats.Uptime.Seconds()),
	})
}
