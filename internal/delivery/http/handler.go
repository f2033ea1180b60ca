package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/driveshare/marketing-dispatch/internal/content"
	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/driveshare/marketing-dispatch/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/golang/glog"
)

const defaultStatsLimit = 30

// 1x1 transparent GIF.
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type TriggerResponse struct {
	Sent int `json:"sent"`
}

type StatsResponse struct {
	Stats []domain.DailyStat `json:"stats"`
}

type Handler struct {
	runner     usecase.Runner
	stats      usecase.StatsReader
	tracking   usecase.TrackingGateway
	apiKey     string
	landingURL string
}

func NewHandler(runner usecase.Runner, stats usecase.StatsReader, tracking usecase.TrackingGateway, apiKey, landingURL string) *Handler {
	return &Handler{
		runner:     runner,
		stats:      stats,
		tracking:   tracking,
		apiKey:     apiKey,
		landingURL: landingURL,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/marketing", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireAPIKey(h.apiKey))
			r.Post("/trigger", h.Trigger)
			r.Get("/stats", h.Stats)
		})
		r.Get("/track/open", h.TrackOpen)
		r.Get("/track/click", h.TrackClick)
	})
}

// Trigger answers 200 even when individual sends failed; only an aborted run
// is an error.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.Run(r.Context())
	if err != nil {
		if domain.IsPersistenceError(err) {
			glog.Errorf("Campaign run %s aborted: %v", result.RunID, err)
		} else {
			glog.Errorf("Campaign run failed: %v", err)
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, TriggerResponse{Sent: result.Sent})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	limit := defaultStatsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	stats, err := h.stats.History(r.Context(), limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLimit) {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		glog.Errorf("Failed to read campaign stats: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{Stats: stats})
}

// TrackOpen always serves the pixel; a tracking failure must not break the
// email rendering.
func (h *Handler) TrackOpen(w http.ResponseWriter, r *http.Request) {
	h.track(r, domain.TrackingOpen)

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(trackingPixel)
}

func (h *Handler) TrackClick(w http.ResponseWriter, r *http.Request) {
	h.track(r, domain.TrackingClick)
	http.Redirect(w, r, h.landingURL, http.StatusFound)
}

func (h *Handler) track(r *http.Request, eventType domain.TrackingEventType) {
	recipientID := r.URL.Query().Get(content.RecipientParam)
	if recipientID == "" {
		return
	}
	if err := h.tracking.Track(r.Context(), eventType, recipientID); err != nil {
		glog.Warningf("Failed to record %s for recipient %s: %v", eventType, recipientID, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Warningf("Failed to write response: %v", err)
	}
}
