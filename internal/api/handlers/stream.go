package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"delivery-tracker-service/internal/api/dto"
	"delivery-tracker-service/internal/fanout"
	"delivery-tracker-service/internal/platform/obs"
)

// StreamHandler is the push channel per observer: a long-lived
// Server-Sent Events connection delivering serialized entity snapshots.
// The subscription lives exactly as long as the connection; disconnect
// detaches the observer and releases every subscription.
type StreamHandler struct {
	Registry *fanout.Registry

	// Heartbeat keeps intermediaries from closing an idle connection and
	// refreshes the observer's last-seen for the reaper.
	Heartbeat time.Duration
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	observerID, _ := r.Context().Value(obs.ObserverIDKey).(string)
	if observerID == "" {
		writeError(w, r, http.StatusUnauthorized, "observer identity required")
		return
	}

	targets := parseTargets(r)
	if len(targets) == 0 {
		writeError(w, r, http.StatusBadRequest, "at least one of delivery, driver, all_drivers is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, err := h.Registry.Attach(observerID)
	if err != nil {
		if errors.Is(err, fanout.ErrObserverExists) {
			writeError(w, r, http.StatusConflict, "observer already has an open stream")
			return
		}
		writeError(w, r, http.StatusServiceUnavailable, "stream unavailable")
		return
	}
	defer func() {
		if err := h.Registry.Detach(observerID); err != nil && !errors.Is(err, fanout.ErrObserverNotFound) {
			log.Printf("stream detach failed: observer=%s err=%v", observerID, err)
		}
	}()

	for _, t := range targets {
		if _, err := h.Registry.Subscribe(observerID, t); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "stream unavailable")
			return
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
			h.Registry.Touch(observerID)

		case u, open := <-ch:
			if !open {
				// Reaped as idle; the client reconnects and re-fetches.
				return
			}

			ev := dto.StreamEvent{
				Kind:    string(u.Kind),
				ID:      u.ID,
				Seq:     u.Seq,
				Deleted: u.Deleted,
				Entity:  dto.FromEntity(u.Entity),
			}
			b, err := json.Marshal(ev)
			if err != nil {
				log.Printf("stream encode failed: observer=%s err=%v", observerID, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, b); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func parseTargets(r *http.Request) []fanout.Target {
	q := r.URL.Query()

	var targets []fanout.Target
	for _, id := range q["delivery"] {
		if id != "" {
			targets = append(targets, fanout.Target{Kind: fanout.TargetDelivery, ID: id})
		}
	}
	for _, id := range q["driver"] {
		if id != "" {
			targets = append(targets, fanout.Target{Kind: fanout.TargetDriver, ID: id})
		}
	}
	if q.Get("all_drivers") == "true" {
		targets = append(targets, fanout.Target{Kind: fanout.TargetAllDrivers})
	}
	return targets
}
