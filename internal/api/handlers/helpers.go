package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"delivery-tracker-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object into v, rejecting unknown
// fields and trailing content.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Every
// rejected operation reports enough detail to correct and resubmit.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		rejected   domain.RejectedError
		invalid    domain.InvalidTransitionError
		transition domain.TransitionFailedError
	)

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.As(err, &rejected):
		writeError(w, r, http.StatusUnprocessableEntity, rejected.Error())
	case errors.As(err, &invalid):
		writeError(w, r, http.StatusConflict, invalid.Error())
	case errors.As(err, &transition):
		// Transient commit failure: safe for the caller to retry as-is.
		writeError(w, r, http.StatusServiceUnavailable, "transition failed, retry")
	default:
		log.Printf("request failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
