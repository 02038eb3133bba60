package handlers

import (
	"net/http"
	"time"

	"delivery-tracker-service/internal/api/dto"
	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/services"
)

// DriverHandler exposes driver CRUD plus the position report endpoint.
type DriverHandler struct {
	Directory *services.Directory
	Updater   *services.LocationUpdater
}

func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.Directory.ListDrivers(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := make([]dto.DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		res = append(res, dto.FromDriver(d))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *DriverHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePersonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.Directory.CreateDriver(r.Context(), req.Name, domain.Contact{
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.FromDriver(d))
}

func (h *DriverHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Directory.GetDriver(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromDriver(d))
}

func (h *DriverHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePersonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.Directory.UpdateDriver(r.Context(), r.PathValue("id"), req.ToDriverUpdate())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromDriver(d))
}

func (h *DriverHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteDriver(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReportPosition ingests one driver position report. Reports without an
// observed_at timestamp are stamped with the server arrival time.
func (h *DriverHandler) ReportPosition(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportPositionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	observedAt := time.Now().UTC()
	if req.ObservedAt != nil {
		observedAt = *req.ObservedAt
	}

	err := h.Updater.ReportPosition(r.Context(), r.PathValue("id"), domain.Position{Lat: req.Lat, Lng: req.Lng}, observedAt)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
}
