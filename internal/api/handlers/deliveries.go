package handlers

import (
	"net/http"

	"delivery-tracker-service/internal/api/dto"
	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"
	"delivery-tracker-service/internal/services"
)

// DeliveryHandler exposes delivery CRUD plus the lifecycle operations:
// status transitions, driver assignment, and the advisory route.
type DeliveryHandler struct {
	Directory *services.Directory
	Lifecycle *services.Lifecycle
	Advisor   *services.RouteAdvisor
}

func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	var f ports.DeliveryFilter

	q := r.URL.Query()
	if v := q.Get("customer_id"); v != "" {
		f.CustomerID = &v
	}
	if v := q.Get("driver_id"); v != "" {
		f.DriverID = &v
	}
	if v := q.Get("status"); v != "" {
		st, err := domain.ParseStatus(v)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		f.Status = &st
	}

	deliveries, err := h.Directory.ListDeliveries(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := make([]dto.DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		res = append(res, dto.FromDelivery(d))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDeliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.Lifecycle.CreateDelivery(r.Context(), req.CustomerID, req.DriverID, req.OriginAddress, req.DestinationAddress)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.FromDelivery(d))
}

func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Directory.GetDelivery(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromDelivery(d))
}

func (h *DeliveryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDeliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.Directory.UpdateDelivery(r.Context(), r.PathValue("id"), ports.DeliveryUpdate{
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromDelivery(d))
}

func (h *DeliveryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteDelivery(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transition requests a status change. A DELIVERED request must carry
// the final position; both coordinates are required together.
func (h *DeliveryHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req dto.TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	to, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var final *domain.Position
	if req.FinalLat != nil || req.FinalLng != nil {
		if req.FinalLat == nil || req.FinalLng == nil {
			writeError(w, r, http.StatusBadRequest, "final_lat and final_lng must be provided together")
			return
		}
		final = &domain.Position{Lat: *req.FinalLat, Lng: *req.FinalLng}
	}

	d, err := h.Lifecycle.Transition(r.Context(), r.PathValue("id"), to, final)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromDelivery(d))
}

func (h *DeliveryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignDriverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.DriverID == "" {
		writeError(w, r, http.StatusBadRequest, "driver_id is required")
		return
	}

	d, err := h.Lifecycle.AssignDriver(r.Context(), r.PathValue("id"), req.DriverID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromDelivery(d))
}

func (h *DeliveryHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	d, err := h.Lifecycle.UnassignDriver(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromDelivery(d))
}

// Route returns the advisory route between a delivery's endpoints.
func (h *DeliveryHandler) Route(w http.ResponseWriter, r *http.Request) {
	ov, err := h.Advisor.Overview(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RouteOverviewResponse{
		Origin:          ov.Origin.CoordsToList(),
		Destination:     ov.Destination.CoordsToList(),
		DistanceMeters:  ov.Route.DistanceMeters,
		DurationSeconds: ov.Route.DurationSeconds,
		Geometry:        ov.Route.Geometry,
	})
}
