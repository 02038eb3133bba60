package handlers

import (
	"net/http"

	"delivery-tracker-service/internal/api/dto"
	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/services"
)

// AdminHandler exposes admin CRUD. Only existing admins reach these
// routes; the role check happens in the identity middleware.
type AdminHandler struct {
	Directory *services.Directory
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.Directory.ListAdmins(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := make([]dto.AdminResponse, 0, len(admins))
	for _, a := range admins {
		res = append(res, dto.FromAdmin(a))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePersonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.Directory.CreateAdmin(r.Context(), req.Name, domain.Contact{
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.FromAdmin(a))
}

func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.Directory.GetAdmin(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromAdmin(a))
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePersonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.Directory.UpdateAdmin(r.Context(), r.PathValue("id"), req.ToAdminUpdate())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromAdmin(a))
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteAdmin(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
