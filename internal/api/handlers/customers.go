package handlers

import (
	"net/http"

	"delivery-tracker-service/internal/api/dto"
	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/services"
)

// CustomerHandler exposes customer CRUD. Creation doubles as the
// self-registration path; the session service owns who may call it.
type CustomerHandler struct {
	Directory *services.Directory
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Directory.ListCustomers(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := make([]dto.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		res = append(res, dto.FromCustomer(c))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePersonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.Directory.CreateCustomer(r.Context(), req.Name, domain.Contact{
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.FromCustomer(c))
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Directory.GetCustomer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromCustomer(c))
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePersonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.Directory.UpdateCustomer(r.Context(), r.PathValue("id"), req.ToCustomerUpdate())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromCustomer(c))
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteCustomer(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
