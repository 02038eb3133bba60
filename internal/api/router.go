package api

import (
	"net/http"

	"delivery-tracker-service/internal/api/handlers"
	"delivery-tracker-service/internal/fanout"
	"delivery-tracker-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware
// of concrete adapters).
func NewRouter(
	directory *services.Directory,
	lifecycle *services.Lifecycle,
	updater *services.LocationUpdater,
	advisor *services.RouteAdvisor,
	registry *fanout.Registry,
) http.Handler {
	mux := http.NewServeMux()

	driverHandler := &handlers.DriverHandler{Directory: directory, Updater: updater}
	customerHandler := &handlers.CustomerHandler{Directory: directory}
	adminHandler := &handlers.AdminHandler{Directory: directory}
	deliveryHandler := &handlers.DeliveryHandler{Directory: directory, Lifecycle: lifecycle, Advisor: advisor}
	streamHandler := &handlers.StreamHandler{Registry: registry}

	mux.HandleFunc("GET /health", handlers.Health)

	mux.HandleFunc("GET /drivers", driverHandler.List)
	mux.HandleFunc("POST /drivers", driverHandler.Create)
	mux.HandleFunc("GET /drivers/{id}", driverHandler.Get)
	mux.HandleFunc("PATCH /drivers/{id}", driverHandler.Update)
	mux.HandleFunc("DELETE /drivers/{id}", driverHandler.Delete)
	mux.HandleFunc("POST /drivers/{id}/position", driverHandler.ReportPosition)

	mux.HandleFunc("GET /customers", customerHandler.List)
	mux.HandleFunc("POST /customers", customerHandler.Create)
	mux.HandleFunc("GET /customers/{id}", customerHandler.Get)
	mux.HandleFunc("PATCH /customers/{id}", customerHandler.Update)
	mux.HandleFunc("DELETE /customers/{id}", customerHandler.Delete)

	mux.HandleFunc("GET /admins", adminHandler.List)
	mux.HandleFunc("POST /admins", adminHandler.Create)
	mux.HandleFunc("GET /admins/{id}", adminHandler.Get)
	mux.HandleFunc("PATCH /admins/{id}", adminHandler.Update)
	mux.HandleFunc("DELETE /admins/{id}", adminHandler.Delete)

	mux.HandleFunc("GET /deliveries", deliveryHandler.List)
	mux.HandleFunc("POST /deliveries", deliveryHandler.Create)
	mux.HandleFunc("GET /deliveries/{id}", deliveryHandler.Get)
	mux.HandleFunc("PATCH /deliveries/{id}", deliveryHandler.Update)
	mux.HandleFunc("DELETE /deliveries/{id}", deliveryHandler.Delete)
	mux.HandleFunc("POST /deliveries/{id}/transition", deliveryHandler.Transition)
	mux.HandleFunc("POST /deliveries/{id}/assign", deliveryHandler.Assign)
	mux.HandleFunc("POST /deliveries/{id}/unassign", deliveryHandler.Unassign)
	mux.HandleFunc("GET /deliveries/{id}/route", deliveryHandler.Route)

	mux.HandleFunc("GET /stream", streamHandler.Stream)

	return loggingMiddleware(identityMiddleware(mux))
}
