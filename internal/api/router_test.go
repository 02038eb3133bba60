package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"delivery-tracker-service/internal/adapters/repositories"
	"delivery-tracker-service/internal/fanout"
	"delivery-tracker-service/internal/services"
)

func newTestRouter(t *testing.T) (http.Handler, *fanout.Engine) {
	t.Helper()

	store := repositories.NewMemoryStore()
	registry := fanout.NewRegistry(8)
	engine := fanout.NewEngine(registry, store)
	t.Cleanup(engine.Close)

	directory := services.NewDirectory(store, engine)
	lifecycle := services.NewLifecycle(store, engine)
	updater := services.NewLocationUpdater(store, engine)
	advisor := services.NewRouteAdvisor(store, nil, nil)

	return NewRouter(directory, lifecycle, updater, advisor, registry), engine
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestDriverEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/drivers", map[string]string{
		"name":  "Budi Santoso",
		"email": "budi@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	id, _ := decodeBody(t, rec)["id"].(string)
	if id == "" {
		t.Fatal("created driver has no id")
	}

	rec = doJSON(t, router, http.MethodGet, "/drivers/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["name"]; got != "Budi Santoso" {
		t.Fatalf("name = %v", got)
	}

	rec = doJSON(t, router, http.MethodGet, "/drivers/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing driver status = %d", rec.Code)
	}
}

func TestReportPositionEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/drivers", map[string]string{"name": "Budi Santoso"})
	id, _ := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/drivers/%s/position", id), map[string]float64{
		"lat": -6.2, "lng": 106.8,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("report status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/drivers/"+id, nil)
	if got := decodeBody(t, rec)["current_lat"]; got != -6.2 {
		t.Fatalf("current_lat = %v", got)
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/drivers/%s/position", id), map[string]float64{
		"lat": 91, "lng": 0,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("out-of-range status = %d", rec.Code)
	}
}

func TestDeliveryTransitionEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/customers", map[string]string{"name": "Citra Lestari"})
	custID, _ := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/deliveries", map[string]string{
		"customer_id":         custID,
		"origin_address":      "Jl. Merdeka Barat 12",
		"destination_address": "Jl. Thamrin 5",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create delivery status = %d body=%s", rec.Code, rec.Body.String())
	}
	delID, _ := decodeBody(t, rec)["id"].(string)
	if got := decodeBody(t, rec)["customer_name"]; got != "Citra Lestari" {
		t.Fatalf("customer_name = %v", got)
	}

	// No driver assigned: the guard rejects the start.
	rec = doJSON(t, router, http.MethodPost, "/deliveries/"+delID+"/transition", map[string]string{"status": "IN_PROGRESS"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("driverless start status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/deliveries/"+delID+"/transition", map[string]string{"status": "CANCELLED"})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d body=%s", rec.Code, rec.Body.String())
	}

	// Terminal state: further transitions conflict.
	rec = doJSON(t, router, http.MethodPost, "/deliveries/"+delID+"/transition", map[string]string{"status": "IN_PROGRESS"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("post-terminal status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAssignEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/customers", map[string]string{"name": "Citra Lestari"})
	custID, _ := decodeBody(t, rec)["id"].(string)
	rec = doJSON(t, router, http.MethodPost, "/drivers", map[string]string{"name": "Budi Santoso"})
	drvID, _ := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/deliveries", map[string]string{
		"customer_id":         custID,
		"origin_address":      "A",
		"destination_address": "B",
	})
	delID, _ := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/deliveries/"+delID+"/assign", map[string]string{"driver_id": drvID})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["driver_id"]; got != drvID {
		t.Fatalf("driver_id = %v", got)
	}

	rec = doJSON(t, router, http.MethodPost, "/deliveries/"+delID+"/unassign", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unassign status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["driver_id"]; got != nil {
		t.Fatalf("driver_id after unassign = %v", got)
	}
}

func TestStreamRequiresIdentity(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/stream?all_drivers=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without observer identity", rec.Code)
	}
}
