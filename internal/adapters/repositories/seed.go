package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"delivery-tracker-service/internal/domain"
	"delivery-tracker-service/internal/ports"
)

type driverSeed struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type customerSeed struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type deliverySeed struct {
	ID                 string  `json:"id"`
	CustomerID         string  `json:"customer_id"`
	DriverID           *string `json:"driver_id"`
	OriginAddress      string  `json:"origin_address"`
	DestinationAddress string  `json:"destination_address"`
	Status             string  `json:"status"`
}

type seedFile struct {
	Drivers    []driverSeed   `json:"drivers"`
	Customers  []customerSeed `json:"customers"`
	Deliveries []deliverySeed `json:"deliveries"`
}

// SeedFromJSON populates any entity store with demo data from a JSON
// file. Idempotent: records whose id already exists are skipped, so
// repeated startup runs are safe.
func SeedFromJSON(ctx context.Context, store ports.EntityStore, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed entities: read %q: %w", jsonPath, err)
	}

	var data seedFile
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed entities: parse json: %w", err)
	}

	now := time.Now().UTC()

	for i, c := range data.Customers {
		if c.ID == "" || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("seed entities: customer at index %d: id and name are required", i+1)
		}
		if _, err := store.GetCustomer(ctx, c.ID); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("seed entities: check customer %s: %w", c.ID, err)
		}

		cust := &domain.Customer{
			ID:        c.ID,
			Name:      c.Name,
			Contact:   domain.Contact{Email: c.Email, Phone: c.Phone, Address: c.Address},
			CreatedAt: now,
		}
		if err := store.CreateCustomer(ctx, cust); err != nil {
			return fmt.Errorf("seed entities: insert customer %s: %w", c.ID, err)
		}
	}

	for i, d := range data.Drivers {
		if d.ID == "" || strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("seed entities: driver at index %d: id and name are required", i+1)
		}
		if _, err := store.GetDriver(ctx, d.ID); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("seed entities: check driver %s: %w", d.ID, err)
		}

		drv := &domain.Driver{
			ID:        d.ID,
			Name:      d.Name,
			Contact:   domain.Contact{Email: d.Email, Phone: d.Phone, Address: d.Address},
			CreatedAt: now,
		}
		if err := store.CreateDriver(ctx, drv); err != nil {
			return fmt.Errorf("seed entities: insert driver %s: %w", d.ID, err)
		}
	}

	for i, d := range data.Deliveries {
		if d.ID == "" || d.CustomerID == "" {
			return fmt.Errorf("seed entities: delivery at index %d: id and customer_id are required", i+1)
		}
		if _, err := store.GetDelivery(ctx, d.ID); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("seed entities: check delivery %s: %w", d.ID, err)
		}

		status := domain.StatusPending
		if d.Status != "" {
			status, err = domain.ParseStatus(d.Status)
			if err != nil {
				return fmt.Errorf("seed entities: delivery %s: %w", d.ID, err)
			}
		}

		cust, err := store.GetCustomer(ctx, d.CustomerID)
		if err != nil {
			return fmt.Errorf("seed entities: delivery %s references customer %s: %w", d.ID, d.CustomerID, err)
		}

		del := &domain.Delivery{
			ID:                 d.ID,
			CustomerID:         cust.ID,
			CustomerName:       cust.Name,
			DriverID:           d.DriverID,
			OriginAddress:      d.OriginAddress,
			DestinationAddress: d.DestinationAddress,
			Status:             status,
			CreatedAt:          now,
		}
		if err := store.CreateDelivery(ctx, del); err != nil {
			return fmt.Errorf("seed entities: insert delivery %s: %w", d.ID, err)
		}
	}

	return nil
}
