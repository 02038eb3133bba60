package fanout

import (
	"context"
	"testing"
	"time"

	"delivery-tracker-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBridgeForwardsBetweenProcesses(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two engines standing in for two server processes sharing Redis.
	srcA := newFakeSource()
	srcA.put(&domain.Driver{ID: "drv-1", Name: "Budi Santoso"})
	regA := NewRegistry(8)
	engA := NewEngine(regA, srcA)
	defer engA.Close()

	srcB := newFakeSource()
	srcB.put(&domain.Driver{ID: "drv-1", Name: "Budi Santoso"})
	regB := NewRegistry(8)
	engB := NewEngine(regB, srcB)
	defer engB.Close()

	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer clientB.Close()

	bridgeA := NewRedisBridge(clientA, "entity-updates", engA)
	bridgeB := NewRedisBridge(clientB, "entity-updates", engB)
	go bridgeA.Run(ctx)
	go bridgeB.Run(ctx)

	chA, _ := regA.Attach("obs-a")
	if _, err := regA.Subscribe("obs-a", Target{Kind: TargetAllDrivers}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	chB, _ := regB.Attach("obs-b")
	if _, err := regB.Subscribe("obs-b", Target{Kind: TargetAllDrivers}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Give both Run loops time to establish their subscriptions.
	time.Sleep(200 * time.Millisecond)

	if err := bridgeA.Publish(ctx, domain.KindDriver, "drv-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	u := recvUpdate(t, chB)
	if u.Kind != domain.KindDriver || u.ID != "drv-1" {
		t.Fatalf("update = %+v", u)
	}

	// The publishing process already dispatched locally; its own bridge
	// must skip the echoed message.
	select {
	case u := <-chA:
		t.Fatalf("own event looped back through the bridge: %+v", u)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestBridgeHandleMalformedPayload(t *testing.T) {
	reg := NewRegistry(8)
	eng := NewEngine(reg, newFakeSource())
	defer eng.Close()

	b := &RedisBridge{origin: "self", engine: eng}

	ch, _ := reg.Attach("obs")
	if _, err := reg.Subscribe("obs", Target{Kind: TargetAllDrivers}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	b.handle("not-a-bridge-payload")
	b.handle("self|driver|drv-1")

	select {
	case u := <-ch:
		t.Fatalf("unexpected dispatch: %+v", u)
	case <-time.After(100 * time.Millisecond):
	}

	b.handle("other|driver|drv-1")
	u := recvUpdate(t, ch)
	if u.ID != "drv-1" || !u.Deleted {
		t.Fatalf("update = %+v, want drv-1 tombstone (empty source)", u)
	}
}
