package fanout

import (
	"errors"
	"testing"
	"time"

	"delivery-tracker-service/internal/domain"
)

func TestAttachDetach(t *testing.T) {
	r := NewRegistry(4)

	ch, err := r.Attach("obs-1")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := r.Attach("obs-1"); !errors.Is(err, ErrObserverExists) {
		t.Fatalf("second attach error = %v, want ErrObserverExists", err)
	}

	if err := r.Detach("obs-1"); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if _, open := <-ch; open {
		t.Fatal("channel still open after detach")
	}
	if err := r.Detach("obs-1"); !errors.Is(err, ErrObserverNotFound) {
		t.Fatalf("second detach error = %v, want ErrObserverNotFound", err)
	}
}

func TestSubscribeRequiresAttach(t *testing.T) {
	r := NewRegistry(4)

	_, err := r.Subscribe("obs-1", Target{Kind: TargetAllDrivers})
	if !errors.Is(err, ErrObserverNotFound) {
		t.Fatalf("error = %v, want ErrObserverNotFound", err)
	}
}

func TestPublishMatching(t *testing.T) {
	r := NewRegistry(4)

	one, _ := r.Attach("one")
	if _, err := r.Subscribe("one", Target{Kind: TargetDriver, ID: "drv-1"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	all, _ := r.Attach("all")
	if _, err := r.Subscribe("all", Target{Kind: TargetAllDrivers}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	del, _ := r.Attach("del")
	if _, err := r.Subscribe("del", Target{Kind: TargetDelivery, ID: "del-1"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sent, dropped := r.publish(Update{Kind: domain.KindDriver, ID: "drv-1", Seq: 1})
	if sent != 2 || dropped != 0 {
		t.Fatalf("sent=%d dropped=%d, want 2/0", sent, dropped)
	}
	sent, _ = r.publish(Update{Kind: domain.KindDriver, ID: "drv-2", Seq: 2})
	if sent != 1 {
		t.Fatalf("sent=%d, want 1 (all-drivers only)", sent)
	}
	sent, _ = r.publish(Update{Kind: domain.KindDelivery, ID: "del-1", Seq: 3})
	if sent != 1 {
		t.Fatalf("sent=%d, want 1", sent)
	}

	if got := len(one); got != 1 {
		t.Fatalf("single-driver watcher buffered %d updates, want 1", got)
	}
	if got := len(all); got != 2 {
		t.Fatalf("all-drivers watcher buffered %d updates, want 2", got)
	}
	if got := len(del); got != 1 {
		t.Fatalf("delivery watcher buffered %d updates, want 1", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	r := NewRegistry(4)

	ch, _ := r.Attach("obs")
	sub, err := r.Subscribe("obs", Target{Kind: TargetDelivery, ID: "del-1"})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := r.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	sent, _ := r.publish(Update{Kind: domain.KindDelivery, ID: "del-1", Seq: 1})
	if sent != 0 || len(ch) != 0 {
		t.Fatalf("update delivered after unsubscribe: sent=%d buffered=%d", sent, len(ch))
	}
}

func TestUnsubscribeNilSubscription(t *testing.T) {
	r := NewRegistry(4)

	if err := r.Unsubscribe(nil); !errors.Is(err, ErrObserverNotFound) {
		t.Fatalf("error = %v, want ErrObserverNotFound", err)
	}
}

func TestSlowObserverDrops(t *testing.T) {
	r := NewRegistry(1)

	_, _ = r.Attach("slow")
	if _, err := r.Subscribe("slow", Target{Kind: TargetAllDrivers}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Nobody reads: the first publish fills the buffer, the second drops.
	r.publish(Update{Kind: domain.KindDriver, ID: "drv-1", Seq: 1})
	sent, dropped := r.publish(Update{Kind: domain.KindDriver, ID: "drv-1", Seq: 2})
	if sent != 0 || dropped != 1 {
		t.Fatalf("sent=%d dropped=%d, want 0/1", sent, dropped)
	}

	stats, err := r.Stats("slow")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Sent != 1 || stats.Dropped != 1 {
		t.Fatalf("stats = %+v, want Sent=1 Dropped=1", stats)
	}
}

func TestEvictIdle(t *testing.T) {
	r := NewRegistry(4)

	chIdle, _ := r.Attach("idle")
	_, _ = r.Attach("fresh")

	time.Sleep(20 * time.Millisecond)
	r.Touch("fresh")

	if n := r.EvictIdle(10 * time.Millisecond); n != 1 {
		t.Fatalf("evicted %d observers, want 1", n)
	}
	if _, open := <-chIdle; open {
		t.Fatal("idle observer channel still open")
	}
	if _, err := r.Stats("fresh"); err != nil {
		t.Fatalf("touched observer was evicted: %v", err)
	}
}

func TestCloseRejectsFurtherUse(t *testing.T) {
	r := NewRegistry(4)

	ch, _ := r.Attach("obs")
	r.Close()

	if _, open := <-ch; open {
		t.Fatal("channel still open after close")
	}
	if _, err := r.Attach("late"); !errors.Is(err, ErrRegistryClosed) {
		t.Fatalf("attach after close error = %v, want ErrRegistryClosed", err)
	}
}
