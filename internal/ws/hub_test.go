package ws

import (
	"context"
	"testing"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/order"

	"go.uber.org/zap"
)

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.TotalClients() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d connected clients, got %d", want, hub.TotalClients())
}

func TestBroadcastDropsSlowClientWithoutBlockingHub(t *testing.T) {
	hub := NewHub(nil, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := NewClient(hub, nil, &ClientAuth{UserID: 1})
	slow.send = make(chan []byte) // never drained
	hub.Register <- slow
	waitForClients(t, hub, 1)

	hub.BroadcastOrderEvent(order.Event{Type: "order_created", Number: "01ABC", Status: "pending"})
	waitForClients(t, hub, 0)

	select {
	case _, ok := <-slow.send:
		if ok {
			t.Fatal("expected the dropped client's send channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dropped client's send channel was never closed")
	}

	// The hub loop must still be serviceable after the drop.
	healthy := NewClient(hub, nil, &ClientAuth{UserID: 2})
	select {
	case hub.Register <- healthy:
	case <-time.After(2 * time.Second):
		t.Fatal("hub stopped accepting registrations after dropping a slow client")
	}
	waitForClients(t, hub, 1)

	hub.BroadcastOrderEvent(order.Event{Type: "order_updated", Number: "01DEF", Status: "paid"})

	select {
	case msg := <-healthy.send:
		if len(msg) == 0 {
			t.Fatal("expected a marshalled order event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("healthy client never received the broadcast")
	}
}

func TestBroadcastReachesAllConnectedClients(t *testing.T) {
	hub := NewHub(nil, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a := NewClient(hub, nil, &ClientAuth{UserID: 1})
	b := NewClient(hub, nil, &ClientAuth{UserID: 2})
	hub.Register <- a
	hub.Register <- b
	waitForClients(t, hub, 2)

	hub.BroadcastOrderEvent(order.Event{Type: "order_created", Number: "01GHI", Status: "pending"})

	for _, c := range []*Client{a, b} {
		select {
		case <-c.send:
		case <-time.After(2 * time.Second):
			t.Fatal("client never received the broadcast")
		}
	}
	waitForClients(t, hub, 2)
}
