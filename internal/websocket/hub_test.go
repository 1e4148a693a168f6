// Sentinel - Mission Monitoring and AI Analysis Backend
// Copyright 2026 Sentinel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sentinelai/sentinel

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/sentinelai/sentinel/internal/models"
)

func runHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("hub did not stop after cancellation")
		}
	})
	return hub, cancel
}

func registerClient(t *testing.T, hub *Hub) *Client {
	t.Helper()

	client := NewClient(hub, nil)
	select {
	case hub.Register <- client:
	case <-time.After(time.Second):
		t.Fatal("timed out registering client")
	}
	waitForClientCount(t, hub, func(n int) bool { return n >= 1 })
	return client
}

func waitForClientCount(t *testing.T, hub *Hub, ok func(int) bool) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for !ok(hub.ClientCount()) {
		select {
		case <-deadline:
			t.Fatalf("client count stuck at %d", hub.ClientCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub, _ := runHub(t)

	client := registerClient(t, hub)
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.Unregister <- client
	waitForClientCount(t, hub, func(n int) bool { return n == 0 })
}

func TestHubBroadcastEvent(t *testing.T) {
	hub, _ := runHub(t)
	client := registerClient(t, hub)

	event := &models.StoredEvent{ID: "e1", EventType: "sensor"}
	hub.BroadcastEvent(event)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeEvent {
			t.Errorf("message type = %q, want %q", msg.Type, MessageTypeEvent)
		}
		got, ok := msg.Data.(*models.StoredEvent)
		if !ok || got.ID != "e1" {
			t.Errorf("message data = %#v", msg.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestHubBroadcastDeliversInClientIDOrder(t *testing.T) {
	hub, _ := runHub(t)

	first := registerClient(t, hub)
	second := NewClient(hub, nil)
	hub.Register <- second
	waitForClientCount(t, hub, func(n int) bool { return n == 2 })

	hub.BroadcastEvent(&models.StoredEvent{ID: "e1"})

	for _, client := range []*Client{first, second} {
		select {
		case <-client.send:
		case <-time.After(2 * time.Second):
			t.Fatalf("client %d did not receive broadcast", client.id)
		}
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, cancel := runHub(t)
	client := registerClient(t, hub)

	cancel()

	select {
	case _, open := <-client.send:
		if open {
			t.Error("expected send channel closed on shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed after shutdown")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := runHub(t)
	registerClient(t, hub)

	// Keep broadcasting without draining the client buffer until the hub
	// gives up on it.
	deadline := time.After(5 * time.Second)
	for hub.ClientCount() > 0 {
		hub.BroadcastEvent(&models.StoredEvent{ID: "flood"})
		select {
		case <-deadline:
			t.Fatal("slow client never dropped")
		case <-time.After(time.Millisecond):
		}
	}
}
