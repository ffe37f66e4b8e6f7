package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/ws"
)

type broadcaster interface {
	BroadcastToLocation(location string, event ws.Event) bool
}

// HubPublisher pushes events to WebSocket clients in the event's location room.
type HubPublisher struct {
	hub broadcaster
}

func NewHubPublisher(hub *ws.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, event Event) error {
	if event.Location == "" {
		return nil
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if !p.hub.BroadcastToLocation(event.Location, ws.Event{Type: event.EventType, Payload: raw}) {
		return fmt.Errorf("ws broadcast queue unavailable for %s", event.EventType)
	}
	return nil
}
