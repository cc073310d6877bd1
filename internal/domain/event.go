package domain

import (
	"encoding/json"
)

type EventName string

const (
	EventLeadUpdated       EventName = "lead:updated"
	EventMessageNew        EventName = "message:new"
	EventCallNew           EventName = "call:new"
	EventBroadcastProgress EventName = "broadcast:progress"
)

func (n EventName) Known() bool {
	switch n {
	case EventLeadUpdated, EventMessageNew, EventCallNew, EventBroadcastProgress:
		return true
	default:
		return false
	}
}

// PushEvent is one frame received on the push channel.
type PushEvent struct {
	Name EventName       `json:"event"`
	Data json.RawMessage `json:"data"`
}

// LeadID extracts data.lead_id. It reports false when the payload carries none.
func (e PushEvent) LeadID() (LeadID, bool) {
	if len(e.Data) == 0 {
		return 0, false
	}

	var payload struct {
		LeadID *LeadID `json:"lead_id"`
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil || payload.LeadID == nil {
		return 0, false
	}

	return *payload.LeadID, true
}

type BroadcastProgress struct {
	BroadcastID BroadcastID `json:"broadcast_id"`
	Sent        int         `json:"sent"`
	Total       int         `json:"total"`
}

// Progress decodes a broadcast:progress payload.
func (e PushEvent) Progress() (BroadcastProgress, bool) {
	if e.Name != EventBroadcastProgress || len(e.Data) == 0 {
		return BroadcastProgress{}, false
	}

	var progress BroadcastProgress
	if err := json.Unmarshal(e.Data, &progress); err != nil || progress.BroadcastID == 0 {
		return BroadcastProgress{}, false
	}
	return progress, true
}

// DecodePushEvent parses a raw frame. Frames that are not JSON objects or
// that carry no event name are rejected.
func DecodePushEvent(frame []byte) (PushEvent, error) {
	var event PushEvent
	if err := json.Unmarshal(frame, &event); err != nil {
		return PushEvent{}, err
	}
	if event.Name == "" {
		return PushEvent{}, errMissingEventName
	}
	return event, nil
}
