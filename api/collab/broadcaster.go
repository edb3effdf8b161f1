package collab

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Broadcaster fans events out to the members of a case room. Frames are encoded once
// per call and handed to each sink without blocking, so a slow client only loses its
// own deliveries.
type Broadcaster struct {
	Registry *Registry
}

// NewBroadcaster returns a broadcaster over the registry
func NewBroadcaster(r *Registry) *Broadcaster {
	return &Broadcaster{Registry: r}
}

// Encode builds the wire frame for an event
func Encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: payload})
}

// Broadcast delivers the event to every member of caseID and returns how many sinks
// accepted it
func (b *Broadcaster) Broadcast(caseID, event string, payload interface{}) int {
	return b.BroadcastExcept(caseID, "", event, payload)
}

// BroadcastExcept delivers the event to every member of caseID other than skipConnID
func (b *Broadcaster) BroadcastExcept(caseID, skipConnID, event string, payload interface{}) int {
	members := b.Registry.MembersOf(caseID)
	if len(members) == 0 {
		return 0
	}
	frame, err := Encode(event, payload)
	if err != nil {
		zap.S().Errorw("failed to encode broadcast",
			"event", event,
			"caseId", caseID,
			"error", err)
		return 0
	}

	delivered := 0
	for _, m := range members {
		if m.ConnID == skipConnID {
			continue
		}
		if deliver(m, frame) {
			delivered++
		}
	}
	return delivered
}

// Unicast delivers the event to a single connection
func (b *Broadcaster) Unicast(connID, event string, payload interface{}) bool {
	m, ok := b.Registry.Lookup(connID)
	if !ok {
		return false
	}
	frame, err := Encode(event, payload)
	if err != nil {
		zap.S().Errorw("failed to encode event",
			"event", event,
			"connId", connID,
			"error", err)
		return false
	}
	return deliver(m, frame)
}

func deliver(m Member, frame []byte) bool {
	if m.Sink == nil {
		return false
	}
	if !m.Sink.Send(frame) {
		droppedTotal.Inc()
		zap.S().Debugw("dropped frame for slow connection",
			"connId", m.ConnID,
			"userId", m.Identity.UserID)
		return false
	}
	return true
}
