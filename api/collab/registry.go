package collab

import (
	"errors"
	"sort"
	"sync"

	"github.com/odontoforense/case-api/models"
)

var (
	// ErrAlreadyRegistered is returned when a connection id is registered twice
	ErrAlreadyRegistered = errors.New("connection already registered")
	// ErrNotRegistered is returned for operations on an unknown connection id
	ErrNotRegistered = errors.New("connection not registered")
)

// Sink delivers encoded frames to one live connection. Send must not block; it reports
// false when the frame could not be queued.
type Sink interface {
	Send(frame []byte) bool
}

// Member is a snapshot of one registered connection
type Member struct {
	ConnID   string
	Identity models.Identity
	CaseID   string
	Sink     Sink
}

type entry struct {
	identity models.Identity
	caseID   string
	sink     Sink
}

// Registry tracks live connections, their identities and the case room each one is in.
// Rooms are indexed explicitly so a room snapshot never scans every connection.
// A single mutex guards both maps and is never held across I/O.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*entry
	rooms map[string]map[string]struct{}
}

// Stats is a point-in-time view of the registry
type Stats struct {
	Connections int
	Rooms       map[string]int
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*entry),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Register adds a connection with no room membership
func (r *Registry) Register(connID string, identity models.Identity, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; ok {
		return ErrAlreadyRegistered
	}
	r.conns[connID] = &entry{identity: identity, sink: sink}
	return nil
}

// SetCurrentCase moves the connection into caseID, or out of any room when caseID is
// empty, and returns the case it was in before
func (r *Registry) SetCurrentCase(connID, caseID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return "", ErrNotRegistered
	}
	prev := e.caseID
	if prev == caseID {
		return prev, nil
	}
	r.removeFromRoom(prev, connID)
	e.caseID = caseID
	if caseID != "" {
		room, ok := r.rooms[caseID]
		if !ok {
			room = make(map[string]struct{})
			r.rooms[caseID] = room
		}
		room[connID] = struct{}{}
	}
	return prev, nil
}

// ClearCaseIf takes the connection out of caseID only if that is its current room
func (r *Registry) ClearCaseIf(connID, caseID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok || caseID == "" || e.caseID != caseID {
		return false
	}
	r.removeFromRoom(caseID, connID)
	e.caseID = ""
	return true
}

// Unregister removes the connection and returns its last state. It does not notify
// anyone; the caller announces the departure.
func (r *Registry) Unregister(connID string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return Member{}, false
	}
	r.removeFromRoom(e.caseID, connID)
	delete(r.conns, connID)
	return Member{ConnID: connID, Identity: e.identity, CaseID: e.caseID, Sink: e.sink}, true
}

// Lookup returns the current state of one connection
func (r *Registry) Lookup(connID string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return Member{}, false
	}
	return Member{ConnID: connID, Identity: e.identity, CaseID: e.caseID, Sink: e.sink}, true
}

// MembersOf returns a snapshot of the connections currently in caseID, ordered by
// connection id
func (r *Registry) MembersOf(caseID string) []Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[caseID]
	members := make([]Member, 0, len(room))
	for connID := range room {
		e := r.conns[connID]
		members = append(members, Member{ConnID: connID, Identity: e.identity, CaseID: caseID, Sink: e.sink})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ConnID < members[j].ConnID })
	return members
}

// Stats returns the number of connections and the size of every room
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{Connections: len(r.conns), Rooms: make(map[string]int, len(r.rooms))}
	for caseID, room := range r.rooms {
		s.Rooms[caseID] = len(room)
	}
	return s
}

// removeFromRoom must be called with mu held
func (r *Registry) removeFromRoom(caseID, connID string) {
	if caseID == "" {
		return
	}
	room, ok := r.rooms[caseID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(r.rooms, caseID)
	}
}
