package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/odontoforense/case-api/databases"
	"github.com/odontoforense/case-api/models"
)

// recordingSink keeps every frame it accepts. A closed sink refuses everything.
type recordingSink struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (s *recordingSink) Send(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.frames = append(s.frames, frame)
	return true
}

func (s *recordingSink) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (s *recordingSink) events(t *testing.T) []received {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]received, 0, len(s.frames))
	for _, f := range s.frames {
		var r received
		require.NoError(t, json.Unmarshal(f, &r))
		out = append(out, r)
	}
	return out
}

func (s *recordingSink) named(t *testing.T, event string) []received {
	t.Helper()
	var out []received
	for _, r := range s.events(t) {
		if r.Event == event {
			out = append(out, r)
		}
	}
	return out
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
}

// memMessages is an in-memory messages collection honoring the caseId filter and the
// limit, skip and newest-first sort of databases.NewestFirst
type memMessages struct {
	mu        sync.Mutex
	docs      []models.Message
	failFind  bool
	failWrite bool
}

func (m *memMessages) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFind {
		return nil, errors.New("find-error")
	}
	caseID, _ := filter.(bson.M)["caseId"].(string)

	var matched []models.Message
	for i := len(m.docs) - 1; i >= 0; i-- {
		if m.docs[i].CaseID == caseID {
			matched = append(matched, m.docs[i])
		}
	}
	var skip, limit int64
	for _, o := range opts {
		if o.Skip != nil {
			skip = *o.Skip
		}
		if o.Limit != nil {
			limit = *o.Limit
		}
	}
	if skip >= int64(len(matched)) {
		return nil, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memMessages) InsertOne(ctx context.Context, message models.Message, opts ...*options.InsertOneOptions) (databases.InsertOneResultHelper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return nil, errors.New("insert-error")
	}
	m.docs = append(m.docs, message)
	return nil, nil
}

func (m *memMessages) count(caseID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.docs {
		if d.CaseID == caseID {
			n++
		}
	}
	return n
}

type staticVerifier map[string]models.Identity

func (v staticVerifier) Verify(ctx context.Context, token string) (models.Identity, error) {
	identity, ok := v[token]
	if !ok {
		return models.Identity{}, errors.New("invalid_token")
	}
	return identity, nil
}

func connIDs(members []Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ConnID)
	}
	sort.Strings(ids)
	return ids
}
