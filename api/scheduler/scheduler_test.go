package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/odontoforense/case-api/api/collab"
)

type mockPresence struct {
	mock.Mock
}

func (m *mockPresence) ReportPresence() collab.Stats {
	ret := m.Called()
	return ret.Get(0).(collab.Stats)
}

func TestScheduler_Start(t *testing.T) {
	p := &mockPresence{}
	s := NewScheduler(p)

	require.NoError(t, s.Start("@every 5m"))
	defer s.Stop()

	assert.Len(t, s.Entries(), 1)
	assert.NotEmpty(t, s.instanceID)
}

func TestScheduler_StartInvalidSpec(t *testing.T) {
	s := NewScheduler(&mockPresence{})

	assert.Error(t, s.Start("every now and then"))
	assert.Empty(t, s.Entries())
}

func TestScheduler_ReportPresence(t *testing.T) {
	p := &mockPresence{}
	p.On("ReportPresence").Return(collab.Stats{Connections: 3, Rooms: map[string]int{"C1": 2}})

	s := NewScheduler(p)
	s.reportPresence()

	p.AssertNumberOfCalls(t, "ReportPresence", 1)
}
