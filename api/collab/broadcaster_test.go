package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odontoforense/case-api/models"
)

func TestBroadcaster(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r)
	a, c, slow, other := &recordingSink{}, &recordingSink{}, &recordingSink{}, &recordingSink{}

	require.NoError(t, r.Register("a", models.Identity{UserID: "u1"}, a))
	require.NoError(t, r.Register("c", models.Identity{UserID: "u2"}, c))
	require.NoError(t, r.Register("slow", models.Identity{UserID: "u3"}, slow))
	require.NoError(t, r.Register("other", models.Identity{UserID: "u4"}, other))
	for _, id := range []string{"a", "c", "slow"} {
		_, err := r.SetCurrentCase(id, "C1")
		require.NoError(t, err)
	}
	_, err := r.SetCurrentCase("other", "C2")
	require.NoError(t, err)
	slow.close()

	assert.Equal(t, 2, b.Broadcast("C1", EventCaseUpdated, map[string]string{"status": "Fechado"}))
	assert.Len(t, a.events(t), 1)
	assert.Len(t, c.events(t), 1)
	assert.Empty(t, other.events(t))

	got := a.events(t)[0]
	assert.Equal(t, EventCaseUpdated, got.Event)
	assert.JSONEq(t, `{"status":"Fechado"}`, string(got.Data))

	assert.Equal(t, 1, b.BroadcastExcept("C1", "a", EventUserLeft, Presence{UserID: "u1"}))
	assert.Len(t, a.events(t), 1)
	assert.Len(t, c.events(t), 2)

	assert.Equal(t, 0, b.Broadcast("empty", EventCaseUpdated, nil))

	assert.True(t, b.Unicast("other", EventError, ErrorNotice{Message: "x"}))
	assert.False(t, b.Unicast("missing", EventError, ErrorNotice{Message: "x"}))
	assert.False(t, b.Unicast("slow", EventError, ErrorNotice{Message: "x"}))
	assert.Equal(t, EventError, other.events(t)[0].Event)
}

func TestEncode(t *testing.T) {
	frame, err := Encode(EventUserJoined, Presence{UserID: "u1", Nome: "Ana", Role: "perito"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"userJoined","data":{"userId":"u1","nome":"Ana","role":"perito"}}`, string(frame))

	_, err = Encode(EventCaseUpdated, map[string]interface{}{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestCaseRef_UnmarshalJSON(t *testing.T) {
	var ref caseRef
	require.NoError(t, json.Unmarshal([]byte(`"C1"`), &ref))
	assert.Equal(t, caseRef{CaseID: "C1"}, ref)

	ref = caseRef{}
	require.NoError(t, json.Unmarshal([]byte(`{"caseId":"C2","limit":10,"skip":5}`), &ref))
	assert.Equal(t, caseRef{CaseID: "C2", Limit: 10, Skip: 5}, ref)

	assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
}

func TestValidCaseID(t *testing.T) {
	for _, id := range []string{"C1", "64b7f0c2a1b2c3d4e5f60718", "case_2-b"} {
		assert.True(t, ValidCaseID(id), id)
	}
	for _, id := range []string{"", " C1", "C1 ", "a/b", "caso$", string(make([]byte, 65))} {
		assert.False(t, ValidCaseID(id), id)
	}
}
