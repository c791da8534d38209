package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare(t *testing.T) {
	e, err := Prepare(Entry{
		Model:   "MMS",
		Request: json.RawMessage(`{"lamb":3,"mu":4,"s":2}`),
		Metrics: json.RawMessage(`{"W":0.29}`),
	})
	require.NoError(t, err)

	_, err = uuid.Parse(e.ID)
	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Minute)

	fixed := uuid.NewString()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e, err = Prepare(Entry{ID: fixed, Model: "MMS", Request: json.RawMessage(`{}`), Metrics: json.RawMessage(`{}`), CreatedAt: at})
	require.NoError(t, err)
	assert.Equal(t, fixed, e.ID, "caller ids are kept")
	assert.Equal(t, at, e.CreatedAt)
}

func TestPrepare_Errors(t *testing.T) {
	valid := json.RawMessage(`{}`)
	tests := []struct {
		name  string
		entry Entry
	}{
		{"no model", Entry{Request: valid, Metrics: valid}},
		{"no request", Entry{Model: "MM1", Metrics: valid}},
		{"bad metrics", Entry{Model: "MM1", Request: valid, Metrics: json.RawMessage(`{"W":`)}},
		{"bad id", Entry{ID: "42", Model: "MM1", Request: valid, Metrics: valid}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(tt.entry)
			assert.Error(t, err)
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, ClampLimit(0))
	assert.Equal(t, DefaultListLimit, ClampLimit(-3))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxListLimit, ClampLimit(MaxListLimit+1))
}
