package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsim/internal/simulator"
)

var startTime = time.Date(2024, 11, 21, 12, 0, 0, 0, time.UTC)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub(nil)
	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.Register(client)
	return NewBridge(hub, nil), client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestBridge_OnState(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnState(simulator.State{Time: startTime, Step: 3, Speed: 1800, Running: true})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeSimState, env.Type)

	var p SimStatePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "2024-11-21T12:00:00Z", p.Time)
	assert.Equal(t, 3, p.Step)
	assert.Equal(t, 1800.0, p.Speed)
	assert.True(t, p.Running)
}

func TestBridge_OnStep(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnStep(simulator.StepResult{
		Step:        7,
		Timestamp:   startTime,
		GenE:        1200,
		LoadE:       800,
		GenT:        3000,
		LoadT:       2500,
		Fuel:        4000,
		OutdoorTemp: -4.5,
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeStepUpdate, env.Type)

	var p StepPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 7, p.Step)
	assert.Equal(t, "2024-11-21T12:00:00Z", p.Timestamp)
	assert.Equal(t, 1200.0, p.GenE)
	assert.Equal(t, 2500.0, p.LoadT)
	assert.Equal(t, -4.5, p.OutdoorTemp)
}

func TestBridge_OnSummary(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnSummary(simulator.Summary{
		Steps:              96,
		LoadEKWh:           20,
		GenEKWh:            15,
		SelfConsumptionKWh: 5,
		ImportKWh:          15,
		ExportKWh:          10,
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeSummaryUpdate, env.Type)

	var p SummaryPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 96, p.Steps)
	assert.Equal(t, 15.0, p.ImportKWh)
	assert.InDelta(t, 25.0, p.SelfSufficiency, 1e-9)
}
