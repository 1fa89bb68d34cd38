package ws

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsim/internal/agent"
	"cellsim/internal/cell"
	"cellsim/internal/model"
	"cellsim/internal/simulator"
	"cellsim/internal/store"
)

func testTree() (*cell.Cell, error) {
	c, err := cell.New(1000, -12, cell.Options{})
	if err != nil {
		return nil, err
	}
	a, err := agent.NewSepBSL(model.BSLc, 0, rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		return nil, err
	}
	c.AddSepBSLAgent(a)
	return c, nil
}

// testEngine creates an initialized engine over a few hours of flat samples.
func testEngine(t *testing.T) *simulator.Engine {
	t.Helper()
	s := store.New()
	samples := make([]model.Sample, 20)
	for i := range samples {
		samples[i] = model.Sample{
			Timestamp: startTime.Add(time.Duration(i) * simulator.StepDuration),
			Ambient:   model.Ambient{OutdoorTemp: 5},
			SLP:       model.SLP{100, 100, 100},
		}
	}
	s.AddSamples(samples)

	root, err := testTree()
	require.NoError(t, err)
	engine := simulator.New(root, s, NewBridge(NewHub(nil), nil), nil) // separate hub, not used for client reads
	require.True(t, engine.Init())
	return engine
}

func testHandler(engine *simulator.Engine, rebuild RebuildFunc) *Handler {
	return NewHandler(NewHub(nil), engine, HandlerOptions{
		Scenario: "test",
		Nodes:    map[string]int{"cell": 1, "sep_bsl_agent": 1},
		Rebuild:  rebuild,
	})
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		server.Close()
	})
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestHandler_InitialMessages(t *testing.T) {
	engine := testEngine(t)
	conn := dialHandler(t, testHandler(engine, nil))

	env1 := readJSON(t, conn)
	assert.Equal(t, TypeDataLoaded, env1.Type)

	var dl DataLoadedPayload
	require.NoError(t, json.Unmarshal(env1.Payload, &dl))
	assert.Equal(t, "test", dl.Scenario)
	assert.Equal(t, 1, dl.Nodes["sep_bsl_agent"])
	assert.Equal(t, "2024-11-21T12:00:00Z", dl.TimeRange.Start)
	assert.Equal(t, "2024-11-21T16:45:00Z", dl.TimeRange.End)

	env2 := readJSON(t, conn)
	assert.Equal(t, TypeSimState, env2.Type)

	var ss SimStatePayload
	require.NoError(t, json.Unmarshal(env2.Payload, &ss))
	assert.False(t, ss.Running)
	assert.Equal(t, 3600.0, ss.Speed)
}

func TestHandler_StartPause(t *testing.T) {
	engine := testEngine(t)
	conn := dialHandler(t, testHandler(engine, nil))
	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeSimStart, nil)
	require.Eventually(t, func() bool { return engine.State().Running }, time.Second, 10*time.Millisecond)

	sendJSON(t, conn, TypeSimPause, nil)
	require.Eventually(t, func() bool { return !engine.State().Running }, time.Second, 10*time.Millisecond)
}

func TestHandler_SetSpeed(t *testing.T) {
	engine := testEngine(t)
	conn := dialHandler(t, testHandler(engine, nil))
	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeSimSetSpeed, SetSpeedPayload{Speed: 7200})
	require.Eventually(t, func() bool { return engine.State().Speed == 7200 }, time.Second, 10*time.Millisecond)
}

func TestHandler_Reset(t *testing.T) {
	engine := testEngine(t)
	for range 3 {
		_, ok := engine.Step()
		require.True(t, ok)
	}

	rebuilt := make(chan struct{}, 1)
	conn := dialHandler(t, testHandler(engine, func() (*cell.Cell, error) {
		rebuilt <- struct{}{}
		return testTree()
	}))
	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeSimReset, nil)
	select {
	case <-rebuilt:
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild not called")
	}
	require.Eventually(t, func() bool { return engine.State().Step == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, startTime, engine.State().Time)
}

func TestHandler_ResetRebuildFails(t *testing.T) {
	engine := testEngine(t)
	_, ok := engine.Step()
	require.True(t, ok)

	called := make(chan struct{}, 1)
	conn := dialHandler(t, testHandler(engine, func() (*cell.Cell, error) {
		called <- struct{}{}
		return nil, errors.New("broken scenario")
	}))
	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeSimReset, nil)
	<-called
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, engine.State().Step)
}

func TestHandler_InvalidMessage(t *testing.T) {
	engine := testEngine(t)
	conn := dialHandler(t, testHandler(engine, nil))
	readJSON(t, conn)
	readJSON(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	sendJSON(t, conn, "sim:seek", nil)
	sendJSON(t, conn, TypeSimReset, nil)
	time.Sleep(50 * time.Millisecond)

	// connection still alive
	sendJSON(t, conn, TypeSimSetSpeed, SetSpeedPayload{Speed: 900})
	require.Eventually(t, func() bool { return engine.State().Speed == 900 }, time.Second, 10*time.Millisecond)
	assert.False(t, engine.State().Running)
}
