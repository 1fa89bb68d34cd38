package simulator

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsim/internal/agent"
	"cellsim/internal/cell"
	"cellsim/internal/model"
	"cellsim/internal/store"
)

type mockCallback struct {
	mu        sync.Mutex
	states    []State
	steps     []StepResult
	summaries []Summary
}

func (m *mockCallback) OnState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, s)
}

func (m *mockCallback) OnStep(r StepResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, r)
}

func (m *mockCallback) OnSummary(s Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, s)
}

func (m *mockCallback) stepCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

func (m *mockCallback) lastSummary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.summaries) == 0 {
		return Summary{}
	}
	return m.summaries[len(m.summaries)-1]
}

var startTime = time.Date(2024, 11, 21, 22, 0, 0, 0, time.UTC)

// makeStore returns n quarter-hourly night samples with a flat profile.
func makeStore(n int) *store.Store {
	s := store.New()
	samples := make([]model.Sample, n)
	for i := range samples {
		samples[i] = model.Sample{
			Timestamp: startTime.Add(time.Duration(i) * StepDuration),
			Ambient:   model.Ambient{OutdoorTemp: 5, DailyMeanOutdoorTemp: 5},
			SLP:       model.SLP{100, 100, 100},
		}
	}
	s.AddSamples(samples)
	return s
}

// makeTree returns a cell with one business agent and no generation.
func makeTree(t *testing.T) *cell.Cell {
	t.Helper()
	c, err := cell.New(1000, -12, cell.Options{Rand: rand.New(rand.NewPCG(1, 2))})
	require.NoError(t, err)
	a, err := agent.NewSepBSL(model.BSLc, 0, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	c.AddSepBSLAgent(a)
	return c
}

func newEngine(t *testing.T, n int) (*Engine, *mockCallback) {
	t.Helper()
	cb := &mockCallback{}
	e := New(makeTree(t), makeStore(n), cb, nil)
	require.True(t, e.Init())
	return e, cb
}

func TestEngine_InitEmptyStore(t *testing.T) {
	e := New(makeTree(t), store.New(), &mockCallback{}, nil)
	assert.False(t, e.Init())
}

func TestEngine_Init(t *testing.T) {
	e, _ := newEngine(t, 8)

	st := e.State()
	assert.Equal(t, startTime, st.Time)
	assert.Equal(t, 0, st.Step)
	assert.False(t, st.Running)
	assert.Equal(t, 3600.0, st.Speed)
	assert.Equal(t, startTime.Add(7*StepDuration), e.TimeRange().End)
}

func TestEngine_Step(t *testing.T) {
	e, cb := newEngine(t, 4)

	res, ok := e.Step()
	require.True(t, ok)
	assert.Equal(t, 0, res.Step)
	assert.Equal(t, startTime, res.Timestamp)
	assert.Greater(t, res.LoadE, 0.0)
	assert.Zero(t, res.GenE)
	assert.Equal(t, 5.0, res.OutdoorTemp)

	assert.Equal(t, startTime.Add(StepDuration), e.State().Time)
	assert.Equal(t, 1, cb.stepCount())
	assert.InDelta(t, res.LoadE*model.TimeStep/1000, cb.lastSummary().LoadEKWh, 1e-12)
}

func TestEngine_StepPastEnd(t *testing.T) {
	e, cb := newEngine(t, 3)

	for range 3 {
		_, ok := e.Step()
		require.True(t, ok)
	}
	_, ok := e.Step()
	assert.False(t, ok)
	assert.Equal(t, 3, cb.stepCount())
}

func TestEngine_RunBounded(t *testing.T) {
	e, cb := newEngine(t, 10)

	s, err := e.Run(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Steps)
	assert.Equal(t, 4, cb.stepCount())
}

func TestEngine_RunToEnd(t *testing.T) {
	e, cb := newEngine(t, 10)

	s, err := e.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Steps)
	assert.Equal(t, 10, cb.stepCount())
}

func TestEngine_RunCancelled(t *testing.T) {
	e, cb := newEngine(t, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, cb.stepCount())
}

func TestEngine_SummaryBalance(t *testing.T) {
	e, cb := newEngine(t, 20)

	s, err := e.Run(context.Background(), 0)
	require.NoError(t, err)

	var load float64
	for _, r := range cb.steps {
		load += r.LoadE * model.TimeStep / 1000
	}
	assert.InDelta(t, load, s.LoadEKWh, 1e-9)
	// no generation: everything is imported
	assert.InDelta(t, s.LoadEKWh, s.ImportKWh, 1e-9)
	assert.Zero(t, s.ExportKWh)
	assert.Zero(t, s.SelfConsumptionKWh)
	assert.Zero(t, s.SelfSufficiency())
}

func TestEngine_TodayResetsAtMidnight(t *testing.T) {
	// 22:00 to 00:45: the last four steps belong to the next day
	e, cb := newEngine(t, 12)

	s, err := e.Run(context.Background(), 0)
	require.NoError(t, err)

	var today float64
	for _, r := range cb.steps[8:] {
		today += r.LoadE * model.TimeStep / 1000
	}
	assert.InDelta(t, today, s.TodayLoadEKWh, 1e-9)
	assert.InDelta(t, s.LoadEKWh, s.MonthLoadEKWh, 1e-9)
}

func TestEngine_StartPause(t *testing.T) {
	e, cb := newEngine(t, 1000)
	e.SetSpeed(604800)

	e.Start()
	assert.True(t, e.State().Running)
	time.Sleep(250 * time.Millisecond)
	e.Pause()

	assert.False(t, e.State().Running)
	assert.Greater(t, cb.stepCount(), 0)
}

func TestEngine_StopsAtEnd(t *testing.T) {
	e, cb := newEngine(t, 5)
	e.SetSpeed(604800)

	e.Start()
	require.Eventually(t, func() bool { return !e.State().Running }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 5, cb.stepCount())
}

func TestEngine_SetSpeedClamped(t *testing.T) {
	e, _ := newEngine(t, 2)

	e.SetSpeed(0)
	assert.Equal(t, 0.1, e.State().Speed)
	e.SetSpeed(1e9)
	assert.Equal(t, 604800.0, e.State().Speed)
}

func TestEngine_Reset(t *testing.T) {
	e, _ := newEngine(t, 10)
	_, err := e.Run(context.Background(), 5)
	require.NoError(t, err)

	e.Reset(makeTree(t))

	st := e.State()
	assert.Equal(t, startTime, st.Time)
	assert.Equal(t, 0, st.Step)
	assert.Zero(t, e.Summary().LoadEKWh)
}

func TestCallbacks_FanOut(t *testing.T) {
	a, b := &mockCallback{}, &mockCallback{}
	e := New(makeTree(t), makeStore(2), Callbacks{a, b}, nil)
	require.True(t, e.Init())

	_, ok := e.Step()
	require.True(t, ok)
	assert.Equal(t, 1, a.stepCount())
	assert.Equal(t, 1, b.stepCount())
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), startOfDay(ts))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), startOfMonth(ts))
}
