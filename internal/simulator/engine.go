// Package simulator drives a cell tree through a series of drive samples,
// either as a bounded batch run or as a real-time replay.
package simulator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cellsim/internal/cell"
	"cellsim/internal/model"
	"cellsim/internal/store"
)

// StepDuration is the simulated time covered by one step.
const StepDuration = time.Duration(model.TimeStep * float64(time.Hour))

// State represents the current simulation state.
type State struct {
	Time    time.Time `json:"time"`
	Step    int       `json:"step"`
	Speed   float64   `json:"speed"`
	Running bool      `json:"running"`
}

// StepResult is the root balance of one step.
type StepResult struct {
	Step        int       `json:"step"`
	Timestamp   time.Time `json:"timestamp"`
	GenE        float64   `json:"gen_e"`
	LoadE       float64   `json:"load_e"`
	GenT        float64   `json:"gen_t"`
	LoadT       float64   `json:"load_t"`
	Fuel        float64   `json:"fuel"`
	OutdoorTemp float64   `json:"t_out"`
}

// Balance returns the power balance part of r.
func (r StepResult) Balance() model.Balance {
	return model.Balance{GenE: r.GenE, LoadE: r.LoadE, GenT: r.GenT, LoadT: r.LoadT}
}

// Summary holds running energy totals of the root cell.
type Summary struct {
	Steps int `json:"steps"`

	GenEKWh  float64 `json:"gen_e_kwh"`
	LoadEKWh float64 `json:"load_e_kwh"`
	GenTKWh  float64 `json:"gen_t_kwh"`
	LoadTKWh float64 `json:"load_t_kwh"`
	FuelKWh  float64 `json:"fuel_kwh"`

	// Net exchange with the superordinate grid
	ImportKWh          float64 `json:"import_kwh"`
	ExportKWh          float64 `json:"export_kwh"`
	SelfConsumptionKWh float64 `json:"self_consumption_kwh"`

	TodayLoadEKWh float64 `json:"today_load_e_kwh"`
	MonthLoadEKWh float64 `json:"month_load_e_kwh"`
}

// SelfSufficiency returns the share of electrical load covered by the
// cell's own generation, in percent.
func (s *Summary) SelfSufficiency() float64 {
	if s.LoadEKWh <= 0 {
		return 100
	}
	return s.SelfConsumptionKWh / s.LoadEKWh * 100
}

// Callback receives simulation events.
type Callback interface {
	OnState(state State)
	OnStep(result StepResult)
	OnSummary(summary Summary)
}

// Callbacks fans events out to several receivers in order.
type Callbacks []Callback

func (cs Callbacks) OnState(s State) {
	for _, c := range cs {
		c.OnState(s)
	}
}

func (cs Callbacks) OnStep(r StepResult) {
	for _, c := range cs {
		c.OnStep(r)
	}
}

func (cs Callbacks) OnSummary(s Summary) {
	for _, c := range cs {
		c.OnSummary(s)
	}
}

// Engine steps a cell tree with the samples of a store.
type Engine struct {
	mu       sync.Mutex
	root     *cell.Cell
	store    *store.Store
	callback Callback
	log      *zap.Logger

	running   bool
	speed     float64
	simTime   time.Time
	step      int
	pending   time.Duration // simulated time not yet stepped in real-time mode
	timeRange model.TimeRange

	// Energy accumulators (Wh)
	dayStart, monthStart time.Time
	sum                  accumulator

	stopCh chan struct{}
}

type accumulator struct {
	genE, loadE, genT, loadT, fuel float64
	imp, exp, self               float64
	todayLoadE, monthLoadE       float64
}

func New(root *cell.Cell, s *store.Store, cb Callback, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		root:     root,
		store:    s,
		callback: cb,
		log:      log,
		speed:    3600,
	}
}

// Init sets up the engine with the store's time range.
func (e *Engine) Init() bool {
	tr, ok := e.store.TimeRange()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.timeRange = tr
	e.simTime = tr.Start
	e.dayStart = startOfDay(tr.Start)
	e.monthStart = startOfMonth(tr.Start)
	return true
}

// State returns the current simulation state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	return State{
		Time:    e.simTime,
		Step:    e.step,
		Speed:   e.speed,
		Running: e.running,
	}
}

// TimeRange returns the data time range.
func (e *Engine) TimeRange() model.TimeRange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeRange
}

// Start begins the real-time replay loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.mu.Unlock()

	e.broadcastState()
	go e.loop()
}

// Pause stops the replay loop.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.broadcastState()
}

// SetSpeed sets the replay speed as simulated seconds per real second.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0.1 {
		speed = 0.1
	}
	if speed > 604800 {
		speed = 604800
	}

	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()

	e.broadcastState()
}

// Reset pauses the engine, swaps in a freshly built tree and rewinds to the
// start of the data.
func (e *Engine) Reset(root *cell.Cell) {
	e.Pause()

	e.mu.Lock()
	e.root = root
	e.simTime = e.timeRange.Start
	e.step = 0
	e.pending = 0
	e.sum = accumulator{}
	e.dayStart = startOfDay(e.simTime)
	e.monthStart = startOfMonth(e.simTime)
	e.mu.Unlock()

	e.broadcastState()
	e.broadcastSummary()
}

// Step advances the tree by one time step using the latest sample at or
// before the current simulated time. It returns false once the end of the
// data is passed. Does not require Start().
func (e *Engine) Step() (StepResult, bool) {
	e.mu.Lock()
	if e.simTime.After(e.timeRange.End) {
		e.mu.Unlock()
		return StepResult{}, false
	}
	sample, ok := e.store.SampleAt(e.simTime)
	if !ok {
		e.mu.Unlock()
		return StepResult{}, false
	}

	b := e.root.Step(sample.SLP, sample.HotWater, sample.Ambient)
	res := StepResult{
		Step:        e.step,
		Timestamp:   e.simTime,
		GenE:        b.GenE,
		LoadE:       b.LoadE,
		GenT:        b.GenT,
		LoadT:       b.LoadT,
		Fuel:        e.root.State().Fuel,
		OutdoorTemp: sample.Ambient.OutdoorTemp,
	}
	e.accumulate(res)
	e.step++
	e.simTime = e.simTime.Add(StepDuration)
	e.mu.Unlock()

	e.callback.OnStep(res)
	e.broadcastSummary()
	return res, true
}

// Run performs up to steps steps, or runs to the end of the data when steps
// is not positive. The context is checked between steps.
func (e *Engine) Run(ctx context.Context, steps int) (Summary, error) {
	e.log.Info("simulation run started", zap.Int("steps", steps), zap.Time("start", e.State().Time))
	e.broadcastState()

	for i := 0; steps <= 0 || i < steps; i++ {
		if err := ctx.Err(); err != nil {
			e.log.Warn("simulation run cancelled", zap.Int("step", e.State().Step), zap.Error(err))
			return e.Summary(), err
		}
		if _, ok := e.Step(); !ok {
			break
		}
	}

	e.broadcastState()
	s := e.Summary()
	e.log.Info("simulation run finished",
		zap.Int("steps", s.Steps),
		zap.Float64("load_e_kwh", s.LoadEKWh),
		zap.Float64("gen_e_kwh", s.GenEKWh),
	)
	return s, nil
}

const tickInterval = 100 * time.Millisecond

func (e *Engine) loop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			if e.tick() {
				return
			}
		}
	}
}

// tick advances one frame. Returns true if the simulation reached the end.
func (e *Engine) tick() bool {
	e.mu.Lock()
	e.pending += time.Duration(float64(tickInterval) * e.speed)
	e.mu.Unlock()

	ended := false
	for {
		e.mu.Lock()
		due := e.pending >= StepDuration && e.running
		if due {
			e.pending -= StepDuration
		}
		e.mu.Unlock()
		if !due {
			break
		}
		if _, ok := e.Step(); !ok {
			ended = true
			break
		}
	}

	if ended {
		e.mu.Lock()
		if e.running {
			e.running = false
			close(e.stopCh)
		}
		e.mu.Unlock()
		e.broadcastState()
		return true
	}

	e.broadcastState()
	return false
}

// accumulate adds one step to the energy totals. Must be called with mu held.
func (e *Engine) accumulate(r StepResult) {
	day := startOfDay(r.Timestamp)
	if !day.Equal(e.dayStart) {
		e.dayStart = day
		e.sum.todayLoadE = 0
	}
	month := startOfMonth(r.Timestamp)
	if !month.Equal(e.monthStart) {
		e.monthStart = month
		e.sum.monthLoadE = 0
	}

	dt := model.TimeStep
	e.sum.genE += r.GenE * dt
	e.sum.loadE += r.LoadE * dt
	e.sum.genT += r.GenT * dt
	e.sum.loadT += r.LoadT * dt
	e.sum.fuel += r.Fuel * dt
	e.sum.todayLoadE += r.LoadE * dt
	e.sum.monthLoadE += r.LoadE * dt

	net := r.LoadE - r.GenE
	if net > 0 {
		e.sum.imp += net * dt
	} else {
		e.sum.exp -= net * dt
	}
	e.sum.self += min(r.GenE, r.LoadE) * dt
}

// Summary returns the energy totals so far.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Summary{
		Steps:              e.step,
		GenEKWh:            e.sum.genE / 1000,
		LoadEKWh:           e.sum.loadE / 1000,
		GenTKWh:            e.sum.genT / 1000,
		LoadTKWh:           e.sum.loadT / 1000,
		FuelKWh:            e.sum.fuel / 1000,
		ImportKWh:          e.sum.imp / 1000,
		ExportKWh:          e.sum.exp / 1000,
		SelfConsumptionKWh: e.sum.self / 1000,
		TodayLoadEKWh:      e.sum.todayLoadE / 1000,
		MonthLoadEKWh:      e.sum.monthLoadE / 1000,
	}
}

func (e *Engine) broadcastState() {
	e.callback.OnState(e.State())
}

func (e *Engine) broadcastSummary() {
	e.callback.OnSummary(e.Summary())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
