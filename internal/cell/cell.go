// Package cell models a grid segment: a tree of sub-cells, buildings and
// standalone business agents with optional generation assets and a
// district heating plant.
package cell

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"cellsim/internal/agent"
	"cellsim/internal/building"
	"cellsim/internal/component"
	"cellsim/internal/heating"
	"cellsim/internal/history"
	"cellsim/internal/model"
	"cellsim/internal/storage"
)

// MaxDepth is the maximum number of levels in a cell tree.
const MaxDepth = 32

// districtSpread is the design temperature spread of a district heating storage in K.
const districtSpread = 20.0

var (
	ErrInvalidParameter = errors.New("invalid cell parameter")
	ErrSlotOccupied     = model.ErrSlotOccupied
	ErrMaxDepth         = errors.New("cell tree too deep")
	ErrCycle            = errors.New("cell would contain itself")
	ErrAlreadyNested    = errors.New("cell already has a parent")
)

// Options carries history length, logger and random source.
type Options struct {
	History int
	Logger  *zap.Logger
	Rand    *rand.Rand
}

// Cell aggregates its members and runs its own assets.
type Cell struct {
	eg    float64 // mean annual global irradiation, kWh/m²
	tOutN float64

	parent    *Cell
	subCells  []*Cell
	buildings []*building.Building
	agents    []*agent.SepBSLAgent

	pv           *component.PV
	wind         *component.Wind
	solarThermal *component.SolarThermal
	thermal      *heating.CellCHPSystem

	manager Manager
	log     *zap.Logger
	rng     *rand.Rand
	hist    int

	genE, loadE *history.Buffer
	genT, loadT *history.Buffer
}

// New creates an empty cell for a region with mean annual global
// irradiation eg (kWh/m²) and norm outdoor temperature tOutN (°C).
func New(eg, tOutN float64, opts Options) (*Cell, error) {
	if eg < 0 {
		return nil, fmt.Errorf("%w: annual irradiation %.1f kWh/m² must not be negative", ErrInvalidParameter, eg)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Cell{
		eg:    eg,
		tOutN: tOutN,
		log:   log,
		rng:   opts.Rand,
		hist:  opts.History,
		genE:  history.New(opts.History),
		loadE: history.New(opts.History),
		genT:  history.New(opts.History),
		loadT: history.New(opts.History),
	}, nil
}

func (c *Cell) Eg() float64                           { return c.eg }
func (c *Cell) NormOutdoorTemp() float64              { return c.tOutN }
func (c *Cell) SubCells() []*Cell                     { return c.subCells }
func (c *Cell) Buildings() []*building.Building       { return c.buildings }
func (c *Cell) SepBSLAgents() []*agent.SepBSLAgent    { return c.agents }
func (c *Cell) PV() *component.PV                     { return c.pv }
func (c *Cell) Wind() *component.Wind                 { return c.wind }
func (c *Cell) SolarThermal() *component.SolarThermal { return c.solarThermal }
func (c *Cell) ThermalSystem() *heating.CellCHPSystem { return c.thermal }

// State returns the balance snapshot of the last step.
func (c *Cell) State() model.CellState { return c.manager.State() }

// Height is the number of levels of the tree rooted at c.
func (c *Cell) Height() int {
	h := 0
	for _, sc := range c.subCells {
		h = max(h, sc.Height())
	}
	return h + 1
}

// Level is the number of levels from the root of c's tree down to c.
func (c *Cell) Level() int {
	n := 1
	for p := c.parent; p != nil; p = p.parent {
		n++
	}
	return n
}

func (c *Cell) contains(o *Cell) bool {
	if c == o {
		return true
	}
	for _, sc := range c.subCells {
		if sc.contains(o) {
			return true
		}
	}
	return false
}

// AddSubCell nests sub below c. A cell has at most one parent, the tree may
// not contain itself and may not exceed MaxDepth levels.
func (c *Cell) AddSubCell(sub *Cell) error {
	if sub.parent != nil {
		c.log.Warn("sub-cell already nested, nothing added")
		return ErrAlreadyNested
	}
	if sub.contains(c) {
		return ErrCycle
	}
	if depth := c.Level() + sub.Height(); depth > MaxDepth {
		return fmt.Errorf("%w: tree would have %d levels, max depth %d", ErrMaxDepth, depth, MaxDepth)
	}
	sub.parent = c
	c.subCells = append(c.subCells, sub)
	return nil
}

func (c *Cell) AddBuilding(b *building.Building) {
	c.buildings = append(c.buildings, b)
}

// ReplaceBuilding swaps the building at position i.
func (c *Cell) ReplaceBuilding(i int, b *building.Building) error {
	if i < 0 || i >= len(c.buildings) {
		c.log.Warn("building position out of range", zap.Int("position", i), zap.Int("buildings", len(c.buildings)))
		return fmt.Errorf("building %d of %d: %w", i, len(c.buildings), model.ErrIndexOutOfRange)
	}
	c.buildings[i] = b
	return nil
}

func (c *Cell) AddSepBSLAgent(a *agent.SepBSLAgent) {
	c.agents = append(c.agents, a)
}

func (c *Cell) occupied(slot string) error {
	c.log.Warn("cell slot already occupied, nothing added", zap.String("slot", slot))
	return fmt.Errorf("cell %s: %w", slot, ErrSlotOccupied)
}

func (c *Cell) AddPV(pv *component.PV) error {
	if c.pv != nil {
		return c.occupied("pv")
	}
	c.pv = pv
	return nil
}

func (c *Cell) AddWind(w *component.Wind) error {
	if c.wind != nil {
		return c.occupied("wind")
	}
	c.wind = w
	return nil
}

func (c *Cell) AddSolarThermal(st *component.SolarThermal) error {
	if c.solarThermal != nil {
		return c.occupied("solar thermal")
	}
	c.solarThermal = st
	return nil
}

// AddThermalSystem installs the district heating plant. A cell has at most one.
func (c *Cell) AddThermalSystem(sys *heating.CellCHPSystem) error {
	if c.thermal != nil {
		return c.occupied("thermal system")
	}
	c.thermal = sys
	return nil
}

// AddDimensionedThermalSystem builds a plant for the district heating
// buildings of the tree. A zero PowerT is replaced by their summed norm
// heating load and a zero storage capacity by a standard tank for the CHP
// share.
func (c *Cell) AddDimensionedThermalSystem(cfg heating.CellSystemConfig, ctrl heating.Controller) error {
	if c.thermal != nil {
		return c.occupied("thermal system")
	}
	if cfg.PowerT == 0 {
		cfg.PowerT = c.ThermalDemand(true)
	}
	if cfg.StorageCapacityWh == 0 {
		capWh, volume := storage.HeatingSystemStorage(cfg.CHPShare*cfg.PowerT, districtSpread, c.rng)
		cfg.StorageCapacityWh = capWh
		cfg.StorageSelfLoss = storage.LossParameter(volume, capWh)
	}
	sys, err := heating.NewCellCHPSystem(cfg, ctrl, heating.Options{History: c.hist, Logger: c.log, Rand: c.rng})
	if err != nil {
		return fmt.Errorf("dimension cell thermal system: %w", err)
	}
	c.thermal = sys
	return nil
}

// ThermalDemand sums the norm heating load of all buildings in the tree,
// restricted to district heating buildings when dhnOnly is set.
func (c *Cell) ThermalDemand(dhnOnly bool) float64 {
	var q float64
	for _, sc := range c.subCells {
		q += sc.ThermalDemand(dhnOnly)
	}
	for _, b := range c.buildings {
		if !dhnOnly || b.AtDHN() {
			q += b.QHLN()
		}
	}
	return q
}

// Step advances the tree by one time step and returns the aggregate balance.
// Members are stepped before the cell's own assets, so the thermal system
// sees the net thermal demand of the cell.
func (c *Cell) Step(slp model.SLP, hwProfile float64, amb model.Ambient) model.Balance {
	var out model.Balance
	for _, sc := range c.subCells {
		out = out.Add(sc.Step(slp, hwProfile, amb))
	}

	amb.SpecificGains = SpecificGains(amb)
	for _, b := range c.buildings {
		out = out.Add(b.Step(slp, hwProfile, amb))
	}

	eg := amb.GlobalIrradiance()
	for _, a := range c.agents {
		gen, load := a.Step(slp, eg)
		out.GenE += gen
		out.LoadE += load
	}

	if c.pv != nil {
		out.GenE += c.pv.Step(eg)
	}
	if c.wind != nil {
		out.GenE += c.wind.Step(amb.WindSpeed)
	}
	if c.solarThermal != nil {
		out.GenT += c.solarThermal.Step(eg)
	}

	var fuel float64
	if c.thermal != nil {
		demand := max(0, out.LoadT-out.GenT)
		powE, supplied, f := c.thermal.Step(demand, c.manager.State(), amb)
		out.GenT += supplied
		out.AddElectrical(powE)
		fuel = f
	}

	c.manager.Update(out, fuel)
	c.genE.Save(out.GenE)
	c.loadE.Save(out.LoadE)
	c.genT.Save(out.GenT)
	c.loadT.Save(out.LoadT)
	return out
}

func (c *Cell) GenEHistory() []float64  { return c.genE.Values() }
func (c *Cell) LoadEHistory() []float64 { return c.loadE.Values() }
func (c *Cell) GenTHistory() []float64  { return c.genT.Values() }
func (c *Cell) LoadTHistory() []float64 { return c.loadT.Values() }
