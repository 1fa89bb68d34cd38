package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cellsim/internal/agent"
	"cellsim/internal/building"
	"cellsim/internal/cell"
	"cellsim/internal/component"
	"cellsim/internal/heating"
	"cellsim/internal/model"
)

// ErrNoReferenceYear is returned when a heat pump must be sized without a
// reference year.
var ErrNoReferenceYear = errors.New("heat pump sizing needs a reference year")

// Node identifies one member of a built tree.
type Node struct {
	ID     uuid.UUID `json:"id"`
	Parent uuid.UUID `json:"parent"`
	Kind   string    `json:"kind"`
	Name   string    `json:"name"`
}

// Tree is a built cell tree with the identity of each member.
type Tree struct {
	ID    uuid.UUID
	Root  *cell.Cell
	Nodes []Node
}

// Count returns the number of nodes of the given kind.
func (t *Tree) Count(kind string) int {
	n := 0
	for _, node := range t.Nodes {
		if node.Kind == kind {
			n++
		}
	}
	return n
}

// BuildOptions carries the dependencies of Build.
type BuildOptions struct {
	Logger        *zap.Logger
	Rand          *rand.Rand
	ReferenceYear []float64
}

type builder struct {
	hist    int
	log     *zap.Logger
	rng     *rand.Rand
	refYear []float64
	nodes   []Node
}

// Build constructs the cell tree of s. All sampling draws from opts.Rand;
// a nil source is seeded from the scenario seed.
func Build(s *Scenario, opts BuildOptions) (*Tree, error) {
	b := &builder{
		hist:    s.Simulation.History,
		log:     opts.Logger,
		rng:     opts.Rand,
		refYear: opts.ReferenceYear,
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewPCG(s.Simulation.Seed, 0))
	}

	root, err := b.cell(&s.Root, uuid.Nil, "cell")
	if err != nil {
		return nil, err
	}
	t := &Tree{ID: uuid.New(), Root: root, Nodes: b.nodes}
	b.log.Info("built cell tree",
		zap.String("scenario", s.Name),
		zap.Stringer("tree_id", t.ID),
		zap.Int("cells", t.Count("cell")),
		zap.Int("buildings", t.Count("building")),
		zap.Int("agents", t.Count("agent")+t.Count("sep_bsl_agent")),
	)
	return t, nil
}

func (b *builder) node(parent uuid.UUID, kind, name string) uuid.UUID {
	id := uuid.New()
	b.nodes = append(b.nodes, Node{ID: id, Parent: parent, Kind: kind, Name: name})
	return id
}

func (b *builder) cell(spec *CellSpec, parent uuid.UUID, path string) (*cell.Cell, error) {
	c, err := cell.New(spec.Eg, spec.NormOutdoorTemp, cell.Options{History: b.hist, Logger: b.log, Rand: b.rng})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	id := b.node(parent, "cell", spec.Name)

	for i := range spec.Cells {
		sub, err := b.cell(&spec.Cells[i], id, fmt.Sprintf("%s.cells[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if err := c.AddSubCell(sub); err != nil {
			return nil, fmt.Errorf("%s.cells[%d]: %w", path, i, err)
		}
	}

	for i := range spec.Buildings {
		for k := 0; k < spec.Buildings[i].Count; k++ {
			bld, err := b.building(&spec.Buildings[i], spec, id)
			if err != nil {
				return nil, fmt.Errorf("%s.buildings[%d]: %w", path, i, err)
			}
			c.AddBuilding(bld)
		}
	}

	for i, as := range spec.SepBSLAgents {
		t, err := model.ParseAgentType(as.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.sep_bsl_agents[%d]: %w", path, i, err)
		}
		for k := 0; k < as.Count; k++ {
			a, err := agent.NewSepBSL(t, b.hist, b.rng)
			if err != nil {
				return nil, fmt.Errorf("%s.sep_bsl_agents[%d]: %w", path, i, err)
			}
			a.SetLogger(b.log)
			if as.PV != nil {
				if as.PV.Dimensioned {
					err = a.AddDimensionedPV(spec.Eg, b.hist)
				} else {
					err = b.withPV(as.PV.Area, a.AddPV)
				}
				if err != nil {
					return nil, fmt.Errorf("%s.sep_bsl_agents[%d].pv: %w", path, i, err)
				}
			}
			c.AddSepBSLAgent(a)
			b.node(id, "sep_bsl_agent", t.String())
		}
	}

	if spec.PV != nil {
		if err := b.withPV(spec.PV.Area, c.AddPV); err != nil {
			return nil, fmt.Errorf("%s.pv: %w", path, err)
		}
	}
	if spec.Wind != nil {
		w, err := component.NewWind(*spec.Wind, b.hist)
		if err != nil {
			return nil, fmt.Errorf("%s.wind: %w", path, err)
		}
		if err := c.AddWind(w); err != nil {
			return nil, err
		}
	}
	if spec.SolarThermal != nil {
		st, err := component.NewSolarThermal(spec.SolarThermal.Area, b.hist)
		if err != nil {
			return nil, fmt.Errorf("%s.solar_thermal: %w", path, err)
		}
		if err := c.AddSolarThermal(st); err != nil {
			return nil, err
		}
	}
	if spec.ThermalSystem != nil {
		// "threshold" is the only strategy; nil selects it
		if err := c.AddDimensionedThermalSystem(spec.ThermalSystem.CellSystemConfig, nil); err != nil {
			return nil, fmt.Errorf("%s.thermal_system: %w", path, err)
		}
	}
	return c, nil
}

func (b *builder) withPV(area float64, install func(*component.PV) error) error {
	pv, err := component.NewPV(area, b.hist)
	if err != nil {
		return err
	}
	return install(pv)
}

func (b *builder) building(spec *BuildingSpec, parent *CellSpec, parentID uuid.UUID) (*building.Building, error) {
	cfg := spec.Config
	if cfg.NormOutdoorTemp == 0 {
		cfg.NormOutdoorTemp = parent.NormOutdoorTemp
	}
	bld, err := building.New(cfg, building.Options{History: b.hist, Logger: b.log, Rand: b.rng})
	if err != nil {
		return nil, err
	}
	id := b.node(parentID, "building", spec.Name)

	for j, as := range spec.Agents {
		t, err := model.ParseAgentType(as.Type)
		if err != nil {
			return nil, fmt.Errorf("agents[%d]: %w", j, err)
		}
		for k := 0; k < as.Count; k++ {
			a, err := agent.New(t, b.rng)
			if err != nil {
				return nil, fmt.Errorf("agents[%d]: %w", j, err)
			}
			if as.COC > 0 {
				if err := a.OverwriteCOC(as.COC); err != nil {
					return nil, fmt.Errorf("agents[%d]: %w", j, err)
				}
			}
			if err := bld.AddAgent(a); err != nil {
				if errors.Is(err, building.ErrTooManyAgents) {
					b.log.Warn("skipping agent over building capacity",
						zap.String("building", spec.Name), zap.Int("agents_entry", j), zap.Stringer("type", t))
					continue
				}
				return nil, fmt.Errorf("agents[%d]: %w", j, err)
			}
			b.node(id, "agent", t.String())
		}
	}

	if spec.PV != nil {
		if spec.PV.Dimensioned {
			err = bld.AddDimensionedPV(parent.Eg, b.hist)
		} else {
			err = b.withPV(spec.PV.Area, bld.AddPV)
		}
		if err != nil {
			return nil, fmt.Errorf("pv: %w", err)
		}
	}

	if h := spec.Heating; h != nil {
		switch h.Kind {
		case heating.KindCHP:
			err = bld.AddDimensionedCHPSystem()
		case heating.KindHeatPump:
			if len(b.refYear) == 0 {
				return nil, ErrNoReferenceYear
			}
			err = bld.AddDimensionedHeatPumpSystem(h.SPF, h.SupplyTemp, b.refYear)
		default:
			err = fmt.Errorf("%w: heating kind %q", ErrInvalid, h.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("heating: %w", err)
		}
	}
	return bld, nil
}
