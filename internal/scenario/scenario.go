// Package scenario loads the YAML description of a simulation run: the
// drive inputs and the cell tree to build.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"cellsim/internal/building"
	"cellsim/internal/cell"
	"cellsim/internal/component"
	"cellsim/internal/heating"
	"cellsim/internal/model"
	"cellsim/internal/weather"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid scenario")

const (
	DefaultSteps      = 7 * 96
	DefaultEg         = 1000.0 // kWh/m²
	DefaultSupplyTemp = 35.0   // °C
	DefaultSPF        = 3.5
)

// Scenario is the root of a scenario file.
type Scenario struct {
	Name       string     `yaml:"name"`
	Simulation Simulation `yaml:"simulation"`
	Inputs     Inputs     `yaml:"inputs"`
	Root       CellSpec   `yaml:"cell"`
}

type Simulation struct {
	Seed    uint64    `yaml:"seed"`
	Steps   int       `yaml:"steps"`
	Start   time.Time `yaml:"start"`
	History int       `yaml:"history"`
}

// Inputs names the drive series. With Synthetic set the weather package
// generates them from Climate instead.
type Inputs struct {
	Synthetic     bool           `yaml:"synthetic"`
	Climate       weather.Config `yaml:"climate"`
	Weather       string         `yaml:"weather"`
	SLP           string         `yaml:"slp"`
	HotWater      string         `yaml:"hot_water"`
	ReferenceYear string         `yaml:"reference_year"`
}

type CellSpec struct {
	Name            string                `yaml:"name"`
	Eg              float64               `yaml:"eg"`      // kWh/m²
	NormOutdoorTemp float64               `yaml:"t_out_n"` // °C
	Cells           []CellSpec            `yaml:"cells"`
	Buildings       []BuildingSpec        `yaml:"buildings"`
	SepBSLAgents    []SepBSLSpec          `yaml:"sep_bsl_agents"`
	PV              *PVSpec               `yaml:"pv"`
	Wind            *component.WindConfig `yaml:"wind"`
	SolarThermal    *PVSpec               `yaml:"solar_thermal"`
	ThermalSystem   *ThermalSpec          `yaml:"thermal_system"`
}

// BuildingSpec describes Count identical buildings.
type BuildingSpec struct {
	Name            string       `yaml:"name"`
	Count           int          `yaml:"count"`
	building.Config `yaml:",inline"`
	Agents          []AgentSpec  `yaml:"agents"`
	PV              *PVSpec      `yaml:"pv"`
	Heating         *HeatingSpec `yaml:"heating"`
}

// AgentSpec describes Count agents of one type. A positive COC replaces
// the sampled consumption coefficient.
type AgentSpec struct {
	Type  string  `yaml:"type"`
	Count int     `yaml:"count"`
	COC   float64 `yaml:"coc"`
}

type SepBSLSpec struct {
	Type  string  `yaml:"type"`
	Count int     `yaml:"count"`
	PV    *PVSpec `yaml:"pv"`
}

// PVSpec is either a fixed area or, with Dimensioned, sized from demand.
type PVSpec struct {
	Area        float64 `yaml:"area"` // m²
	Dimensioned bool    `yaml:"dimensioned"`
}

// HeatingSpec selects a building heating system.
type HeatingSpec struct {
	Kind       heating.Kind `yaml:"kind"`
	SPF        float64      `yaml:"spf"`
	SupplyTemp float64      `yaml:"supply_temp"`
}

// ThermalSpec is a cell district heating plant. Controller "threshold" (the
// default) is the only built-in strategy.
type ThermalSpec struct {
	heating.CellSystemConfig `yaml:",inline"`
	Controller               string `yaml:"controller"`
}

// Load reads, defaults and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario from YAML, applies defaults and validates it.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyDefaults fills zero fields.
func (s *Scenario) ApplyDefaults() {
	if s.Simulation.Steps == 0 {
		s.Simulation.Steps = DefaultSteps
	}
	if s.Simulation.Start.IsZero() {
		s.Simulation.Start = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if s.Inputs.Synthetic && s.Inputs.Climate == (weather.Config{}) {
		s.Inputs.Climate = weather.DefaultConfig()
	}
	s.Root.applyDefaults()
}

func (c *CellSpec) applyDefaults() {
	if c.Eg == 0 {
		c.Eg = DefaultEg
	}
	for i := range c.Cells {
		c.Cells[i].applyDefaults()
	}
	for i := range c.Buildings {
		b := &c.Buildings[i]
		if b.Count == 0 {
			b.Count = 1
		}
		for j := range b.Agents {
			if b.Agents[j].Count == 0 {
				b.Agents[j].Count = 1
			}
		}
		if h := b.Heating; h != nil {
			if h.SupplyTemp == 0 {
				h.SupplyTemp = DefaultSupplyTemp
			}
			if h.SPF == 0 {
				h.SPF = DefaultSPF
			}
		}
	}
	for i := range c.SepBSLAgents {
		if c.SepBSLAgents[i].Count == 0 {
			c.SepBSLAgents[i].Count = 1
		}
	}
	if t := c.ThermalSystem; t != nil {
		if t.Controller == "" {
			t.Controller = "threshold"
		}
		if t.ChargeEfficiency == 0 && t.DischargeEfficiency == 0 {
			t.ChargeEfficiency, t.DischargeEfficiency = 0.95, 0.95
		}
	}
}

// Validate reports the first invalid field.
func (s *Scenario) Validate() error {
	if s.Simulation.Steps < 0 {
		return fmt.Errorf("%w: simulation.steps %d must not be negative", ErrInvalid, s.Simulation.Steps)
	}
	if s.Simulation.History < 0 {
		return fmt.Errorf("%w: simulation.history %d must not be negative", ErrInvalid, s.Simulation.History)
	}
	if !s.Inputs.Synthetic && s.Inputs.Weather == "" {
		return fmt.Errorf("%w: inputs.weather is required unless inputs.synthetic is set", ErrInvalid)
	}
	return s.Root.validate("cell", 1)
}

func (c *CellSpec) validate(path string, depth int) error {
	if depth > cell.MaxDepth {
		return fmt.Errorf("%w: %s nested deeper than %d levels", ErrInvalid, path, cell.MaxDepth)
	}
	if c.Eg < 0 {
		return fmt.Errorf("%w: %s.eg %.1f must not be negative", ErrInvalid, path, c.Eg)
	}
	for i := range c.Cells {
		if err := c.Cells[i].validate(fmt.Sprintf("%s.cells[%d]", path, i), depth+1); err != nil {
			return err
		}
	}
	for i, b := range c.Buildings {
		p := fmt.Sprintf("%s.buildings[%d]", path, i)
		if b.Count < 0 {
			return fmt.Errorf("%w: %s.count %d must not be negative", ErrInvalid, p, b.Count)
		}
		if err := b.Config.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, p, err)
		}
		n := 0
		for j, a := range b.Agents {
			if _, err := model.ParseAgentType(a.Type); err != nil {
				return fmt.Errorf("%w: %s.agents[%d]: %w", ErrInvalid, p, j, err)
			}
			n += a.Count
		}
		if n > b.MaxAgents {
			return fmt.Errorf("%w: %s has %d agents, max_agents is %d", ErrInvalid, p, n, b.MaxAgents)
		}
		if h := b.Heating; h != nil && h.Kind != heating.KindCHP && h.Kind != heating.KindHeatPump {
			return fmt.Errorf("%w: %s.heating.kind %q must be %q or %q", ErrInvalid, p, h.Kind, heating.KindCHP, heating.KindHeatPump)
		}
	}
	for i, a := range c.SepBSLAgents {
		t, err := model.ParseAgentType(a.Type)
		if err != nil || t == model.PHH {
			return fmt.Errorf("%w: %s.sep_bsl_agents[%d].type %q must be bsla or bslc", ErrInvalid, path, i, a.Type)
		}
	}
	if t := c.ThermalSystem; t != nil && t.Controller != "threshold" {
		return fmt.Errorf("%w: %s.thermal_system.controller %q is unknown", ErrInvalid, path, t.Controller)
	}
	return nil
}

// NeedsReferenceYear reports whether any building installs a heat pump.
func (s *Scenario) NeedsReferenceYear() bool {
	return s.Root.needsReferenceYear()
}

func (c *CellSpec) needsReferenceYear() bool {
	for _, b := range c.Buildings {
		if b.Heating != nil && b.Heating.Kind == heating.KindHeatPump {
			return true
		}
	}
	for i := range c.Cells {
		if c.Cells[i].needsReferenceYear() {
			return true
		}
	}
	return false
}
