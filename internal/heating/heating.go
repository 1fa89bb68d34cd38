// Package heating implements the heating-system controllers that dispatch
// sources against one or two thermal storages, plus the design-time sizing
// of heat pump systems.
package heating

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
)

var (
	// ErrInvalidParameter is returned for a physically invalid configuration.
	ErrInvalidParameter = errors.New("invalid heating system parameter")
	// ErrUnsatisfiableTarget is returned when no minimum working temperature
	// below the heat-limit temperature meets the seasonal performance factor.
	ErrUnsatisfiableTarget = errors.New("seasonal performance factor not reachable")
	// ErrPowerTooLow is returned when the sized heat pump falls below MinHeatPumpPower.
	ErrPowerTooLow = errors.New("heat pump power below sanity floor")
)

// Options carries the ambient dependencies shared by all constructors.
type Options struct {
	History int
	Logger  *zap.Logger
	Rand    *rand.Rand
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Mode is the seasonal control mode of a heating system.
type Mode int

const (
	Winter Mode = iota
	Intermediate
	Summer
)

func (m Mode) String() string {
	switch m {
	case Winter:
		return "winter"
	case Intermediate:
		return "intermediate"
	case Summer:
		return "summer"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Thresholds are the relative-charge levels of a storage that gate dispatch.
type Thresholds struct {
	HH float64
	H  float64
	L  float64
	LL float64
}

var (
	// CHPThresholds gate the space-heating and hot-water storages of CHP systems.
	CHPThresholds = Thresholds{HH: 0.95, H: 0.3, L: 0.2, LL: 0.05}
	// HeatPumpThresholds gate the storage of heat pump systems.
	HeatPumpThresholds = Thresholds{HH: 0.95, H: 0.2, L: 0.05, LL: 0.01}
)

// seasonSwitch moves between modes when the running mean outdoor temperature
// leaves an asymmetric band around the heat-limit temperature.
type seasonSwitch struct {
	mode      Mode
	halfWidth float64
}

func (s *seasonSwitch) update(tHeatLim, tOutMean float64) {
	h := s.halfWidth
	switch s.mode {
	case Winter:
		if tOutMean > tHeatLim-0.8*h {
			s.mode = Intermediate
		}
	case Intermediate:
		if tOutMean > tHeatLim+1.2*h {
			s.mode = Summer
		} else if tOutMean < tHeatLim-1.2*h {
			s.mode = Winter
		}
	case Summer:
		if tOutMean < tHeatLim+0.8*h {
			s.mode = Intermediate
		}
	}
}

// Kind identifies a System implementation.
type Kind string

const (
	KindNone     Kind = "none"
	KindCHP      Kind = "chp"
	KindHeatPump Kind = "heatpump"
)

// System is a building heating system. The implementations are NoSystem,
// *CHPSystem and *HeatPumpSystem; the set is closed.
type System interface {
	// Step serves the space-heating and hot-water demand (W) and returns the
	// electrical power (positive generated, negative consumed) and the thermal
	// power the consumer actually receives.
	Step(heatingDemand, hotWaterDemand, tOut, tHeatLim, tOutMean float64) (powE, powT float64)
	// Losses returns the storage losses of the last step in W.
	Losses() float64
	Kind() Kind
	system()
}

// NoSystem passes the full demand through, for buildings supplied from
// outside (district heating or an unmodelled source).
type NoSystem struct{}

func (NoSystem) Step(heatingDemand, hotWaterDemand, _, _, _ float64) (float64, float64) {
	return 0, heatingDemand + hotWaterDemand
}

func (NoSystem) Losses() float64 { return 0 }
func (NoSystem) Kind() Kind      { return KindNone }
func (NoSystem) system()         {}
