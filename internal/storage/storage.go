// Package storage models a bounded energy reservoir with charge and
// discharge efficiency, self-discharge and a power limit.
package storage

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"cellsim/internal/history"
	"cellsim/internal/model"
)

// ErrInvalidParameter is returned for a physically invalid configuration.
var ErrInvalidParameter = errors.New("invalid storage parameter")

// Config holds the design parameters of a storage.
type Config struct {
	CapacityWh          float64 `yaml:"capacity_wh" json:"capacity_wh"`
	ChargeEfficiency    float64 `yaml:"charge_efficiency" json:"charge_efficiency"`
	DischargeEfficiency float64 `yaml:"discharge_efficiency" json:"discharge_efficiency"`
	SelfDischarge       float64 `yaml:"self_discharge" json:"self_discharge"` // 1/h
	MaxPowerW           float64 `yaml:"max_power_w" json:"max_power_w"`
	History             int     `yaml:"history" json:"history"`
}

// Validate checks the configuration against physical bounds.
func (c Config) Validate() error {
	switch {
	case c.CapacityWh <= 0:
		return fmt.Errorf("%w: capacity %.2f Wh must be positive", ErrInvalidParameter, c.CapacityWh)
	case c.ChargeEfficiency < 0 || c.ChargeEfficiency > 1:
		return fmt.Errorf("%w: charge efficiency %.3f outside [0,1]", ErrInvalidParameter, c.ChargeEfficiency)
	case c.DischargeEfficiency < 0 || c.DischargeEfficiency > 1:
		return fmt.Errorf("%w: discharge efficiency %.3f outside [0,1]", ErrInvalidParameter, c.DischargeEfficiency)
	case c.SelfDischarge < 0:
		return fmt.Errorf("%w: self discharge %.4f must not be negative", ErrInvalidParameter, c.SelfDischarge)
	case c.MaxPowerW < 0:
		return fmt.Errorf("%w: max power %.2f W must not be negative", ErrInvalidParameter, c.MaxPowerW)
	}
	return nil
}

// Storage is a generic energy reservoir. Charge is kept in [0, CapacityWh].
type Storage struct {
	config   Config
	chargeWh float64

	charge *history.Buffer
	losses *history.Buffer
}

// New validates cfg and creates a storage. The initial charge is drawn
// uniformly from [0, capacity] using rng; a nil rng starts empty.
func New(cfg Config, rng *rand.Rand) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Storage{
		config: cfg,
		charge: history.New(cfg.History),
		losses: history.New(cfg.History),
	}
	if rng != nil {
		s.chargeWh = rng.Float64() * cfg.CapacityWh
	}
	return s, nil
}

func (s *Storage) Config() Config { return s.config }

// Charge returns the stored energy in Wh.
func (s *Storage) Charge() float64 { return s.chargeWh }

// SetCharge sets the stored energy, clamped to [0, capacity].
func (s *Storage) SetCharge(wh float64) {
	s.chargeWh = math.Max(0, math.Min(wh, s.config.CapacityWh))
}

// RelativeCharge returns charge divided by capacity, in [0,1].
func (s *Storage) RelativeCharge() float64 {
	return s.chargeWh / s.config.CapacityWh
}

// Step applies a requested power p for one time step. Positive p charges,
// negative p discharges.
//
// It returns the part of p that could not be applied (positive when the
// storage could not take more, negative when it could not deliver more) and
// the total losses, both in W. The stored energy changes by exactly
// (p - unmet - losses) × TimeStep.
func (s *Storage) Step(p float64) (unmet, losses float64) {
	dt := model.TimeStep
	before := s.chargeWh

	switch {
	case p > 0:
		unmet, losses = s.charging(p, dt)
	case p < 0:
		unmet, losses = s.discharging(p, dt)
	}

	selfLoss := 0.5 * (before*s.config.SelfDischarge + s.chargeWh*s.config.SelfDischarge)
	if selfLoss*dt > s.chargeWh {
		selfLoss = s.chargeWh / dt
	}
	s.chargeWh -= selfLoss * dt
	losses += selfLoss

	s.charge.Save(s.chargeWh)
	s.losses.Save(losses)
	return unmet, losses
}

func (s *Storage) charging(p, dt float64) (unmet, loss float64) {
	cfg := s.config
	old := s.chargeWh

	if p > cfg.MaxPowerW {
		unmet = p - cfg.MaxPowerW
	}
	accepted := math.Min(p, cfg.MaxPowerW)
	loss = accepted * (1 - cfg.ChargeEfficiency)
	s.chargeWh += (accepted - loss) * dt

	if s.chargeWh > cfg.CapacityWh {
		// Only the energy that fit in carries a loss.
		unmet += (s.chargeWh-cfg.CapacityWh)/dt + loss
		loss = (cfg.CapacityWh - old) / dt * (1 - cfg.ChargeEfficiency)
		unmet -= loss
		s.chargeWh = cfg.CapacityWh
	}
	return unmet, loss
}

func (s *Storage) discharging(p, dt float64) (unmet, loss float64) {
	cfg := s.config
	old := s.chargeWh

	if p < -cfg.MaxPowerW {
		unmet = p + cfg.MaxPowerW
	}
	delivered := math.Max(p, -cfg.MaxPowerW)
	// Signed like delivered: the reservoir pays for its own losses.
	loss = delivered * (1 - cfg.DischargeEfficiency)
	s.chargeWh += (delivered + loss) * dt

	if s.chargeWh < 0 {
		unmet += s.chargeWh/dt - loss
		loss = -old / dt * (1 - cfg.DischargeEfficiency)
		unmet += loss
		s.chargeWh = 0
	}
	return unmet, -loss
}

// ChargeHistory returns the recorded charge trace in Wh, or nil when disabled.
func (s *Storage) ChargeHistory() []float64 { return s.charge.Values() }

// LossHistory returns the recorded loss trace in W, or nil when disabled.
func (s *Storage) LossHistory() []float64 { return s.losses.Values() }
