package storage

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsim/internal/model"
)

var idealConfig = Config{
	CapacityWh:          1000,
	ChargeEfficiency:    1,
	DischargeEfficiency: 1,
	SelfDischarge:       0,
	MaxPowerW:           2000,
}

func newStorage(t *testing.T, cfg Config, chargeWh float64) *Storage {
	t.Helper()
	s, err := New(cfg, nil)
	require.NoError(t, err)
	s.SetCharge(chargeWh)
	return s
}

func TestStorage_ChargeWithinLimits(t *testing.T) {
	s := newStorage(t, idealConfig, 500)

	unmet, loss := s.Step(400)

	assert.InDelta(t, 600, s.Charge(), 1e-9)
	assert.InDelta(t, 0, unmet, 1e-9)
	assert.InDelta(t, 0, loss, 1e-9)
}

func TestStorage_ChargeCappedByCapacity(t *testing.T) {
	s := newStorage(t, idealConfig, 950)

	unmet, loss := s.Step(400)

	assert.InDelta(t, 1000, s.Charge(), 1e-9)
	assert.InDelta(t, 200, unmet, 1e-9)
	assert.InDelta(t, 0, loss, 1e-9)
	assert.InDelta(t, 1, s.RelativeCharge(), 1e-12)
}

func TestStorage_ChargeCappedByMaxPower(t *testing.T) {
	s := newStorage(t, idealConfig, 0)

	unmet, _ := s.Step(3000)

	assert.InDelta(t, 1000, unmet, 1e-9)
	assert.InDelta(t, 500, s.Charge(), 1e-9)
}

func TestStorage_DischargeFlooredAtZero(t *testing.T) {
	s := newStorage(t, idealConfig, 50)

	unmet, loss := s.Step(-400)

	assert.InDelta(t, 0, s.Charge(), 1e-9)
	assert.InDelta(t, -200, unmet, 1e-9)
	assert.InDelta(t, 0, loss, 1e-9)
}

func TestStorage_DischargeCappedByMaxPower(t *testing.T) {
	s := newStorage(t, idealConfig, 1000)

	unmet, _ := s.Step(-2500)

	assert.InDelta(t, -500, unmet, 1e-9)
	assert.InDelta(t, 500, s.Charge(), 1e-9)
}

func TestStorage_EfficiencyLosses(t *testing.T) {
	cfg := idealConfig
	cfg.ChargeEfficiency = 0.9
	cfg.DischargeEfficiency = 0.8
	s := newStorage(t, cfg, 500)

	unmet, loss := s.Step(400)
	assert.InDelta(t, 0, unmet, 1e-9)
	assert.InDelta(t, 40, loss, 1e-9)
	assert.InDelta(t, 590, s.Charge(), 1e-9)

	unmet, loss = s.Step(-400)
	assert.InDelta(t, 0, unmet, 1e-9)
	assert.InDelta(t, 80, loss, 1e-9)
	assert.InDelta(t, 470, s.Charge(), 1e-9)
}

func TestStorage_ZeroInputOnlySelfDischarges(t *testing.T) {
	cfg := idealConfig
	cfg.SelfDischarge = 0.01
	s := newStorage(t, cfg, 800)

	unmet, loss := s.Step(0)

	// both trapezoid points see 800 Wh because no power was applied
	after := 800 - 800*0.01*model.TimeStep
	assert.InDelta(t, 0, unmet, 1e-12)
	assert.InDelta(t, after, s.Charge(), 1e-9)
	assert.InDelta(t, (800-after)/model.TimeStep, loss, 1e-9)
}

func TestStorage_ZeroInputWithoutSelfDischargeIsNoop(t *testing.T) {
	s := newStorage(t, idealConfig, 321)

	unmet, loss := s.Step(0)

	assert.Zero(t, unmet)
	assert.Zero(t, loss)
	assert.InDelta(t, 321, s.Charge(), 1e-12)
}

func TestStorage_Conservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))

	for i := 0; i < 5000; i++ {
		cfg := Config{
			CapacityWh:          100 + rng.Float64()*20000,
			ChargeEfficiency:    0.5 + rng.Float64()*0.5,
			DischargeEfficiency: 0.5 + rng.Float64()*0.5,
			SelfDischarge:       rng.Float64() * 0.05,
			MaxPowerW:           rng.Float64() * 10000,
		}
		s, err := New(cfg, rng)
		require.NoError(t, err)

		p := (rng.Float64()*2 - 1) * 20000
		before := s.Charge()
		unmet, losses := s.Step(p)

		assert.InDelta(t, (p-unmet-losses)*model.TimeStep, s.Charge()-before, 1e-6,
			"p=%.3f cfg=%+v", p, cfg)
	}
}

func TestStorage_Bounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 0))
	cfg := Config{
		CapacityWh:          5000,
		ChargeEfficiency:    0.95,
		DischargeEfficiency: 0.9,
		SelfDischarge:       0.5,
		MaxPowerW:           8000,
	}
	s, err := New(cfg, rng)
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		s.Step((rng.Float64()*2 - 1) * 30000)
		require.GreaterOrEqual(t, s.Charge(), 0.0)
		require.LessOrEqual(t, s.Charge(), cfg.CapacityWh)
		require.GreaterOrEqual(t, s.RelativeCharge(), 0.0)
		require.LessOrEqual(t, s.RelativeCharge(), 1.0)
	}
}

func TestStorage_RandomInitialCharge(t *testing.T) {
	a, err := New(idealConfig, rand.New(rand.NewPCG(3, 0)))
	require.NoError(t, err)
	b, err := New(idealConfig, rand.New(rand.NewPCG(3, 0)))
	require.NoError(t, err)

	assert.Equal(t, a.Charge(), b.Charge())
	assert.GreaterOrEqual(t, a.Charge(), 0.0)
	assert.LessOrEqual(t, a.Charge(), idealConfig.CapacityWh)
}

func TestStorage_History(t *testing.T) {
	cfg := idealConfig
	cfg.History = 2
	s := newStorage(t, cfg, 0)

	s.Step(400)
	s.Step(400)
	s.Step(400)

	assert.Equal(t, []float64{200, 300}, s.ChargeHistory())
	assert.Len(t, s.LossHistory(), 2)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.CapacityWh = 0 }},
		{"negative capacity", func(c *Config) { c.CapacityWh = -1 }},
		{"charge efficiency above one", func(c *Config) { c.ChargeEfficiency = 1.1 }},
		{"negative discharge efficiency", func(c *Config) { c.DischargeEfficiency = -0.1 }},
		{"negative self discharge", func(c *Config) { c.SelfDischarge = -0.01 }},
		{"negative max power", func(c *Config) { c.MaxPowerW = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := idealConfig
			tt.modify(&cfg)
			_, err := New(cfg, nil)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}
