package heating

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellsim/internal/model"
)

var testDesign = Design{
	PowerT:            8000,
	MinWorkingTemp:    -5,
	BoilerPowerT:      10000,
	StorageCapacityWh: 20000,
	StorageSelfLoss:   0.002,
	StorageMaxPowerW:  20000,
}

func newHeatPumpSystem(t *testing.T) *HeatPumpSystem {
	t.Helper()
	s, err := NewHeatPumpSystemFromDesign(testDesign, 35, Options{History: 4})
	require.NoError(t, err)
	return s
}

func TestNewHeatPumpSystem_Sized(t *testing.T) {
	s, err := NewHeatPumpSystem(sizingInput(10000, 4.5), Options{Rand: rand.New(rand.NewPCG(2, 0))})
	require.NoError(t, err)

	assert.Equal(t, KindHeatPump, s.Kind())
	assert.InDelta(t, s.Design().PowerT, s.HeatPump().Config().PowerT, 1e-9)
	assert.InDelta(t, s.Design().MinWorkingTemp, s.HeatPump().Config().MinWorkingTemp, 1e-9)
	assert.InDelta(t, 10000, s.Boiler().PowerT(), 1e-9)
}

func TestNewHeatPumpSystem_PropagatesSizingError(t *testing.T) {
	_, err := NewHeatPumpSystem(sizingInput(100000, 10), Options{})
	assert.ErrorIs(t, err, ErrUnsatisfiableTarget)
}

func TestHeatPumpSystem_WinterControl(t *testing.T) {
	s := newHeatPumpSystem(t)
	s.season.mode = Winter
	capWh := testDesign.StorageCapacityWh

	s.storage.SetCharge(0.005 * capWh)
	s.control()
	assert.True(t, s.BoilerOn())
	assert.InDelta(t, 1, s.Modulation(), 1e-12)

	s.storage.SetCharge(0.03 * capWh)
	s.control()
	assert.True(t, s.BoilerOn(), "boiler holds until L is passed")

	s.storage.SetCharge(0.1 * capWh)
	s.control()
	assert.False(t, s.BoilerOn())
	assert.InDelta(t, 1, s.Modulation(), 1e-12, "heat pump keeps charging")

	s.storage.SetCharge(0.96 * capWh)
	s.control()
	assert.Zero(t, s.Modulation())

	s.storage.SetCharge(0.5 * capWh)
	s.control()
	assert.Zero(t, s.Modulation(), "no restart above L")
}

func TestHeatPumpSystem_IntermediateAndSummerControl(t *testing.T) {
	s := newHeatPumpSystem(t)
	capWh := testDesign.StorageCapacityWh

	s.season.mode = Intermediate
	s.boilerOn = true
	s.storage.SetCharge(0.005 * capWh)
	s.control()
	assert.False(t, s.BoilerOn())
	assert.InDelta(t, 1, s.Modulation(), 1e-12)

	s.storage.SetCharge(0.15 * capWh)
	s.control()
	assert.InDelta(t, 1, s.Modulation(), 1e-12)

	s.storage.SetCharge(0.25 * capWh)
	s.control()
	assert.Zero(t, s.Modulation())

	s.season.mode = Summer
	s.storage.SetCharge(0.005 * capWh)
	s.control()
	assert.InDelta(t, 0.2, s.Modulation(), 1e-12)

	s.storage.SetCharge(0.06 * capWh)
	s.control()
	assert.Zero(t, s.Modulation())
}

func TestHeatPumpSystem_StepConsumesElectricity(t *testing.T) {
	s := newHeatPumpSystem(t)
	s.storage.SetCharge(0)

	powE, _ := s.Step(3000, 200, 2, 15, 0)

	assert.Equal(t, Winter, s.Mode())
	assert.Less(t, powE, 0.0)
	assert.True(t, s.BoilerOn())
}

func TestHeatPumpSystem_DeliveredHeatMatchesSourcesAndStorage(t *testing.T) {
	s := newHeatPumpSystem(t)
	rng := rand.New(rand.NewPCG(8, 0))

	for i := 0; i < 500; i++ {
		before := s.storage.Charge()
		tOut := -10 + rng.Float64()*30

		_, delivered := s.Step(rng.Float64()*9000, rng.Float64()*800, tOut, 15, tOut)

		genT := s.GenTHistory()
		stored := (s.storage.Charge() - before) / model.TimeStep
		assert.InDelta(t, genT[len(genT)-1]-stored, delivered, 1e-6)
	}
}
