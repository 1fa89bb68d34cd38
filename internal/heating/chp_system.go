package heating

import (
	"fmt"

	"go.uber.org/zap"

	"cellsim/internal/component"
	"cellsim/internal/history"
	"cellsim/internal/storage"
)

const (
	chpSpreadHeating  = 40.0 // K, 60 °C storage against 20 °C rooms
	chpSpreadHotWater = 60.0 // K, hot water against 10 °C cold water
	chpModeHalfWidth  = 0.5  // K
)

// CHPSystem supplies a building from a CHP unit and a peak boiler through a
// hot-water storage and a space-heating storage. CHP heat serves hot water
// first; the boiler feeds the space-heating storage only.
type CHPSystem struct {
	chp      *component.CHP
	boiler   *component.Boiler
	heating  *storage.Storage
	hotWater *storage.Storage
	season   seasonSwitch
	limits   Thresholds
	chpOn    bool
	boilerOn bool
	losses   float64

	genE *history.Buffer
	genT *history.Buffer
}

// NewCHPSystem designs a CHP system for norm heating load qHLN (W) and
// hot-water characteristic number n. The CHP covers a random 30–60 % of qHLN,
// the boiler the rest.
func NewCHPSystem(qHLN, n float64, opts Options) (*CHPSystem, error) {
	if qHLN <= 0 {
		return nil, fmt.Errorf("%w: norm heating load %.1f W must be positive", ErrInvalidParameter, qHLN)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: hot water characteristic number %.2f must be positive", ErrInvalidParameter, n)
	}

	share := 0.45
	if opts.Rand != nil {
		share = 0.3 + opts.Rand.Float64()*0.3
	}
	chpT := share * qHLN
	chp, err := component.NewCHP(chpT, opts.History)
	if err != nil {
		return nil, fmt.Errorf("creating chp: %w", err)
	}
	boiler, err := component.NewBoiler((1-share)*qHLN, opts.History, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("creating boiler: %w", err)
	}

	capWh, volume := storage.HeatingSystemStorage(chpT, chpSpreadHeating, opts.Rand)
	heating, err := storage.New(storage.Config{
		CapacityWh:          capWh,
		ChargeEfficiency:    0.95,
		DischargeEfficiency: 0.95,
		SelfDischarge:       storage.LossParameter(volume, capWh),
		MaxPowerW:           qHLN,
		History:             opts.History,
	}, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("creating heating storage: %w", err)
	}

	hwCapWh := storage.HotWaterStorage(n, chpSpreadHotWater)
	hotWater, err := storage.New(storage.Config{
		CapacityWh:          hwCapWh,
		ChargeEfficiency:    0.95,
		DischargeEfficiency: 0.95,
		SelfDischarge:       0.01,
		MaxPowerW:           hwCapWh / 0.5, // full charge in 30 min
		History:             opts.History,
	}, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("creating hot water storage: %w", err)
	}

	opts.logger().Info("designed chp system",
		zap.Float64("chp_pow_t_w", chpT),
		zap.Float64("chp_pow_e_w", chp.PowerE()),
		zap.Float64("heating_storage_wh", capWh),
		zap.Float64("hot_water_storage_wh", hwCapWh),
		zap.Float64("boiler_pow_t_w", boiler.PowerT()),
	)

	return &CHPSystem{
		chp:      chp,
		boiler:   boiler,
		heating:  heating,
		hotWater: hotWater,
		season:   seasonSwitch{mode: Intermediate, halfWidth: chpModeHalfWidth},
		limits:   CHPThresholds,
		genE:     history.New(opts.History),
		genT:     history.New(opts.History),
	}, nil
}

func (s *CHPSystem) Kind() Kind                        { return KindCHP }
func (s *CHPSystem) system()                           {}
func (s *CHPSystem) Losses() float64                   { return s.losses }
func (s *CHPSystem) Mode() Mode                        { return s.season.mode }
func (s *CHPSystem) CHPOn() bool                       { return s.chpOn }
func (s *CHPSystem) BoilerOn() bool                    { return s.boilerOn }
func (s *CHPSystem) CHP() *component.CHP               { return s.chp }
func (s *CHPSystem) Boiler() *component.Boiler         { return s.boiler }
func (s *CHPSystem) HeatingStorage() *storage.Storage  { return s.heating }
func (s *CHPSystem) HotWaterStorage() *storage.Storage { return s.hotWater }

// control sets the dispatch flags from the storage states. Space-heating
// levels are evaluated first; the hot-water override runs last and only ever
// switches sources on.
func (s *CHPSystem) control() {
	sh := s.heating.RelativeCharge()
	hw := s.hotWater.RelativeCharge()
	lim := s.limits

	switch s.season.mode {
	case Winter:
		switch {
		case sh <= lim.LL:
			s.boilerOn, s.chpOn = true, true
		case sh <= lim.L && !s.chpOn:
			s.boilerOn, s.chpOn = false, true
		case sh >= lim.H && s.boilerOn:
			s.boilerOn, s.chpOn = false, true
		case sh >= lim.HH:
			s.boilerOn, s.chpOn = false, false
		}
		if hw <= lim.LL {
			s.chpOn, s.boilerOn = true, true
		}

	case Intermediate:
		s.boilerOn = false
		if sh <= lim.LL || hw <= lim.LL {
			s.chpOn = true
		} else if sh >= lim.H && hw >= lim.HH {
			s.chpOn = false
		}

	case Summer:
		s.boilerOn = false
		if hw <= lim.LL {
			s.chpOn = true
		} else if hw >= lim.HH {
			s.chpOn = false
		}
	}
}

// Step runs one control cycle. The returned thermal power is the requested
// demand corrected by whatever the storages could not absorb or deliver,
// plus their losses.
func (s *CHPSystem) Step(heatingDemand, hotWaterDemand, _, tHeatLim, tOutMean float64) (powE, powT float64) {
	s.season.update(tHeatLim, tOutMean)
	s.control()

	powE, chpT, _ := s.chp.Step(s.chpOn)
	boilerT, _ := s.boiler.Step(s.boilerOn)

	hwDiff, hwLoss := s.hotWater.Step(chpT - hotWaterDemand)
	supply := hwDiff + boilerT
	diff, loss := s.heating.Step(supply - heatingDemand)
	s.losses = hwLoss + loss

	s.genE.Save(powE)
	s.genT.Save(supply)
	return powE, heatingDemand + hotWaterDemand + diff + s.losses
}

func (s *CHPSystem) GenEHistory() []float64 { return s.genE.Values() }
func (s *CHPSystem) GenTHistory() []float64 { return s.genT.Values() }
