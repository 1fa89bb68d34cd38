// Package agent models the electrical and hot-water demand of households
// and businesses following standard load profiles.
package agent

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"cellsim/internal/model"
)

// ErrInvalidType is returned for an agent type the constructor does not accept.
var ErrInvalidType = errors.New("invalid agent type")

// Fitted distribution parameters.
const (
	phhCOCAlpha   = 3.944677863332723
	phhCOCBeta    = 2.638609989052125
	phhCOCScale   = 5.0
	bslCOCShape   = 1.399147113755027
	bslCOCScale   = 1.876519590091970
	apvD1         = 7.025235971695065
	apvD2         = 2205.596792511838
	apvScale      = 0.299704041191481
	apvOffset     = 0.1
	phhAPVShare   = 0.7
	phhAPVMean    = 0.3
	phhAPVStdDev  = 0.025
	cocMaxSamples = 10
)

func spread(rng *rand.Rand) float64 {
	return 0.8 + rng.Float64()*0.4
}

func defaultRand(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return rand.New(rand.NewPCG(1, 1))
	}
	return rng
}

// sampleCOC draws a consumption coefficient in MWh/a. Draws below 1 are
// retried up to cocMaxSamples times and then floored at 1.
func sampleCOC(t model.AgentType, rng *rand.Rand) float64 {
	var dist interface{ Rand() float64 }
	scale := 1.0
	if t == model.PHH {
		dist = distuv.Beta{Alpha: phhCOCAlpha, Beta: phhCOCBeta, Src: rng}
		scale = phhCOCScale
	} else {
		dist = distuv.Gamma{Alpha: bslCOCShape, Beta: 1 / bslCOCScale, Src: rng}
	}

	var coc float64
	for i := 0; i < cocMaxSamples; i++ {
		coc = dist.Rand() * scale
		if coc >= 1 {
			return coc
		}
	}
	return 1
}

// sampleAPVDemand draws the share of consumption a PV plant should cover.
func sampleAPVDemand(t model.AgentType, rng *rand.Rand) float64 {
	roll := rng.Float64()
	demand := spread(rng)
	if t == model.PHH && roll < phhAPVShare {
		return demand * distuv.Normal{Mu: phhAPVMean, Sigma: phhAPVStdDev, Src: rng}.Rand()
	}
	f := distuv.F{D1: apvD1, D2: apvD2, Src: rng}
	return demand * (f.Rand()*apvScale + apvOffset)
}

func hotWaterDemand(coc float64) float64 {
	return (684.7*coc + 314.4) * 1e3 / 8760
}

// Agent is a consumer inside a building.
type Agent struct {
	typ       model.AgentType
	coc       float64
	demandAPV float64
	hwDemand  float64 // mean hot water demand, W
	rng       *rand.Rand
}

// New samples an agent of type t. rng drives both construction and the
// per-step noise; nil selects a fixed seed.
func New(t model.AgentType, rng *rand.Rand) (*Agent, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidType, int(t))
	}
	rng = defaultRand(rng)
	a := &Agent{typ: t, rng: rng}
	a.demandAPV = sampleAPVDemand(t, rng)
	a.coc = sampleCOC(t, rng)
	a.hwDemand = hotWaterDemand(a.coc)
	return a, nil
}

func (a *Agent) Type() model.AgentType { return a.typ }

// COC returns the consumption coefficient in MWh/a.
func (a *Agent) COC() float64 { return a.coc }

// DemandAPV returns the share of consumption a PV plant should cover.
func (a *Agent) DemandAPV() float64 { return a.demandAPV }

// HotWaterDemand returns the mean hot water demand in W.
func (a *Agent) HotWaterDemand() float64 { return a.hwDemand }

// OverwriteCOC replaces the sampled consumption coefficient.
func (a *Agent) OverwriteCOC(coc float64) error {
	if coc <= 0 {
		return fmt.Errorf("consumption coefficient %.3f must be positive", coc)
	}
	a.coc = coc
	a.hwDemand = hotWaterDemand(coc)
	return nil
}

// Step returns the electrical load and the hot water demand in W.
func (a *Agent) Step(slp model.SLP, hwProfile float64) (elec, hotWater float64) {
	elec = a.coc * slp.For(a.typ) * spread(a.rng)
	hotWater = a.hwDemand * spread(a.rng) * hwProfile
	return elec, hotWater
}
