package building

import "cellsim/internal/model"

const (
	heatLimMin = 9.5
	heatLimMax = 17.0
	// meanSteps is the number of steps in the running mean of the outdoor temperature.
	meanSteps = 24 / model.TimeStep
)

// envelope is the lumped single-capacitance thermal model of a building.
type envelope struct {
	resUTrans   float64 // W/K
	cpEff       float64 // Wh/K
	temperature float64 // °C
	nominal     float64 // °C
	heatLim     float64 // °C
	meanOut     float64 // °C
}

// heatLimitTemp estimates the outdoor temperature above which no heating is
// needed from the specific norm heating load, T = 0.05·q + 10.34.
func heatLimitTemp(qHLN, livingArea float64) float64 {
	return min(max(0.05*qHLN/livingArea+10.34, heatLimMin), heatLimMax)
}

func (e *envelope) updateMean(tOut float64) {
	e.meanOut = (meanSteps-1)/meanSteps*e.meanOut + tOut/meanSteps
}

// request is the bang-bang controller output: the heating power that
// covers predicted losses and brings the building to its set point within
// one step, less internal gains.
func (e *envelope) request(gains, tOut float64) float64 {
	heatUp := e.cpEff * (e.nominal - e.temperature) / model.TimeStep
	var loss float64
	if e.temperature >= tOut {
		loss = e.resUTrans * (e.temperature - tOut)
	}
	return max(0, loss+heatUp-gains)
}

// update advances the building temperature for the heat input qIn and
// returns the resulting space heating demand. Cooling is not modelled.
func (e *envelope) update(qIn, tOut float64) float64 {
	cdt := e.cpEff / model.TimeStep
	e.temperature = (qIn + e.resUTrans*tOut + cdt*e.temperature) / (cdt + e.resUTrans)
	return max(0, e.resUTrans*(e.temperature-tOut))
}
