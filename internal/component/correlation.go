package component

// Biquadratic heat pump correlations in supply temperature ts and outdoor
// temperature to:
//
//	c0 + c1·ts + c2·to + c3·ts·to + c4·ts² + c5·to²
//
// Coefficient sets are selected by nominal thermal power band
// (<18 kW, <35 kW, ≥35 kW) and outdoor temperature band (<7 °C, <10 °C, ≥10 °C).
type coefficients [6]float64

var copCoefficients = [3][3]coefficients{
	{
		{5.398, -0.05601, 0.14818, -0.00185, 0, 0.0008},
		{6.22734, -0.07497, 0.07841, 0, 0, 0},
		{5.59461, -0.0671, 0.17291, -0.00097, 0, -0.00206},
	},
	{
		{4.79304, -0.04132, 0.05651, 0, 0, 0},
		{6.34439, -0.1043, 0.0751, -0.00016, 0.00059, 0},
		{5.07629, -0.04833, 0.09969, -0.00096, 0.00009, 0},
	},
	{
		{6.28133, -0.10087, 0.11251, -0.00097, 0.00056, 0.00069},
		{6.23384, -0.09963, 0.11295, -0.00061, 0.00052, 0},
		{5.0019, -0.04138, 0.10137, -0.00112, 0, 0.00027},
	},
}

var qCoefficients = [3][3]coefficients{
	{
		{1.04213, -0.00234, 0.03152, -0.00019, 0, 0},
		{1.02701, -0.00366, 0.03202, 0.00003, 0, 0},
		{0.81917, -0.00301, 0.0651, -0.00003, 0, -0.00112},
	},
	{
		{1.03825, -0.00223, 0.02272, 0, 0, 0},
		{0.93526, -0.0005, 0.03926, -0.00021, 0, 0},
		{0.79796, 0.00005, 0.05928, -0.00026, 0, -0.00066},
	},
	{
		{1.10902, -0.00478, 0.02136, 0.00019, 0, 0},
		{1.08294, -0.00438, 0.03386, 0, 0, 0},
		{1.10262, -0.00316, 0.0295, -0.00009, 0, 0.00008},
	},
}

func powerBand(powT float64) int {
	switch {
	case powT < 18000:
		return 0
	case powT < 35000:
		return 1
	}
	return 2
}

func temperatureBand(tOut float64) int {
	switch {
	case tOut < 7:
		return 0
	case tOut < 10:
		return 1
	}
	return 2
}

func (c coefficients) eval(tSupply, tOut float64) float64 {
	return c[0] + c[1]*tSupply + c[2]*tOut + c[3]*tSupply*tOut +
		c[4]*tSupply*tSupply + c[5]*tOut*tOut
}

// COP returns the coefficient of performance of a heat pump with nominal
// thermal power powT (W) at outdoor temperature tOut and supply temperature tSupply (°C).
func COP(powT, tOut, tSupply float64) float64 {
	return copCoefficients[powerBand(powT)][temperatureBand(tOut)].eval(tSupply, tOut)
}

// Q returns the thermal output factor relative to nominal power.
func Q(powT, tOut, tSupply float64) float64 {
	return qCoefficients[powerBand(powT)][temperatureBand(tOut)].eval(tSupply, tOut)
}
