package model

// Balance is the power balance of one tree node for one step, in watts.
type Balance struct {
	GenE  float64 `json:"gen_e"`
	LoadE float64 `json:"load_e"`
	GenT  float64 `json:"gen_t"`
	LoadT float64 `json:"load_t"`
}

// Add returns the component-wise sum of b and o.
func (b Balance) Add(o Balance) Balance {
	return Balance{
		GenE:  b.GenE + o.GenE,
		LoadE: b.LoadE + o.LoadE,
		GenT:  b.GenT + o.GenT,
		LoadT: b.LoadT + o.LoadT,
	}
}

// AddElectrical books a signed electrical power: positive as generation, negative as load.
func (b *Balance) AddElectrical(p float64) {
	if p < 0 {
		b.LoadE -= p
	} else {
		b.GenE += p
	}
}

// CellState is the snapshot a cell keeps of its last step, used by
// pluggable controllers and by observers.
type CellState struct {
	GenE          float64 `json:"gen_e"`
	LoadE         float64 `json:"load_e"`
	GenT          float64 `json:"gen_t"`
	LoadT         float64 `json:"load_t"`
	ContributionE float64 `json:"contribution_e"`
	ContributionT float64 `json:"contribution_t"`
	Fuel          float64 `json:"fuel"`
}
